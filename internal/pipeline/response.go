package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"time"

	apperrors "github.com/target/mmk-user-module/internal/errors"
	"github.com/target/mmk-user-module/internal/observability/metrics"
	"github.com/target/mmk-user-module/internal/session"
)

// SuccessCode is the envelope code that marks a business success.
const SuccessCode = 200

// User-facing messages of the normalized errors.
const (
	MsgBusinessFailure = "operation failed"
	MsgUnauthorized    = "login session expired or access denied, please sign in again"
	MsgTimeout         = "request timed out, check your network or retry later"
	MsgOffline         = "network connection lost, check your network settings"
	MsgUnreachable     = "unable to reach the server, retry later"
	MsgCanceled        = "request canceled"
	MsgBadPayload      = "unexpected response payload"
)

// envelope is the backend wrapper {code, message, data}. Every field is optional;
// a missing code counts as success.
type envelope struct {
	Code *int
	// BadCode holds a code that is present but not an integer. It never matches SuccessCode.
	BadCode json.RawMessage
	Message string
	Data    json.RawMessage
	HasData bool
}

func (e envelope) failed() bool {
	return e.BadCode != nil || (e.Code != nil && *e.Code != SuccessCode)
}

// parseEnvelope decodes body as an envelope. ok is false when body is not a JSON object.
func parseEnvelope(body []byte) (env envelope, ok bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return envelope{}, false
	}
	if raw, found := fields["code"]; found && !bytes.Equal(raw, []byte("null")) {
		var code int
		if err := json.Unmarshal(raw, &code); err == nil {
			env.Code = &code
		} else {
			env.BadCode = raw
		}
	}
	if raw, found := fields["message"]; found {
		_ = json.Unmarshal(raw, &env.Message)
	}
	env.Data, env.HasData = fields["data"]
	return env, true
}

func (c *Client) handleResponse(ctx context.Context, resp *http.Response, body []byte, out any) *apperrors.AppError {
	status := resp.StatusCode
	trimmed := bytes.TrimSpace(body)
	env, isEnvelope := parseEnvelope(trimmed)

	switch {
	case status == http.StatusUnauthorized:
		c.invalidate(ctx)
		msg := MsgUnauthorized
		if env.Message != "" {
			msg = env.Message
		}
		code := apperrors.CodePtr(http.StatusUnauthorized)
		if env.Code != nil && *env.Code != 0 {
			code = env.Code
		}
		c.logger.WarnContext(ctx, "session rejected by backend, cleared local session", "status", status)
		return apperrors.Unauthorized(status, msg, code)

	case status < 200 || status > 299:
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("request failed with status code %d (%s)", status, http.StatusText(status))
		}
		return apperrors.HTTP(status, msg, env.Code)
	}

	if len(trimmed) == 0 {
		return nil
	}

	if isEnvelope && env.failed() {
		msg := env.Message
		if msg == "" {
			msg = MsgBusinessFailure
		}
		appErr := apperrors.HTTP(status, msg, env.Code)
		if env.BadCode != nil {
			appErr.Cause = fmt.Errorf("envelope code %s is not an integer", env.BadCode)
		}
		return appErr
	}

	if out == nil {
		return nil
	}

	payload := trimmed
	if isEnvelope && (env.Code != nil || env.HasData) {
		payload = env.Data
		if !env.HasData {
			return nil
		}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &apperrors.AppError{
			Kind:    apperrors.KindHTTP,
			Message: MsgBadPayload,
			Status:  status,
			Cause:   err,
		}
	}
	return nil
}

// transportError classifies a call that produced no usable response.
func (c *Client) transportError(parent context.Context, err error) *apperrors.AppError {
	if errors.Is(parent.Err(), context.Canceled) {
		return apperrors.Network(MsgCanceled, errors.Join(apperrors.ErrCanceled, err))
	}
	if isTimeout(err) {
		return apperrors.Network(MsgTimeout, errors.Join(apperrors.ErrTimeout, err))
	}
	if !c.probe.Online() {
		return apperrors.Network(MsgOffline, errors.Join(apperrors.ErrOffline, err))
	}
	return apperrors.Network(MsgUnreachable, errors.Join(apperrors.ErrUnreachable, err))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isMalformed(err error) bool {
	return errors.Is(err, session.ErrMalformedUserInfo)
}

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// routeOf templates numeric path segments so metric tags stay bounded.
func routeOf(path string) string {
	p := "/" + trimSlashes(path)
	for numericSegment.MatchString(p) {
		p = numericSegment.ReplaceAllString(p, "/:id$1")
	}
	return p
}

func trimSlashes(s string) string {
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func (c *Client) observe(ctx context.Context, req Request, status int, elapsed time.Duration, err *apperrors.AppError) {
	result := metrics.ResultSuccess
	var metricErr error
	if err != nil {
		result = metrics.ResultError
		metricErr = err
	}
	route := routeOf(req.Path)
	metrics.EmitRequest(c.metrics, metrics.RequestMetric{
		Method:   req.Method,
		Route:    route,
		Result:   result,
		Status:   status,
		Duration: elapsed,
		Err:      metricErr,
	})

	attrs := []any{"method", req.Method, "route", route, "status", status, "duration_ms", elapsed.Milliseconds()}
	if err != nil {
		c.logger.DebugContext(ctx, "request failed", append(attrs, "kind", err.Kind, "error", err.Error())...)
		return
	}
	c.logger.DebugContext(ctx, "request completed", attrs...)
}
