// Package pipeline is the single outbound path to the user backend. Every call is
// decorated with the stored credentials on the way out, and every outcome is either a
// decoded payload or a normalized *errors.AppError on the way back.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/http/httpguts"
	"golang.org/x/net/publicsuffix"

	apperrors "github.com/target/mmk-user-module/internal/errors"
	"github.com/target/mmk-user-module/internal/observability/statsd"
	"github.com/target/mmk-user-module/internal/session"
)

// Header names set on outbound requests.
const (
	HeaderAuthorization = "Authorization"
	HeaderFingerprint   = "X-Client-Fingerprint"
	HeaderRequestID     = "X-Request-ID"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseBody = 8 << 20
)

// Config parameterizes a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	LoginPaths []string
	UserAgent  string
}

// Deps are the optional collaborators of a Client.
type Deps struct {
	HTTPClient *http.Client
	Metrics    statsd.Sink
	Logger     *slog.Logger
	Probe      ConnectivityProbe
}

// Options groups the inputs of New.
type Options struct {
	Config  Config
	Session *session.Store
	Deps    Deps
}

// Request describes one backend call. Path is relative to the base URL; a leading slash
// is optional.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// UnauthorizedHook runs after a 401 has cleared the stored session.
type UnauthorizedHook func(ctx context.Context)

// Client is the request pipeline. It holds no per-call state; the session store is the
// only shared mutable resource it touches.
type Client struct {
	base       *url.URL
	timeout    time.Duration
	loginPaths []string
	userAgent  string

	session *session.Store
	http    *http.Client
	metrics statsd.Sink
	logger  *slog.Logger
	probe   ConnectivityProbe

	hooksMu sync.RWMutex
	hooks   []UnauthorizedHook
}

// New constructs a Client. It fails on an unusable base URL.
func New(opts Options) (*Client, error) {
	if opts.Session == nil {
		panic("pipeline requires a session store")
	}

	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.Config.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", opts.Config.BaseURL)
	}

	timeout := opts.Config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	deps := opts.Deps
	if deps.HTTPClient == nil {
		deps.HTTPClient = NewHTTPClient()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Probe == nil {
		deps.Probe = InterfaceProbe{}
	}

	return &Client{
		base:       base,
		timeout:    timeout,
		loginPaths: opts.Config.LoginPaths,
		userAgent:  opts.Config.UserAgent,
		session:    opts.Session,
		http:       deps.HTTPClient,
		metrics:    deps.Metrics,
		logger:     deps.Logger.With("component", "pipeline"),
		probe:      deps.Probe,
	}, nil
}

// NewHTTPClient returns an http.Client with a cookie jar scoped by the public suffix list.
func NewHTTPClient() *http.Client {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return &http.Client{}
	}
	return &http.Client{Jar: jar}
}

// OnUnauthorized registers a hook run after every 401.
func (c *Client) OnUnauthorized(hook UnauthorizedHook) {
	if hook == nil {
		return
	}
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Do performs req and decodes the unwrapped payload into out (which may be nil).
// Every failure is an *errors.AppError. There are no retries.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	start := time.Now()
	status, err := c.do(ctx, req, out)
	c.observe(ctx, req, status, time.Since(start), err)
	if err != nil {
		return err
	}
	return nil
}

func (c *Client) do(ctx context.Context, req Request, out any) (int, *apperrors.AppError) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, appErr := c.prepare(callCtx, req)
	if appErr != nil {
		return 0, appErr
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, c.transportError(ctx, err)
	}

	return resp.StatusCode, c.handleResponse(ctx, resp, body, out)
}

// prepare runs the outbound phase. Any failure here happens before network I/O.
func (c *Client) prepare(ctx context.Context, req Request) (*http.Request, *apperrors.AppError) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	target, err := c.resolve(req)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.KindRequest, "invalid request path %q", req.Path)
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.KindRequest, "could not encode request body")
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindRequest, "could not build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	httpReq.Header.Set(HeaderRequestID, requestID(ctx))

	if appErr := c.authorize(ctx, httpReq, req.Path); appErr != nil {
		return nil, appErr
	}
	return httpReq, nil
}

// authorize injects the token and, off the login paths, the client fingerprint.
// A token cleared concurrently simply reads as absent.
var errInvalidHeaderValue = errors.New("value contains characters not allowed in a header")

func (c *Client) authorize(ctx context.Context, httpReq *http.Request, path string) *apperrors.AppError {
	token, err := c.session.Token(ctx)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindRequest, "could not read the stored session")
	}
	if token == "" {
		return nil
	}
	if !httpguts.ValidHeaderFieldValue(token) {
		return apperrors.Wrap(errInvalidHeaderValue, apperrors.KindRequest, "stored token cannot be sent as a request header")
	}
	httpReq.Header.Set(HeaderAuthorization, "Bearer "+token)

	if c.isLoginPath(path) {
		return nil
	}

	info, err := c.session.UserInfo(ctx)
	switch {
	case err != nil && isMalformed(err):
		return apperrors.Fingerprint("client fingerprint could not be read from the stored user info", err)
	case err != nil:
		return apperrors.Wrap(err, apperrors.KindRequest, "could not read the stored session")
	case info == nil:
		return apperrors.Fingerprint("no stored user info to read the client fingerprint from", nil)
	case !info.HasFingerprint():
		return apperrors.Fingerprint("client fingerprint missing from the stored user info", nil)
	case !httpguts.ValidHeaderFieldValue(info.ClientFingerprint):
		return apperrors.Fingerprint("client fingerprint cannot be sent as a request header", errInvalidHeaderValue)
	}
	httpReq.Header.Set(HeaderFingerprint, info.ClientFingerprint)
	return nil
}

func (c *Client) isLoginPath(path string) bool {
	p := path
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimRight(p, "/")
	for _, lp := range c.loginPaths {
		if lp != "" && strings.HasSuffix(p, lp) {
			return true
		}
	}
	return false
}

func (c *Client) resolve(req Request) (string, error) {
	rel, err := url.Parse(strings.TrimLeft(strings.TrimSpace(req.Path), "/"))
	if err != nil {
		return "", err
	}
	if rel.IsAbs() || rel.Host != "" {
		return "", fmt.Errorf("path must be relative to the base url")
	}

	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + rel.Path
	u.RawPath = strings.TrimRight(c.base.EscapedPath(), "/") + "/" + rel.EscapedPath()

	q := rel.Query()
	for k, vs := range req.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) invalidate(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	if err := c.session.Clear(ctx); err != nil {
		c.logger.ErrorContext(ctx, "failed to clear session after 401", "error", err)
	}

	c.hooksMu.RLock()
	hooks := make([]UnauthorizedHook, len(c.hooks))
	copy(hooks, c.hooks)
	c.hooksMu.RUnlock()

	for _, hook := range hooks {
		hook(ctx)
	}
}

type requestIDKey struct{}

// WithRequestID makes every call made with ctx carry id instead of a fresh one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
