package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/target/mmk-user-module/internal/errors"
)

// Classify returns a normalized error class suitable for tagging metrics/logs.
// Normalized pipeline errors are classified by kind (e.g. "network_timeout", "http");
// anything else is unwrapped to its innermost concrete type name in snake_case-ish form.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var appErr *apperrors.AppError
	if goerrors.As(err, &appErr) {
		return classifyAppError(appErr)
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}

func classifyAppError(err *apperrors.AppError) string {
	kind := string(err.Kind)
	if kind == "" {
		kind = "unknown"
	}
	if err.Kind != apperrors.KindNetwork {
		return kind
	}
	switch {
	case goerrors.Is(err, apperrors.ErrTimeout):
		return kind + "_timeout"
	case goerrors.Is(err, apperrors.ErrOffline):
		return kind + "_offline"
	case goerrors.Is(err, apperrors.ErrCanceled):
		return kind + "_canceled"
	default:
		return kind + "_unreachable"
	}
}
