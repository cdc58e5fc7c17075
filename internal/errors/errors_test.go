package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Kind:    KindHTTP,
				Message: "operation failed",
			},
			want: "operation failed",
		},
		{
			name: "error with cause",
			err: &AppError{
				Kind:    KindNetwork,
				Message: "request timed out",
				Cause:   ErrTimeout,
			},
			want: "request timed out: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := Network("no connection", ErrOffline)
	wrapped := fmt.Errorf("list users: %w", err)

	assert.ErrorIs(t, wrapped, ErrOffline)
	assert.NotErrorIs(t, wrapped, ErrTimeout)
	assert.True(t, IsNetwork(wrapped))
}

func TestAppError_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "business failure carries status and code",
			err:  HTTP(200, "x", CodePtr(500)),
			want: `{"success":false,"status":200,"message":"x","code":500}`,
		},
		{
			name: "network failure omits status and code",
			err:  Network("unable to reach the server", ErrUnreachable),
			want: `{"success":false,"message":"unable to reach the server"}`,
		},
		{
			name: "unauthorized",
			err:  Unauthorized(401, "expired", CodePtr(401)),
			want: `{"success":false,"status":401,"message":"expired","code":401}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.err)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestKindPredicates(t *testing.T) {
	unauthorized := Unauthorized(401, "expired", nil)
	assert.True(t, IsUnauthorized(unauthorized))
	assert.True(t, IsHTTP(unauthorized))
	assert.False(t, IsPreflight(unauthorized))

	validation := ValidationField("banStatus", "invalid ban status")
	assert.True(t, IsValidation(validation))
	assert.True(t, IsPreflight(validation))
	assert.Equal(t, "banStatus", GetField(validation))

	fingerprint := Fingerprint("fingerprint unavailable", nil)
	assert.True(t, IsFingerprint(fingerprint))
	assert.True(t, IsPreflight(fingerprint))
	assert.Equal(t, KindFingerprint, GetKind(fingerprint))

	assert.Equal(t, Kind(""), GetKind(errors.New("plain")))
	assert.Empty(t, GetField(errors.New("plain")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, KindRequest, "ignored"))

	cause := errors.New("boom")
	err := Wrapf(cause, KindRequest, "encode body for %s", "/user/me")
	assert.Equal(t, "encode body for /user/me: boom", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestNormalize(t *testing.T) {
	assert.Nil(t, Normalize(nil))

	original := Validation("missing id")
	assert.Same(t, original, Normalize(fmt.Errorf("wrapped: %w", original)))

	plain := Normalize(errors.New("boom"))
	require.NotNil(t, plain)
	assert.Equal(t, KindRequest, plain.Kind)
	assert.Zero(t, plain.Status)
	assert.Nil(t, plain.Code)
}
