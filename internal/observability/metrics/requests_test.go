package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/mmk-user-module/internal/errors"
	"github.com/target/mmk-user-module/internal/observability/statsd"
)

func TestEmitRequest(t *testing.T) {
	t.Parallel()

	rec := &statsd.Recorder{}
	EmitRequest(rec, RequestMetric{
		Method:   "GET",
		Route:    "/user/me",
		Result:   ResultError,
		Status:   401,
		Duration: 20 * time.Millisecond,
		Err:      apperrors.Unauthorized(401, "expired", nil),
	})

	counts := rec.Named(RequestCount)
	require.Len(t, counts, 1)
	assert.Equal(t, "unauthorized", counts[0].Tags["error_class"])
	assert.Equal(t, "GET", counts[0].Tags["method"])

	timings := rec.Named(RequestDuration)
	require.Len(t, timings, 1)
	assert.InDelta(t, 20, timings[0].Value, 0.001)
}

func TestEmitRequestSuccessOmitsErrorClass(t *testing.T) {
	t.Parallel()

	rec := &statsd.Recorder{}
	EmitRequest(rec, RequestMetric{Method: "PATCH", Route: "/user/me", Result: ResultSuccess})

	counts := rec.Named(RequestCount)
	require.Len(t, counts, 1)
	assert.NotContains(t, counts[0].Tags, "error_class")
	assert.Empty(t, rec.Named(RequestDuration))
}

func TestEmitCache(t *testing.T) {
	t.Parallel()

	rec := &statsd.Recorder{}
	EmitCacheLookup(rec, true)
	EmitCacheLookup(rec, false)
	EmitCacheLookup(rec, false)
	EmitCacheSkips(rec, 0)
	EmitCacheSkips(rec, 2)

	assert.Len(t, rec.Named(CacheHit), 1)
	assert.Len(t, rec.Named(CacheMiss), 2)
	skips := rec.Named(CacheSkip)
	require.Len(t, skips, 1)
	assert.InDelta(t, 2, skips[0].Value, 0)

	EmitCacheLookup(nil, true)
}

func TestCloneTags(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CloneTags(nil))
	src := map[string]string{"a": "1"}
	dst := CloneTags(src)
	dst["a"] = "2"
	assert.Equal(t, "1", src["a"])
}
