// Package metrics turns pipeline and cache events into statsd emissions.
package metrics

import (
	"time"

	obserrors "github.com/target/mmk-user-module/internal/observability/errors"
	"github.com/target/mmk-user-module/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metric names.
const (
	RequestCount    = "pipeline.request"
	RequestDuration = "pipeline.duration"
	CacheHit        = "usercache.hit"
	CacheMiss       = "usercache.miss"
	CacheSkip       = "usercache.skip"
)

// RequestMetric captures one pipeline call for metric emission.
type RequestMetric struct {
	Method   string
	Route    string
	Result   string
	Status   int
	Duration time.Duration
	Err      error
}

// EmitRequest emits the request counter and, when a duration is known, its timing.
// Route should be a templated path so ids do not explode tag cardinality.
func EmitRequest(sink statsd.Sink, in RequestMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"method": in.Method,
		"route":  in.Route,
		"result": in.Result,
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count(RequestCount, 1, tags)

	if in.Duration > 0 {
		sink.Timing(RequestDuration, in.Duration, CloneTags(tags))
	}
}

// EmitCacheLookup records a cache hit or miss.
func EmitCacheLookup(sink statsd.Sink, hit bool) {
	if sink == nil {
		return
	}
	if hit {
		sink.Count(CacheHit, 1, nil)
		return
	}
	sink.Count(CacheMiss, 1, nil)
}

// EmitCacheSkips records records dropped by a bulk upsert for lack of a usable id.
func EmitCacheSkips(sink statsd.Sink, skipped int) {
	if sink == nil || skipped <= 0 {
		return
	}
	sink.Count(CacheSkip, int64(skipped), nil)
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
