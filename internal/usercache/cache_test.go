package usercache

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-user-module/internal/domain/model"
	"github.com/target/mmk-user-module/internal/observability/metrics"
	"github.com/target/mmk-user-module/internal/observability/statsd"
)

func TestUpsertMany_SkipsUnusableIDs(t *testing.T) {
	t.Parallel()

	rec := &statsd.Recorder{}
	c := New(Options{Size: 10, Metrics: rec})

	var users []model.User
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":1,"username":"a"},
		{"id":null,"username":"b"},
		{"id":"3","username":"c"},
		{"id":"x9","username":"d"},
		{"username":"e"}
	]`), &users))

	skipped := c.UpsertMany(users)
	assert.Equal(t, 3, skipped)
	assert.Equal(t, 2, c.Len())

	u, ok := c.Get(3)
	require.True(t, ok)
	assert.Equal(t, "c", u.Username)

	skips := rec.Named(metrics.CacheSkip)
	require.Len(t, skips, 1)
	assert.InDelta(t, 3, skips[0].Value, 0)
}

func TestGet_CoercesIDs(t *testing.T) {
	t.Parallel()

	c := New(Options{})
	assert.True(t, c.Upsert(model.User{ID: model.IDFrom(7), Username: "ann"}))

	for _, id := range []any{7, int64(7), "7", " 7 ", float64(7), json.Number("7"), model.ID("7")} {
		u, ok := c.Get(id)
		assert.True(t, ok, "%#v", id)
		assert.Equal(t, "ann", u.Username)
	}

	for _, id := range []any{nil, "", "7abc", 7.5, true, "abc"} {
		_, ok := c.Get(id)
		assert.False(t, ok, "%#v", id)
	}
}

func TestUpsert_ReplacesExisting(t *testing.T) {
	t.Parallel()

	c := New(Options{})
	c.Upsert(model.User{ID: "7", Username: "old"})
	c.Upsert(model.User{ID: "7", Username: "new"})

	u, ok := c.Get("7")
	require.True(t, ok)
	assert.Equal(t, "new", u.Username)
	assert.Equal(t, 1, c.Len())

	assert.False(t, c.Upsert(model.User{Username: "no id"}))
}

func TestRemoveAndClear(t *testing.T) {
	t.Parallel()

	c := New(Options{})
	c.UpsertMany([]model.User{{ID: "1"}, {ID: "2"}, {ID: "3"}})

	c.Remove("2")
	c.Remove("bogus")
	_, ok := c.Get(2)
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())

	c.Clear()
	assert.Zero(t, c.Len())
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c := New(Options{Size: 2})
	c.UpsertMany([]model.User{{ID: "1"}, {ID: "2"}})
	_, _ = c.Get(1)
	c.Upsert(model.User{ID: "3"})

	_, ok := c.Get(2)
	assert.False(t, ok)
	_, ok = c.Get(1)
	assert.True(t, ok)
}

func TestGet_EmitsHitAndMiss(t *testing.T) {
	t.Parallel()

	rec := &statsd.Recorder{}
	c := New(Options{Metrics: rec})
	c.Upsert(model.User{ID: "1"})

	_, _ = c.Get(1)
	_, _ = c.Get(2)
	_, _ = c.Get("bad")

	assert.Len(t, rec.Named(metrics.CacheHit), 1)
	assert.Len(t, rec.Named(metrics.CacheMiss), 2)
}
