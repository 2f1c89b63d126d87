package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobhunter/internal/db/dbtest"
	"github.com/jonathan/jobhunter/internal/types"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func posting(platform types.Platform, id string) *types.Posting {
	return &types.Posting{Platform: platform, PlatformID: id, Title: "T " + id, Company: "C"}
}

func newAdapter(t *testing.T) (*Adapter, *dbtest.Memory, *clock) {
	t.Helper()
	store := dbtest.NewMemory()
	c := &clock{t: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New(store, WithClock(c.now)), store, c
}

func keys(ps []*types.Posting) []types.PostingKey {
	out := make([]types.PostingKey, len(ps))
	for i, p := range ps {
		out[i] = p.Key()
	}
	return out
}

func TestFilterUnapplied_SetDifferenceByKey(t *testing.T) {
	a, _, _ := newAdapter(t)
	ctx := context.Background()

	require.NoError(t, a.MarkApplied(ctx, posting(types.PlatformLinkedIn, "1"), types.MethodEmail))
	_, err := a.Save(ctx, posting(types.PlatformLinkedIn, "2"))
	require.NoError(t, err)

	candidates := []*types.Posting{
		posting(types.PlatformLinkedIn, "1"), // distinct pointer, same key
		posting(types.PlatformLinkedIn, "2"), // saved but unapplied
		posting(types.PlatformKariyer, "1"),  // same id, other platform
		posting(types.PlatformLinkedIn, "3"),
	}

	got, err := a.FilterUnapplied(ctx, candidates)
	require.NoError(t, err)
	assert.Equal(t, []types.PostingKey{
		{Platform: types.PlatformLinkedIn, PlatformID: "2"},
		{Platform: types.PlatformKariyer, PlatformID: "1"},
		{Platform: types.PlatformLinkedIn, PlatformID: "3"},
	}, keys(got))

	again, err := a.FilterUnapplied(ctx, candidates)
	require.NoError(t, err)
	assert.Equal(t, keys(got), keys(again))
}

func TestFilterUnapplied_StoreError(t *testing.T) {
	a, store, _ := newAdapter(t)
	store.Err = errors.New("db down")

	_, err := a.FilterUnapplied(context.Background(), []*types.Posting{posting(types.PlatformLinkedIn, "1")})
	require.Error(t, err)
}

func TestSave_TwiceThenMarkApplied(t *testing.T) {
	a, store, _ := newAdapter(t)
	ctx := context.Background()
	p := posting(types.PlatformLinkedIn, "9")

	inserted, err := a.Save(ctx, p)
	require.NoError(t, err)
	assert.True(t, inserted)

	changed := posting(types.PlatformLinkedIn, "9")
	changed.Title = "Overwrite attempt"
	inserted, err = a.Save(ctx, changed)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, a.MarkApplied(ctx, p, types.MethodInlineApply))
	assert.Equal(t, 1, store.Len())

	got, ok := store.Get(p.Key())
	require.True(t, ok)
	assert.True(t, got.Applied)
	assert.Equal(t, "T 9", got.Title)
	assert.Equal(t, types.MethodInlineApply, got.ApplicationMethod)
}

func TestSave_NeverOverwritesApplied(t *testing.T) {
	a, store, _ := newAdapter(t)
	ctx := context.Background()
	p := posting(types.PlatformLinkedIn, "5")
	require.NoError(t, a.MarkApplied(ctx, p, types.MethodEmail))

	_, err := a.Save(ctx, posting(types.PlatformLinkedIn, "5"))
	require.NoError(t, err)

	got, _ := store.Get(p.Key())
	assert.True(t, got.Applied)
}

func TestMarkApplied_UnknownKeyInsertsApplied(t *testing.T) {
	a, store, c := newAdapter(t)
	p := posting(types.PlatformKariyer, "77")

	require.NoError(t, a.MarkApplied(context.Background(), p, types.MethodEmail))

	got, ok := store.Get(p.Key())
	require.True(t, ok)
	assert.True(t, got.Applied)
	require.NotNil(t, got.AppliedAt)
	assert.Equal(t, c.t, *got.AppliedAt)
	assert.True(t, p.Applied)
	assert.Equal(t, types.MethodEmail, p.ApplicationMethod)
}

func TestMarkApplied_TwiceIsFirstWriteWins(t *testing.T) {
	a, store, c := newAdapter(t)
	ctx := context.Background()
	p := posting(types.PlatformLinkedIn, "1")
	first := c.t

	require.NoError(t, a.MarkApplied(ctx, p, types.MethodEmail))
	c.t = c.t.Add(3 * time.Hour)
	second := posting(types.PlatformLinkedIn, "1")
	require.NoError(t, a.MarkApplied(ctx, second, types.MethodInlineApply))

	assert.Equal(t, 1, store.Len())
	got, _ := store.Get(p.Key())
	assert.True(t, got.Applied)
	assert.Equal(t, first, *got.AppliedAt)
	assert.Equal(t, types.MethodEmail, got.ApplicationMethod)

	// The caller's copy reflects the stored state.
	assert.Equal(t, first, *second.AppliedAt)
	assert.Equal(t, types.MethodEmail, second.ApplicationMethod)
}

func TestIsApplied_UsesCacheThenStore(t *testing.T) {
	store := dbtest.NewMemory()
	cache := dbtest.NewMemoryCache()
	a := New(store, WithSeenCache(cache))
	ctx := context.Background()
	p := posting(types.PlatformLinkedIn, "1")

	applied, err := a.IsApplied(ctx, p.Key())
	require.NoError(t, err)
	assert.False(t, applied)

	require.NoError(t, a.MarkApplied(ctx, p, types.MethodEmail))
	seen, _ := cache.Seen(ctx, p.Key())
	assert.True(t, seen)

	// Store errors are masked by a cache hit.
	store.Err = errors.New("db down")
	applied, err = a.IsApplied(ctx, p.Key())
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestIsApplied_CacheFailureFallsThrough(t *testing.T) {
	store := dbtest.NewMemory()
	cache := dbtest.NewMemoryCache()
	cache.Err = errors.New("redis down")
	a := New(store, WithSeenCache(cache))
	ctx := context.Background()
	p := posting(types.PlatformLinkedIn, "1")

	require.NoError(t, a.MarkApplied(ctx, p, types.MethodEmail))
	applied, err := a.IsApplied(ctx, p.Key())
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestRecordFailure(t *testing.T) {
	a, store, _ := newAdapter(t)
	ctx := context.Background()
	p := posting(types.PlatformLinkedIn, "3")

	require.NoError(t, a.RecordFailure(ctx, p, "stuck: no progress control"))
	got, ok := store.Get(p.Key())
	require.True(t, ok)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "stuck: no progress control", *got.Notes)
	assert.False(t, got.Applied)

	require.NoError(t, a.MarkApplied(ctx, p, types.MethodInlineApply))
	require.NoError(t, a.RecordFailure(ctx, p, "later"))
	got, _ = store.Get(p.Key())
	assert.Equal(t, "stuck: no progress control", *got.Notes)
}

func TestRecordAttempt_StampsTime(t *testing.T) {
	a, store, c := newAdapter(t)
	rec := &types.ApplicationRecord{Key: types.PostingKey{Platform: types.PlatformLinkedIn, PlatformID: "1"}, Method: types.MethodEmail, Successful: true}

	require.NoError(t, a.RecordAttempt(context.Background(), rec))
	require.Len(t, store.Applications, 1)
	assert.Equal(t, c.t, store.Applications[0].AttemptedAt)
	assert.NotEmpty(t, store.Applications[0].ID)
}

func TestRecent(t *testing.T) {
	a, _, c := newAdapter(t)
	ctx := context.Background()

	c.t = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, a.MarkApplied(ctx, posting(types.PlatformLinkedIn, "old"), types.MethodEmail))
	c.t = time.Date(2026, 6, 9, 0, 0, 0, 0, time.UTC)
	require.NoError(t, a.MarkApplied(ctx, posting(types.PlatformLinkedIn, "new"), types.MethodEmail))
	c.t = time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)

	recent, err := a.Recent(ctx, 7)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "new", recent[0].PlatformID)

	all, err := a.Recent(ctx, 30)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0].PlatformID)
}
