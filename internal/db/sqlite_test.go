package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobhunter/internal/types"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "jobhunter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func samplePosting(id string) *types.Posting {
	return &types.Posting{
		Platform:     types.PlatformLinkedIn,
		PlatformID:   id,
		Title:        "Go Engineer",
		Company:      "Acme",
		Location:     "Istanbul",
		Description:  "Write Go",
		URL:          "https://www.linkedin.com/jobs/view/" + id,
		ContactEmail: "hr@acme.io",
		ScrapedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestOpenSQLite_Schema(t *testing.T) {
	s := openTestSQLite(t)

	v, err := userVersion(s.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestOpenSQLite_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobhunter.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	_, err = s.InsertIfAbsent(ctx, samplePosting("1"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()
	p, err := s2.FindByKey(ctx, types.PostingKey{Platform: types.PlatformLinkedIn, PlatformID: "1"})
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestSQLite_FindByKeyMissing(t *testing.T) {
	s := openTestSQLite(t)
	p, err := s.FindByKey(context.Background(), types.PostingKey{Platform: types.PlatformKariyer, PlatformID: "x"})
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestSQLite_InsertIfAbsent(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	inserted, err := s.InsertIfAbsent(ctx, samplePosting("42"))
	require.NoError(t, err)
	assert.True(t, inserted)

	dup := samplePosting("42")
	dup.Title = "Changed"
	inserted, err = s.InsertIfAbsent(ctx, dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := s.FindByKey(ctx, dup.Key())
	require.NoError(t, err)
	assert.Equal(t, "Go Engineer", got.Title)
	assert.Equal(t, types.MethodNone, got.ApplicationMethod)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), got.ScrapedAt)
	assert.True(t, got.PostedAt.IsZero())
	assert.Nil(t, got.AppliedAt)
	assert.Nil(t, got.Notes)

	// Same id on another platform is a distinct key.
	other := samplePosting("42")
	other.Platform = types.PlatformKariyer
	inserted, err = s.InsertIfAbsent(ctx, other)
	require.NoError(t, err)
	assert.True(t, inserted)

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM postings").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestSQLite_UpdateApplicationFirstWriteWins(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	p := samplePosting("7")
	_, err := s.InsertIfAbsent(ctx, p)
	require.NoError(t, err)

	first := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	changed, err := s.UpdateApplication(ctx, p.Key(), first, types.MethodEmail)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.UpdateApplication(ctx, p.Key(), first.Add(time.Hour), types.MethodInlineApply)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := s.FindByKey(ctx, p.Key())
	require.NoError(t, err)
	assert.True(t, got.Applied)
	require.NotNil(t, got.AppliedAt)
	assert.Equal(t, first, *got.AppliedAt)
	assert.Equal(t, types.MethodEmail, got.ApplicationMethod)
}

func TestSQLite_UpdateNotes(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	p := samplePosting("8")
	_, err := s.InsertIfAbsent(ctx, p)
	require.NoError(t, err)

	changed, err := s.UpdateNotes(ctx, p.Key(), "entry control not found")
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := s.FindByKey(ctx, p.Key())
	require.NoError(t, err)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "entry control not found", *got.Notes)

	_, err = s.UpdateApplication(ctx, p.Key(), time.Now(), types.MethodEmail)
	require.NoError(t, err)
	changed, err = s.UpdateNotes(ctx, p.Key(), "late failure")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSQLite_AppliedKeysAndSince(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		p := samplePosting(id)
		_, err := s.InsertIfAbsent(ctx, p)
		require.NoError(t, err)
		if id != "c" {
			_, err = s.UpdateApplication(ctx, p.Key(), base.Add(time.Duration(i)*24*time.Hour), types.MethodEmail)
			require.NoError(t, err)
		}
	}

	keys, err := s.AppliedKeys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.PostingKey{
		{Platform: types.PlatformLinkedIn, PlatformID: "a"},
		{Platform: types.PlatformLinkedIn, PlatformID: "b"},
	}, keys)

	all, err := s.AppliedSince(ctx, base.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].PlatformID)
	assert.Equal(t, "a", all[1].PlatformID)

	recent, err := s.AppliedSince(ctx, base.Add(12*time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "b", recent[0].PlatformID)
}

func TestSQLite_InsertApplication(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	key := types.PostingKey{Platform: types.PlatformLinkedIn, PlatformID: "9"}
	at := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	rec := &types.ApplicationRecord{Key: key, Method: types.MethodInlineApply, Successful: false, ErrorMessage: "step budget exhausted", AttemptedAt: at}
	require.NoError(t, s.InsertApplication(ctx, rec))
	assert.NotEmpty(t, rec.ID)

	require.NoError(t, s.InsertApplication(ctx, &types.ApplicationRecord{Key: key, Method: types.MethodEmail, Successful: true, EmailSubject: "Application", AttemptedAt: at.Add(time.Minute)}))

	recs, err := s.Applications(ctx, key)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "step budget exhausted", recs[0].ErrorMessage)
	assert.Equal(t, at, recs[0].AttemptedAt)
	assert.True(t, recs[1].Successful)
}

func TestSQLite_InsertApplicationInvalidID(t *testing.T) {
	s := openTestSQLite(t)
	err := s.InsertApplication(context.Background(), &types.ApplicationRecord{ID: "not-a-uuid"})

	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Contains(t, err.Error(), "invalid record id")
}

func TestOpen_SelectsSQLite(t *testing.T) {
	store, err := Open(context.Background(), Options{SQLitePath: filepath.Join(t.TempDir(), "j.db")})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	_, ok := store.(*SQLite)
	assert.True(t, ok)
}

func TestOpen_NothingConfigured(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
}

func TestStoreError_Message(t *testing.T) {
	err := &StoreError{Op: "insert", Key: "linkedin:1", Cause: errors.New("disk full")}
	assert.Equal(t, "store error: insert linkedin:1: disk full", err.Error())
}
