// Package db provides persistent storage for postings and application
// records, on PostgreSQL or SQLite, plus an optional Redis seen-cache.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/jobhunter/internal/types"
)

// Store is the persistent posting store. Every backend enforces uniqueness
// of (platform, platform_id). Lookups that find nothing return (nil, nil).
type Store interface {
	// FindByKey returns the posting stored under key, or nil.
	FindByKey(ctx context.Context, key types.PostingKey) (*types.Posting, error)
	// InsertIfAbsent inserts p unless a row with its key exists. It reports
	// whether a row was inserted.
	InsertIfAbsent(ctx context.Context, p *types.Posting) (bool, error)
	// UpdateApplication marks the posting applied if it is not yet applied.
	// It reports whether a row changed.
	UpdateApplication(ctx context.Context, key types.PostingKey, at time.Time, method types.ApplicationMethod) (bool, error)
	// UpdateNotes sets the error note on a posting that is not yet applied.
	UpdateNotes(ctx context.Context, key types.PostingKey, notes string) (bool, error)
	// AppliedKeys returns the keys of every applied posting.
	AppliedKeys(ctx context.Context) ([]types.PostingKey, error)
	// AppliedSince returns postings applied at or after since, newest first.
	AppliedSince(ctx context.Context, since time.Time) ([]types.Posting, error)
	// InsertApplication appends an application record.
	InsertApplication(ctx context.Context, rec *types.ApplicationRecord) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	// DatabaseURL selects PostgreSQL when set.
	DatabaseURL string
	// SQLitePath is used when DatabaseURL is empty.
	SQLitePath string
}

// Open returns the PostgreSQL store when a database URL is configured and
// the SQLite store otherwise. The schema is created if missing.
func Open(ctx context.Context, opts Options) (Store, error) {
	if opts.DatabaseURL != "" {
		pg, err := Connect(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	}
	if opts.SQLitePath == "" {
		return nil, &StoreError{Op: "open", Message: "no database configured"}
	}
	return OpenSQLite(opts.SQLitePath)
}

// StoreError is a failed store operation.
type StoreError struct {
	Op      string
	Key     string
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	msg := e.Op
	if e.Key != "" {
		msg += " " + e.Key
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("store error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("store error: %s", msg)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

func methodOrNone(m types.ApplicationMethod) types.ApplicationMethod {
	if m == "" {
		return types.MethodNone
	}
	return m
}

// recordID returns the record's ID, assigning a fresh one when empty.
func recordID(rec *types.ApplicationRecord) (uuid.UUID, error) {
	if rec.ID == "" {
		id := uuid.New()
		rec.ID = id.String()
		return id, nil
	}
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return uuid.Nil, &StoreError{Op: "insert application", Key: rec.Key.String(), Message: "invalid record id", Cause: err}
	}
	return id, nil
}
