// Package dedup guarantees at-most-once application per posting key on top
// of the persistent store.
package dedup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/jobhunter/internal/db"
	"github.com/jonathan/jobhunter/internal/logging"
	"github.com/jonathan/jobhunter/internal/types"
)

// Adapter maps posting keys to applied / known state. It assumes a single
// writer; every operation is idempotent so repeated calls are safe.
//
// A second MarkApplied on an already-applied key is a no-op: the first
// AppliedAt and method are kept.
type Adapter struct {
	store db.Store
	cache db.SeenCache
	now   func() time.Time
	log   *zap.SugaredLogger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithSeenCache puts cache in front of the store for applied checks.
func WithSeenCache(cache db.SeenCache) Option {
	return func(a *Adapter) { a.cache = cache }
}

// WithClock sets the clock used for AppliedAt and attempt timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(a *Adapter) { a.log = logging.OrNop(l) }
}

// New returns an adapter over store.
func New(store db.Store, opts ...Option) *Adapter {
	a := &Adapter{store: store, now: time.Now, log: logging.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FilterUnapplied returns the candidates whose key is not applied in the
// store, preserving order. Comparison is by composite key only.
func (a *Adapter) FilterUnapplied(ctx context.Context, candidates []*types.Posting) ([]*types.Posting, error) {
	keys, err := a.store.AppliedKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load applied keys: %w", err)
	}
	applied := make(map[types.PostingKey]struct{}, len(keys))
	for _, k := range keys {
		applied[k] = struct{}{}
	}

	out := make([]*types.Posting, 0, len(candidates))
	for _, p := range candidates {
		if _, ok := applied[p.Key()]; !ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Save inserts p if its key is unknown. A known key is a silent no-op and
// never overwrites the stored row. It reports whether p was inserted.
func (a *Adapter) Save(ctx context.Context, p *types.Posting) (bool, error) {
	inserted, err := a.store.InsertIfAbsent(ctx, p)
	if err != nil {
		return false, fmt.Errorf("failed to save posting %s: %w", p.Key(), err)
	}
	return inserted, nil
}

// FindByKey returns the stored posting or nil.
func (a *Adapter) FindByKey(ctx context.Context, key types.PostingKey) (*types.Posting, error) {
	return a.store.FindByKey(ctx, key)
}

// MarkApplied records p as applied through method. An unknown key is
// inserted already applied; a known unapplied key is updated in place; an
// applied key is left untouched. p is updated to the stored state.
func (a *Adapter) MarkApplied(ctx context.Context, p *types.Posting, method types.ApplicationMethod) error {
	key := p.Key()
	existing, err := a.store.FindByKey(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to mark %s applied: %w", key, err)
	}

	at := a.now().UTC()
	if existing == nil {
		row := *p
		row.Applied = true
		row.AppliedAt = &at
		row.ApplicationMethod = method
		inserted, err := a.store.InsertIfAbsent(ctx, &row)
		if err != nil {
			return fmt.Errorf("failed to mark %s applied: %w", key, err)
		}
		if inserted {
			a.applied(ctx, p, at, method)
			return nil
		}
		// Inserted by someone else in between; fall through to the update.
	} else if existing.Applied {
		a.log.Debugw("Posting already applied", logging.FieldPlatform, key.Platform, logging.FieldPlatformID, key.PlatformID)
		if existing.AppliedAt != nil {
			at = *existing.AppliedAt
		}
		a.applied(ctx, p, at, existing.ApplicationMethod)
		return nil
	}

	changed, err := a.store.UpdateApplication(ctx, key, at, method)
	if err != nil {
		return fmt.Errorf("failed to mark %s applied: %w", key, err)
	}
	if !changed {
		// Applied concurrently; report the stored state.
		if stored, err := a.store.FindByKey(ctx, key); err == nil && stored != nil && stored.AppliedAt != nil {
			at, method = *stored.AppliedAt, stored.ApplicationMethod
		}
	}
	a.applied(ctx, p, at, method)
	return nil
}

func (a *Adapter) applied(ctx context.Context, p *types.Posting, at time.Time, method types.ApplicationMethod) {
	p.Applied = true
	p.AppliedAt = &at
	p.ApplicationMethod = method
	if a.cache != nil {
		if err := a.cache.Add(ctx, p.Key()); err != nil {
			a.log.Warnw("Failed to update seen-cache", logging.FieldError, err)
		}
	}
}

// IsApplied reports whether key is applied, consulting the seen-cache first.
func (a *Adapter) IsApplied(ctx context.Context, key types.PostingKey) (bool, error) {
	if a.cache != nil {
		seen, err := a.cache.Seen(ctx, key)
		if err != nil {
			a.log.Warnw("Seen-cache lookup failed", logging.FieldError, err)
		} else if seen {
			return true, nil
		}
	}
	p, err := a.store.FindByKey(ctx, key)
	if err != nil {
		return false, err
	}
	return p != nil && p.Applied, nil
}

// RecordFailure saves p if unknown and stores reason as its error note.
// Applied postings keep their note.
func (a *Adapter) RecordFailure(ctx context.Context, p *types.Posting, reason string) error {
	if _, err := a.Save(ctx, p); err != nil {
		return err
	}
	changed, err := a.store.UpdateNotes(ctx, p.Key(), reason)
	if err != nil {
		return fmt.Errorf("failed to record failure for %s: %w", p.Key(), err)
	}
	if changed {
		note := reason
		p.Notes = &note
	}
	return nil
}

// RecordAttempt appends an application record, stamping it if unset.
func (a *Adapter) RecordAttempt(ctx context.Context, rec *types.ApplicationRecord) error {
	if rec.AttemptedAt.IsZero() {
		rec.AttemptedAt = a.now().UTC()
	}
	if err := a.store.InsertApplication(ctx, rec); err != nil {
		return fmt.Errorf("failed to record attempt for %s: %w", rec.Key, err)
	}
	return nil
}

// Recent returns postings applied within the last days, newest first.
func (a *Adapter) Recent(ctx context.Context, days int) ([]types.Posting, error) {
	if days <= 0 {
		days = 1
	}
	since := a.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	return a.store.AppliedSince(ctx, since)
}
