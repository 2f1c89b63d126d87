// Package dbtest provides an in-memory db.Store for tests.
package dbtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/jobhunter/internal/db"
	"github.com/jonathan/jobhunter/internal/types"
)

// Memory is a map-backed Store with the same key and update rules as the
// SQL backends. Err, when set, is returned by every call.
type Memory struct {
	mu           sync.Mutex
	postings     map[types.PostingKey]*types.Posting
	order        []types.PostingKey
	Applications []types.ApplicationRecord
	Err          error
}

var _ db.Store = (*Memory)(nil)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{postings: make(map[types.PostingKey]*types.Posting)}
}

// Len is the number of stored postings.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.postings)
}

// Get returns a copy of the stored posting.
func (m *Memory) Get(key types.PostingKey) (types.Posting, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.postings[key]
	if !ok {
		return types.Posting{}, false
	}
	return *p, true
}

func (m *Memory) FindByKey(_ context.Context, key types.PostingKey) (*types.Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.postings[key]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) InsertIfAbsent(_ context.Context, p *types.Posting) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	key := p.Key()
	if _, ok := m.postings[key]; ok {
		return false, nil
	}
	cp := *p
	if cp.ApplicationMethod == "" {
		cp.ApplicationMethod = types.MethodNone
	}
	m.postings[key] = &cp
	m.order = append(m.order, key)
	return true, nil
}

func (m *Memory) UpdateApplication(_ context.Context, key types.PostingKey, at time.Time, method types.ApplicationMethod) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	p, ok := m.postings[key]
	if !ok || p.Applied {
		return false, nil
	}
	p.Applied = true
	p.AppliedAt = &at
	p.ApplicationMethod = method
	return true, nil
}

func (m *Memory) UpdateNotes(_ context.Context, key types.PostingKey, notes string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	p, ok := m.postings[key]
	if !ok || p.Applied {
		return false, nil
	}
	p.Notes = &notes
	return true, nil
}

func (m *Memory) AppliedKeys(_ context.Context) ([]types.PostingKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var keys []types.PostingKey
	for _, k := range m.order {
		if m.postings[k].Applied {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *Memory) AppliedSince(_ context.Context, since time.Time) ([]types.Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []types.Posting
	for _, k := range m.order {
		p := m.postings[k]
		if p.Applied && p.AppliedAt != nil && !p.AppliedAt.Before(since) {
			out = append(out, *p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AppliedAt.After(*out[j].AppliedAt) })
	return out, nil
}

func (m *Memory) InsertApplication(_ context.Context, rec *types.ApplicationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	m.Applications = append(m.Applications, *rec)
	return nil
}

func (m *Memory) Close() error { return nil }

// MemoryCache is an in-memory db.SeenCache.
type MemoryCache struct {
	mu   sync.Mutex
	keys map[types.PostingKey]bool
	Err  error
}

var _ db.SeenCache = (*MemoryCache)(nil)

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{keys: make(map[types.PostingKey]bool)}
}

func (c *MemoryCache) Seen(_ context.Context, key types.PostingKey) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return false, c.Err
	}
	return c.keys[key], nil
}

func (c *MemoryCache) Add(_ context.Context, key types.PostingKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.keys[key] = true
	return nil
}

func (c *MemoryCache) Close() error { return nil }
