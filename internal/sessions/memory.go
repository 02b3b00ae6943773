package sessions

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps sessions in a map guarded by a RWMutex. It only suits a
// single process.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string]Record)}
}

func (m *MemoryBackend) Put(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.TokenHash] = *rec
	return nil
}

func (m *MemoryBackend) Get(_ context.Context, tokenHash string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[tokenHash]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (m *MemoryBackend) Touch(_ context.Context, tokenHash string, expiresAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[tokenHash]
	if !ok {
		return false, nil
	}
	rec.ExpiresAt = expiresAt
	m.records[tokenHash] = rec
	return true, nil
}

func (m *MemoryBackend) Delete(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, tokenHash)
	return nil
}

func (m *MemoryBackend) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for hash, rec := range m.records {
		if rec.Expired(now) {
			delete(m.records, hash)
			n++
		}
	}
	return n, nil
}

func (m *MemoryBackend) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored records, expired or not.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
