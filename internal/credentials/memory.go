package credentials

import (
	"context"
	"sync"
)

// MemoryStore is a map-backed Store, keyed by normalized handle.
type MemoryStore struct {
	partition Partition
	mu        sync.RWMutex
	records   map[string]Record
}

// NewMemoryStore creates an empty store for partition.
func NewMemoryStore(partition Partition) *MemoryStore {
	return &MemoryStore{partition: partition, records: make(map[string]Record)}
}

// Add stores rec under its principal's contact handle.
func (s *MemoryStore) Add(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := NormalizeHandle(s.partition, rec.Principal.ContactHandle)
	rec.Principal.ContactHandle = key
	s.records[key] = rec
}

func (s *MemoryStore) LookupCredential(_ context.Context, handle string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[NormalizeHandle(s.partition, handle)]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
}
