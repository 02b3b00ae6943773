package sessions

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultCacheSize bounds CachedBackend.
const DefaultCacheSize = 4096

// CachedBackend keeps recently read records in a short-lived LRU in front of
// a slower backend. Every write goes to the backend first and then updates or
// evicts the cached entry, so a destroyed session stops resolving in this
// process immediately. Other processes may serve it for up to ttl.
type CachedBackend struct {
	next  Backend
	cache *expirable.LRU[string, Record]
}

// NewCachedBackend wraps next with a cache whose entries live for ttl.
func NewCachedBackend(next Backend, size int, ttl time.Duration) *CachedBackend {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &CachedBackend{
		next:  next,
		cache: expirable.NewLRU[string, Record](size, nil, ttl),
	}
}

func (b *CachedBackend) Put(ctx context.Context, rec *Record) error {
	if err := b.next.Put(ctx, rec); err != nil {
		return err
	}
	b.cache.Add(rec.TokenHash, *rec)
	return nil
}

func (b *CachedBackend) Get(ctx context.Context, tokenHash string) (*Record, error) {
	if rec, ok := b.cache.Get(tokenHash); ok {
		return &rec, nil
	}
	rec, err := b.next.Get(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	b.cache.Add(tokenHash, *rec)
	return rec, nil
}

func (b *CachedBackend) Touch(ctx context.Context, tokenHash string, expiresAt time.Time) (bool, error) {
	ok, err := b.next.Touch(ctx, tokenHash, expiresAt)
	if err != nil || !ok {
		b.cache.Remove(tokenHash)
		return ok, err
	}
	if rec, hit := b.cache.Peek(tokenHash); hit {
		rec.ExpiresAt = expiresAt
		b.cache.Add(tokenHash, rec)
	}
	return true, nil
}

func (b *CachedBackend) Delete(ctx context.Context, tokenHash string) error {
	b.cache.Remove(tokenHash)
	return b.next.Delete(ctx, tokenHash)
}

func (b *CachedBackend) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	for _, key := range b.cache.Keys() {
		if rec, ok := b.cache.Peek(key); ok && rec.Expired(now) {
			b.cache.Remove(key)
		}
	}
	return b.next.DeleteExpired(ctx, now)
}

func (b *CachedBackend) Ping(ctx context.Context) error {
	return b.next.Ping(ctx)
}
