package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/dbtest"
	"github.com/HSousa1987/Lavandaria-sub001/internal/repository"
)

func newRedisBackend(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBackend(client, ""), mr
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	rb, _ := newRedisBackend(t)
	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"redis":  rb,
		"sql":    NewSQLBackend(repository.NewBunSessionRepository(dbtest.NewSQLite(t))),
		"cached": NewCachedBackend(NewMemoryBackend(), 16, time.Minute),
	}
}

func sampleRecord(hash string, expiresAt time.Time) *Record {
	return &Record{
		TokenHash: hash,
		Principal: auth.Principal{
			ID:            "01920000-0000-7000-8000-000000000001",
			Type:          auth.PrincipalTypeAdmin,
			DisplayName:   "Ana Admin",
			ContactHandle: "ana",
		},
		CreatedAt: expiresAt.Add(-time.Hour),
		ExpiresAt: expiresAt,
	}
}

func TestBackendContract(t *testing.T) {
	ctx := context.Background()
	future := time.Now().UTC().Add(time.Hour).Truncate(time.Second)

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			rec := sampleRecord("hash-"+name, future)
			require.NoError(t, b.Put(ctx, rec))

			got, err := b.Get(ctx, rec.TokenHash)
			require.NoError(t, err)
			assert.Equal(t, rec.Principal, got.Principal)
			assert.Equal(t, rec.TokenHash, got.TokenHash)
			assert.True(t, got.ExpiresAt.Equal(future), "expires_at %s", got.ExpiresAt)
			assert.True(t, got.CreatedAt.Equal(rec.CreatedAt), "created_at %s", got.CreatedAt)

			_, err = b.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			later := future.Add(time.Hour)
			ok, err := b.Touch(ctx, rec.TokenHash, later)
			require.NoError(t, err)
			assert.True(t, ok)
			got, err = b.Get(ctx, rec.TokenHash)
			require.NoError(t, err)
			assert.True(t, got.ExpiresAt.Equal(later))

			ok, err = b.Touch(ctx, "missing", later)
			require.NoError(t, err)
			assert.False(t, ok)
			_, err = b.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound, "touch must not create records")

			require.NoError(t, b.Delete(ctx, rec.TokenHash))
			require.NoError(t, b.Delete(ctx, rec.TokenHash))
			_, err = b.Get(ctx, rec.TokenHash)
			assert.ErrorIs(t, err, ErrNotFound)

			ok, err = b.Touch(ctx, rec.TokenHash, later)
			require.NoError(t, err)
			assert.False(t, ok, "touch after delete must not resurrect")

			assert.NoError(t, b.Ping(ctx))
		})
	}
}

func TestBackendDeleteExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for name, b := range backends(t) {
		if name == "redis" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.Put(ctx, sampleRecord("live", now.Add(time.Hour))))
			require.NoError(t, b.Put(ctx, sampleRecord("stale", now.Add(-time.Minute))))

			n, err := b.DeleteExpired(ctx, now)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			_, err = b.Get(ctx, "stale")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = b.Get(ctx, "live")
			assert.NoError(t, err)
		})
	}
}

func TestRedisBackend_NativeExpiry(t *testing.T) {
	ctx := context.Background()
	b, mr := newRedisBackend(t)

	rec := sampleRecord("short", time.Now().Add(2*time.Second))
	require.NoError(t, b.Put(ctx, rec))
	assert.True(t, mr.Exists(DefaultRedisKeyPrefix+"short"))

	mr.FastForward(3 * time.Second)
	_, err := b.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := b.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisBackend_Unavailable(t *testing.T) {
	ctx := context.Background()
	b, mr := newRedisBackend(t)
	mr.Close()

	_, err := b.Get(ctx, "anything")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Error(t, b.Ping(ctx))
}

func TestCachedBackend_DeleteEvicts(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryBackend()
	b := NewCachedBackend(inner, 16, time.Minute)

	rec := sampleRecord("h", time.Now().Add(time.Hour))
	require.NoError(t, b.Put(ctx, rec))
	_, err := b.Get(ctx, "h")
	require.NoError(t, err)

	require.NoError(t, b.Delete(ctx, "h"))
	_, err = b.Get(ctx, "h")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedBackend_ServesFromCache(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryBackend()
	b := NewCachedBackend(inner, 16, time.Minute)

	require.NoError(t, b.Put(ctx, sampleRecord("h", time.Now().Add(time.Hour))))
	// Removing behind the cache's back is only visible after the entry expires.
	require.NoError(t, inner.Delete(ctx, "h"))
	_, err := b.Get(ctx, "h")
	assert.NoError(t, err)
}
