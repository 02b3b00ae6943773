package sessions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestManager(backend Backend, cfg Config) (*Manager, *clock) {
	clk := &clock{t: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	m := NewManager(backend, cfg, nil)
	m.now = clk.Now
	return m, clk
}

var (
	worker = auth.Principal{ID: "w1", Type: auth.PrincipalTypeWorker, DisplayName: "Wendy", ContactHandle: "wendy"}
	client = auth.Principal{ID: "c1", Type: auth.PrincipalTypeClient, DisplayName: "Carla", ContactHandle: "+351910000001"}
)

func TestManager_CreateResolve(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	m, clk := newTestManager(backend, Config{})

	token, rec, err := m.Create(ctx, worker)
	require.NoError(t, err)
	assert.True(t, auth.WellFormedSessionToken(token))
	assert.Equal(t, auth.HashSessionToken(token), rec.TokenHash)
	assert.Equal(t, clk.Now().Add(DefaultStaffTTL), rec.ExpiresAt)

	got, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, worker, got.Principal)

	// The raw token is never a storage key.
	_, err = backend.Get(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_Lifetimes(t *testing.T) {
	m, _ := newTestManager(NewMemoryBackend(), Config{StaffTTL: time.Hour, ClientTTL: 30 * time.Minute})
	assert.Equal(t, time.Hour, m.Lifetime(auth.PrincipalTypeMaster))
	assert.Equal(t, time.Hour, m.Lifetime(auth.PrincipalTypeWorker))
	assert.Equal(t, 30*time.Minute, m.Lifetime(auth.PrincipalTypeClient))

	_, rec, err := m.Create(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, rec.ExpiresAt.Sub(rec.CreatedAt))
}

func TestManager_CreateRejectsUnknownType(t *testing.T) {
	m, _ := newTestManager(NewMemoryBackend(), Config{})
	_, _, err := m.Create(context.Background(), auth.Principal{ID: "x", Type: "janitor"})
	assert.Error(t, err)
}

func TestManager_ResolveAbsent(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(NewMemoryBackend(), Config{})

	for _, token := range []string{"", "short", "zz" + string(make([]byte, 62)), auth.HashSessionToken("never-issued")} {
		rec, err := m.Resolve(ctx, token)
		assert.NoError(t, err)
		assert.Nil(t, rec)
	}
}

func TestManager_LazyExpiry(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	m, clk := newTestManager(backend, Config{ClientTTL: time.Hour})

	token, _, err := m.Create(ctx, client)
	require.NoError(t, err)

	clk.Advance(time.Hour)
	rec, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	assert.NotNil(t, rec, "a session is live up to and including its expiry instant")

	clk.Advance(time.Second)
	rec, err = m.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Zero(t, backend.Len(), "expired record is deleted on resolve")
}

func TestManager_Destroy(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(NewMemoryBackend(), Config{})

	token, _, err := m.Create(ctx, worker)
	require.NoError(t, err)

	require.NoError(t, m.Destroy(ctx, token))
	require.NoError(t, m.Destroy(ctx, token))
	require.NoError(t, m.Destroy(ctx, "garbage"))

	rec, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestManager_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		m, clk := newTestManager(NewMemoryBackend(), Config{StaffTTL: time.Hour})
		_, rec, err := m.Create(ctx, worker)
		require.NoError(t, err)
		clk.Advance(50 * time.Minute)
		ok, err := m.Refresh(ctx, rec)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("more than half left", func(t *testing.T) {
		m, clk := newTestManager(NewMemoryBackend(), Config{StaffTTL: time.Hour, Sliding: true})
		_, rec, err := m.Create(ctx, worker)
		require.NoError(t, err)
		clk.Advance(20 * time.Minute)
		ok, err := m.Refresh(ctx, rec)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("less than half left", func(t *testing.T) {
		m, clk := newTestManager(NewMemoryBackend(), Config{StaffTTL: time.Hour, Sliding: true})
		token, rec, err := m.Create(ctx, worker)
		require.NoError(t, err)
		clk.Advance(40 * time.Minute)

		ok, err := m.Refresh(ctx, rec)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, clk.Now().Add(time.Hour), rec.ExpiresAt)

		clk.Advance(50 * time.Minute)
		got, err := m.Resolve(ctx, token)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("destroyed concurrently", func(t *testing.T) {
		backend := NewMemoryBackend()
		m, clk := newTestManager(backend, Config{StaffTTL: time.Hour, Sliding: true})
		token, rec, err := m.Create(ctx, worker)
		require.NoError(t, err)
		clk.Advance(40 * time.Minute)

		require.NoError(t, m.Destroy(ctx, token))
		ok, err := m.Refresh(ctx, rec)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, backend.Len())
	})
}

func TestManager_Sweep(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	m, clk := newTestManager(backend, Config{StaffTTL: time.Hour, ClientTTL: 2 * time.Hour})

	_, _, err := m.Create(ctx, worker)
	require.NoError(t, err)
	_, _, err = m.Create(ctx, client)
	require.NoError(t, err)

	clk.Advance(90 * time.Minute)
	n, err := m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, backend.Len())
}

func TestManager_ConcurrentResolveAndDestroy(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(NewMemoryBackend(), Config{})
	token, _, err := m.Create(ctx, worker)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			rec, err := m.Resolve(ctx, token)
			assert.NoError(t, err)
			if rec != nil {
				assert.Equal(t, worker, rec.Principal)
			}
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Destroy(ctx, token))
		}()
	}
	wg.Wait()

	rec, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRecordContext(t *testing.T) {
	_, ok := RecordFromContext(context.Background())
	assert.False(t, ok)

	rec := &Record{TokenHash: "h", Principal: worker}
	got, ok := RecordFromContext(WithRecord(context.Background(), rec))
	assert.True(t, ok)
	assert.Same(t, rec, got)
}

// flakyBackend fails the first failures calls of every operation.
type flakyBackend struct {
	*MemoryBackend
	mu       sync.Mutex
	failures int
	calls    int
}

var errFlaky = errors.New("connection reset")

func (f *flakyBackend) fail() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.calls <= f.failures
}

func (f *flakyBackend) Get(ctx context.Context, hash string) (*Record, error) {
	if f.fail() {
		return nil, errFlaky
	}
	return f.MemoryBackend.Get(ctx, hash)
}

func (f *flakyBackend) Put(ctx context.Context, rec *Record) error {
	if f.fail() {
		return errFlaky
	}
	return f.MemoryBackend.Put(ctx, rec)
}

func TestRetryingBackend(t *testing.T) {
	ctx := context.Background()
	cfg := RetryConfig{Attempts: 3, BaseDelay: time.Millisecond}

	t.Run("recovers", func(t *testing.T) {
		inner := &flakyBackend{MemoryBackend: NewMemoryBackend(), failures: 2}
		b := NewRetryingBackend(inner, cfg, nil, nil)
		require.NoError(t, b.Put(ctx, sampleRecord("h", time.Now().Add(time.Hour))))
		assert.Equal(t, 3, inner.calls)
	})

	t.Run("gives up", func(t *testing.T) {
		inner := &flakyBackend{MemoryBackend: NewMemoryBackend(), failures: 10}
		b := NewRetryingBackend(inner, cfg, nil, nil)
		_, err := b.Get(ctx, "h")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStoreUnavailable)
		assert.Equal(t, 3, inner.calls)
	})

	t.Run("not found is final", func(t *testing.T) {
		inner := &flakyBackend{MemoryBackend: NewMemoryBackend()}
		b := NewRetryingBackend(inner, cfg, nil, nil)
		_, err := b.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrStoreUnavailable)
		assert.Equal(t, 1, inner.calls)
	})
}

func TestManager_StoreUnavailable(t *testing.T) {
	ctx := context.Background()
	inner := &flakyBackend{MemoryBackend: NewMemoryBackend(), failures: 100}
	m, _ := newTestManager(NewRetryingBackend(inner, RetryConfig{Attempts: 2, BaseDelay: time.Millisecond}, nil, nil), Config{})

	_, err := m.Resolve(ctx, auth.HashSessionToken("well-formed-token"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, _, err = m.Create(ctx, worker)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
