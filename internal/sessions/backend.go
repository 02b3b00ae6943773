// Package sessions owns server-side session state: creation on login, lazy
// expiry on resolve, sliding refresh, idempotent destroy and sweeping.
//
// Sessions are stored under the SHA-256 hash of their token. Storage is
// pluggable through Backend; memory, Redis and SQL implementations are
// provided, and RetryingBackend/CachedBackend decorate any of them.
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
)

var (
	// ErrNotFound is returned by backends when no record exists for a hash.
	ErrNotFound = errors.New("session not found")
	// ErrStoreUnavailable is returned once transient failures exhaust their retries.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Record is one server-side session.
type Record struct {
	TokenHash string
	Principal auth.Principal
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the record is past its expiry at now.
func (r *Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Backend is the storage contract. Every method is atomic per key: a Get
// racing a Delete sees either the whole record or ErrNotFound.
type Backend interface {
	// Put inserts a new record.
	Put(ctx context.Context, rec *Record) error
	// Get returns the record for tokenHash or ErrNotFound. Expired records may
	// still be returned; callers check expiry.
	Get(ctx context.Context, tokenHash string) (*Record, error)
	// Touch moves the expiry of an existing record. It reports false, without
	// creating anything, when the record is gone.
	Touch(ctx context.Context, tokenHash string, expiresAt time.Time) (bool, error)
	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, tokenHash string) error
	// DeleteExpired removes records that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	// Ping checks connectivity for readiness probes.
	Ping(ctx context.Context) error
}
