package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
	"github.com/HSousa1987/Lavandaria-sub001/internal/logging"
	"github.com/HSousa1987/Lavandaria-sub001/internal/telemetry"
)

const tracerName = "lavandaria/sessions"

// Default lifetimes.
const (
	DefaultStaffTTL  = 24 * time.Hour
	DefaultClientTTL = 8 * time.Hour
)

// Config controls session lifetimes.
type Config struct {
	StaffTTL  time.Duration
	ClientTTL time.Duration
	// Sliding extends a session on use once less than half its lifetime remains.
	Sliding bool
	// Backend names the storage for logs and spans.
	Backend string
}

// Manager creates and resolves sessions over a Backend.
type Manager struct {
	backend Backend
	cfg     Config
	logger  logging.Logger
	now     func() time.Time
}

// NewManager returns a Manager. Zero TTLs fall back to the defaults.
func NewManager(backend Backend, cfg Config, logger logging.Logger) *Manager {
	if cfg.StaffTTL <= 0 {
		cfg.StaffTTL = DefaultStaffTTL
	}
	if cfg.ClientTTL <= 0 {
		cfg.ClientTTL = DefaultClientTTL
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{backend: backend, cfg: cfg, logger: logger, now: time.Now}
}

// Lifetime returns the session lifetime for a principal type.
func (m *Manager) Lifetime(t auth.PrincipalType) time.Duration {
	if t.IsClient() {
		return m.cfg.ClientTTL
	}
	return m.cfg.StaffTTL
}

// Sliding reports whether sliding refresh is enabled.
func (m *Manager) Sliding() bool {
	return m.cfg.Sliding
}

func (m *Manager) span(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "sessions."+op,
		attribute.String(telemetry.AttrSessionBackend, m.cfg.Backend),
		attribute.String(telemetry.AttrSessionOperation, op),
	)
	return ctx, func(err error) {
		telemetry.RecordError(span, err)
		span.End()
	}
}

// Create binds a fresh token to principal. It returns the raw token for the
// cookie; only its hash is stored.
func (m *Manager) Create(ctx context.Context, principal auth.Principal) (token string, rec *Record, err error) {
	ctx, end := m.span(ctx, "create")
	defer func() { end(err) }()

	if !principal.Type.Valid() {
		return "", nil, fmt.Errorf("cannot create session for principal type %q", principal.Type)
	}

	token, hash, err := auth.GenerateSessionToken()
	if err != nil {
		return "", nil, err
	}

	now := m.now().UTC()
	rec = &Record{
		TokenHash: hash,
		Principal: principal,
		CreatedAt: now,
		ExpiresAt: now.Add(m.Lifetime(principal.Type)),
	}
	if err := m.backend.Put(ctx, rec); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}

	m.logger.Debug(ctx, "session created",
		"principal_id", principal.ID,
		"principal_type", principal.Type,
		"expires_at", rec.ExpiresAt,
	)
	return token, rec, nil
}

// Resolve returns the live session for token. Missing, malformed and expired
// tokens all yield (nil, nil); an expired record is deleted on the way out.
// Errors mean the store could not answer.
func (m *Manager) Resolve(ctx context.Context, token string) (rec *Record, err error) {
	if !auth.WellFormedSessionToken(token) {
		return nil, nil
	}

	ctx, end := m.span(ctx, "resolve")
	defer func() { end(err) }()

	hash := auth.HashSessionToken(token)
	rec, err = m.backend.Get(ctx, hash)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if rec.Expired(m.now()) {
		if derr := m.backend.Delete(ctx, hash); derr != nil {
			m.logger.Warn(ctx, "failed to delete expired session", "error", derr)
		}
		return nil, nil
	}
	if !rec.Principal.Type.Valid() {
		m.logger.Warn(ctx, "session has unknown principal type", "principal_type", rec.Principal.Type)
		return nil, nil
	}
	return rec, nil
}

// Refresh extends rec when sliding is on and less than half its lifetime is
// left. It reports whether the expiry moved. A session destroyed concurrently
// is never recreated.
func (m *Manager) Refresh(ctx context.Context, rec *Record) (refreshed bool, err error) {
	if !m.cfg.Sliding || rec == nil {
		return false, nil
	}

	lifetime := m.Lifetime(rec.Principal.Type)
	now := m.now().UTC()
	if rec.ExpiresAt.Sub(now) >= lifetime/2 {
		return false, nil
	}

	ctx, end := m.span(ctx, "refresh")
	defer func() { end(err) }()

	expiresAt := now.Add(lifetime)
	ok, err := m.backend.Touch(ctx, rec.TokenHash, expiresAt)
	if err != nil {
		return false, err
	}
	if ok {
		rec.ExpiresAt = expiresAt
	}
	return ok, nil
}

// Destroy removes the session for token. Unknown and malformed tokens are
// not errors.
func (m *Manager) Destroy(ctx context.Context, token string) (err error) {
	if !auth.WellFormedSessionToken(token) {
		return nil
	}

	ctx, end := m.span(ctx, "destroy")
	defer func() { end(err) }()

	return m.backend.Delete(ctx, auth.HashSessionToken(token))
}

// Sweep deletes every session that has expired.
func (m *Manager) Sweep(ctx context.Context) (n int64, err error) {
	ctx, end := m.span(ctx, "sweep")
	defer func() { end(err) }()

	n, err = m.backend.DeleteExpired(ctx, m.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.logger.Info(ctx, "swept expired sessions", "count", n)
	}
	return n, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Sweep(ctx); err != nil {
				m.logger.Warn(ctx, "session sweep failed", "error", err)
			}
		}
	}
}

// Ping checks the backend.
func (m *Manager) Ping(ctx context.Context) error {
	return m.backend.Ping(ctx)
}

type recordContextKey struct{}

// WithRecord stores the resolved session on the context.
func WithRecord(ctx context.Context, rec *Record) context.Context {
	return context.WithValue(ctx, recordContextKey{}, rec)
}

// RecordFromContext returns the session resolved for this request, if any.
func RecordFromContext(ctx context.Context) (*Record, bool) {
	rec, ok := ctx.Value(recordContextKey{}).(*Record)
	return rec, ok && rec != nil
}
