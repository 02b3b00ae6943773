// Package cmdutil holds the wiring shared by the lavandaria subcommands:
// opening the database, building the logger and choosing a session backend.
package cmdutil

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/HSousa1987/Lavandaria-sub001/internal/config"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/bunx"
	"github.com/HSousa1987/Lavandaria-sub001/internal/logging"
	"github.com/HSousa1987/Lavandaria-sub001/internal/repository"
	"github.com/HSousa1987/Lavandaria-sub001/internal/sessions"
	"github.com/HSousa1987/Lavandaria-sub001/internal/telemetry"
)

// NewLogger builds the process logger from configuration.
func NewLogger(cfg *config.Config) logging.Logger {
	return logging.New(logging.Options{Format: cfg.LogFormat, Debug: cfg.Debug})
}

// OpenDB connects to the configured database.
func OpenDB(ctx context.Context, cfg *config.Config) (*bun.DB, error) {
	db, err := bunx.NewDB(ctx, bunx.Options{
		DSN:          cfg.DatabaseURL,
		MaxOpenConns: cfg.MaxDBConnections,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// NewSessionBackend builds the backend named by session.backend, wrapped with
// retries and, when session.cache_ttl is positive, a resolve cache. The
// returned close function releases any client the backend owns.
func NewSessionBackend(ctx context.Context, cfg *config.Config, db *bun.DB, logger logging.Logger, metrics *telemetry.GatewayMetrics) (sessions.Backend, func() error, error) {
	closer := func() error { return nil }

	var backend sessions.Backend
	switch cfg.Session.Backend {
	case config.SessionBackendMemory:
		backend = sessions.NewMemoryBackend()
	case config.SessionBackendSQL:
		if db == nil {
			return nil, nil, fmt.Errorf("sql session backend requires a database")
		}
		backend = sessions.NewSQLBackend(repository.NewBunSessionRepository(db))
	case config.SessionBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			// Not fatal: the gateway answers 503 until redis comes back.
			logger.Warn(ctx, "redis not reachable at startup", "addr", cfg.Redis.Addr, "error", err)
		}
		backend = sessions.NewRedisBackend(client, cfg.Redis.KeyPrefix)
		closer = client.Close
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}

	backend = sessions.NewRetryingBackend(backend, sessions.RetryConfig{
		Attempts:  cfg.Session.RetryAttempts,
		BaseDelay: cfg.Session.RetryBaseDelay,
	}, logger, metrics)

	if cfg.Session.CacheTTL > 0 {
		backend = sessions.NewCachedBackend(backend, cfg.Session.CacheSize, cfg.Session.CacheTTL)
	}
	return backend, closer, nil
}

// NewSessionManager builds the session manager over backend using the
// configured lifetimes.
func NewSessionManager(cfg *config.Config, backend sessions.Backend, logger logging.Logger) *sessions.Manager {
	return sessions.NewManager(backend, sessions.Config{
		StaffTTL:  cfg.Session.StaffTTL,
		ClientTTL: cfg.Session.ClientTTL,
		Sliding:   cfg.Session.Sliding,
		Backend:   cfg.Session.Backend,
	}, logger)
}

// ReadPassword returns flagValue, or the first line of in when fromStdin is
// set. The prompt goes to out.
func ReadPassword(flagValue string, fromStdin bool, in io.Reader, out io.Writer) (string, error) {
	password := flagValue
	if fromStdin {
		scanner := bufio.NewScanner(in)
		fmt.Fprint(out, "Enter password: ")
		if scanner.Scan() {
			password = strings.TrimRight(scanner.Text(), "\r")
		}
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
	}
	if password == "" {
		return "", fmt.Errorf("password is required (use --password or --stdin)")
	}
	return password, nil
}
