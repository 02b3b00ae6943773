// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/HSousa1987/Lavandaria-sub001/internal/db/bunx"
	"github.com/HSousa1987/Lavandaria-sub001/internal/migrations"
)

// NewSQLite returns an in-memory database with every migration applied,
// including the seeded master account. It is closed when the test ends.
func NewSQLite(t testing.TB) *bun.DB {
	t.Helper()
	ctx := context.Background()

	db, err := bunx.NewDB(ctx, bunx.Options{DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunx.Close(db) })

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	require.NoError(t, migrator.Init(ctx))

	// Migrations narrate progress on stdout; keep test output clean.
	restore := silenceStdout(t)
	_, err = migrator.Migrate(ctx)
	restore()
	require.NoError(t, err)

	return db
}

func silenceStdout(t testing.TB) func() {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		return func() {}
	}
	os.Stdout = w
	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, r)
		close(done)
	}()
	return func() {
		_ = w.Close()
		<-done
		_ = r.Close()
		os.Stdout = orig
	}
}
