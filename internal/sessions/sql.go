package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/bunx"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/models"
	"github.com/HSousa1987/Lavandaria-sub001/internal/repository"
)

// SQLBackend persists sessions in the sessions table through the repository
// layer, so it works on both PostgreSQL and SQLite.
type SQLBackend struct {
	repo repository.SessionRepository
}

func NewSQLBackend(repo repository.SessionRepository) *SQLBackend {
	return &SQLBackend{repo: repo}
}

func (b *SQLBackend) Put(ctx context.Context, rec *Record) error {
	return b.repo.Create(ctx, &models.Session{
		ID:            bunx.NewUUIDv7(),
		TokenHash:     rec.TokenHash,
		PrincipalID:   rec.Principal.ID,
		PrincipalType: string(rec.Principal.Type),
		DisplayName:   rec.Principal.DisplayName,
		ContactHandle: rec.Principal.ContactHandle,
		CreatedAt:     rec.CreatedAt.UTC(),
		ExpiresAt:     rec.ExpiresAt.UTC(),
	})
}

func (b *SQLBackend) Get(ctx context.Context, tokenHash string) (*Record, error) {
	row, err := b.repo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Record{
		TokenHash: row.TokenHash,
		Principal: auth.Principal{
			ID:            row.PrincipalID,
			Type:          auth.PrincipalType(row.PrincipalType),
			DisplayName:   row.DisplayName,
			ContactHandle: row.ContactHandle,
		},
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

func (b *SQLBackend) Touch(ctx context.Context, tokenHash string, expiresAt time.Time) (bool, error) {
	return b.repo.UpdateExpiry(ctx, tokenHash, expiresAt)
}

func (b *SQLBackend) Delete(ctx context.Context, tokenHash string) error {
	return b.repo.DeleteByTokenHash(ctx, tokenHash)
}

func (b *SQLBackend) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return b.repo.DeleteExpired(ctx, now)
}

func (b *SQLBackend) Ping(ctx context.Context) error {
	return b.repo.Ping(ctx)
}
