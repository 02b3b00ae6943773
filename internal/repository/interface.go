package repository

import (
	"context"
	"errors"
	"time"

	"github.com/HSousa1987/Lavandaria-sub001/internal/db/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// StaffRepository exposes persistence operations for staff accounts.
type StaffRepository interface {
	Create(ctx context.Context, staff *models.StaffUser) error
	GetByID(ctx context.Context, id string) (*models.StaffUser, error)
	GetByUsername(ctx context.Context, username string) (*models.StaffUser, error)
	List(ctx context.Context) ([]models.StaffUser, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// ClientRepository exposes persistence operations for client accounts.
type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, id string) (*models.Client, error)
	GetByPhone(ctx context.Context, phone string) (*models.Client, error)
	List(ctx context.Context) ([]models.Client, error)
}

// SessionRepository exposes persistence operations for SQL-backed sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	UpdateExpiry(ctx context.Context, tokenHash string, expiresAt time.Time) (bool, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Ping(ctx context.Context) error
}

// JobRepository exposes the read paths the gateway's job routes need.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id int64) (*models.Job, error)
	List(ctx context.Context) ([]models.Job, error)
	ListByClient(ctx context.Context, clientID string) ([]models.Job, error)
	ListByAssignee(ctx context.Context, staffID string) ([]models.Job, error)
}

// PaymentRepository exposes finance reads.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	List(ctx context.Context, limit int) ([]models.Payment, error)
	Summarize(ctx context.Context, from, to time.Time) (*PaymentSummary, error)
}

// PaymentSummary aggregates payments over a period.
type PaymentSummary struct {
	From          time.Time
	To            time.Time
	Count         int64
	TotalCents    int64
	ByMethodCents map[string]int64
}
