package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
	"github.com/HSousa1987/Lavandaria-sub001/internal/credentials"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/models"
)

// BunStaffRepository implements StaffRepository and credentials.Store for the
// staff partition using Bun ORM
type BunStaffRepository struct {
	db *bun.DB
}

// NewBunStaffRepository creates a new Bun-based staff repository
func NewBunStaffRepository(db *bun.DB) *BunStaffRepository {
	return &BunStaffRepository{db: db}
}

// Create inserts a new staff account
func (r *BunStaffRepository) Create(ctx context.Context, staff *models.StaffUser) error {
	_, err := r.db.NewInsert().
		Model(staff).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create staff user: %w", err)
	}
	return nil
}

// GetByID retrieves a staff account by ID
func (r *BunStaffRepository) GetByID(ctx context.Context, id string) (*models.StaffUser, error) {
	staff := new(models.StaffUser)
	err := r.db.NewSelect().
		Model(staff).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("staff user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get staff user by ID: %w", err)
	}
	return staff, nil
}

// GetByUsername retrieves a staff account by its normalized username
func (r *BunStaffRepository) GetByUsername(ctx context.Context, username string) (*models.StaffUser, error) {
	staff := new(models.StaffUser)
	err := r.db.NewSelect().
		Model(staff).
		Where("username = ?", username).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("staff user %q: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("get staff user by username: %w", err)
	}
	return staff, nil
}

// List retrieves all staff accounts ordered by username
func (r *BunStaffRepository) List(ctx context.Context) ([]models.StaffUser, error) {
	var staff []models.StaffUser
	err := r.db.NewSelect().
		Model(&staff).
		Order("username ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list staff users: %w", err)
	}
	return staff, nil
}

// UpdateLastLogin stamps the last successful login
func (r *BunStaffRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.NewUpdate().
		Model((*models.StaffUser)(nil)).
		Set("last_login_at = ?", at.UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update staff last login: %w", err)
	}
	return nil
}

// UpdatePassword replaces the password hash. A missing id is ErrNotFound.
func (r *BunStaffRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.NewUpdate().
		Model((*models.StaffUser)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update staff password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// LookupCredential implements credentials.Store. Disabled accounts and rows
// with an unknown role are reported as missing.
func (r *BunStaffRepository) LookupCredential(ctx context.Context, handle string) (*credentials.Record, error) {
	staff, err := r.GetByUsername(ctx, handle)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, credentials.ErrRecordNotFound
		}
		return nil, err
	}
	if staff.DisabledAt != nil {
		return nil, credentials.ErrRecordNotFound
	}
	role, err := auth.ParseStaffRole(staff.Role)
	if err != nil {
		return nil, credentials.ErrRecordNotFound
	}

	return &credentials.Record{
		Principal: auth.Principal{
			ID:            staff.ID,
			Type:          role,
			DisplayName:   staff.DisplayName,
			ContactHandle: staff.Username,
		},
		PasswordHash: staff.PasswordHash,
	}, nil
}
