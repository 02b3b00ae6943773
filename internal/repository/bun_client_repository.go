package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
	"github.com/HSousa1987/Lavandaria-sub001/internal/credentials"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/models"
)

// BunClientRepository implements ClientRepository and credentials.Store for
// the client partition using Bun ORM
type BunClientRepository struct {
	db *bun.DB
}

// NewBunClientRepository creates a new Bun-based client repository
func NewBunClientRepository(db *bun.DB) *BunClientRepository {
	return &BunClientRepository{db: db}
}

// Create inserts a new client
func (r *BunClientRepository) Create(ctx context.Context, client *models.Client) error {
	_, err := r.db.NewInsert().
		Model(client).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

// GetByID retrieves a client by ID
func (r *BunClientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	client := new(models.Client)
	err := r.db.NewSelect().
		Model(client).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get client by ID: %w", err)
	}
	return client, nil
}

// GetByPhone retrieves a client by normalized phone number
func (r *BunClientRepository) GetByPhone(ctx context.Context, phone string) (*models.Client, error) {
	client := new(models.Client)
	err := r.db.NewSelect().
		Model(client).
		Where("phone = ?", phone).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client with phone %q: %w", phone, ErrNotFound)
		}
		return nil, fmt.Errorf("get client by phone: %w", err)
	}
	return client, nil
}

// List retrieves all clients ordered by name
func (r *BunClientRepository) List(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	err := r.db.NewSelect().
		Model(&clients).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// LookupCredential implements credentials.Store.
func (r *BunClientRepository) LookupCredential(ctx context.Context, handle string) (*credentials.Record, error) {
	client, err := r.GetByPhone(ctx, handle)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, credentials.ErrRecordNotFound
		}
		return nil, err
	}
	if client.DisabledAt != nil {
		return nil, credentials.ErrRecordNotFound
	}

	return &credentials.Record{
		Principal: auth.Principal{
			ID:            client.ID,
			Type:          auth.PrincipalTypeClient,
			DisplayName:   client.Name,
			ContactHandle: client.Phone,
		},
		PasswordHash: client.PasswordHash,
	}, nil
}
