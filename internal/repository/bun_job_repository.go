package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/HSousa1987/Lavandaria-sub001/internal/db/models"
)

// BunJobRepository implements JobRepository using Bun ORM
type BunJobRepository struct {
	db *bun.DB
}

// NewBunJobRepository creates a new Bun-based job repository
func NewBunJobRepository(db *bun.DB) *BunJobRepository {
	return &BunJobRepository{db: db}
}

// Create inserts a job
func (r *BunJobRepository) Create(ctx context.Context, job *models.Job) error {
	_, err := r.db.NewInsert().
		Model(job).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// GetByID retrieves a job by ID
func (r *BunJobRepository) GetByID(ctx context.Context, id int64) (*models.Job, error) {
	job := new(models.Job)
	err := r.db.NewSelect().
		Model(job).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get job by ID: %w", err)
	}
	return job, nil
}

// List retrieves every job, newest first
func (r *BunJobRepository) List(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.NewSelect().
		Model(&jobs).
		Order("id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// ListByClient retrieves the jobs ordered by one client
func (r *BunJobRepository) ListByClient(ctx context.Context, clientID string) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.NewSelect().
		Model(&jobs).
		Where("client_id = ?", clientID).
		Order("id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list client jobs: %w", err)
	}
	return jobs, nil
}

// ListByAssignee retrieves the jobs assigned to one worker
func (r *BunJobRepository) ListByAssignee(ctx context.Context, staffID string) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.NewSelect().
		Model(&jobs).
		Where("assigned_to = ?", staffID).
		Order("id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assigned jobs: %w", err)
	}
	return jobs, nil
}
