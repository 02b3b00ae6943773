package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/HSousa1987/Lavandaria-sub001/internal/db/models"
)

// BunPaymentRepository implements PaymentRepository using Bun ORM
type BunPaymentRepository struct {
	db *bun.DB
}

// NewBunPaymentRepository creates a new Bun-based payment repository
func NewBunPaymentRepository(db *bun.DB) *BunPaymentRepository {
	return &BunPaymentRepository{db: db}
}

// Create inserts a payment
func (r *BunPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	_, err := r.db.NewInsert().
		Model(payment).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// List retrieves the most recent payments
func (r *BunPaymentRepository) List(ctx context.Context, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	q := r.db.NewSelect().
		Model(&payments).
		Order("paid_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// Summarize totals payments with from <= paid_at < to, grouped by method
func (r *BunPaymentRepository) Summarize(ctx context.Context, from, to time.Time) (*PaymentSummary, error) {
	var rows []struct {
		Method string `bun:"method"`
		Count  int64  `bun:"count"`
		Total  int64  `bun:"total"`
	}
	err := r.db.NewSelect().
		Model((*models.Payment)(nil)).
		ColumnExpr("method").
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("COALESCE(SUM(amount_cents), 0) AS total").
		Where("paid_at >= ?", from.UTC()).
		Where("paid_at < ?", to.UTC()).
		Group("method").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("summarize payments: %w", err)
	}

	summary := &PaymentSummary{From: from, To: to, ByMethodCents: make(map[string]int64, len(rows))}
	for _, row := range rows {
		summary.Count += row.Count
		summary.TotalCents += row.Total
		summary.ByMethodCents[row.Method] = row.Total
	}
	return summary, nil
}
