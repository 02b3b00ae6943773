package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Job is a cleaning or laundry job ordered by a client.
type Job struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID           int64      `bun:"id,pk"`
	ClientID     string     `bun:"client_id,notnull"`
	AssignedTo   *string    `bun:"assigned_to"` // staff_users.id of the worker, if any
	Kind         string     `bun:"kind,notnull"` // cleaning or laundry
	Status       string     `bun:"status,notnull"`
	Address      string     `bun:"address"`
	ScheduledFor *time.Time `bun:"scheduled_for"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp"`
}

// Payment records money received for a job. Amounts are in cents.
type Payment struct {
	bun.BaseModel `bun:"table:payments,alias:p"`

	ID          int64     `bun:"id,pk"`
	JobID       int64     `bun:"job_id,notnull"`
	ClientID    string    `bun:"client_id,notnull"`
	AmountCents int64     `bun:"amount_cents,notnull"`
	Method      string    `bun:"method,notnull"`
	PaidAt      time.Time `bun:"paid_at,notnull"`
}
