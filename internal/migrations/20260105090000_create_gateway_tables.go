package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/HSousa1987/Lavandaria-sub001/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20260105090000, down_20260105090000)
}

type tableIndex struct {
	name    string
	model   any
	columns []string
	unique  bool
}

// up_20260105090000 creates the accounts, sessions and job tables the gateway reads
func up_20260105090000(ctx context.Context, db *bun.DB) error {
	tables := []struct {
		name  string
		model any
	}{
		{"staff_users", (*models.StaffUser)(nil)},
		{"clients", (*models.Client)(nil)},
		{"sessions", (*models.Session)(nil)},
		{"jobs", (*models.Job)(nil)},
		{"payments", (*models.Payment)(nil)},
	}
	for _, tbl := range tables {
		fmt.Printf(" [up] creating %s table...", tbl.name)
		if _, err := db.NewCreateTable().Model(tbl.model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create %s table: %w", tbl.name, err)
		}
		fmt.Println(" OK")
	}

	indexes := []tableIndex{
		{"idx_sessions_expires_at", (*models.Session)(nil), []string{"expires_at"}, false},
		{"idx_sessions_principal", (*models.Session)(nil), []string{"principal_type", "principal_id"}, false},
		{"idx_jobs_client_id", (*models.Job)(nil), []string{"client_id"}, false},
		{"idx_jobs_assigned_to", (*models.Job)(nil), []string{"assigned_to"}, false},
		{"idx_payments_paid_at", (*models.Payment)(nil), []string{"paid_at"}, false},
	}
	for _, idx := range indexes {
		q := db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.columns...).IfNotExists()
		if idx.unique {
			q = q.Unique()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	if IsPostgreSQL(db) {
		// Staff roles are a closed set; SQLite relies on application checks.
		_, err := db.ExecContext(ctx, `
			ALTER TABLE staff_users
			ADD CONSTRAINT chk_staff_users_role CHECK (role IN ('master', 'admin', 'worker'))
		`)
		if err != nil {
			return fmt.Errorf("failed to add staff role check: %w", err)
		}
	}

	return nil
}

// down_20260105090000 drops the gateway tables
func down_20260105090000(ctx context.Context, db *bun.DB) error {
	tables := []struct {
		name  string
		model any
	}{
		{"payments", (*models.Payment)(nil)},
		{"jobs", (*models.Job)(nil)},
		{"sessions", (*models.Session)(nil)},
		{"clients", (*models.Client)(nil)},
		{"staff_users", (*models.StaffUser)(nil)},
	}
	for _, tbl := range tables {
		fmt.Printf(" [down] dropping %s table...", tbl.name)
		if _, err := db.NewDropTable().Model(tbl.model).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop %s table: %w", tbl.name, err)
		}
		fmt.Println(" OK")
	}
	return nil
}
