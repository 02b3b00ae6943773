package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
	"github.com/HSousa1987/Lavandaria-sub001/internal/credentials"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/bunx"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20260105090100, down_20260105090100)
}

const (
	seedMasterUsername = "master"
	seedMasterPassword = "master123"
)

// up_20260105090100 installs the bootstrap master account when no staff exist.
// Rotate its password with `staff passwd master` on first deploy.
func up_20260105090100(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] seeding master account...")

	count, err := db.NewSelect().Model((*models.StaffUser)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count staff users: %w", err)
	}
	if count > 0 {
		fmt.Println(" SKIPPED (staff exist)")
		return nil
	}

	hash, err := credentials.HashPassword(seedMasterPassword, credentials.HashCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	master := &models.StaffUser{
		ID:           bunx.NewUUIDv7(),
		Username:     seedMasterUsername,
		DisplayName:  "Master",
		Role:         string(auth.PrincipalTypeMaster),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := db.NewInsert().Model(master).Exec(ctx); err != nil {
		return fmt.Errorf("failed to seed master account: %w", err)
	}

	fmt.Println(" OK")
	return nil
}

// down_20260105090100 removes the bootstrap account
func down_20260105090100(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] removing seeded master account...")
	_, err := db.NewDelete().
		Model((*models.StaffUser)(nil)).
		Where("username = ?", seedMasterUsername).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove master account: %w", err)
	}
	fmt.Println(" OK")
	return nil
}
