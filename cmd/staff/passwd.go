package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HSousa1987/Lavandaria-sub001/cmd/cmdutil"
	"github.com/HSousa1987/Lavandaria-sub001/internal/config"
	"github.com/HSousa1987/Lavandaria-sub001/internal/credentials"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/bunx"
	"github.com/HSousa1987/Lavandaria-sub001/internal/repository"
)

var (
	passwdPasswordFlag string
	passwdStdinFlag    bool
)

var passwdCmd = &cobra.Command{
	Use:   "passwd USERNAME",
	Short: "Replace a staff account's password",
	Long: `Replaces the password of an existing staff account. Run it against the
seeded master account on first deploy. Existing sessions stay valid until
they expire or log out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := cmdutil.ReadPassword(passwdPasswordFlag, passwdStdinFlag, cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ctx := cmd.Context()
		db, err := cmdutil.OpenDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer bunx.Close(db)

		if err := setPassword(ctx, repository.NewBunStaffRepository(db), args[0], password, credentials.HashCost); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %q\n", args[0])
		return nil
	},
}

func setPassword(ctx context.Context, repo repository.StaffRepository, username, password string, cost int) error {
	username = credentials.NormalizeHandle(credentials.PartitionStaff, username)
	user, err := repo.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("staff user %q not found", username)
	}
	if err != nil {
		return err
	}

	hash, err := credentials.HashPassword(password, cost)
	if err != nil {
		return err
	}
	return repo.UpdatePassword(ctx, user.ID, hash)
}

func init() {
	passwdCmd.Flags().StringVar(&passwdPasswordFlag, "password", "", "New password (prefer --stdin)")
	passwdCmd.Flags().BoolVar(&passwdStdinFlag, "stdin", false, "Read the password from stdin")
}
