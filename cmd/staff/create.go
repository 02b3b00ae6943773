package staff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/HSousa1987/Lavandaria-sub001/cmd/cmdutil"
	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
	"github.com/HSousa1987/Lavandaria-sub001/internal/config"
	"github.com/HSousa1987/Lavandaria-sub001/internal/credentials"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/bunx"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/models"
	"github.com/HSousa1987/Lavandaria-sub001/internal/repository"
)

var (
	usernameFlag string
	nameFlag     string
	roleFlag     string
	passwordFlag string
	stdinFlag    bool
)

var createCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a staff account",
	Example: `  lavandaria staff create --username wendy --name "Wendy" --role worker --stdin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := cmdutil.ReadPassword(passwordFlag, stdinFlag, cmd.InOrStdin(), cmd.ErrOrStderr())
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

		user, err := createStaff(ctx, repository.NewBunStaffRepository(db), newStaff{
			Username: usernameFlag,
			Name:     nameFlag,
			Role:     roleFlag,
			Password: password,
		}, credentials.HashCost)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q (id %s)\n", user.Role, user.Username, user.ID)
		return nil
	},
}

type newStaff struct {
	Username string
	Name     string
	Role     string
	Password string
}

func createStaff(ctx context.Context, repo repository.StaffRepository, in newStaff, cost int) (*models.StaffUser, error) {
	username := credentials.NormalizeHandle(credentials.PartitionStaff, in.Username)
	if username == "" {
		return nil, fmt.Errorf("--username flag is required")
	}
	if in.Name == "" {
		in.Name = in.Username
	}
	role, err := auth.ParseStaffRole(in.Role)
	if err != nil {
		return nil, err
	}

	existing, err := repo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username uniqueness: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("staff user %q already exists", username)
	}

	hash, err := credentials.HashPassword(in.Password, cost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.StaffUser{
		ID:           bunx.NewUUIDv7(),
		Username:     username,
		DisplayName:  in.Name,
		Role:         role.String(),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create staff user: %w", err)
	}
	return user, nil
}

func init() {
	createCmd.Flags().StringVar(&usernameFlag, "username", "", "Login username (required)")
	createCmd.Flags().StringVar(&nameFlag, "name", "", "Display name (defaults to the username)")
	createCmd.Flags().StringVar(&roleFlag, "role", "worker", "Role: worker, admin or master")
	createCmd.Flags().StringVar(&passwordFlag, "password", "", "Password (prefer --stdin)")
	createCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read the password from stdin")
}
