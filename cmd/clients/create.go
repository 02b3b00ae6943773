package clients

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/spf13/cobra"

	"github.com/HSousa1987/Lavandaria-sub001/cmd/cmdutil"
	"github.com/HSousa1987/Lavandaria-sub001/internal/config"
	"github.com/HSousa1987/Lavandaria-sub001/internal/credentials"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/bunx"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/models"
	"github.com/HSousa1987/Lavandaria-sub001/internal/repository"
)

var (
	phoneFlag    string
	nameFlag     string
	emailFlag    string
	passwordFlag string
	stdinFlag    bool
)

var createCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a client account",
	Example: `  lavandaria clients create --phone "+351 912 345 678" --name "Carla" --stdin`,
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

		client, err := createClient(ctx, repository.NewBunClientRepository(db), newClient{
			Phone:    phoneFlag,
			Name:     nameFlag,
			Email:    emailFlag,
			Password: password,
		}, credentials.HashCost)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created client %s (id %s)\n", client.Phone, client.ID)
		return nil
	},
}

type newClient struct {
	Phone    string
	Name     string
	Email    string
	Password string
}

func createClient(ctx context.Context, repo repository.ClientRepository, in newClient, cost int) (*models.Client, error) {
	phone := credentials.NormalizePhone(in.Phone)
	if phone == "" || phone == "+" {
		return nil, fmt.Errorf("--phone flag is required")
	}
	if in.Name == "" {
		return nil, fmt.Errorf("--name flag is required")
	}

	var email *string
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return nil, fmt.Errorf("invalid email format: %w", err)
		}
		email = &in.Email
	}

	existing, err := repo.GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check phone uniqueness: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("client with phone %q already exists", phone)
	}

	hash, err := credentials.HashPassword(in.Password, cost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	client := &models.Client{
		ID:           bunx.NewUUIDv7(),
		Phone:        phone,
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

func init() {
	createCmd.Flags().StringVar(&phoneFlag, "phone", "", "Login phone number (required)")
	createCmd.Flags().StringVar(&nameFlag, "name", "", "Client name (required)")
	createCmd.Flags().StringVar(&emailFlag, "email", "", "Contact email")
	createCmd.Flags().StringVar(&passwordFlag, "password", "", "Password (prefer --stdin)")
	createCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read the password from stdin")
}
