package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/HSousa1987/Lavandaria-sub001/cmd/clients"
	"github.com/HSousa1987/Lavandaria-sub001/cmd/sessions"
	"github.com/HSousa1987/Lavandaria-sub001/cmd/staff"
	"github.com/HSousa1987/Lavandaria-sub001/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lavandaria",
	Short: "Lavandaria API gateway",
	Long: `Lavandaria authenticates staff and clients of the laundry and cleaning
operations app and authorizes every API request against the route policy
table before it reaches a handler.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := readConfigFile(cmd); err != nil {
			return err
		}
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func init() {
	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file (optional)")
	flags.String("db-url", "", "Database connection URL (env: LAVANDARIA_DATABASE_URL)")
	flags.String("server-addr", "", "Server bind address (env: LAVANDARIA_SERVER_ADDR)")
	flags.Bool("debug", false, "Enable debug logging (env: LAVANDARIA_DEBUG)")
	flags.String("log-format", "", "Log format, text or json (env: LAVANDARIA_LOG_FORMAT)")

	_ = viper.BindPFlag("database_url", flags.Lookup("db-url"))
	_ = viper.BindPFlag("server_addr", flags.Lookup("server-addr"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("log_format", flags.Lookup("log-format"))

	// Add subcommands
	rootCmd.AddCommand(staff.StaffCmd)
	rootCmd.AddCommand(clients.ClientsCmd)
	rootCmd.AddCommand(sessions.SessionsCmd)
}

func readConfigFile(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
