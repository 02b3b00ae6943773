// Package clients provisions client accounts.
package clients

import "github.com/spf13/cobra"

// ClientsCmd is the parent for client account commands.
var ClientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage client accounts",
}

func init() {
	ClientsCmd.AddCommand(createCmd)
}
