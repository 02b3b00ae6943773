// Package staff provisions staff accounts. There is no HTTP surface for this;
// accounts are created by an operator with shell access.
package staff

import "github.com/spf13/cobra"

// StaffCmd is the parent for staff account commands.
var StaffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Manage staff accounts",
}

func init() {
	StaffCmd.AddCommand(createCmd)
	StaffCmd.AddCommand(listCmd)
	StaffCmd.AddCommand(passwdCmd)
}
