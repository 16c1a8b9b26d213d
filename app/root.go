// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "go-ad-admin",
	Short: "GoAD-Admin is a delegated password administration tool for Active Directory",
	Long: `GoAD-Admin is a web service that lets selected helpdesk and team admins
reset passwords and unlock accounts for the AD groups delegated to them,
without granting domain-wide privileges.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
