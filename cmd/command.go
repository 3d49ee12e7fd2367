// Package cmd provides the CLI commands for ldap-rest-auth.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "ldap-rest-auth",
	Short: "REST authentication gateway for Active Directory",
	Long: `ldap-rest-auth exposes a small REST API over an Active Directory
LDAP server: bind-based credential checks enriched with account state
and group membership, plus simple directory lookups.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to the configuration file")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
