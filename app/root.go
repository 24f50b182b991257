// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cpe-system",
	Short: "CPE System is a web-based back office for ISP operations",
	Long: `CPE System is a web-based back office for ISP operations
that provides client management, service tickets with realtime chat,
and role-based access control over feature modules.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
