package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the configure CLI
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "login-demo-configure",
		Short:         "Configuration tool for the Login Demo API",
		Long:          "CLI tool for writing, inspecting and testing the auth configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewShowCmd())
	rootCmd.AddCommand(NewTestCmd())
	rootCmd.AddCommand(NewTokenCmd())

	return rootCmd
}
