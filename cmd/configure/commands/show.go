package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Long:  "Load the auth config and environment settings the server would use and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Auth config: %s\n", cfg.AuthConfigPath)
			fmt.Fprintf(out, "  Domain: %s\n", cfg.Auth.Domain)
			fmt.Fprintf(out, "  Audience: %s\n", cfg.Auth.Audience)
			fmt.Fprintf(out, "  Issuer: %s\n", cfg.Auth.Issuer())
			fmt.Fprintf(out, "  JWKS URL: %s\n", cfg.Auth.JWKSURL())
			if cfg.Auth.ClientID != "" {
				fmt.Fprintf(out, "  Client ID: %s\n", cfg.Auth.ClientID)
			}
			fmt.Fprintf(out, "Environment: %s\n", cfg.Environment)
			fmt.Fprintf(out, "  Port: %s\n", cfg.ServerPort)
			fmt.Fprintf(out, "  CORS origins: %s\n", cfg.FrontendURL)
			fmt.Fprintf(out, "  Rate limit: %s\n", valueOrNone(cfg.RateLimit))
			fmt.Fprintf(out, "  Trust proxy headers: %t\n", cfg.TrustProxy)
			if cfg.IsProduction() {
				fmt.Fprintf(out, "  Static files: %s\n", cfg.StaticDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Auth config file (default $AUTH_CONFIG_PATH or auth_config.json)")

	return cmd
}

func valueOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
