package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/login-demo/internal/services/oidc"
	"github.com/spf13/cobra"
)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	var (
		configPath string
		jwksURL    string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the auth configuration",
		Long:  "Load the auth config and fetch the JWKS the server will verify tokens against",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if jwksURL == "" {
				jwksURL = cfg.Auth.JWKSURL()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Issuer: %s\n", cfg.Auth.Issuer())
			fmt.Fprintf(out, "\nTesting JWKS endpoint: %s\n", jwksURL)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			manager, err := oidc.NewJWKSManager(ctx, jwksURL, oidc.JWKSOptions{})
			if err != nil {
				return err
			}
			if _, err := manager.Warmup(ctx); err != nil {
				return fmt.Errorf("failed to fetch JWKS: %w", err)
			}
			kids, err := manager.KeyIDs(ctx)
			if err != nil {
				return err
			}
			if len(kids) == 0 {
				return fmt.Errorf("JWKS endpoint returned no keys")
			}

			fmt.Fprintf(out, "✓ JWKS endpoint returned %d key(s)\n", len(kids))
			for _, kid := range kids {
				fmt.Fprintf(out, "  - kid: %s\n", kid)
			}
			fmt.Fprintln(out, "\n✓ Auth configuration test passed")
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Auth config file (default $AUTH_CONFIG_PATH or auth_config.json)")
	cmd.Flags().StringVar(&jwksURL, "jwks-url", "", "Override the JWKS URL derived from the domain")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	return cmd
}
