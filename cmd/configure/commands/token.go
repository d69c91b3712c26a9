package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/benvon/login-demo/internal/services/oidc"
	"github.com/benvon/login-demo/internal/validation"
	"github.com/spf13/cobra"
)

// ClientSecretEnv supplies --client-secret when the flag is omitted
const ClientSecretEnv = "AUTH_CLIENT_SECRET"

// NewTokenCmd creates the token command
func NewTokenCmd() *cobra.Command {
	var (
		configPath   string
		clientID     string
		clientSecret string
		tokenURL     string
		scopes       []string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token with the client credentials grant",
		Long:  "Request an access token for the configured audience from the authorization server, for calling the private endpoints by hand",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientSecret == "" {
				clientSecret = os.Getenv(ClientSecretEnv)
			}
			if clientID == "" || clientSecret == "" {
				return fmt.Errorf("required flags: --client-id, --client-secret (or $%s)", ClientSecretEnv)
			}
			for _, scope := range scopes {
				if err := validation.Validate.Var(scope, "scope_name"); err != nil {
					return fmt.Errorf("invalid scope %q", scope)
				}
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if tokenURL == "" {
				tokenURL = cfg.Auth.TokenURL()
			}

			client, err := oidc.NewClientCredentials(tokenURL, clientID, clientSecret, cfg.Auth.Audience, scopes...)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			token, err := client.Token(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Auth config file (default $AUTH_CONFIG_PATH or auth_config.json)")
	cmd.Flags().StringVar(&clientID, "client-id", "", "Machine-to-machine client ID (required)")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Machine-to-machine client secret (required unless $"+ClientSecretEnv+" is set)")
	cmd.Flags().StringVar(&tokenURL, "token-url", "", "Override the token endpoint derived from the domain")
	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "Scopes to request (repeatable)")

	return cmd
}
