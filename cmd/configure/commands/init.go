package commands

import (
	"fmt"
	"os"

	"github.com/benvon/login-demo/internal/config"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var (
		auth   config.AuthConfig
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an auth config file",
		Long:  "Write auth_config.json (or YAML for .yaml/.yml outputs) with the authorization server domain and API audience",
		RunE: func(cmd *cobra.Command, args []string) error {
			if auth.Domain == "" || auth.Audience == "" {
				return fmt.Errorf("required flags: --domain, --audience")
			}

			if !force {
				if _, err := os.Stat(output); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", output)
				}
			}

			if err := config.WriteAuthConfig(output, &auth); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			fmt.Fprintf(cmd.OutOrStdout(), "  Issuer: %s\n", auth.Issuer())
			fmt.Fprintf(cmd.OutOrStdout(), "  Audience: %s\n", auth.Audience)
			return nil
		},
	}

	cmd.Flags().StringVar(&auth.Domain, "domain", "", "Authorization server domain, e.g. tenant.auth0.com (required)")
	cmd.Flags().StringVar(&auth.Audience, "audience", "", "API identifier expected in the aud claim (required)")
	cmd.Flags().StringVar(&auth.ClientID, "client-id", "", "Front-end client ID")
	cmd.Flags().StringVar(&auth.APIURI, "api-uri", "", "API base URL used by the front end")
	cmd.Flags().StringVar(&auth.AppURI, "app-uri", "", "Front-end URL")
	cmd.Flags().StringVar(&auth.ErrorPath, "error-path", "", "Front-end error route")
	cmd.Flags().StringVarP(&output, "output", "o", config.DefaultAuthConfigPath, "File to write")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
