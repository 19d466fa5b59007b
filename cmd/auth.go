package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"workspacemcp/internal/config"
	"workspacemcp/internal/google"
)

// newAuthCmd manages the legacy per-account credential files used by the
// stdio transport: start an authorization flow, complete it with the code
// Google hands back, or remove stored credentials.
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored Google credentials",
		Long: `Manage the per-account Google credentials the stdio transport uses.

Run "auth login" to print an authorization URL, visit it in a browser, then
run "auth login --code <code>" with the authorization code Google returns.
Credentials are stored per account under the user cache directory.`,
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthRevokeCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		email string
		code  string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize a Google account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}

			cfg := &config.OAuth{}
			cfg.LoadOAuthFromEnv()
			if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
				return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
			}

			if code == "" {
				state := uuid.NewString()
				fmt.Printf("Visit this URL to authorize %s:\n\n  %s\n\n", email, google.AuthURL(cfg, google.DefaultAuthScopes, state))
				fmt.Println("Then re-run with --code <authorization code>.")
				return nil
			}

			if err := google.ExchangeAndSave(context.Background(), cfg, email, code, google.DefaultAuthScopes); err != nil {
				return fmt.Errorf("failed to exchange authorization code: %w", err)
			}
			fmt.Printf("Credentials stored for %s.\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Google account email to authorize")
	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the Google consent page")
	return cmd
}

func newAuthRevokeCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Remove stored credentials for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if !google.HasCredentials(email) {
				return fmt.Errorf("no stored credentials for %s", email)
			}
			if err := google.RemoveCredentials(email); err != nil {
				return fmt.Errorf("failed to remove credentials: %w", err)
			}
			fmt.Printf("Credentials removed for %s.\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Google account email")
	return cmd
}
