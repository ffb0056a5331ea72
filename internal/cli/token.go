package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rrens/db-assistant/internal/app"
	"github.com/Rrens/db-assistant/internal/security"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		groups  []string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Init(os.Stderr)
			if err != nil {
				return err
			}
			if !cfg.Auth.Enabled() {
				return errors.New("auth.jwt_secret (JWT_SECRET) is not set")
			}
			if ttl <= 0 {
				ttl = cfg.Auth.AccessTokenTTL
			}

			token, err := security.NewJWTManager(cfg.Auth.JWTSecret, ttl).GenerateAccessToken(subject, groups)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Token subject (caller identity)")
	cmd.Flags().StringSliceVar(&groups, "group", nil, "Restrict the token to these tool groups")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to auth.access_token_ttl)")
	cmd.MarkFlagRequired("subject")
	return cmd
}
