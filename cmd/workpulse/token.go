package main

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/workpulse/work-pulse/pkg/middleware"
)

func newTokenCmd(root *rootOptions) *cobra.Command {
	var (
		tenantID string
		userID   string
		role     string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID == "" || userID == "" {
				return fmt.Errorf("%w: --tenant and --user", errMissingFlag)
			}

			cfg, _, err := root.load()
			if err != nil {
				return err
			}

			token, err := middleware.IssueToken(cfg.JWT.Secret, middleware.Claims{
				TenantID:         tenantID,
				UserID:           userID,
				Role:             role,
				RegisteredClaims: jwt.RegisteredClaims{Issuer: cfg.JWT.Issuer},
			}, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id (required)")
	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&role, "role", "member", "role claim; admin may manage tenants")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
