package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"opdclaims/internal/platform/jwt"
)

var tokenFlags struct {
	operator string
	ttl      time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an operator bearer token for the claims API",
	Long:  "Signs a token with JWT_SIGNING_KEY, JWT_ISSUER and JWT_AUDIENCE from the environment.",
	RunE:  runToken,
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenFlags.operator, "operator", "", "operator identity (required)")
	f.DurationVar(&tokenFlags.ttl, "ttl", time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("operator")
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := jwt.NewService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	if err != nil {
		return err
	}
	token, err := svc.Issue(tokenFlags.operator, tokenFlags.ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
