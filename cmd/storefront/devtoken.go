package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"optivista/internal/adapters/out/devauth"
	"optivista/internal/application/auth"
	appcfg "optivista/internal/infra/config"
)

var devTokenOpts struct {
	uid   string
	email string
	name  string
	ttl   time.Duration
}

var devTokenCmd = &cobra.Command{
	Use:   "devtoken",
	Short: "Issue a bearer token for AUTH_MODE=dev",
	Long: `Signs a short-lived token with DEV_AUTH_SECRET so the API can be
exercised locally without Firebase.`,
	RunE: runDevToken,
}

func init() {
	f := devTokenCmd.Flags()
	f.StringVar(&devTokenOpts.uid, "uid", "", "user id (required)")
	f.StringVar(&devTokenOpts.email, "email", "", "email claim")
	f.StringVar(&devTokenOpts.name, "name", "", "display name claim")
	f.DurationVar(&devTokenOpts.ttl, "ttl", time.Hour, "token lifetime")
	_ = devTokenCmd.MarkFlagRequired("uid")
}

func runDevToken(cmd *cobra.Command, _ []string) error {
	cfg := appcfg.Load()
	if cfg.AuthMode != appcfg.AuthDev {
		return fmt.Errorf("devtoken: AUTH_MODE is %q, want %q", cfg.AuthMode, appcfg.AuthDev)
	}
	if strings.TrimSpace(cfg.DevAuthSecret) == "" {
		return errors.New("devtoken: DEV_AUTH_SECRET is empty")
	}

	email := strings.TrimSpace(devTokenOpts.email)
	token, err := devauth.NewVerifier(cfg.DevAuthSecret).Issue(auth.Identity{
		UID:           devTokenOpts.uid,
		Email:         email,
		Name:          devTokenOpts.name,
		EmailVerified: email != "",
		Provider:      "password",
	}, devTokenOpts.ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
