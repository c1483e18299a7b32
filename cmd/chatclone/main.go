package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/auth"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/config"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/logger"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/store"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "chatclone",
		Short:         "Chat service with document ingestion and long-term memory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand(), newTokenCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runServe()
			return nil
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply postgres schema migrations",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{store.DirectionUp, store.DirectionDown},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := store.DirectionUp
			if len(args) == 1 {
				direction = strings.ToLower(strings.TrimSpace(args[0]))
			}
			cfg, err := provideConfig()
			if err != nil {
				return err
			}
			log := provideLogger(cfg)
			if err := store.Migrate(log, cfg.Postgres.DSN(), direction); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", direction)
			return nil
		},
	}
}

func newTokenCommand() *cobra.Command {
	var (
		userID    string
		expiresIn string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed JWT for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := provideConfig()
			if err != nil {
				return err
			}
			token, expiresAt, err := issueToken(cfg, userID, expiresIn)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id carried by the token")
	cmd.Flags().StringVar(&expiresIn, "expires-in", "", "token lifetime (defaults to auth.jwt_expires_in)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func issueToken(cfg config.Config, userID, expiresIn string) (string, time.Time, error) {
	if strings.TrimSpace(expiresIn) == "" {
		expiresIn = cfg.Auth.JWTExpiresIn
	}
	ttl, err := time.ParseDuration(expiresIn)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid expires in: %w", err)
	}
	return auth.GenerateToken(userID, cfg.Auth.JWTSecret, ttl)
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}
