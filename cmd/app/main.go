// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/clinsign/clinsign/cmd/app/commands"
	"github.com/clinsign/clinsign/internal/app"
	"github.com/clinsign/clinsign/internal/config"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "clinsign",
		Usage:   "Digital signature orchestration service",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "create-user",
				Usage: "Create a new platform user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Required: true,
						Usage:    "Full name of the user",
					},
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Required: true,
						Usage:    "Email address of the user",
					},
					&cli.StringFlag{
						Name:     "tax-id",
						Aliases:  []string{"t"},
						Required: true,
						Usage:    "Tax identifier (CPF) of the user, digits only",
					},
					&cli.BoolFlag{
						Name:    "active",
						Aliases: []string{"a"},
						Value:   true,
						Usage:   "Whether the user can authenticate immediately",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					container := app.NewContainer(config.Load())
					logger := container.Logger()
					defer shutdownContainer(ctx, container, logger)

					userRepo, err := container.UserRepository()
					if err != nil {
						return fmt.Errorf("failed to initialize user repository: %w", err)
					}

					return commands.RunCreateUser(
						ctx,
						userRepo,
						logger,
						cmd.String("name"),
						cmd.String("email"),
						cmd.String("tax-id"),
						cmd.Bool("active"),
						cmd.String("format"),
						commands.DefaultIO(),
					)
				},
			},
			{
				Name:  "verify-audit-logs",
				Usage: "Verify the cryptographic integrity of audit log entries",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "start-date",
						Aliases:  []string{"s"},
						Required: true,
						Usage:    "Start of the range (YYYY-MM-DD or 'YYYY-MM-DD HH:MM:SS')",
					},
					&cli.StringFlag{
						Name:     "end-date",
						Aliases:  []string{"e"},
						Required: true,
						Usage:    "End of the range (YYYY-MM-DD or 'YYYY-MM-DD HH:MM:SS')",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					container := app.NewContainer(config.Load())
					logger := container.Logger()
					defer shutdownContainer(ctx, container, logger)

					verifier, err := container.AuditVerifier()
					if err != nil {
						return fmt.Errorf("failed to initialize audit verifier: %w", err)
					}

					return commands.RunVerifyAuditLogs(
						ctx,
						verifier,
						logger,
						cmd.String("start-date"),
						cmd.String("end-date"),
						cmd.String("format"),
						commands.DefaultIO(),
					)
				},
			},
			{
				Name:  "create-login-session",
				Usage: "Issue a session token for an existing user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user-id",
						Aliases:  []string{"u"},
						Required: true,
						Usage:    "User ID (UUID)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg := config.Load()
					container := app.NewContainer(cfg)
					logger := container.Logger()
					defer shutdownContainer(ctx, container, logger)

					userRepo, err := container.UserRepository()
					if err != nil {
						return fmt.Errorf("failed to initialize user repository: %w", err)
					}

					loginSessionRepo, err := container.LoginSessionRepository()
					if err != nil {
						return fmt.Errorf("failed to initialize login session repository: %w", err)
					}

					tokenService, err := container.TokenService()
					if err != nil {
						return fmt.Errorf("failed to initialize token service: %w", err)
					}

					return commands.RunCreateLoginSession(
						ctx,
						userRepo,
						loginSessionRepo,
						tokenService,
						logger,
						cmd.String("user-id"),
						cfg.AuthSessionDuration,
						cmd.String("format"),
						commands.DefaultIO(),
					)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}

// shutdownContainer releases container resources and logs failures.
func shutdownContainer(ctx context.Context, container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}
