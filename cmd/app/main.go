// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/cryptshare/cryptshare/cmd/app/commands"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "cryptshare",
		Usage:   "Encrypted file sharing service",
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
				Name:  "create-server-keys",
				Usage: "Generate the static server secrets (file key, MFA seed key, token secrets, audit signing key)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "kms-provider",
						Usage: "KMS provider for key wrapping (localsecrets, gcpkms, awskms, azurekeyvault, hashivault)",
					},
					&cli.StringFlag{
						Name:  "kms-key-uri",
						Usage: "KMS keeper URI used to encrypt the encryption keys before output",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateServerKeys(
						ctx,
						cmd.String("kms-provider"),
						cmd.String("kms-key-uri"),
						os.Stdout,
					)
				},
			},
			{
				Name:  "verify-audit-logs",
				Usage: "Verify the audit log signature chain",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunVerifyAuditLogs(ctx, cmd.String("format"))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
