package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/pdns-gateway/cmd/app/commands"
	"github.com/allisson/pdns-gateway/internal/config"
)

func getAuditCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "read-audit-log",
			Usage: "Read back audit log entries with optional filters",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "path",
					Aliases: []string{"p"},
					Value:   "",
					Usage:   "Audit log path (defaults to AUDIT_LOG_PATH)",
				},
				&cli.StringFlag{
					Name:    "environment",
					Aliases: []string{"e"},
					Usage:   "Only entries for this environment",
				},
				&cli.StringFlag{
					Name:    "method",
					Aliases: []string{"m"},
					Usage:   "Only entries with this HTTP method",
				},
				&cli.IntFlag{
					Name:    "status-code",
					Aliases: []string{"s"},
					Usage:   "Only entries with this response status code",
				},
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   100,
					Usage:   "Maximum number of entries to print",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				path := cmd.String("path")
				if path == "" {
					path = config.Load().AuditLogPath
				}
				return commands.RunReadAuditLog(
					commands.DefaultIO().Writer,
					path,
					cmd.String("environment"),
					cmd.String("method"),
					int(cmd.Int("status-code")),
					int(cmd.Int("limit")),
				)
			},
		},
	}
}
