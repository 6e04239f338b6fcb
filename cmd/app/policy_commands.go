package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/pdns-gateway/cmd/app/commands"
	"github.com/allisson/pdns-gateway/internal/config"
)

func getPolicyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "check-config",
			Usage: "Load and validate the policy document, then print a summary",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "path",
					Aliases: []string{"p"},
					Value:   "",
					Usage:   "Policy document path (defaults to PROXY_CONFIG_PATH)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				path := cmd.String("path")
				if path == "" {
					path = config.Load().PolicyPath
				}
				return commands.RunCheckConfig(commands.DefaultIO().Writer, path)
			},
		},
		{
			Name:  "hash-token",
			Usage: "Print the SHA-512 fingerprint of a token for use in the policy document",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "token",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Plain token to fingerprint",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunHashToken(commands.DefaultIO().Writer, cmd.String("token"))
			},
		},
	}
}
