// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the lifeboard CLI command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bureau-foundation/lifeboard/cmd/lifeboard/cli"
	"github.com/bureau-foundation/lifeboard/lib/version"
)

// Root builds the complete command tree. Command output goes to out;
// now supplies the reference time for relative timestamps.
func Root(out io.Writer, now func() time.Time) *cli.Command {
	var params rootParams
	root := &cli.Command{
		Name: "lifeboard",
		Description: `lifeboard: shared Game of Life boards.

Boards live in lifeboard-service. Every command here talks to it over
its Unix socket; any number of people can edit and watch the same board.`,
		Subcommands: []*cli.Command{
			createCommand(out),
			listCommand(out, now),
			showCommand(out),
			deleteCommand(out),
			toggleCommand(out),
			stepCommand(out),
			startCommand(out),
			stopCommand(out),
			resetCommand(out),
			stampCommand(out),
			watchCommand(),
			participantsCommand(out, now),
			rulesCommand(out),
			patternsCommand(out),
			statusCommand(out),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
					fmt.Fprintf(out, "lifeboard %s\n", version.Full())
					return nil
				},
			},
		},
		Params: func() any { return &params },
	}
	root.Run = func(_ context.Context, args []string, _ *slog.Logger) error {
		if params.Version {
			fmt.Fprintf(out, "lifeboard %s\n", version.Full())
			return nil
		}
		root.PrintHelp(os.Stderr)
		if len(args) > 0 {
			return cli.Validation("unexpected argument %q", args[0])
		}
		return cli.Validation("command required")
	}
	return root
}

type rootParams struct {
	Version bool `flag:"version" desc:"print version information and exit"`
}
