// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/bureau-foundation/lifeboard/cmd/lifeboard/cli"
)

type infoParams struct {
	BoardConnection
	cli.JSONOutput
}

func rulesCommand(out io.Writer) *cli.Command {
	var params infoParams

	return &cli.Command{
		Name:    "rules",
		Summary: "List rule presets and board sizes",
		Description: `List the named rule presets, the offered board sizes, and the
service's defaults for new boards. Any B../S.. rule string is also
accepted by 'lifeboard create --rules'.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, _ []string, _ *slog.Logger) error {
			client := params.connect()
			ctx, cancel := callContext(ctx)
			defer cancel()

			info, err := client.ListRules(ctx)
			if err != nil {
				return commandError(err, params.SocketPath)
			}
			if done, err := params.EmitJSON(out, info); done {
				return err
			}
			return writeRules(out, info)
		},
	}
}

func patternsCommand(out io.Writer) *cli.Command {
	var params infoParams

	return &cli.Command{
		Name:    "patterns",
		Summary: "List the pattern library",
		Description: `List the patterns that 'lifeboard create --pattern' and
'lifeboard stamp' accept: the built-in set plus any from the service's
pattern library file.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, _ []string, _ *slog.Logger) error {
			client := params.connect()
			ctx, cancel := callContext(ctx)
			defer cancel()

			patterns, err := client.ListPatterns(ctx)
			if err != nil {
				return commandError(err, params.SocketPath)
			}
			if done, err := params.EmitJSON(out, patterns); done {
				return err
			}
			return writePatterns(out, patterns)
		},
	}
}

func statusCommand(out io.Writer) *cli.Command {
	var params infoParams

	return &cli.Command{
		Name:    "status",
		Summary: "Show lifeboard-service status",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, _ []string, _ *slog.Logger) error {
			client := params.connect()
			ctx, cancel := callContext(ctx)
			defer cancel()

			status, err := client.Status(ctx)
			if err != nil {
				return commandError(err, params.SocketPath)
			}
			if done, err := params.EmitJSON(out, status); done {
				return err
			}
			writeStatus(out, status)
			return nil
		},
	}
}
