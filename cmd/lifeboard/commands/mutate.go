// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"io"
	"log/slog"
	"strconv"

	"github.com/bureau-foundation/lifeboard/cmd/lifeboard/cli"
	"github.com/bureau-foundation/lifeboard/lib/life"
)

// mutationParams are the flags shared by every command that submits a
// mutation.
type mutationParams struct {
	BoardConnection
	cli.JSONOutput
	KnownVersion uint64 `json:"known_version" flag:"known-version" desc:"board version you last saw, recorded for diagnostics"`
}

// submitAndReport submits one mutation and prints the resulting
// snapshot.
func submitAndReport(ctx context.Context, out io.Writer, params *mutationParams, boardID string, mutation life.Mutation) error {
	client := params.connect()
	ctx, cancel := callContext(ctx)
	defer cancel()

	snapshot, err := client.Submit(ctx, boardID, mutation, params.KnownVersion)
	if err != nil {
		return commandError(err, params.SocketPath)
	}
	if done, err := params.EmitJSON(out, snapshot); done {
		return err
	}
	writeMutationResult(out, mutation.Op(), snapshot)
	return nil
}

// parseCoordinates parses X and Y positional arguments.
func parseCoordinates(xText, yText string) (int, int, error) {
	x, err := strconv.Atoi(xText)
	if err != nil {
		return 0, 0, cli.Validation("column %q is not an integer", xText)
	}
	y, err := strconv.Atoi(yText)
	if err != nil {
		return 0, 0, cli.Validation("row %q is not an integer", yText)
	}
	return x, y, nil
}

// --- toggle ---

func toggleCommand(out io.Writer) *cli.Command {
	var params mutationParams
	const usage = "lifeboard toggle <board> <x> <y> [flags]"

	return &cli.Command{
		Name:    "toggle",
		Summary: "Flip one cell",
		Description: `Flip the cell at column x, row y between alive and dead. Rejected
while the board is running.`,
		Usage: usage,
		Examples: []cli.Example{
			{Command: "lifeboard toggle 7d9f3c2a-6a4e-4c8b-9a51-0f6a0f2b1e3d 3 4"},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 3 {
				return cli.Validation("expected a board id and two coordinates, got %d arguments", len(args)).
					WithHint("Usage: " + usage)
			}
			x, y, err := parseCoordinates(args[1], args[2])
			if err != nil {
				return err
			}
			return submitAndReport(ctx, out, &params, args[0], life.ToggleCell{X: x, Y: y})
		},
	}
}

// --- step ---

func stepCommand(out io.Writer) *cli.Command {
	var params mutationParams
	const usage = "lifeboard step <board> [flags]"

	return &cli.Command{
		Name:        "step",
		Summary:     "Advance an idle board one generation",
		Description: `Advance the board by one generation. Rejected while the board is running.`,
		Usage:       usage,
		Params:      func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			boardID, err := boardArgument(args, usage)
			if err != nil {
				return err
			}
			return submitAndReport(ctx, out, &params, boardID, life.Step{})
		},
	}
}

// --- start / stop ---

func startCommand(out io.Writer) *cli.Command {
	return runningCommand(out, "start", "Start auto-evolution", true)
}

func stopCommand(out io.Writer) *cli.Command {
	return runningCommand(out, "stop", "Stop auto-evolution", false)
}

func runningCommand(out io.Writer, name, summary string, running bool) *cli.Command {
	var params mutationParams
	usage := "lifeboard " + name + " <board> [flags]"

	return &cli.Command{
		Name:    name,
		Summary: summary,
		Description: `While a board is running the service advances it one generation per
tick. Toggle, step, and stamp are rejected until it is stopped.`,
		Usage:  usage,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			boardID, err := boardArgument(args, usage)
			if err != nil {
				return err
			}
			return submitAndReport(ctx, out, &params, boardID, life.SetRunning{Running: running})
		},
	}
}

// --- reset ---

func resetCommand(out io.Writer) *cli.Command {
	var params mutationParams
	const usage = "lifeboard reset <board> [flags]"

	return &cli.Command{
		Name:    "reset",
		Summary: "Clear a board",
		Description: `Kill every cell, zero the generation, and stop the board. Allowed
while running.`,
		Usage:  usage,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			boardID, err := boardArgument(args, usage)
			if err != nil {
				return err
			}
			return submitAndReport(ctx, out, &params, boardID, life.Reset{})
		},
	}
}

// --- stamp ---

func stampCommand(out io.Writer) *cli.Command {
	var params mutationParams
	const usage = "lifeboard stamp <board> <pattern> <x> <y> [flags]"

	return &cli.Command{
		Name:    "stamp",
		Summary: "Stamp a library pattern onto a board",
		Description: `Set a pattern's live cells alive with its top-left corner at column
x, row y, wrapping at the edges. Cells outside the pattern are left
alone. Rejected while the board is running. See 'lifeboard patterns'
for the library.`,
		Usage: usage,
		Examples: []cli.Example{
			{
				Description: "Stamp a glider near the top-left corner",
				Command:     "lifeboard stamp 7d9f3c2a-6a4e-4c8b-9a51-0f6a0f2b1e3d glider 1 1",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 4 {
				return cli.Validation("expected a board id, a pattern, and two coordinates, got %d arguments", len(args)).
					WithHint("Usage: " + usage)
			}
			x, y, err := parseCoordinates(args[2], args[3])
			if err != nil {
				return err
			}

			client := params.connect()
			ctx, cancel := callContext(ctx)
			defer cancel()

			snapshot, err := client.Stamp(ctx, args[0], args[1], x, y, params.KnownVersion)
			if err != nil {
				return commandError(err, params.SocketPath)
			}
			if done, err := params.EmitJSON(out, snapshot); done {
				return err
			}
			writeMutationResult(out, life.OpStampPattern, snapshot)
			return nil
		},
	}
}
