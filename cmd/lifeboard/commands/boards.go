// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/bureau-foundation/lifeboard/cmd/lifeboard/cli"
	"github.com/bureau-foundation/lifeboard/lib/boardclient"
)

// boardArgument extracts the single board id positional argument.
func boardArgument(args []string, usage string) (string, error) {
	if len(args) != 1 {
		return "", cli.Validation("expected a board id, got %d arguments", len(args)).
			WithHint("Usage: " + usage)
	}
	return args[0], nil
}

// --- create ---

type createParams struct {
	BoardConnection
	cli.JSONOutput
	Dimensions string `json:"dimensions" flag:"dimensions,d" desc:"board size as WxH (default: the service's default size)"`
	Rules      string `json:"rules"      flag:"rules,r"      desc:"rule preset name or B../S.. rule string (default: the service's default rules)"`
	Pattern    string `json:"pattern"    flag:"pattern,p"    desc:"library pattern to stamp on the new board"`
	X          int    `json:"x"          flag:"x"            desc:"column of the pattern's top-left cell"`
	Y          int    `json:"y"          flag:"y"            desc:"row of the pattern's top-left cell"`
}

func createCommand(out io.Writer) *cli.Command {
	var params createParams
	const usage = "lifeboard create <name> [flags]"

	return &cli.Command{
		Name:    "create",
		Summary: "Create a board",
		Description: `Create a new idle board at version 1. The name must be 3 to 50
characters after trimming. Size and rules default to the service's
configuration; see 'lifeboard rules' for the presets.`,
		Usage: usage,
		Examples: []cli.Example{
			{
				Description: "Create a board with the default size and rules",
				Command:     "lifeboard create \"lunch break\"",
			},
			{
				Description: "Create a HighLife board seeded with an R-pentomino",
				Command:     "lifeboard create replicators -d 30x30 -r highlife -p r-pentomino --x 14 --y 14",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("board name is required").WithHint("Usage: " + usage)
			}
			client := params.connect()
			ctx, cancel := callContext(ctx)
			defer cancel()

			snapshot, err := client.CreateBoard(ctx, boardclient.CreateRequest{
				Name:       strings.Join(args, " "),
				Dimensions: params.Dimensions,
				Rules:      params.Rules,
				Pattern:    params.Pattern,
				X:          params.X,
				Y:          params.Y,
			})
			if err != nil {
				return commandError(err, params.SocketPath)
			}
			logger.Debug("board created", "board_id", snapshot.BoardID, "version", snapshot.Version)

			if done, err := params.EmitJSON(out, snapshot); done {
				return err
			}
			return writeSnapshot(out, snapshot)
		},
	}
}

// --- list ---

type listParams struct {
	BoardConnection
	cli.JSONOutput
	Running bool `json:"running" flag:"running" desc:"only list running boards"`
}

func listCommand(out io.Writer, now func() time.Time) *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List boards",
		Description: `List every stored board, most recently updated first, with its
size, rules, state, and how long ago it last changed.`,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("list takes no arguments")
			}
			client := params.connect()
			ctx, cancel := callContext(ctx)
			defer cancel()

			boards, err := client.ListBoards(ctx)
			if err != nil {
				return commandError(err, params.SocketPath)
			}
			if params.Running {
				running := boards[:0]
				for _, board := range boards {
					if board.Running {
						running = append(running, board)
					}
				}
				boards = running
			}

			if done, err := params.EmitJSON(out, boards); done {
				return err
			}
			if len(boards) == 0 {
				logger.Info("no boards found")
				return nil
			}
			return writeBoardTable(out, boards, now())
		},
	}
}

// --- show ---

type showParams struct {
	BoardConnection
	cli.JSONOutput
}

func showCommand(out io.Writer) *cli.Command {
	var params showParams
	const usage = "lifeboard show <board> [flags]"

	return &cli.Command{
		Name:    "show",
		Summary: "Print a board's current state",
		Usage:   usage,
		Examples: []cli.Example{
			{
				Description: "Print the snapshot as JSON, cells in wire form",
				Command:     "lifeboard show 7d9f3c2a-6a4e-4c8b-9a51-0f6a0f2b1e3d --json",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			boardID, err := boardArgument(args, usage)
			if err != nil {
				return err
			}
			client := params.connect()
			ctx, cancel := callContext(ctx)
			defer cancel()

			snapshot, err := client.GetBoard(ctx, boardID)
			if err != nil {
				return commandError(err, params.SocketPath)
			}
			if done, err := params.EmitJSON(out, snapshot); done {
				return err
			}
			return writeSnapshot(out, snapshot)
		},
	}
}

// --- delete ---

type deleteParams struct {
	BoardConnection
}

func deleteCommand(out io.Writer) *cli.Command {
	var params deleteParams
	const usage = "lifeboard delete <board> [flags]"

	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a board",
		Description: `Delete a board and its participation history. Anyone watching the
board is told it was deleted and their watch ends.`,
		Usage:  usage,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			boardID, err := boardArgument(args, usage)
			if err != nil {
				return err
			}
			client := params.connect()
			ctx, cancel := callContext(ctx)
			defer cancel()

			if err := client.DeleteBoard(ctx, boardID); err != nil {
				return commandError(err, params.SocketPath)
			}
			logger.Debug("board deleted", "board_id", boardID)
			fmt.Fprintf(out, "deleted %s\n", boardID)
			return nil
		},
	}
}

// --- participants ---

type participantsParams struct {
	BoardConnection
	cli.JSONOutput
}

func participantsCommand(out io.Writer, now func() time.Time) *cli.Command {
	var params participantsParams
	const usage = "lifeboard participants <board> [flags]"

	return &cli.Command{
		Name:    "participants",
		Summary: "Show who has edited a board",
		Description: `List everyone who has submitted a mutation to a board, with their
number of edits and when they last made one. Edits are attributed by
--participant.`,
		Usage:  usage,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			boardID, err := boardArgument(args, usage)
			if err != nil {
				return err
			}
			client := params.connect()
			ctx, cancel := callContext(ctx)
			defer cancel()

			participants, err := client.Participants(ctx, boardID)
			if err != nil {
				return commandError(err, params.SocketPath)
			}
			if done, err := params.EmitJSON(out, participants); done {
				return err
			}
			if len(participants) == 0 {
				logger.Info("no edits recorded", "board_id", boardID)
				return nil
			}
			return writeParticipants(out, participants, now())
		},
	}
}
