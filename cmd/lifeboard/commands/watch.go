// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/lifeboard/cmd/lifeboard/cli"
	"github.com/bureau-foundation/lifeboard/lib/boardclient"
	"github.com/bureau-foundation/lifeboard/lib/boardui"
	"github.com/bureau-foundation/lifeboard/lib/session"
)

type watchParams struct {
	BoardConnection
	ASCII bool `json:"ascii" flag:"ascii" desc:"draw cells as '#' and '.' instead of colour blocks"`
}

func watchCommand() *cli.Command {
	var params watchParams
	const usage = "lifeboard watch <board> [flags]"

	return &cli.Command{
		Name:    "watch",
		Summary: "Watch and edit a board live",
		Description: `Open a full-screen view of a board that follows every change as it
happens. Move the cursor with h/j/k/l or the arrow keys, toggle the
cell under it with space, step with n, start or stop with p, reset with
r, and stamp a glider with g. Press ? for all keys and q to quit.

The view reconnects on its own if lifeboard-service restarts, and
exits when the board is deleted.`,
		Usage:  usage,
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			boardID, err := boardArgument(args, usage)
			if err != nil {
				return err
			}
			client := params.connect()

			// Fail fast on a missing board instead of opening an empty
			// screen that immediately closes.
			callCtx, cancel := callContext(ctx)
			_, err = client.GetBoard(callCtx, boardID)
			cancel()
			if err != nil {
				return commandError(err, params.SocketPath)
			}
			logger.Debug("watching board", "board_id", boardID, "participant", params.Participant)

			// The status line reports disconnects; log lines would draw
			// over the full-screen view.
			source := boardui.NewWatchSource(ctx, client, boardID, boardclient.WatchOptions{
				Logger: slog.New(slog.DiscardHandler),
			})
			defer source.Close()

			profile := termenv.EnvColorProfile()
			if params.ASCII {
				profile = termenv.Ascii
			}
			model := boardui.NewModel(boardID, source, client, profile)
			program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			final, err := program.Run()
			if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return cli.Internal("board viewer: %w", err)
			}

			if viewer, ok := final.(boardui.Model); ok && viewer.Ended() {
				watchErr := source.Close()
				if errors.Is(watchErr, session.ErrBoardDisposed) {
					return cli.NotFound("board %s was deleted", boardID)
				}
				return commandError(watchErr, params.SocketPath)
			}
			return nil
		},
	}
}
