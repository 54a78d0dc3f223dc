// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/lifeboard/cmd/lifeboard/cli"
	"github.com/bureau-foundation/lifeboard/lib/boardclient"
	"github.com/bureau-foundation/lifeboard/lib/config"
	"github.com/bureau-foundation/lifeboard/lib/life"
)

// Environment variables that override connection defaults.
const (
	socketEnvVar      = "LIFEBOARD_SOCKET"
	participantEnvVar = "LIFEBOARD_PARTICIPANT"
)

// callTimeout bounds one request/response round trip.
const callTimeout = 30 * time.Second

// BoardConnection carries the --socket and --participant flags shared
// by every command that talks to lifeboard-service.
type BoardConnection struct {
	SocketPath  string
	Participant string
}

// AddFlags registers --socket and --participant. The socket defaults to
// $LIFEBOARD_SOCKET, then the socket named by the $LIFEBOARD_CONFIG
// file, then the socket in the default state directory. The
// participant defaults to $LIFEBOARD_PARTICIPANT, then $USER.
func (c *BoardConnection) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.SocketPath, "socket", defaultSocketPath(), "lifeboard-service socket path")
	flagSet.StringVar(&c.Participant, "participant", defaultParticipant(), "name recorded against your edits")
}

func (c *BoardConnection) connect() *boardclient.Client {
	return boardclient.New(c.SocketPath, c.Participant)
}

func defaultSocketPath() string {
	if socket := os.Getenv(socketEnvVar); socket != "" {
		return socket
	}
	if os.Getenv(config.EnvironmentVariable) != "" {
		if cfg, err := config.Load(); err == nil {
			return cfg.SocketPath()
		}
	}
	return config.Default(config.DefaultStateDirectory()).SocketPath()
}

func defaultParticipant() string {
	if participant := os.Getenv(participantEnvVar); participant != "" {
		return participant
	}
	return os.Getenv("USER")
}

// callContext returns a context bounded by callTimeout.
func callContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, callTimeout)
}

// commandError categorizes an error from the board client.
func commandError(err error, socketPath string) error {
	if err == nil {
		return nil
	}
	var toolError *cli.ToolError
	if errors.As(err, &toolError) {
		return err
	}

	switch life.KindOf(err) {
	case life.KindBoardNotFound:
		return &cli.ToolError{Category: cli.CategoryNotFound, Err: err,
			Hint: "Run 'lifeboard list' to see existing boards."}
	case life.KindInvalidWhileRunning:
		return &cli.ToolError{Category: cli.CategoryConflict, Err: err,
			Hint: "Stop the board with 'lifeboard stop' first."}
	case life.KindOutOfBounds, life.KindFormatError, life.KindRuleSetInvalid,
		life.KindInvalidDimensions, life.KindInvalidRequest:
		return &cli.ToolError{Category: cli.CategoryValidation, Err: err}
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, fs.ErrNotExist):
		return cli.Transient("lifeboard-service is not reachable at %s: %w", socketPath, err).
			WithHint("Start it with 'lifeboard-service', or pass --socket.")
	case errors.Is(err, context.DeadlineExceeded):
		return cli.Transient("lifeboard-service did not respond: %w", err)
	}
	return &cli.ToolError{Category: cli.CategoryInternal, Err: err}
}
