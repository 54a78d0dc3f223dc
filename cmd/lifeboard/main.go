// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// lifeboard is the command-line client for lifeboard-service: create,
// edit, list, and watch shared Game of Life boards.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bureau-foundation/lifeboard/cmd/lifeboard/commands"
	"github.com/bureau-foundation/lifeboard/lib/process"
)

func main() {
	process.ExitOnError(run())
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return commands.Root(os.Stdout, time.Now).Execute(ctx, os.Args[1:])
}
