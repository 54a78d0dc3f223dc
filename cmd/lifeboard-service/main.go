// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/lifeboard/lib/clock"
	"github.com/bureau-foundation/lifeboard/lib/config"
	"github.com/bureau-foundation/lifeboard/lib/process"
	"github.com/bureau-foundation/lifeboard/lib/service"
	"github.com/bureau-foundation/lifeboard/lib/version"
)

func main() {
	process.ExitOnError(run())
}

func run() error {
	var (
		configPath  string
		stateDir    string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("lifeboard-service", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to lifeboard.yaml (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&stateDir, "state-dir", "", "state directory, overriding paths.state")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("lifeboard-service %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(configPath, stateDir)
	if err != nil {
		return err
	}
	level, _ := cfg.LogLevel()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, clock.Real(), logger, nil)
}

// loadConfig reads --config, then LIFEBOARD_CONFIG, and falls back to
// the development defaults. --state-dir replaces paths.state in every
// case. The result is validated.
func loadConfig(configPath, stateDir string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case configPath != "":
		cfg, err = config.LoadFile(configPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default(config.DefaultStateDirectory())
	}
	if err != nil {
		return nil, err
	}
	if stateDir != "" {
		cfg.Paths.State = stateDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// serve runs the service until ctx is cancelled. ready, if non-nil,
// receives the socket server once it is listening.
func serve(ctx context.Context, cfg *config.Config, clk clock.Clock, logger *slog.Logger, ready chan<- *service.SocketServer) error {
	boardService, err := newBoardService(cfg, clk, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := boardService.Close(); err != nil {
			logger.Error("closing board service", "error", err)
		}
	}()

	socketServer := service.NewSocketServer(cfg.SocketPath(), logger)
	boardService.registerActions(socketServer)

	socketDone := make(chan error, 1)
	go func() {
		socketDone <- socketServer.Serve(ctx)
	}()

	select {
	case <-socketServer.Ready():
	case err := <-socketDone:
		return err
	}
	logger.Info("lifeboard service running",
		"version", version.Info(),
		"socket", cfg.SocketPath(),
		"state", cfg.Paths.State,
	)
	if ready != nil {
		ready <- socketServer
	}

	<-ctx.Done()
	logger.Info("shutting down")

	// Streams end with the server; boards are flushed after.
	if err := <-socketDone; err != nil {
		logger.Error("socket server error", "error", err)
	}
	return nil
}
