// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/bureau-foundation/lifeboard/lib/boardstore"
	"github.com/bureau-foundation/lifeboard/lib/clock"
	"github.com/bureau-foundation/lifeboard/lib/config"
	"github.com/bureau-foundation/lifeboard/lib/life"
	"github.com/bureau-foundation/lifeboard/lib/pattern"
	"github.com/bureau-foundation/lifeboard/lib/service"
	"github.com/bureau-foundation/lifeboard/lib/session"
)

// BoardService is the service state shared by every socket handler.
type BoardService struct {
	config    *config.Config
	clock     clock.Clock
	startedAt time.Time

	lock    *stateLock
	store   *boardstore.Store
	library *pattern.Library
	manager *session.Manager

	// actions is filled by registerActions for the status response.
	actions []string

	logger *slog.Logger
}

// newBoardService takes the state directory lock, opens the board
// database and pattern library, and starts the session manager. On
// error everything acquired so far is released.
func newBoardService(cfg *config.Config, clk clock.Clock, logger *slog.Logger) (_ *BoardService, err error) {
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}

	lock, err := acquireStateLock(cfg.LockPath())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			lock.Release()
		}
	}()

	library, err := pattern.Load(cfg.Paths.Patterns)
	if err != nil {
		return nil, err
	}

	store, err := boardstore.Open(boardstore.Config{
		Path:   cfg.DatabasePath(),
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening board store: %w", err)
	}
	defer func() {
		if err != nil {
			store.Close()
		}
	}()

	manager, err := session.NewManager(session.Config{
		Store:            store,
		Clock:            clk,
		Logger:           logger,
		TickInterval:     cfg.Session.TickInterval,
		SubscriberBuffer: cfg.Session.SubscriberBuffer,
		CheckDimensions:  cfg.CheckDimensions,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("board service ready",
		"database", cfg.DatabasePath(),
		"patterns", len(library.Names()),
		"tick_interval", cfg.Session.TickInterval,
	)
	return &BoardService{
		config:    cfg,
		clock:     clk,
		startedAt: clk.Now(),
		lock:      lock,
		store:     store,
		library:   library,
		manager:   manager,
		logger:    logger,
	}, nil
}

// Close flushes and stops every coordinator, then closes the store and
// releases the lock. Call it only after the socket server has drained.
func (bs *BoardService) Close() error {
	bs.manager.Close()
	storeErr := bs.store.Close()
	if storeErr != nil {
		storeErr = fmt.Errorf("closing board store: %w", storeErr)
	}
	return errors.Join(storeErr, bs.lock.Release())
}

// resolvePattern looks up a library pattern for a stamp mutation.
func (bs *BoardService) resolvePattern(name string) (life.Grid, error) {
	definition, err := bs.library.Lookup(name)
	if err != nil {
		return life.Grid{}, err
	}
	return definition.Grid(), nil
}

// classifyError puts a life error's kind into the response envelope.
// Errors without a kind are reported as internal.
func classifyError(err error) string {
	if kind := life.KindOf(err); kind != "" {
		return string(kind)
	}
	if errors.Is(err, session.ErrManagerClosed) {
		return ""
	}
	return service.KindInternal
}

func sortedActions(server *service.SocketServer) []string {
	actions := server.Actions()
	sort.Strings(actions)
	return actions
}
