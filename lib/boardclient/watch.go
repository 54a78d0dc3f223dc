// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/lifeboard/lib/clock"
	"github.com/bureau-foundation/lifeboard/lib/life"
	"github.com/bureau-foundation/lifeboard/lib/service"
	"github.com/bureau-foundation/lifeboard/lib/session"
)

// Backoff parameters for reconnection after a stream drops.
const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// EventType classifies a watch event.
type EventType int

const (
	// EventConnected carries the board's snapshot at the start of each
	// stream, including after a reconnect.
	EventConnected EventType = iota

	// EventSnapshot carries a newer version of the board.
	EventSnapshot

	// EventResync carries a newer version after the service dropped
	// intermediate versions because this watcher fell behind.
	EventResync

	// EventDisconnected reports a dropped stream and the delay before
	// the next attempt.
	EventDisconnected

	// EventDisposed reports that the board was deleted. It is always
	// the last event.
	EventDisposed
)

func (t EventType) String() string {
	switch t {
	case EventConnected:
		return "connected"
	case EventSnapshot:
		return "snapshot"
	case EventResync:
		return "resync"
	case EventDisconnected:
		return "disconnected"
	case EventDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is one observation from Watch.
type Event struct {
	Type     EventType
	Snapshot life.Snapshot

	// Err and Backoff are set on EventDisconnected.
	Err     error
	Backoff time.Duration
}

// WatchOptions configures Watch. The zero value is usable.
type WatchOptions struct {
	// Clock paces reconnection. Defaults to the wall clock.
	Clock clock.Clock

	Logger *slog.Logger
}

// Watch follows a board until ctx is cancelled or the board is
// deleted, calling handle for every event on the calling goroutine.
// Dropped streams are retried with exponential backoff from 1s to 30s;
// the backoff resets once a stream delivers its first snapshot.
//
// Snapshot versions passed with EventSnapshot and EventResync strictly
// increase across reconnects. Every snapshot's digest is verified; a
// mismatch drops the stream like any other transport failure.
//
// Watch returns ctx.Err() on cancellation, session.ErrBoardDisposed
// after EventDisposed, and the service's error without retrying if the
// board does not exist.
func (c *Client) Watch(ctx context.Context, id string, options WatchOptions, handle func(Event)) error {
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	watcher := &watcher{client: c, board: id, handle: handle, logger: logger}
	backoff := initialBackoff
	for {
		sessionID := uuid.NewString()
		err := watcher.runStream(ctx, sessionID)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch {
		case errors.Is(err, session.ErrBoardDisposed):
			return err
		case errors.Is(err, life.ErrBoardNotFound), errors.Is(err, life.ErrInvalidRequest):
			return err
		}
		if watcher.delivered {
			backoff = initialBackoff
			watcher.delivered = false
		}

		logger.Warn("board stream disconnected", "board", id, "session", sessionID, "error", err, "backoff", backoff)
		handle(Event{Type: EventDisconnected, Err: err, Backoff: backoff})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// watcher is the state Watch carries across reconnects.
type watcher struct {
	client *Client
	board  string
	handle func(Event)
	logger *slog.Logger

	// lastVersion is the newest version handed to handle.
	lastVersion uint64

	// delivered is set once the current stream produced a snapshot.
	delivered bool
}

// runStream runs one subscribe connection to completion and returns
// the error that ended it.
func (w *watcher) runStream(ctx context.Context, sessionID string) error {
	fields, err := toFields(SubscribeRequest{Board: w.board, Session: sessionID})
	if err != nil {
		return err
	}
	stream, err := w.client.service.OpenStream(ctx, ActionSubscribe, fields)
	if err != nil {
		return err
	}
	defer stream.Close()

	first := true
	for {
		var frame Frame
		if err := stream.Recv(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("stream closed by service")
			}
			return err
		}

		switch frame.Type {
		case FrameSnapshot, FrameResync:
			if frame.Snapshot == nil {
				return fmt.Errorf("%s frame without a snapshot", frame.Type)
			}
			snapshot := *frame.Snapshot
			if err := snapshot.Verify(); err != nil {
				return err
			}
			w.delivered = true
			switch {
			case first:
				first = false
				w.lastVersion = max(w.lastVersion, snapshot.Version)
				w.handle(Event{Type: EventConnected, Snapshot: snapshot})
			case snapshot.Version <= w.lastVersion:
				// Already seen.
			case frame.Type == FrameResync:
				w.lastVersion = snapshot.Version
				w.handle(Event{Type: EventResync, Snapshot: snapshot})
			default:
				w.lastVersion = snapshot.Version
				w.handle(Event{Type: EventSnapshot, Snapshot: snapshot})
			}

		case FrameHeartbeat:

		case FrameDisposed:
			w.handle(Event{Type: EventDisposed})
			return session.ErrBoardDisposed

		case FrameError:
			return translateError(&service.ServiceError{Action: ActionSubscribe, Message: frame.Message, Kind: frame.Kind})

		default:
			w.logger.Debug("unknown subscribe frame type", "type", frame.Type, "board", w.board)
		}
	}
}
