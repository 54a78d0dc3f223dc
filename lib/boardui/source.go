// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"context"
	"errors"

	"github.com/bureau-foundation/lifeboard/lib/boardclient"
	"github.com/bureau-foundation/lifeboard/lib/life"
)

// Source delivers watch events for one board. The channel is closed
// when the watch ends.
type Source interface {
	Events() <-chan boardclient.Event
}

// Mutator submits mutations to the service. *boardclient.Client
// implements it.
type Mutator interface {
	Submit(ctx context.Context, id string, mutation life.Mutation, knownVersion uint64) (life.Snapshot, error)
	Stamp(ctx context.Context, id, pattern string, x, y int, knownVersion uint64) (life.Snapshot, error)
}

var _ Mutator = (*boardclient.Client)(nil)

// WatchSource is a Source backed by boardclient's reconnecting Watch.
// Events are handed over unbuffered: a viewer that falls behind stalls
// the stream, and the service resyncs it.
type WatchSource struct {
	events chan boardclient.Event
	done   chan struct{}
	cancel context.CancelFunc

	// err is written before events is closed.
	err error
}

// NewWatchSource starts watching boardID until ctx is cancelled or
// Close is called.
func NewWatchSource(ctx context.Context, client *boardclient.Client, boardID string, options boardclient.WatchOptions) *WatchSource {
	ctx, cancel := context.WithCancel(ctx)
	source := &WatchSource{
		events: make(chan boardclient.Event),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer close(source.done)
		defer close(source.events)
		source.err = client.Watch(ctx, boardID, options, func(event boardclient.Event) {
			select {
			case source.events <- event:
			case <-ctx.Done():
			}
		})
	}()
	return source
}

// Events implements Source.
func (s *WatchSource) Events() <-chan boardclient.Event { return s.events }

// Close stops the watch and returns why it ended. Cancellation by
// Close itself is not an error.
func (s *WatchSource) Close() error {
	s.cancel()
	<-s.done
	if errors.Is(s.err, context.Canceled) {
		return nil
	}
	return s.err
}
