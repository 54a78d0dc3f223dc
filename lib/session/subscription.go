// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/lifeboard/lib/life"
)

// ErrUnsubscribed is returned by Subscription.Next after Close.
var ErrUnsubscribed = errors.New("session: unsubscribed")

// Subscription is one observer's stream of board snapshots. Next is
// meant for a single reading goroutine; Close may be called from any
// goroutine.
type Subscription struct {
	coordinator *Coordinator

	// events is written and closed only by the coordinator goroutine.
	events chan life.Snapshot

	// resync is set by the coordinator when an offer found events full.
	resync atomic.Bool

	closed    chan struct{}
	closeOnce sync.Once

	// lastVersion is the newest version Next has returned.
	lastVersion uint64
}

func newSubscription(coordinator *Coordinator, buffer int) *Subscription {
	return &Subscription{
		coordinator: coordinator,
		events:      make(chan life.Snapshot, buffer),
		closed:      make(chan struct{}),
	}
}

// BoardID returns the id of the board being followed.
func (s *Subscription) BoardID() string { return s.coordinator.boardID }

// offer delivers snapshot without blocking. Called on the coordinator
// goroutine.
func (s *Subscription) offer(snapshot life.Snapshot) {
	select {
	case s.events <- snapshot:
	default:
		s.resync.Store(true)
	}
}

func (s *Subscription) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Next blocks until the next snapshot. Versions returned by successive
// calls strictly increase. If the subscription fell behind, the
// buffered snapshots are dropped and Next returns a fresh snapshot with
// Resync set. Next fails with ErrUnsubscribed after Close, with
// ErrBoardDisposed once the board is gone, or with the context's error.
func (s *Subscription) Next(ctx context.Context) (life.Snapshot, error) {
	for {
		if s.isClosed() {
			return life.Snapshot{}, ErrUnsubscribed
		}

		if s.resync.CompareAndSwap(true, false) {
			if disposed := s.drain(); disposed {
				return life.Snapshot{}, ErrBoardDisposed
			}
			snapshot, err := s.coordinator.Snapshot(ctx)
			if err != nil {
				return life.Snapshot{}, err
			}
			if snapshot.Version > s.lastVersion {
				snapshot.Resync = true
				s.lastVersion = snapshot.Version
				return snapshot, nil
			}
			continue
		}

		select {
		case <-s.closed:
			return life.Snapshot{}, ErrUnsubscribed
		case <-ctx.Done():
			return life.Snapshot{}, ctx.Err()
		case snapshot, ok := <-s.events:
			if !ok {
				return life.Snapshot{}, ErrBoardDisposed
			}
			if snapshot.Version <= s.lastVersion {
				// Superseded by a resync snapshot already returned.
				continue
			}
			s.lastVersion = snapshot.Version
			return snapshot, nil
		}
	}
}

// drain discards buffered snapshots. It reports whether the events
// channel has been closed by a disposed coordinator.
func (s *Subscription) drain() (disposed bool) {
	for {
		select {
		case _, ok := <-s.events:
			if !ok {
				return true
			}
		default:
			return false
		}
	}
}

// Close ends the subscription and detaches it from the board. Pending
// and future Next calls return ErrUnsubscribed. Safe to call more than
// once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.coordinator.unsubscribe(s)
	})
}
