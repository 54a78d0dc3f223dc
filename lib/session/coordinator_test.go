// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/lifeboard/lib/clock"
	"github.com/bureau-foundation/lifeboard/lib/life"
)

const testTick = 100 * time.Millisecond

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func newTestBoard(t *testing.T, id string, width, height int) *life.Board {
	t.Helper()
	board, err := life.NewBoard(life.BoardParams{
		ID:        id,
		Name:      "shared board",
		Width:     width,
		Height:    height,
		Rules:     life.Classic,
		CreatedAt: testEpoch,
	})
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	return board
}

type coordinatorHarness struct {
	coordinator *Coordinator
	clock       *clock.FakeClock
	store       *memoryStore
}

func newHarness(t *testing.T, width, height, buffer int) *coordinatorHarness {
	t.Helper()
	fake := clock.Fake(testEpoch)
	store := newMemoryStore()
	coordinator := NewCoordinator(newTestBoard(t, "board-1", width, height), CoordinatorConfig{
		Clock:            fake,
		TickInterval:     testTick,
		SubscriberBuffer: buffer,
		Store:            store,
		Logger:           testLogger(),
	})
	t.Cleanup(coordinator.Close)
	return &coordinatorHarness{coordinator: coordinator, clock: fake, store: store}
}

func (h *coordinatorHarness) submit(t *testing.T, mutation life.Mutation) life.Snapshot {
	t.Helper()
	snapshot, err := h.coordinator.Submit(testContext(t), life.Request{Mutation: mutation})
	if err != nil {
		t.Fatalf("Submit(%s): %v", mutation.Op(), err)
	}
	return snapshot
}

func nextSnapshot(t *testing.T, subscription *Subscription) life.Snapshot {
	t.Helper()
	snapshot, err := subscription.Next(testContext(t))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	return snapshot
}

func TestSubmitAdvancesVersionByOne(t *testing.T) {
	h := newHarness(t, 5, 5, 8)
	subscription, err := h.coordinator.Subscribe(testContext(t))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer subscription.Close()

	for want := uint64(2); want <= 6; want++ {
		snapshot := h.submit(t, life.ToggleCell{X: int(want) - 2, Y: 0})
		if snapshot.Version != want {
			t.Fatalf("version = %d, want %d", snapshot.Version, want)
		}
	}

	// The subscriber sees the initial version and then every accepted
	// mutation, with no gaps or repeats.
	for want := uint64(1); want <= 6; want++ {
		if got := nextSnapshot(t, subscription); got.Version != want || got.Resync {
			t.Fatalf("delivered version %d (resync %v), want %d", got.Version, got.Resync, want)
		}
	}
}

func subscriberCount(t *testing.T, coordinator *Coordinator) int {
	t.Helper()
	count, err := coordinator.Subscribers(testContext(t))
	if err != nil {
		t.Fatalf("Subscribers: %v", err)
	}
	return count
}

func TestClosedSubscriptionIsDetached(t *testing.T) {
	h := newHarness(t, 5, 5, 8)
	first, err := h.coordinator.Subscribe(testContext(t))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	second, err := h.coordinator.Subscribe(testContext(t))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if count := subscriberCount(t, h.coordinator); count != 2 {
		t.Fatalf("Subscribers = %d, want 2", count)
	}

	// No mutation happens in between: an idle board must still let go
	// of closed subscriptions.
	first.Close()
	first.Close()
	if count := subscriberCount(t, h.coordinator); count != 1 {
		t.Errorf("Subscribers after one Close = %d, want 1", count)
	}
	second.Close()
	if count := subscriberCount(t, h.coordinator); count != 0 {
		t.Errorf("Subscribers after both Close = %d, want 0", count)
	}
}

func TestRejectedSubmitLeavesVersion(t *testing.T) {
	h := newHarness(t, 5, 5, 8)
	_, err := h.coordinator.Submit(testContext(t), life.Request{Mutation: life.ToggleCell{X: 5, Y: 0}})
	if !errors.Is(err, life.ErrOutOfBounds) {
		t.Fatalf("error = %v, want ErrOutOfBounds", err)
	}
	snapshot, err := h.coordinator.Snapshot(testContext(t))
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.Version != 1 {
		t.Errorf("version after rejection = %d, want 1", snapshot.Version)
	}
}

func TestSubmitRejectsTickAndNil(t *testing.T) {
	h := newHarness(t, 5, 5, 8)
	for _, request := range []life.Request{{Mutation: life.Tick{}}, {}} {
		_, err := h.coordinator.Submit(testContext(t), request)
		if !errors.Is(err, life.ErrInvalidRequest) {
			t.Errorf("Submit(%v) error = %v, want ErrInvalidRequest", request.Mutation, err)
		}
	}
}

func TestSubscriptionStartsWithCurrentSnapshot(t *testing.T) {
	h := newHarness(t, 5, 5, 8)
	h.submit(t, life.ToggleCell{X: 1, Y: 1})

	subscription, err := h.coordinator.Subscribe(testContext(t))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer subscription.Close()

	first := nextSnapshot(t, subscription)
	if first.Version != 2 || first.Resync {
		t.Fatalf("first snapshot = version %d resync %v, want version 2 without resync", first.Version, first.Resync)
	}
	h.submit(t, life.ToggleCell{X: 2, Y: 2})
	if second := nextSnapshot(t, subscription); second.Version != 3 {
		t.Errorf("second snapshot version = %d, want 3", second.Version)
	}
}

func TestSubscribersSeeEveryVersionInOrder(t *testing.T) {
	h := newHarness(t, 8, 8, 64)
	var subscriptions []*Subscription
	for range 3 {
		subscription, err := h.coordinator.Subscribe(testContext(t))
		if err != nil {
			t.Fatalf("Subscribe: %v", err)
		}
		defer subscription.Close()
		subscriptions = append(subscriptions, subscription)
	}

	for i := range 20 {
		h.submit(t, life.ToggleCell{X: i % 8, Y: i / 8})
	}

	for index, subscription := range subscriptions {
		for want := uint64(1); want <= 21; want++ {
			snapshot := nextSnapshot(t, subscription)
			if snapshot.Version != want {
				t.Fatalf("subscriber %d: version = %d, want %d", index, snapshot.Version, want)
			}
			if err := snapshot.Verify(); err != nil {
				t.Fatalf("subscriber %d: %v", index, err)
			}
		}
	}
}

func TestSlowSubscriberResyncs(t *testing.T) {
	h := newHarness(t, 5, 5, 1)
	subscription, err := h.coordinator.Subscribe(testContext(t))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer subscription.Close()

	// The buffer already holds version 1, so versions 2-4 overflow.
	h.submit(t, life.ToggleCell{X: 0, Y: 0})
	h.submit(t, life.ToggleCell{X: 1, Y: 0})
	last := h.submit(t, life.ToggleCell{X: 2, Y: 0})

	snapshot := nextSnapshot(t, subscription)
	if !snapshot.Resync {
		t.Fatal("snapshot after overflow is not marked Resync")
	}
	if snapshot.Version != last.Version || snapshot.Cells != last.Cells {
		t.Fatalf("resync snapshot = version %d %q, want version %d %q",
			snapshot.Version, snapshot.Cells, last.Version, last.Cells)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := subscription.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Next after resync = %v, want DeadlineExceeded (no stale versions)", err)
	}

	h.submit(t, life.ToggleCell{X: 3, Y: 0})
	after := nextSnapshot(t, subscription)
	if after.Version != last.Version+1 || after.Resync {
		t.Errorf("snapshot after resync = version %d resync %v, want version %d without resync",
			after.Version, after.Resync, last.Version+1)
	}
}

func TestSlowSubscriberDoesNotDelayOthers(t *testing.T) {
	h := newHarness(t, 5, 5, 1)
	stalled, err := h.coordinator.Subscribe(testContext(t))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stalled.Close()

	for i := range 10 {
		h.submit(t, life.ToggleCell{X: i % 5, Y: i / 5})
	}
	snapshot, err := h.coordinator.Snapshot(testContext(t))
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.Version != 11 {
		t.Errorf("version = %d, want 11", snapshot.Version)
	}
}

func TestCloseSubscription(t *testing.T) {
	h := newHarness(t, 5, 5, 8)
	subscription, err := h.coordinator.Subscribe(testContext(t))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	blocked := make(chan error, 1)
	nextSnapshot(t, subscription)
	go func() {
		_, err := subscription.Next(context.Background())
		blocked <- err
	}()
	subscription.Close()
	subscription.Close()

	select {
	case err := <-blocked:
		if !errors.Is(err, ErrUnsubscribed) {
			t.Errorf("blocked Next = %v, want ErrUnsubscribed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not wake a blocked Next")
	}

	// A closed subscription is pruned on the next broadcast and does not
	// affect the board.
	h.submit(t, life.ToggleCell{X: 0, Y: 0})
	if _, err := subscription.Next(testContext(t)); !errors.Is(err, ErrUnsubscribed) {
		t.Errorf("Next after Close = %v, want ErrUnsubscribed", err)
	}
}

func TestDisposeEndsSubscriptions(t *testing.T) {
	h := newHarness(t, 5, 5, 8)
	subscription, err := h.coordinator.Subscribe(testContext(t))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	nextSnapshot(t, subscription)

	h.coordinator.Dispose()
	if _, err := subscription.Next(testContext(t)); !errors.Is(err, ErrBoardDisposed) {
		t.Errorf("Next after Dispose = %v, want ErrBoardDisposed", err)
	}
	if _, err := h.coordinator.Submit(testContext(t), life.Request{Mutation: life.Step{}}); !errors.Is(err, ErrBoardDisposed) {
		t.Errorf("Submit after Dispose = %v, want ErrBoardDisposed", err)
	}
	if _, err := h.coordinator.Subscribe(testContext(t)); !errors.Is(err, ErrBoardDisposed) {
		t.Errorf("Subscribe after Dispose = %v, want ErrBoardDisposed", err)
	}
}

func TestRunningBoardTicks(t *testing.T) {
	h := newHarness(t, 5, 5, 8)
	h.submit(t, life.StampPattern{X: 1, Y: 2, Pattern: mustRows(t, "111")})

	subscription, err := h.coordinator.Subscribe(testContext(t))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer subscription.Close()
	nextSnapshot(t, subscription)

	h.submit(t, life.SetRunning{Running: true})
	if started := nextSnapshot(t, subscription); !started.Running || started.Generation != 0 {
		t.Fatalf("after start: running %v generation %d", started.Running, started.Generation)
	}

	h.clock.WaitForTimers(1)
	for want := uint64(1); want <= 3; want++ {
		h.clock.Advance(testTick)
		snapshot := nextSnapshot(t, subscription)
		if snapshot.Generation != want {
			t.Fatalf("tick %d: generation = %d", want, snapshot.Generation)
		}
	}

	h.submit(t, life.SetRunning{Running: false})
	stopped := nextSnapshot(t, subscription)
	if stopped.Running {
		t.Fatal("board still running after SetRunning(false)")
	}
	if pending := h.clock.PendingCount(); pending != 0 {
		t.Errorf("pending timers after stop = %d, want 0", pending)
	}

	// Time passing on an idle board changes nothing.
	h.clock.Advance(10 * testTick)
	snapshot, err := h.coordinator.Snapshot(testContext(t))
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.Version != stopped.Version || snapshot.Generation != 3 {
		t.Errorf("idle board moved: version %d generation %d, want version %d generation 3",
			snapshot.Version, snapshot.Generation, stopped.Version)
	}
}

func TestRunningRejectsEditsButAcceptsReset(t *testing.T) {
	h := newHarness(t, 5, 5, 8)
	h.submit(t, life.SetRunning{Running: true})
	h.clock.WaitForTimers(1)

	for _, mutation := range []life.Mutation{
		life.ToggleCell{X: 0, Y: 0},
		life.Step{},
		life.StampPattern{Pattern: mustRows(t, "1")},
	} {
		if _, err := h.coordinator.Submit(testContext(t), life.Request{Mutation: mutation}); !errors.Is(err, life.ErrInvalidWhileRunning) {
			t.Errorf("%s while running: error = %v, want ErrInvalidWhileRunning", mutation.Op(), err)
		}
	}

	reset := h.submit(t, life.Reset{})
	if reset.Running || reset.Generation != 0 {
		t.Errorf("after reset: running %v generation %d", reset.Running, reset.Generation)
	}
	if pending := h.clock.PendingCount(); pending != 0 {
		t.Errorf("pending timers after reset = %d, want 0", pending)
	}
}

func TestConcurrentSubmitsGetDistinctVersions(t *testing.T) {
	h := newHarness(t, 16, 16, 8)
	const clients, perClient = 8, 25

	versions := make(chan uint64, clients*perClient)
	var wg sync.WaitGroup
	for client := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perClient {
				snapshot, err := h.coordinator.Submit(context.Background(), life.Request{
					Mutation:    life.ToggleCell{X: client, Y: i % 16},
					Participant: "client",
				})
				if err != nil {
					t.Errorf("Submit: %v", err)
					return
				}
				versions <- snapshot.Version
			}
		}()
	}
	wg.Wait()
	close(versions)

	seen := make(map[uint64]bool)
	for version := range versions {
		if seen[version] {
			t.Fatalf("version %d returned twice", version)
		}
		seen[version] = true
	}
	for version := uint64(2); version <= clients*perClient+1; version++ {
		if !seen[version] {
			t.Fatalf("version %d never returned", version)
		}
	}
}

func TestClosePersistsLatestRecord(t *testing.T) {
	h := newHarness(t, 5, 5, 8)
	h.submit(t, life.ToggleCell{X: 1, Y: 1})
	if _, err := h.coordinator.Submit(testContext(t), life.Request{
		Mutation:    life.ToggleCell{X: 2, Y: 2},
		Participant: "ada",
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := h.coordinator.Submit(testContext(t), life.Request{
		Mutation:    life.Step{},
		Participant: "ada",
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	h.coordinator.Close()

	record, ok := h.store.record("board-1")
	if !ok {
		t.Fatal("no record saved")
	}
	if record.Version != 4 || record.Generation != 1 {
		t.Errorf("saved version %d generation %d, want 4 and 1", record.Version, record.Generation)
	}
	participants, err := h.store.Participants(testContext(t), "board-1")
	if err != nil {
		t.Fatalf("Participants: %v", err)
	}
	if len(participants) != 1 || participants[0].Participant != "ada" || participants[0].Contributions != 2 {
		t.Errorf("participants = %+v, want ada with 2", participants)
	}
}

func TestStoreFailureDoesNotFailMutation(t *testing.T) {
	h := newHarness(t, 5, 5, 8)
	h.store.mu.Lock()
	h.store.failSaves = true
	h.store.mu.Unlock()

	snapshot := h.submit(t, life.ToggleCell{X: 0, Y: 0})
	if snapshot.Version != 2 {
		t.Errorf("version = %d, want 2", snapshot.Version)
	}
	h.coordinator.Close()
	if _, ok := h.store.record("board-1"); ok {
		t.Error("record saved despite failing store")
	}
}

func TestDisposeDiscardsPendingRecord(t *testing.T) {
	fake := clock.Fake(testEpoch)
	store := newMemoryStore()
	coordinator := NewCoordinator(newTestBoard(t, "board-1", 5, 5), CoordinatorConfig{
		Clock:  fake,
		Store:  store,
		Logger: testLogger(),
	})
	coordinator.Dispose()
	coordinator.Dispose()
	if count := store.saveCount(); count != 0 {
		t.Errorf("saves after Dispose = %d, want 0", count)
	}
}

func mustRows(t *testing.T, rows ...string) life.Grid {
	t.Helper()
	grid, err := life.ParseRows(rows)
	if err != nil {
		t.Fatalf("ParseRows: %v", err)
	}
	return grid
}
