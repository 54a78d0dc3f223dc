// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/lifeboard/lib/clock"
	"github.com/bureau-foundation/lifeboard/lib/codec"
	"github.com/bureau-foundation/lifeboard/lib/life"
	"github.com/bureau-foundation/lifeboard/lib/service"
	"github.com/bureau-foundation/lifeboard/lib/session"
	"github.com/bureau-foundation/lifeboard/lib/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startFakeService serves whatever handlers register installs and
// returns the socket path.
func startFakeService(t *testing.T, register func(server *service.SocketServer)) string {
	t.Helper()
	socketPath := filepath.Join(testutil.SocketDir(t), "lifeboard.sock")
	server := service.NewSocketServer(socketPath, testLogger())
	server.ClassifyErrors(func(err error) string { return string(life.KindOf(err)) })
	register(server)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Serve(ctx); err != nil {
			t.Errorf("Serve: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	testutil.RequireClosed(t, server.Ready(), 5*time.Second, "fake service ready")
	return socketPath
}

func snapshotAt(t *testing.T, version uint64, cells string) life.Snapshot {
	t.Helper()
	return life.Snapshot{
		BoardID:    "board-1",
		Name:       "shared",
		Version:    version,
		Dimensions: "3x1",
		Rules:      life.Classic.String(),
		Cells:      cells,
		Digest:     life.GridDigest(cells),
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSubmitSendsAttribution(t *testing.T) {
	received := make(chan SubmitRequest, 1)
	socketPath := startFakeService(t, func(server *service.SocketServer) {
		server.Handle(ActionSubmit, func(ctx context.Context, raw []byte) (any, error) {
			var request SubmitRequest
			if err := codec.Unmarshal(raw, &request); err != nil {
				return nil, err
			}
			received <- request
			return snapshotAt(t, 8, "010"), nil
		})
	})

	client := New(socketPath, "ada")
	snapshot, err := client.Submit(testContext(t), "board-1", life.ToggleCell{X: 1, Y: 0}, 7)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if snapshot.Version != 8 || snapshot.Cells != "010" {
		t.Errorf("snapshot = %+v", snapshot)
	}
	request := testutil.RequireReceive(t, received, 5*time.Second, "submit request")
	want := SubmitRequest{Board: "board-1", Op: "toggle_cell", KnownVersion: 7, Participant: "ada", X: 1}
	if request != want {
		t.Errorf("request = %+v, want %+v", request, want)
	}
}

func TestStampByName(t *testing.T) {
	received := make(chan SubmitRequest, 1)
	socketPath := startFakeService(t, func(server *service.SocketServer) {
		server.Handle(ActionSubmit, func(ctx context.Context, raw []byte) (any, error) {
			var request SubmitRequest
			if err := codec.Unmarshal(raw, &request); err != nil {
				return nil, err
			}
			received <- request
			return snapshotAt(t, 2, "111"), nil
		})
	})
	if _, err := New(socketPath, "").Stamp(testContext(t), "board-1", "glider", 4, 5, 0); err != nil {
		t.Fatalf("Stamp: %v", err)
	}
	request := testutil.RequireReceive(t, received, 5*time.Second, "stamp request")
	if request.Op != "stamp_pattern" || request.Pattern != "glider" || request.X != 4 || request.Y != 5 || request.Participant != "" {
		t.Errorf("request = %+v", request)
	}
}

func TestErrorsKeepTheirKind(t *testing.T) {
	socketPath := startFakeService(t, func(server *service.SocketServer) {
		server.Handle(ActionGetBoard, func(ctx context.Context, raw []byte) (any, error) {
			return nil, life.Errorf(life.KindBoardNotFound, "board nope not found")
		})
		server.Handle(ActionDeleteBoard, func(ctx context.Context, raw []byte) (any, error) {
			return nil, errors.New("disk on fire")
		})
	})
	client := New(socketPath, "")

	_, err := client.GetBoard(testContext(t), "nope")
	if !errors.Is(err, life.ErrBoardNotFound) {
		t.Errorf("GetBoard error = %v, want ErrBoardNotFound", err)
	}
	if err != nil && err.Error() != "board nope not found" {
		t.Errorf("message = %q", err.Error())
	}

	err = client.DeleteBoard(testContext(t), "x")
	var serviceError *service.ServiceError
	if !errors.As(err, &serviceError) || life.KindOf(err) != "" {
		t.Errorf("DeleteBoard error = %#v, want an unclassified ServiceError", err)
	}

	_, err = client.ListRules(testContext(t))
	if !errors.As(err, &serviceError) || serviceError.Kind != service.KindUnknownAction {
		t.Errorf("ListRules error = %v, want unknown action", err)
	}
}

func TestTypedResponses(t *testing.T) {
	socketPath := startFakeService(t, func(server *service.SocketServer) {
		server.Handle(ActionListRules, func(ctx context.Context, raw []byte) (any, error) {
			return RulesInfo{Presets: life.Presets(), Sizes: life.SizePresets(), DefaultRules: "classic"}, nil
		})
		server.Handle(ActionListBoards, func(ctx context.Context, raw []byte) (any, error) {
			return []session.Summary{{ID: "a", Name: "alpha", Dimensions: "5x5", Version: 3}}, nil
		})
		server.Handle(ActionParticipants, func(ctx context.Context, raw []byte) (any, error) {
			var request BoardRequest
			if err := codec.Unmarshal(raw, &request); err != nil {
				return nil, err
			}
			return []session.Participation{{Participant: request.Board + ":ada", Contributions: 3}}, nil
		})
	})
	client := New(socketPath, "")

	rules, err := client.ListRules(testContext(t))
	if err != nil {
		t.Fatalf("ListRules: %v", err)
	}
	if len(rules.Presets) != 3 || rules.Presets[0].Rules != life.Classic || len(rules.Sizes) != 3 {
		t.Errorf("rules = %+v", rules)
	}

	boards, err := client.ListBoards(testContext(t))
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	if len(boards) != 1 || boards[0].Name != "alpha" || boards[0].Version != 3 {
		t.Errorf("boards = %+v", boards)
	}

	participants, err := client.Participants(testContext(t), "b1")
	if err != nil {
		t.Fatalf("Participants: %v", err)
	}
	if len(participants) != 1 || participants[0].Participant != "b1:ada" || participants[0].Contributions != 3 {
		t.Errorf("participants = %+v", participants)
	}
}

// streamScript is what one fake subscribe connection sends before
// hanging up (or, with hold set, waiting for the client to leave).
type streamScript struct {
	frames []Frame
	hold   bool
}

func startFakeStream(t *testing.T, scripts []streamScript) (string, <-chan SubscribeRequest) {
	t.Helper()
	requests := make(chan SubscribeRequest, len(scripts)+1)
	var mu sync.Mutex
	next := 0
	socketPath := startFakeService(t, func(server *service.SocketServer) {
		server.HandleStream(ActionSubscribe, func(ctx context.Context, raw []byte, conn net.Conn) {
			var request SubscribeRequest
			if err := codec.Unmarshal(raw, &request); err != nil {
				t.Errorf("decoding subscribe: %v", err)
				return
			}
			requests <- request

			mu.Lock()
			if next >= len(scripts) {
				mu.Unlock()
				<-ctx.Done()
				return
			}
			script := scripts[next]
			next++
			mu.Unlock()

			encoder := codec.NewEncoder(conn)
			for _, frame := range script.frames {
				if err := encoder.Encode(frame); err != nil {
					return
				}
			}
			if script.hold {
				// Wait for the client to close its end.
				buffer := make([]byte, 1)
				conn.Read(buffer)
			}
		})
	})
	return socketPath, requests
}

func snapshotFrame(frameType string, snapshot life.Snapshot) Frame {
	return Frame{Type: frameType, Snapshot: &snapshot}
}

func TestWatchReconnectsAndKeepsVersionsIncreasing(t *testing.T) {
	socketPath, requests := startFakeStream(t, []streamScript{
		{frames: []Frame{
			snapshotFrame(FrameSnapshot, snapshotAt(t, 1, "000")),
			snapshotFrame(FrameSnapshot, snapshotAt(t, 2, "100")),
			{Type: FrameHeartbeat},
			snapshotFrame(FrameSnapshot, snapshotAt(t, 3, "110")),
		}},
		{frames: []Frame{
			snapshotFrame(FrameSnapshot, snapshotAt(t, 3, "110")),
			snapshotFrame(FrameSnapshot, snapshotAt(t, 3, "110")),
			snapshotFrame(FrameResync, snapshotAt(t, 6, "111")),
			{Type: FrameDisposed},
		}},
	})

	fake := clock.Fake(time.Unix(0, 0))
	events := make(chan Event, 32)
	result := make(chan error, 1)
	go func() {
		result <- New(socketPath, "").Watch(context.Background(), "board-1",
			WatchOptions{Clock: fake, Logger: testLogger()},
			func(event Event) { events <- event })
	}()

	expect := func(eventType EventType, version uint64) Event {
		t.Helper()
		event := testutil.RequireReceive(t, events, 5*time.Second, "waiting for %s", eventType)
		if event.Type != eventType {
			t.Fatalf("event = %s (version %d), want %s", event.Type, event.Snapshot.Version, eventType)
		}
		if version != 0 && event.Snapshot.Version != version {
			t.Fatalf("%s version = %d, want %d", eventType, event.Snapshot.Version, version)
		}
		return event
	}

	expect(EventConnected, 1)
	expect(EventSnapshot, 2)
	expect(EventSnapshot, 3)
	disconnected := expect(EventDisconnected, 0)
	if disconnected.Backoff != initialBackoff {
		t.Errorf("backoff = %v, want %v", disconnected.Backoff, initialBackoff)
	}

	fake.WaitForTimers(1)
	fake.Advance(initialBackoff)

	expect(EventConnected, 3)
	expect(EventResync, 6)
	expect(EventDisposed, 0)

	err := testutil.RequireReceive(t, result, 5*time.Second, "Watch return")
	if !errors.Is(err, session.ErrBoardDisposed) {
		t.Errorf("Watch = %v, want ErrBoardDisposed", err)
	}

	first := testutil.RequireReceive(t, requests, time.Second, "first subscribe")
	second := testutil.RequireReceive(t, requests, time.Second, "second subscribe")
	if first.Board != "board-1" || first.Session == "" || first.Session == second.Session {
		t.Errorf("subscribe requests = %+v then %+v, want distinct session ids", first, second)
	}
}

func TestWatchStopsOnMissingBoard(t *testing.T) {
	socketPath, _ := startFakeStream(t, []streamScript{
		{frames: []Frame{{Type: FrameError, Kind: string(life.KindBoardNotFound), Message: "board nope not found"}}},
	})
	err := New(socketPath, "").Watch(testContext(t), "nope", WatchOptions{}, func(Event) {
		t.Error("unexpected event")
	})
	if !errors.Is(err, life.ErrBoardNotFound) {
		t.Errorf("Watch = %v, want ErrBoardNotFound", err)
	}
}

func TestWatchDropsCorruptSnapshots(t *testing.T) {
	corrupt := snapshotAt(t, 2, "111")
	corrupt.Digest = life.GridDigest("000")
	socketPath, _ := startFakeStream(t, []streamScript{
		{frames: []Frame{snapshotFrame(FrameSnapshot, corrupt)}, hold: true},
	})

	fake := clock.Fake(time.Unix(0, 0))
	events := make(chan Event, 8)
	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		result <- New(socketPath, "").Watch(ctx, "board-1", WatchOptions{Clock: fake}, func(event Event) { events <- event })
	}()

	event := testutil.RequireReceive(t, events, 5*time.Second, "disconnect after corrupt snapshot")
	if event.Type != EventDisconnected || !errors.Is(event.Err, life.ErrFormat) {
		t.Fatalf("event = %s %v, want disconnected with ErrFormat", event.Type, event.Err)
	}
	cancel()
	if err := testutil.RequireReceive(t, result, 5*time.Second, "Watch return"); !errors.Is(err, context.Canceled) {
		t.Errorf("Watch = %v, want context.Canceled", err)
	}
}

func TestWatchBackoffGrowsAndCaps(t *testing.T) {
	// Nothing listens on this socket, so every attempt fails at dial.
	socketPath := filepath.Join(testutil.SocketDir(t), "absent.sock")
	fake := clock.Fake(time.Unix(0, 0))
	events := make(chan Event, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go New(socketPath, "").Watch(ctx, "board-1", WatchOptions{Clock: fake}, func(event Event) { events <- event })

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 30 * time.Second, 30 * time.Second}
	for index, backoff := range want {
		event := testutil.RequireReceive(t, events, 5*time.Second, "attempt %d", index)
		if event.Type != EventDisconnected || event.Backoff != backoff {
			t.Fatalf("attempt %d: %s backoff %v, want disconnected backoff %v", index, event.Type, event.Backoff, backoff)
		}
		fake.WaitForTimers(1)
		fake.Advance(backoff)
	}
}
