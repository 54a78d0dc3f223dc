// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/lifeboard/lib/boardclient"
	"github.com/bureau-foundation/lifeboard/lib/life"
)

type channelSource chan boardclient.Event

func (source channelSource) Events() <-chan boardclient.Event { return source }

// submission is one call recorded by fakeMutator.
type submission struct {
	mutation     life.Mutation
	pattern      string
	x, y         int
	knownVersion uint64
}

// fakeMutator records calls and answers with a scripted result.
type fakeMutator struct {
	mu       sync.Mutex
	calls    []submission
	snapshot life.Snapshot
	err      error
}

func (m *fakeMutator) Submit(ctx context.Context, id string, mutation life.Mutation, knownVersion uint64) (life.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, submission{mutation: mutation, knownVersion: knownVersion})
	return m.snapshot, m.err
}

func (m *fakeMutator) Stamp(ctx context.Context, id, pattern string, x, y int, knownVersion uint64) (life.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, submission{pattern: pattern, x: x, y: y, knownVersion: knownVersion})
	return m.snapshot, m.err
}

func (m *fakeMutator) lastCall(t *testing.T) submission {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		t.Fatal("no mutation was submitted")
	}
	return m.calls[len(m.calls)-1]
}

func makeSnapshot(t *testing.T, version uint64, running bool, rows ...string) life.Snapshot {
	t.Helper()
	grid, err := life.ParseRows(rows)
	if err != nil {
		t.Fatalf("ParseRows: %v", err)
	}
	cells := life.EncodeGrid(grid)
	return life.Snapshot{
		BoardID:    "board-1",
		Name:       "test board",
		Version:    version,
		Running:    running,
		Dimensions: life.FormatDimensions(grid.Width(), grid.Height()),
		Rules:      life.Classic.String(),
		Cells:      cells,
		Digest:     life.GridDigest(cells),
	}
}

func update(model Model, message tea.Msg) (Model, tea.Cmd) {
	next, command := model.Update(message)
	return next.(Model), command
}

func runes(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}
}

// connectedModel returns an ASCII model showing snapshot.
func connectedModel(t *testing.T, snapshot life.Snapshot) (Model, *fakeMutator) {
	t.Helper()
	mutator := &fakeMutator{}
	model := NewModel("board-1", make(channelSource), mutator, termenv.Ascii)
	model, _ = update(model, eventMsg{event: boardclient.Event{Type: boardclient.EventConnected, Snapshot: snapshot}})
	return model, mutator
}

func TestInitDeliversSourceEvents(t *testing.T) {
	source := make(channelSource, 1)
	model := NewModel("board-1", source, &fakeMutator{}, termenv.Ascii)
	source <- boardclient.Event{Type: boardclient.EventConnected, Snapshot: makeSnapshot(t, 3, false, "010", "010")}

	message := model.Init()()
	model, command := update(model, message)
	if model.Snapshot().Version != 3 || model.Status() != "connected" {
		t.Errorf("after connect: version %d status %q", model.Snapshot().Version, model.Status())
	}
	if command == nil {
		t.Fatal("no command to listen for the next event")
	}

	close(source)
	model, command = update(model, command())
	if !model.Ended() {
		t.Error("model not ended after the source closed")
	}
	if _, ok := command().(tea.QuitMsg); !ok {
		t.Error("closing the source did not quit")
	}
}

func TestOlderSnapshotsAreIgnored(t *testing.T) {
	model, _ := connectedModel(t, makeSnapshot(t, 5, false, "100"))
	model, _ = update(model, eventMsg{event: boardclient.Event{Type: boardclient.EventSnapshot, Snapshot: makeSnapshot(t, 4, false, "111")}})
	if model.Snapshot().Version != 5 || model.grid.Population() != 1 {
		t.Errorf("older snapshot replaced v5: now v%d", model.Snapshot().Version)
	}
	model, _ = update(model, eventMsg{event: boardclient.Event{Type: boardclient.EventResync, Snapshot: makeSnapshot(t, 9, false, "011")}})
	if model.Snapshot().Version != 9 || !strings.Contains(model.Status(), "resynced") {
		t.Errorf("after resync: v%d status %q", model.Snapshot().Version, model.Status())
	}
}

func TestCorruptSnapshotIsReported(t *testing.T) {
	model, _ := connectedModel(t, makeSnapshot(t, 1, false, "10"))
	bad := makeSnapshot(t, 2, false, "11")
	bad.Dimensions = "3x3"
	model, _ = update(model, eventMsg{event: boardclient.Event{Type: boardclient.EventSnapshot, Snapshot: bad}})
	if model.Snapshot().Version != 1 || !model.statusError {
		t.Errorf("corrupt snapshot: v%d status %q", model.Snapshot().Version, model.Status())
	}
}

func TestCursorWrapsAroundTheBoard(t *testing.T) {
	model, _ := connectedModel(t, makeSnapshot(t, 1, false, "00000", "00000", "00000", "00000", "00000"))
	model, _ = update(model, tea.KeyMsg{Type: tea.KeyLeft})
	model, _ = update(model, runes("k"))
	if x, y := model.Cursor(); x != 4 || y != 4 {
		t.Errorf("cursor after left/up from origin = (%d,%d), want (4,4)", x, y)
	}
	model, _ = update(model, runes("l"))
	model, _ = update(model, tea.KeyMsg{Type: tea.KeyDown})
	model, _ = update(model, runes("j"))
	if x, y := model.Cursor(); x != 0 || y != 1 {
		t.Errorf("cursor = (%d,%d), want (0,1)", x, y)
	}
}

func TestToggleSubmitsAtCursor(t *testing.T) {
	model, mutator := connectedModel(t, makeSnapshot(t, 7, false, "000", "000"))
	model, _ = update(model, runes("l"))
	model, _ = update(model, runes("l"))
	model, _ = update(model, runes("j"))

	mutator.snapshot = makeSnapshot(t, 8, false, "000", "001")
	model, command := update(model, tea.KeyMsg{Type: tea.KeySpace})
	if command == nil {
		t.Fatal("toggle produced no command")
	}
	model, _ = update(model, command())

	call := mutator.lastCall(t)
	if call.mutation != (life.ToggleCell{X: 2, Y: 1}) || call.knownVersion != 7 {
		t.Errorf("submitted %#v at known version %d", call.mutation, call.knownVersion)
	}
	if model.Snapshot().Version != 8 || !model.grid.Alive(2, 1) {
		t.Errorf("submit result not shown: v%d", model.Snapshot().Version)
	}
}

func TestMutationKeys(t *testing.T) {
	tests := []struct {
		name    string
		running bool
		key     tea.KeyMsg
		want    life.Mutation
	}{
		{"step", false, runes("n"), life.Step{}},
		{"start", false, runes("p"), life.SetRunning{Running: true}},
		{"stop", true, runes("p"), life.SetRunning{Running: false}},
		{"reset", true, runes("r"), life.Reset{}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			model, mutator := connectedModel(t, makeSnapshot(t, 2, test.running, "11"))
			_, command := update(model, test.key)
			if command == nil {
				t.Fatal("no command")
			}
			command()
			if call := mutator.lastCall(t); call.mutation != test.want {
				t.Errorf("submitted %#v, want %#v", call.mutation, test.want)
			}
		})
	}
}

func TestStampGliderAtCursor(t *testing.T) {
	model, mutator := connectedModel(t, makeSnapshot(t, 1, false, "0000", "0000", "0000", "0000"))
	model, _ = update(model, runes("j"))
	_, command := update(model, runes("g"))
	command()
	call := mutator.lastCall(t)
	if call.pattern != "glider" || call.x != 0 || call.y != 1 {
		t.Errorf("stamp call = %+v, want glider at (0,1)", call)
	}
}

func TestRejectedSubmitShowsError(t *testing.T) {
	model, mutator := connectedModel(t, makeSnapshot(t, 3, true, "11"))
	mutator.err = life.Errorf(life.KindInvalidWhileRunning, "toggle rejected while running")
	_, command := update(model, tea.KeyMsg{Type: tea.KeySpace})
	model, _ = update(model, command())
	if !model.statusError || !strings.Contains(model.Status(), "rejected") {
		t.Errorf("status = %q (error=%v)", model.Status(), model.statusError)
	}
	if model.Snapshot().Version != 3 {
		t.Errorf("rejected submit changed the snapshot to v%d", model.Snapshot().Version)
	}
}

func TestKeysBeforeFirstSnapshot(t *testing.T) {
	model := NewModel("board-1", make(channelSource), &fakeMutator{}, termenv.Ascii)
	if _, command := update(model, tea.KeyMsg{Type: tea.KeySpace}); command != nil {
		t.Error("toggle before the first snapshot produced a command")
	}
	if !strings.Contains(model.View(), "connecting to board board-1") {
		t.Errorf("View = %q", model.View())
	}
	if _, command := update(model, runes("q")); command == nil {
		t.Error("quit produced no command")
	}
}

func TestConnectionEvents(t *testing.T) {
	model, _ := connectedModel(t, makeSnapshot(t, 1, false, "1"))
	model, _ = update(model, eventMsg{event: boardclient.Event{Type: boardclient.EventDisconnected, Err: errors.New("broken pipe")}})
	if model.connected || !strings.Contains(model.Status(), "broken pipe") {
		t.Errorf("after disconnect: connected=%v status %q", model.connected, model.Status())
	}
	model, _ = update(model, eventMsg{event: boardclient.Event{Type: boardclient.EventDisposed}})
	if model.Status() != "board deleted" {
		t.Errorf("after disposal: status %q", model.Status())
	}
}

func TestViewRendersASCIIGrid(t *testing.T) {
	model, _ := connectedModel(t, makeSnapshot(t, 4, false, "110", "001"))
	model, _ = update(model, runes("l"))

	view := model.View()
	if !strings.Contains(view, "#@.\n..#\n") {
		t.Errorf("grid not rendered as expected:\n%s", view)
	}
	if !strings.Contains(view, "test board") || !strings.Contains(view, "3x2") || !strings.Contains(view, "v4") {
		t.Errorf("header missing board details:\n%s", view)
	}
	if !strings.Contains(view, "space toggle") {
		t.Errorf("help line missing:\n%s", view)
	}
}

func TestViewScrollsToCursor(t *testing.T) {
	rows := make([]string, 30)
	for index := range rows {
		rows[index] = strings.Repeat("0", 30)
	}
	model, _ := connectedModel(t, makeSnapshot(t, 1, false, rows...))
	model, _ = update(model, tea.WindowSizeMsg{Width: 10, Height: 8})
	for range 15 {
		model, _ = update(model, runes("l"))
	}
	for range 12 {
		model, _ = update(model, runes("j"))
	}
	if model.originX != 6 || model.originY != 8 {
		t.Errorf("origin = (%d,%d), want (6,8)", model.originX, model.originY)
	}

	lines := strings.Split(model.View(), "\n")
	// Header, five grid rows, status, help.
	if len(lines) != 8 {
		t.Fatalf("view has %d lines, want 8:\n%s", len(lines), model.View())
	}
	for _, line := range lines[1:6] {
		if len(line) != 10 {
			t.Errorf("grid line %q is %d cells wide, want 10", line, len(line))
		}
	}
	if lines[5] != ".........+" {
		t.Errorf("cursor row = %q, want cursor in the last column", lines[5])
	}

	// Growing the window past the board snaps back to the origin.
	model, _ = update(model, tea.WindowSizeMsg{Width: 80, Height: 40})
	if model.originX != 0 || model.originY != 0 {
		t.Errorf("origin after resize = (%d,%d), want (0,0)", model.originX, model.originY)
	}
}

func TestStatusLineIsTruncated(t *testing.T) {
	model, _ := connectedModel(t, makeSnapshot(t, 1, false, "1"))
	model, _ = update(model, tea.WindowSizeMsg{Width: 20, Height: 10})
	model.setError(strings.Repeat("very long failure ", 10))
	status := model.renderStatus()
	if width := ansi.StringWidth(status); width > 20 {
		t.Errorf("status is %d columns wide, want at most 20: %q", width, status)
	}
	if !strings.HasSuffix(ansi.Strip(status), "…") {
		t.Errorf("truncated status %q has no ellipsis", status)
	}
}

func TestColorProfileUsesBlocks(t *testing.T) {
	mutator := &fakeMutator{}
	model := NewModel("board-1", make(channelSource), mutator, termenv.ANSI256)
	model, _ = update(model, eventMsg{event: boardclient.Event{Type: boardclient.EventConnected, Snapshot: makeSnapshot(t, 1, false, "01")}})
	view := model.View()
	if strings.Contains(ansi.Strip(view), "#") {
		t.Errorf("colour view fell back to ASCII cells:\n%s", view)
	}
	if !strings.Contains(view, "\x1b[") {
		t.Errorf("colour view has no escape sequences:\n%q", view)
	}
}
