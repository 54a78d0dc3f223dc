// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/lifeboard/lib/boardclient"
	"github.com/bureau-foundation/lifeboard/lib/life"
)

// submitTimeout bounds one mutation round trip.
const submitTimeout = 10 * time.Second

// gliderPattern is the library pattern stamped by the StampGlider key.
const gliderPattern = "glider"

// eventMsg carries one watch event into Update.
type eventMsg struct {
	event boardclient.Event
}

// eventsClosedMsg reports that the source's channel closed.
type eventsClosedMsg struct{}

// submitResultMsg carries a mutation's outcome into Update.
type submitResultMsg struct {
	op       life.Op
	snapshot life.Snapshot
	err      error
}

// Model is the bubbletea model for one board.
type Model struct {
	boardID string
	source  Source
	mutator Mutator
	keys    KeyMap
	styles  styles

	// snapshot is the newest version received; grid is its decoded
	// cells. Both are zero until the first snapshot.
	snapshot     life.Snapshot
	grid         life.Grid
	haveSnapshot bool

	cursorX, cursorY int

	// originX and originY are the top-left cell in view when the
	// board is larger than the terminal.
	originX, originY int

	width, height int

	connected   bool
	status      string
	statusError bool
	showHelp    bool
	ended       bool
}

// NewModel creates a viewer for boardID. profile selects the colour
// output; termenv.Ascii renders cells as '#' and '.'.
func NewModel(boardID string, source Source, mutator Mutator, profile termenv.Profile) Model {
	return Model{
		boardID: boardID,
		source:  source,
		mutator: mutator,
		keys:    DefaultKeyMap,
		styles:  newStyles(DefaultTheme, profile),
		status:  "connecting",
	}
}

// Snapshot returns the snapshot on screen.
func (model Model) Snapshot() life.Snapshot { return model.snapshot }

// Cursor returns the cursor's cell coordinates.
func (model Model) Cursor() (x, y int) { return model.cursorX, model.cursorY }

// Status returns the status line text.
func (model Model) Status() string { return model.status }

// Ended reports whether the source stopped delivering events.
func (model Model) Ended() bool { return model.ended }

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return listenForEvent(model.source.Events())
}

// listenForEvent blocks until the next event or the channel closes.
func listenForEvent(channel <-chan boardclient.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-channel
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: event}
	}
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.scrollToCursor()
		return model, nil

	case tea.KeyMsg:
		return model.handleKey(message)

	case eventMsg:
		model.handleEvent(message.event)
		return model, listenForEvent(model.source.Events())

	case eventsClosedMsg:
		model.ended = true
		return model, tea.Quit

	case submitResultMsg:
		if message.err != nil {
			model.setError(fmt.Sprintf("%s rejected: %v", message.op, message.err))
			return model, nil
		}
		model.applySnapshot(message.snapshot)
		model.setStatus(fmt.Sprintf("%s applied at version %d", message.op, message.snapshot.Version))
		return model, nil
	}
	return model, nil
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit
	case key.Matches(message, model.keys.Help):
		model.showHelp = !model.showHelp
		return model, nil
	}

	if !model.haveSnapshot {
		return model, nil
	}

	switch {
	case key.Matches(message, model.keys.Up):
		model.moveCursor(0, -1)
	case key.Matches(message, model.keys.Down):
		model.moveCursor(0, 1)
	case key.Matches(message, model.keys.Left):
		model.moveCursor(-1, 0)
	case key.Matches(message, model.keys.Right):
		model.moveCursor(1, 0)

	case key.Matches(message, model.keys.Toggle):
		return model, model.submit(life.ToggleCell{X: model.cursorX, Y: model.cursorY})
	case key.Matches(message, model.keys.Step):
		return model, model.submit(life.Step{})
	case key.Matches(message, model.keys.StartStop):
		return model, model.submit(life.SetRunning{Running: !model.snapshot.Running})
	case key.Matches(message, model.keys.Reset):
		return model, model.submit(life.Reset{})
	case key.Matches(message, model.keys.StampGlider):
		return model, model.stamp(gliderPattern)
	}
	return model, nil
}

// handleEvent folds one watch event into the model.
func (model *Model) handleEvent(event boardclient.Event) {
	switch event.Type {
	case boardclient.EventConnected:
		model.connected = true
		model.applySnapshot(event.Snapshot)
		model.setStatus("connected")
	case boardclient.EventSnapshot:
		model.applySnapshot(event.Snapshot)
	case boardclient.EventResync:
		model.applySnapshot(event.Snapshot)
		model.setStatus(fmt.Sprintf("resynced at version %d", event.Snapshot.Version))
	case boardclient.EventDisconnected:
		model.connected = false
		model.setError(fmt.Sprintf("disconnected: %v (retrying in %s)", event.Err, event.Backoff))
	case boardclient.EventDisposed:
		model.connected = false
		model.setError("board deleted")
	}
}

// applySnapshot shows snapshot unless a newer version is already on
// screen.
func (model *Model) applySnapshot(snapshot life.Snapshot) {
	if model.haveSnapshot && snapshot.Version <= model.snapshot.Version {
		return
	}
	grid, err := snapshot.Grid()
	if err != nil {
		model.setError(fmt.Sprintf("version %d: %v", snapshot.Version, err))
		return
	}
	model.snapshot = snapshot
	model.grid = grid
	model.haveSnapshot = true
	model.cursorX = min(model.cursorX, grid.Width()-1)
	model.cursorY = min(model.cursorY, grid.Height()-1)
	model.scrollToCursor()
}

// moveCursor moves by (dx, dy), wrapping at the edges like the board.
func (model *Model) moveCursor(dx, dy int) {
	width, height := model.grid.Width(), model.grid.Height()
	model.cursorX = (model.cursorX + dx + width) % width
	model.cursorY = (model.cursorY + dy + height) % height
	model.scrollToCursor()
}

// scrollToCursor moves the view origin so the cursor is visible.
func (model *Model) scrollToCursor() {
	columns, rows := model.visibleCells()
	model.originX = scrollAxis(model.originX, model.cursorX, columns, model.grid.Width())
	model.originY = scrollAxis(model.originY, model.cursorY, rows, model.grid.Height())
}

// scrollAxis returns the origin along one axis of length size that
// keeps cursor within visible cells, moving as little as possible.
func scrollAxis(origin, cursor, visible, size int) int {
	if visible <= 0 || visible >= size {
		return 0
	}
	switch {
	case cursor < origin:
		origin = cursor
	case cursor >= origin+visible:
		origin = cursor - visible + 1
	}
	return min(origin, size-visible)
}

func (model Model) submit(mutation life.Mutation) tea.Cmd {
	mutator, boardID, knownVersion := model.mutator, model.boardID, model.snapshot.Version
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		snapshot, err := mutator.Submit(ctx, boardID, mutation, knownVersion)
		return submitResultMsg{op: mutation.Op(), snapshot: snapshot, err: err}
	}
}

func (model Model) stamp(pattern string) tea.Cmd {
	mutator, boardID, knownVersion := model.mutator, model.boardID, model.snapshot.Version
	x, y := model.cursorX, model.cursorY
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		snapshot, err := mutator.Stamp(ctx, boardID, pattern, x, y, knownVersion)
		return submitResultMsg{op: life.OpStampPattern, snapshot: snapshot, err: err}
	}
}

func (model *Model) setStatus(text string) {
	model.status = text
	model.statusError = false
}

func (model *Model) setError(text string) {
	model.status = text
	model.statusError = true
}
