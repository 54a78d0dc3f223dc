// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

// chromeLines is the header, status, and help lines around the grid.
const chromeLines = 3

// styles are the theme's colours bound to one colour profile.
type styles struct {
	ascii bool

	alive       lipgloss.Style
	dead        lipgloss.Style
	cursorAlive lipgloss.Style
	cursorDead  lipgloss.Style

	header  lipgloss.Style
	faint   lipgloss.Style
	help    lipgloss.Style
	running lipgloss.Style
	idle    lipgloss.Style
	failure lipgloss.Style
}

func newStyles(theme Theme, profile termenv.Profile) styles {
	renderer := lipgloss.NewRenderer(io.Discard)
	renderer.SetColorProfile(profile)
	return styles{
		ascii:       profile == termenv.Ascii,
		alive:       renderer.NewStyle().Background(theme.AliveCell),
		dead:        renderer.NewStyle().Background(theme.DeadCell),
		cursorAlive: renderer.NewStyle().Background(theme.Cursor).Foreground(theme.AliveCell),
		cursorDead:  renderer.NewStyle().Background(theme.Cursor),
		header:      renderer.NewStyle().Foreground(theme.HeaderForeground).Bold(true),
		faint:       renderer.NewStyle().Foreground(theme.FaintText),
		help:        renderer.NewStyle().Foreground(theme.HelpText),
		running:     renderer.NewStyle().Foreground(theme.Running).Bold(true),
		idle:        renderer.NewStyle().Foreground(theme.Idle),
		failure:     renderer.NewStyle().Foreground(theme.Error),
	}
}

// cellWidth is the terminal columns per cell: two in colour, so cells
// are roughly square, and one in ASCII.
func (s styles) cellWidth() int {
	if s.ascii {
		return 1
	}
	return 2
}

// cell renders one cell.
func (s styles) cell(alive, cursor bool) string {
	if s.ascii {
		switch {
		case cursor && alive:
			return "@"
		case cursor:
			return "+"
		case alive:
			return "#"
		default:
			return "."
		}
	}
	switch {
	case cursor && alive:
		return s.cursorAlive.Render("▓▓")
	case cursor:
		return s.cursorDead.Render("  ")
	case alive:
		return s.alive.Render("  ")
	default:
		return s.dead.Render("  ")
	}
}

// visibleCells returns how many columns and rows of cells fit the
// terminal. Zero means no limit: no size has been reported yet.
func (model Model) visibleCells() (columns, rows int) {
	if model.width <= 0 || model.height <= 0 {
		return 0, 0
	}
	return max(model.width/model.styles.cellWidth(), 1), max(model.height-chromeLines, 1)
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.haveSnapshot {
		return model.styles.faint.Render(model.truncate(fmt.Sprintf("connecting to board %s…", model.boardID))) + "\n"
	}

	var builder strings.Builder
	builder.WriteString(model.renderHeader())
	builder.WriteByte('\n')
	model.renderGrid(&builder)
	builder.WriteString(model.renderStatus())
	builder.WriteByte('\n')
	builder.WriteString(model.renderHelp())
	return builder.String()
}

func (model Model) renderHeader() string {
	snapshot := model.snapshot
	state := model.styles.idle.Render("idle")
	if snapshot.Running {
		state = model.styles.running.Render("running")
	}
	title := model.styles.header.Render(snapshot.Name)
	details := model.styles.faint.Render(fmt.Sprintf("%s  %s  gen %d  v%d  (%d,%d)",
		snapshot.Dimensions, snapshot.Rules, snapshot.Generation, snapshot.Version,
		model.cursorX, model.cursorY))
	return model.truncate(title + "  " + state + "  " + details)
}

func (model Model) renderGrid(builder *strings.Builder) {
	columns, rows := model.visibleCells()
	width, height := model.grid.Width(), model.grid.Height()
	if columns == 0 || columns > width {
		columns = width
	}
	if rows == 0 || rows > height {
		rows = height
	}
	for y := model.originY; y < model.originY+rows; y++ {
		for x := model.originX; x < model.originX+columns; x++ {
			cursor := x == model.cursorX && y == model.cursorY
			builder.WriteString(model.styles.cell(model.grid.Alive(x, y), cursor))
		}
		builder.WriteByte('\n')
	}
}

func (model Model) renderStatus() string {
	status := model.status
	if !model.connected && !model.statusError {
		status = "offline: " + status
	}
	status = model.truncate(status)
	if model.statusError {
		return model.styles.failure.Render(status)
	}
	return model.styles.faint.Render(status)
}

func (model Model) renderHelp() string {
	bindings := model.keys.shortHelp()
	if model.showHelp {
		bindings = model.keys.fullHelp()
	}
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		if !binding.Enabled() {
			continue
		}
		parts = append(parts, helpEntry(binding))
	}
	return model.styles.help.Render(model.truncate(strings.Join(parts, "  ")))
}

func helpEntry(binding key.Binding) string {
	help := binding.Help()
	return help.Key + " " + help.Desc
}

// truncate fits text to the terminal width.
func (model Model) truncate(text string) string {
	if model.width <= 0 {
		return text
	}
	return ansi.Truncate(text, model.width, "…")
}
