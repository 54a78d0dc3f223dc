// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the viewer's key bindings.
type KeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding

	// Mutations.
	Toggle      key.Binding // Toggle the cell under the cursor.
	Step        key.Binding // Advance one generation.
	StartStop   key.Binding
	Reset       key.Binding
	StampGlider key.Binding // Stamp a glider at the cursor.

	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap uses vim-style movement alongside the arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "right"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "space", "enter"),
		key.WithHelp("space", "toggle"),
	),
	Step: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "step"),
	),
	StartStop: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "start/stop"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset"),
	),
	StampGlider: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "glider"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// shortHelp is the binding list shown in the footer.
func (keys KeyMap) shortHelp() []key.Binding {
	return []key.Binding{keys.Toggle, keys.Step, keys.StartStop, keys.Reset, keys.StampGlider, keys.Help, keys.Quit}
}

// fullHelp adds movement to shortHelp.
func (keys KeyMap) fullHelp() []key.Binding {
	return append([]key.Binding{keys.Up, keys.Down, keys.Left, keys.Right}, keys.shortHelp()...)
}
