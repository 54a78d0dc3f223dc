// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardui

import "github.com/charmbracelet/lipgloss"

// Theme is the viewer's colour palette, in lipgloss ANSI 256-colour
// codes.
type Theme struct {
	AliveCell lipgloss.Color
	DeadCell  lipgloss.Color

	// Cursor background, drawn under both live and dead cells.
	Cursor lipgloss.Color

	HeaderForeground lipgloss.Color
	FaintText        lipgloss.Color
	HelpText         lipgloss.Color

	Running lipgloss.Color
	Idle    lipgloss.Color
	Error   lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal scheme.
var DefaultTheme = Theme{
	AliveCell: lipgloss.Color("114"), // green
	DeadCell:  lipgloss.Color("236"),

	Cursor: lipgloss.Color("220"), // amber

	HeaderForeground: lipgloss.Color("255"),
	FaintText:        lipgloss.Color("245"),
	HelpText:         lipgloss.Color("241"),

	Running: lipgloss.Color("114"),
	Idle:    lipgloss.Color("245"),
	Error:   lipgloss.Color("196"),
}
