// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/lifeboard/lib/boardclient"
	"github.com/bureau-foundation/lifeboard/lib/life"
	"github.com/bureau-foundation/lifeboard/lib/session"
)

// Cell glyphs for text output.
const (
	aliveGlyph = '#'
	deadGlyph  = '.'
)

// boardState names a board's run state.
func boardState(running bool) string {
	if running {
		return "running"
	}
	return "idle"
}

// writeSnapshot prints a board's header line and its cells.
func writeSnapshot(w io.Writer, snapshot life.Snapshot) error {
	grid, err := snapshot.Grid()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s  %s  %s  %s  gen %d  v%d  pop %d\n",
		snapshot.BoardID, snapshot.Name, snapshot.Dimensions, snapshot.Rules,
		snapshot.Generation, snapshot.Version, grid.Population())
	fmt.Fprintf(w, "%s\n", boardState(snapshot.Running))
	_, err = io.WriteString(w, renderGrid(grid))
	return err
}

// renderGrid draws a grid one row per line.
func renderGrid(grid life.Grid) string {
	var builder strings.Builder
	builder.Grow((grid.Width() + 1) * grid.Height())
	for y := range grid.Height() {
		for x := range grid.Width() {
			if grid.Alive(x, y) {
				builder.WriteByte(aliveGlyph)
			} else {
				builder.WriteByte(deadGlyph)
			}
		}
		builder.WriteByte('\n')
	}
	return builder.String()
}

// writeMutationResult prints the one-line outcome of a mutation.
func writeMutationResult(w io.Writer, op life.Op, snapshot life.Snapshot) {
	fmt.Fprintf(w, "%s applied to %s: version %d, generation %d, %s\n",
		op, snapshot.BoardID, snapshot.Version, snapshot.Generation, boardState(snapshot.Running))
}

// writeBoardTable prints one line per board with relative update times.
func writeBoardTable(w io.Writer, boards []session.Summary, now time.Time) error {
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tRULES\tSTATE\tGEN\tVERSION\tUPDATED")
	for _, board := range boards {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			board.ID, board.Name, board.Dimensions, board.Rules, boardState(board.Running),
			board.Generation, board.Version, humanize.RelTime(board.UpdatedAt, now, "ago", "from now"))
	}
	return tw.Flush()
}

// writeParticipants prints one line per participant.
func writeParticipants(w io.Writer, participants []session.Participation, now time.Time) error {
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PARTICIPANT\tEDITS\tLAST ACTIVE")
	for _, participant := range participants {
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			participant.Participant, humanize.Comma(int64(participant.Contributions)),
			humanize.RelTime(participant.LastActive, now, "ago", "from now"))
	}
	return tw.Flush()
}

// writeRules prints the rule and size presets and the service defaults.
func writeRules(w io.Writer, info boardclient.RulesInfo) error {
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRESET\tRULES\tDESCRIPTION")
	for _, preset := range info.Presets {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", preset.Name, preset.Rules, preset.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nsizes: %s\n", strings.Join(info.Sizes, ", "))
	fmt.Fprintf(w, "defaults: %s %s (max %s)\n", info.DefaultDimensions, info.DefaultRules, info.MaxDimensions)
	return nil
}

// writePatterns prints the pattern library, each pattern's cells
// indented under its name.
func writePatterns(w io.Writer, patterns []boardclient.PatternInfo) error {
	for index, pattern := range patterns {
		if index > 0 {
			fmt.Fprintln(w)
		}
		source := "library"
		if pattern.Builtin {
			source = "builtin"
		}
		fmt.Fprintf(w, "%s  %s  %s", pattern.Name, pattern.Dimensions, source)
		if pattern.Description != "" {
			fmt.Fprintf(w, "  %s", pattern.Description)
		}
		fmt.Fprintln(w)
		grid, err := life.ParseRows(pattern.Rows)
		if err != nil {
			return fmt.Errorf("pattern %s: %w", pattern.Name, err)
		}
		for line := range strings.Lines(renderGrid(grid)) {
			fmt.Fprintf(w, "  %s", line)
		}
	}
	return nil
}

// writeStatus prints the service status.
func writeStatus(w io.Writer, status boardclient.Status) {
	fmt.Fprintf(w, "build:    %s\n", status.Build)
	fmt.Fprintf(w, "boards:   %d stored, %d loaded\n", status.Boards, status.Loaded)
	fmt.Fprintf(w, "uptime:   %s\n", time.Duration(status.UptimeSeconds)*time.Second)
	fmt.Fprintf(w, "database: %s\n", status.Database)
	fmt.Fprintf(w, "actions:  %s\n", strings.Join(status.Actions, ", "))
}
