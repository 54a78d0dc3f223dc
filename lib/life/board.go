// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package life

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Board name bounds, in characters after trimming.
const (
	MinNameLength = 3
	MaxNameLength = 50
)

// Board is one shared automaton: a grid, its rule set, and the counters
// that order its history. A Board is not safe for concurrent use; the
// session coordinator that owns it is the only writer.
type Board struct {
	id         string
	name       string
	grid       Grid
	rules      RuleSet
	version    uint64
	generation uint64
	running    bool
	createdAt  time.Time
}

// BoardParams describes a new board.
type BoardParams struct {
	ID     string
	Name   string
	Width  int
	Height int
	Rules  RuleSet

	// Initial, if set, is stamped at (InitialX, InitialY) before the
	// board's first version is taken.
	Initial  Grid
	InitialX int
	InitialY int

	CreatedAt time.Time
}

// NewBoard creates a board at version 1, generation 0, idle.
func NewBoard(params BoardParams) (*Board, error) {
	if params.ID == "" {
		return nil, Errorf(KindInvalidRequest, "board id is required")
	}
	name, err := ValidateName(params.Name)
	if err != nil {
		return nil, err
	}
	grid, err := NewGrid(params.Width, params.Height)
	if err != nil {
		return nil, err
	}
	if !params.Initial.IsZero() {
		if err := grid.Stamp(params.Initial, params.InitialX, params.InitialY); err != nil {
			return nil, err
		}
	}
	return &Board{
		id:        params.ID,
		name:      name,
		grid:      grid,
		rules:     params.Rules,
		version:   1,
		createdAt: params.CreatedAt,
	}, nil
}

// SizePresets are the board sizes offered when creating a board.
func SizePresets() []string {
	return []string{"10x10", "20x20", "30x30"}
}

// ValidateName trims a board name and checks its length.
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	length := utf8.RuneCountInString(trimmed)
	if length < MinNameLength || length > MaxNameLength {
		return "", Errorf(KindInvalidRequest, "board name must be %d-%d characters, got %d",
			MinNameLength, MaxNameLength, length)
	}
	return trimmed, nil
}

// Record is the persisted form of a board, exchanged with the storage
// collaborator.
type Record struct {
	ID         string
	Name       string
	Width      int
	Height     int
	Rules      RuleSet
	Cells      string
	Version    uint64
	Generation uint64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Dimensions returns the record's "WxH" string.
func (r Record) Dimensions() string { return FormatDimensions(r.Width, r.Height) }

// RestoreBoard rebuilds a board from its record. The board comes back
// idle: auto-evolution does not survive a reload. A malformed cell
// string fails with KindFormatError.
func RestoreBoard(record Record) (*Board, error) {
	grid, err := DecodeGrid(record.Cells, record.Width, record.Height)
	if err != nil {
		return nil, err
	}
	if record.Version == 0 {
		return nil, Errorf(KindFormatError, "board %s: record version must be at least 1", record.ID)
	}
	return &Board{
		id:         record.ID,
		name:       record.Name,
		grid:       grid,
		rules:      record.Rules,
		version:    record.Version,
		generation: record.Generation,
		createdAt:  record.CreatedAt,
	}, nil
}

func (b *Board) ID() string           { return b.id }
func (b *Board) Name() string         { return b.name }
func (b *Board) Width() int           { return b.grid.width }
func (b *Board) Height() int          { return b.grid.height }
func (b *Board) Rules() RuleSet       { return b.rules }
func (b *Board) Version() uint64      { return b.version }
func (b *Board) Generation() uint64   { return b.generation }
func (b *Board) Running() bool        { return b.running }
func (b *Board) CreatedAt() time.Time { return b.createdAt }

// Grid returns a copy of the current cells.
func (b *Board) Grid() Grid { return b.grid.Clone() }

// Apply runs one mutation. On success the version advances by exactly
// one; on failure the board is unchanged.
func (b *Board) Apply(mutation Mutation) error {
	if mutation == nil {
		return Errorf(KindInvalidRequest, "no mutation")
	}
	if err := mutation.apply(b); err != nil {
		return err
	}
	b.version++
	return nil
}

func (b *Board) evolve() {
	b.grid = Evolve(b.grid, b.rules)
	b.generation++
}

// Snapshot captures the board's current state in encoded, immutable
// form.
func (b *Board) Snapshot() Snapshot {
	cells := EncodeGrid(b.grid)
	return Snapshot{
		BoardID:    b.id,
		Name:       b.name,
		Version:    b.version,
		Generation: b.generation,
		Running:    b.running,
		Dimensions: FormatDimensions(b.grid.width, b.grid.height),
		Rules:      b.rules.String(),
		Cells:      cells,
		Digest:     GridDigest(cells),
	}
}

// Record returns the board's persisted form, stamped with updatedAt.
func (b *Board) Record(updatedAt time.Time) Record {
	return Record{
		ID:         b.id,
		Name:       b.name,
		Width:      b.grid.width,
		Height:     b.grid.height,
		Rules:      b.rules,
		Cells:      EncodeGrid(b.grid),
		Version:    b.version,
		Generation: b.generation,
		CreatedAt:  b.createdAt,
		UpdatedAt:  updatedAt,
	}
}
