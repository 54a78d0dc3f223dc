// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pattern holds named cell patterns that can be stamped onto a
// board: a built-in set of well-known forms, optionally extended by a
// JSONC library file.
//
// A library file looks like:
//
//	{
//	  // Oscillators the team likes.
//	  "patterns": [
//	    {"name": "pulsar-quarter", "description": "...", "rows": ["0011", "0101"]},
//	  ],
//	}
//
// Rows use the board text alphabet ('0' dead, '1' alive) and must all
// have the same length.
package pattern

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/lifeboard/lib/life"
)

// Pattern is a named grid of cells.
type Pattern struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Rows        []string `json:"rows"`

	// Builtin is false for patterns read from a library file.
	Builtin bool `json:"builtin"`

	grid life.Grid
}

// Grid returns a copy of the pattern's cells.
func (p Pattern) Grid() life.Grid { return p.grid.Clone() }

// Dimensions returns the pattern's "WxH" size.
func (p Pattern) Dimensions() string {
	return life.FormatDimensions(p.grid.Width(), p.grid.Height())
}

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,39}$`)

// compile validates the name and decodes the rows.
func (p *Pattern) compile() error {
	if !namePattern.MatchString(p.Name) {
		return fmt.Errorf("pattern name %q: must be 1-40 lowercase letters, digits, or hyphens", p.Name)
	}
	grid, err := life.ParseRows(p.Rows)
	if err != nil {
		return fmt.Errorf("pattern %s: %w", p.Name, err)
	}
	if grid.Population() == 0 {
		return fmt.Errorf("pattern %s: no live cells", p.Name)
	}
	p.grid = grid
	return nil
}

var builtins = []Pattern{
	{Name: "glider", Description: "Smallest spaceship; travels diagonally every 4 generations", Rows: []string{"010", "001", "111"}},
	{Name: "blinker", Description: "Period-2 oscillator", Rows: []string{"111"}},
	{Name: "block", Description: "Still life", Rows: []string{"11", "11"}},
	{Name: "beacon", Description: "Period-2 oscillator made of two blocks", Rows: []string{"1100", "1100", "0011", "0011"}},
	{Name: "toad", Description: "Period-2 oscillator", Rows: []string{"0111", "1110"}},
	{Name: "lwss", Description: "Lightweight spaceship; travels horizontally", Rows: []string{"01001", "10000", "10001", "11110"}},
	{Name: "r-pentomino", Description: "Methuselah; stabilizes after 1103 generations", Rows: []string{"011", "110", "010"}},
}

// Library is an immutable set of patterns keyed by name.
type Library struct {
	patterns map[string]Pattern
}

// Builtin returns a library of the built-in patterns only.
func Builtin() *Library {
	library := &Library{patterns: make(map[string]Pattern, len(builtins))}
	for _, definition := range builtins {
		definition.Builtin = true
		if err := definition.compile(); err != nil {
			panic("pattern: built-in " + err.Error())
		}
		library.patterns[definition.Name] = definition
	}
	return library
}

// libraryFile is the JSONC document shape.
type libraryFile struct {
	Patterns []Pattern `json:"patterns"`
}

// Parse decodes a JSONC library document. Every entry is validated;
// duplicate names within one document are an error.
func Parse(data []byte) ([]Pattern, error) {
	var document libraryFile
	if err := json.Unmarshal(jsonc.ToJSON(data), &document); err != nil {
		return nil, fmt.Errorf("parsing pattern library: %w", err)
	}
	seen := make(map[string]bool, len(document.Patterns))
	for index := range document.Patterns {
		definition := &document.Patterns[index]
		definition.Builtin = false
		if err := definition.compile(); err != nil {
			return nil, fmt.Errorf("pattern library entry %d: %w", index, err)
		}
		if seen[definition.Name] {
			return nil, fmt.Errorf("pattern library: duplicate name %q", definition.Name)
		}
		seen[definition.Name] = true
	}
	return document.Patterns, nil
}

// Load returns the built-in patterns extended with those in the JSONC
// file at path. File entries replace built-ins of the same name. An
// empty path returns the built-ins alone.
func Load(path string) (*Library, error) {
	library := Builtin()
	if path == "" {
		return library, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pattern library: %w", err)
	}
	definitions, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, definition := range definitions {
		library.patterns[definition.Name] = definition
	}
	return library, nil
}

// Lookup returns the named pattern. An unknown name is a
// life.KindInvalidRequest error.
func (l *Library) Lookup(name string) (Pattern, error) {
	definition, ok := l.patterns[name]
	if !ok {
		return Pattern{}, life.Errorf(life.KindInvalidRequest, "unknown pattern %q", name)
	}
	return definition, nil
}

// Names returns every pattern name, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.patterns))
	for name := range l.patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns every pattern, sorted by name.
func (l *Library) List() []Pattern {
	names := l.Names()
	result := make([]Pattern, len(names))
	for index, name := range names {
		result[index] = l.patterns[name]
	}
	return result
}
