// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package life

import (
	"strings"
)

// MaxNeighbors is the largest possible live-neighbour count on a
// two-dimensional Moore neighbourhood.
const MaxNeighbors = 8

// RuleSet says which live-neighbour counts cause a dead cell to be born
// and which keep a live cell alive. Each set is a 9-bit mask indexed by
// neighbour count. RuleSet is a comparable value type and cannot be
// mutated after construction.
//
// The zero RuleSet is "B/S": nothing is ever born and everything dies.
// It is valid, just dull.
type RuleSet struct {
	born    uint16
	survive uint16
}

// Classic is Conway's rule set, B3/S23. It is the default for new
// boards.
var Classic = RuleSet{
	born:    1 << 3,
	survive: 1<<2 | 1<<3,
}

// NewRuleSet builds a RuleSet from explicit count lists. Duplicate
// counts are harmless. Any count outside [0,8] fails with
// KindRuleSetInvalid.
func NewRuleSet(born, survive []int) (RuleSet, error) {
	bornMask, err := countMask("born", born)
	if err != nil {
		return RuleSet{}, err
	}
	surviveMask, err := countMask("survive", survive)
	if err != nil {
		return RuleSet{}, err
	}
	return RuleSet{born: bornMask, survive: surviveMask}, nil
}

func countMask(set string, counts []int) (uint16, error) {
	var mask uint16
	for _, count := range counts {
		if count < 0 || count > MaxNeighbors {
			return 0, Errorf(KindRuleSetInvalid,
				"%s count %d is outside [0,%d]", set, count, MaxNeighbors)
		}
		mask |= 1 << count
	}
	return mask, nil
}

// Born returns the birth counts in ascending order.
func (r RuleSet) Born() []int { return maskCounts(r.born) }

// Survive returns the survival counts in ascending order.
func (r RuleSet) Survive() []int { return maskCounts(r.survive) }

func maskCounts(mask uint16) []int {
	var counts []int
	for count := 0; count <= MaxNeighbors; count++ {
		if mask&(1<<count) != 0 {
			counts = append(counts, count)
		}
	}
	return counts
}

// Next is the per-cell transition: a live cell with n neighbours stays
// alive iff n is a survival count; a dead cell becomes alive iff n is a
// birth count. Counts outside [0,8] never match.
func (r RuleSet) Next(alive bool, neighbors int) bool {
	if neighbors < 0 || neighbors > MaxNeighbors {
		return false
	}
	if alive {
		return r.survive&(1<<neighbors) != 0
	}
	return r.born&(1<<neighbors) != 0
}

// String returns the canonical rule string, e.g. "B36/S23".
func (r RuleSet) String() string {
	var builder strings.Builder
	builder.WriteByte('B')
	for _, count := range r.Born() {
		builder.WriteByte(byte('0' + count))
	}
	builder.WriteString("/S")
	for _, count := range r.Survive() {
		builder.WriteByte(byte('0' + count))
	}
	return builder.String()
}

// ParseRuleSet parses a "B<digits>/S<digits>" rule string. The B and S
// prefixes may be lowercase and the digits may appear in any order; the
// canonical form is restored by String. Structural problems are
// KindFormatError; the digit 9 is KindRuleSetInvalid.
func ParseRuleSet(text string) (RuleSet, error) {
	bornPart, survivePart, found := strings.Cut(text, "/")
	if !found {
		return RuleSet{}, Errorf(KindFormatError, "rule string %q: missing '/' separator", text)
	}
	born, err := parseRuleDigits(text, bornPart, 'B')
	if err != nil {
		return RuleSet{}, err
	}
	survive, err := parseRuleDigits(text, survivePart, 'S')
	if err != nil {
		return RuleSet{}, err
	}
	return NewRuleSet(born, survive)
}

func parseRuleDigits(text, part string, prefix byte) ([]int, error) {
	if part == "" || (part[0] != prefix && part[0] != prefix+('a'-'A')) {
		return nil, Errorf(KindFormatError, "rule string %q: expected %c prefix", text, prefix)
	}
	counts := make([]int, 0, len(part)-1)
	for _, character := range part[1:] {
		if character < '0' || character > '9' {
			return nil, Errorf(KindFormatError, "rule string %q: unexpected character %q", text, character)
		}
		counts = append(counts, int(character-'0'))
	}
	return counts, nil
}

// MarshalText implements encoding.TextMarshaler so that rule sets cross
// CBOR and JSON boundaries in their rule-string form.
func (r RuleSet) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RuleSet) UnmarshalText(text []byte) error {
	parsed, err := ParseRuleSet(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Preset is a named rule set offered when creating boards.
type Preset struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Rules       RuleSet `json:"rules"`
}

// Presets returns the built-in rule presets, Classic first.
func Presets() []Preset {
	return []Preset{
		{
			Name:        "classic",
			Description: "Conway's Game of Life",
			Rules:       Classic,
		},
		{
			Name:        "highlife",
			Description: "HighLife: classic plus birth on six, home of the replicator",
			Rules:       RuleSet{born: 1<<3 | 1<<6, survive: 1<<2 | 1<<3},
		},
		{
			Name:        "life-without-death",
			Description: "Cells are born as in Life and never die",
			Rules:       RuleSet{born: 1 << 3, survive: 0x1ff},
		},
	}
}

// LookupRules resolves either a preset name or a literal rule string.
func LookupRules(nameOrRule string) (RuleSet, error) {
	for _, preset := range Presets() {
		if strings.EqualFold(preset.Name, nameOrRule) {
			return preset.Rules, nil
		}
	}
	return ParseRuleSet(nameOrRule)
}
