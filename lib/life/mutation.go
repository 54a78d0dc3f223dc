// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package life

// Op names a mutation on the wire and in logs.
type Op string

const (
	OpToggleCell   Op = "toggle_cell"
	OpSetRunning   Op = "set_running"
	OpStep         Op = "step"
	OpReset        Op = "reset"
	OpStampPattern Op = "stamp_pattern"

	// OpTick is the coordinator's own timer-driven generation advance.
	// Clients cannot submit it.
	OpTick Op = "tick"
)

// Mutation is one of the request variants a Board accepts: ToggleCell,
// SetRunning, Step, Reset, StampPattern, or Tick. The set is closed;
// other packages cannot add variants.
type Mutation interface {
	Op() Op
	apply(board *Board) error
}

// ToggleCell flips one cell. Rejected while running.
type ToggleCell struct {
	X int
	Y int
}

func (ToggleCell) Op() Op { return OpToggleCell }

func (m ToggleCell) apply(board *Board) error {
	if board.running {
		return Errorf(KindInvalidWhileRunning, "cannot toggle (%d,%d) while the board is running", m.X, m.Y)
	}
	return board.grid.Toggle(m.X, m.Y)
}

// SetRunning starts or stops automatic generation advance. Setting the
// state the board is already in is accepted.
type SetRunning struct {
	Running bool
}

func (SetRunning) Op() Op { return OpSetRunning }

func (m SetRunning) apply(board *Board) error {
	board.running = m.Running
	return nil
}

// Step advances exactly one generation. Rejected while running.
type Step struct{}

func (Step) Op() Op { return OpStep }

func (Step) apply(board *Board) error {
	if board.running {
		return Errorf(KindInvalidWhileRunning, "cannot step while the board is running")
	}
	board.evolve()
	return nil
}

// Reset clears the grid, zeroes the generation, and stops the board. It
// is accepted in every state.
type Reset struct{}

func (Reset) Op() Op { return OpReset }

func (Reset) apply(board *Board) error {
	board.grid.Clear()
	board.generation = 0
	board.running = false
	return nil
}

// StampPattern sets a pattern's live cells alive with its top-left
// corner at (X, Y), wrapping at the edges. Rejected while running.
type StampPattern struct {
	X       int
	Y       int
	Pattern Grid
}

func (StampPattern) Op() Op { return OpStampPattern }

func (m StampPattern) apply(board *Board) error {
	if board.running {
		return Errorf(KindInvalidWhileRunning, "cannot stamp a pattern while the board is running")
	}
	if m.Pattern.IsZero() {
		return Errorf(KindInvalidRequest, "stamp requires a pattern")
	}
	return board.grid.Stamp(m.Pattern, m.X, m.Y)
}

// Tick is one timer-driven generation while running. It is only
// produced by the session coordinator.
type Tick struct{}

func (Tick) Op() Op { return OpTick }

func (Tick) apply(board *Board) error {
	if !board.running {
		return Errorf(KindInvalidRequest, "tick on an idle board")
	}
	board.evolve()
	return nil
}

// Request wraps a mutation with the submitting client's context.
//
// KnownVersion is the last version the client had seen. It is
// diagnostic only: requests apply against the current board regardless
// (last writer wins). Participant is the opaque identity supplied by
// the surrounding system, recorded for attribution when non-empty.
type Request struct {
	Mutation     Mutation
	KnownVersion uint64
	Participant  string
}
