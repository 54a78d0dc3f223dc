// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package life implements the cellular-automaton core of lifeboard: rule
// sets, grids, the evolution engine, the textual grid codec, and the
// Board state machine that the session layer drives.
//
// Everything in this package is single-threaded and free of I/O. A Board
// is owned by exactly one goroutine (the session coordinator); other
// goroutines see only immutable [Snapshot] values.
//
// # Topology
//
// Grids are toroidal: the neighbour of column width-1 at offset +1 is
// column 0, and likewise for rows. All eight offsets wrap, including the
// corners.
//
// # Wire forms
//
// Three textual forms cross process boundaries:
//
//   - grid: one '0'/'1' character per cell, rows joined by '|'
//     ("010|010|010")
//   - dimensions: "WxH" ("20x20")
//   - rules: "B<digits>/S<digits>" with digits ascending ("B3/S23")
//
// Decoding any of them reports a [KindFormatError] (or
// [KindRuleSetInvalid] for out-of-range rule digits) and never repairs
// malformed input.
//
// # Errors
//
// All failures are [*Error] values carrying an [ErrorKind]. Use [KindOf]
// or errors.Is against the sentinel values (ErrOutOfBounds, ...) to
// classify them.
package life
