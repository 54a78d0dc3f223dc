// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package life

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure at the request boundary. The string
// values are protocol constants: they travel in socket responses so
// that clients can rebuild the error on their side.
type ErrorKind string

const (
	// KindOutOfBounds is a cell coordinate outside [0,width) x [0,height).
	KindOutOfBounds ErrorKind = "out_of_bounds"

	// KindInvalidWhileRunning is a structural edit (toggle, step, stamp)
	// requested while the board is auto-evolving.
	KindInvalidWhileRunning ErrorKind = "invalid_while_running"

	// KindFormatError is malformed grid, dimension, or rule text.
	KindFormatError ErrorKind = "format_error"

	// KindBoardNotFound means no loadable record exists for a board id.
	KindBoardNotFound ErrorKind = "board_not_found"

	// KindRuleSetInvalid is a rule definition with a neighbour count
	// outside [0,8].
	KindRuleSetInvalid ErrorKind = "rule_set_invalid"

	// KindInvalidDimensions is a non-positive or oversized board.
	KindInvalidDimensions ErrorKind = "invalid_dimensions"

	// KindInvalidRequest covers everything else a caller can get wrong:
	// unknown operations, bad board names, unknown patterns.
	KindInvalidRequest ErrorKind = "invalid_request"
)

// Error is the error type for every failure this package (and the
// session layer above it) reports.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is reports whether target is a sentinel of the same kind. Sentinels
// are Error values with an empty Message, so errors.Is(err,
// ErrOutOfBounds) matches any out-of-bounds error regardless of its
// message.
func (e *Error) Is(target error) bool {
	sentinel, ok := target.(*Error)
	return ok && sentinel.Message == "" && sentinel.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrOutOfBounds         = &Error{Kind: KindOutOfBounds}
	ErrInvalidWhileRunning = &Error{Kind: KindInvalidWhileRunning}
	ErrFormat              = &Error{Kind: KindFormatError}
	ErrBoardNotFound       = &Error{Kind: KindBoardNotFound}
	ErrRuleSetInvalid      = &Error{Kind: KindRuleSetInvalid}
	ErrInvalidDimensions   = &Error{Kind: KindInvalidDimensions}
	ErrInvalidRequest      = &Error{Kind: KindInvalidRequest}
)

// Errorf builds an Error of the given kind.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the ErrorKind of the first *Error in err's chain, or
// the empty string if there is none.
func KindOf(err error) ErrorKind {
	var lifeError *Error
	if errors.As(err, &lifeError) {
		return lifeError.Kind
	}
	return ""
}
