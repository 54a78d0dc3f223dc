// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"time"

	"github.com/bureau-foundation/lifeboard/lib/life"
)

// Store is the persistence collaborator. Implementations must be safe
// for concurrent use.
type Store interface {
	// Load returns the record for id. A missing board is an error
	// matching life.ErrBoardNotFound; an unreadable one matches
	// life.ErrFormat.
	Load(ctx context.Context, id string) (life.Record, error)

	// Save inserts or replaces a record.
	Save(ctx context.Context, record life.Record) error

	// Delete removes a board and its participation history. A missing
	// board is an error matching life.ErrBoardNotFound.
	Delete(ctx context.Context, id string) error

	// List returns every stored record, most recently updated first.
	List(ctx context.Context) ([]life.Record, error)

	// RecordContributions adds counts to each participant's tally for
	// a board and marks them active at at.
	RecordContributions(ctx context.Context, boardID string, counts map[string]int, at time.Time) error

	// Participants returns a board's contributors, most active first.
	Participants(ctx context.Context, boardID string) ([]Participation, error)
}

// Participation is one participant's history on one board.
type Participation struct {
	Participant   string    `json:"participant"`
	Contributions int       `json:"contributions"`
	LastActive    time.Time `json:"last_active"`
}
