// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session runs shared boards: one [Coordinator] goroutine per
// loaded board, the [Subscription]s that follow it, and the [Manager]
// that loads, creates, routes to, and deletes them.
//
// # Ordering
//
// A Coordinator is the only code that touches its life.Board. Client
// mutations and timer ticks enter the same queue and are applied one
// at a time, so a board's versions form a gap-free sequence. Conflicts
// resolve as last writer wins: a request applies to whatever the board
// is when it is dequeued, whatever version the client last saw.
//
// # Fan-out
//
// After every accepted mutation the Coordinator offers the new
// life.Snapshot to each Subscription without blocking. A subscription
// whose buffer is full is flagged instead; its next read fetches a
// fresh snapshot marked Resync. Each subscription sees strictly
// increasing versions, and the first thing it sees is the board as it
// was when it subscribed.
//
// # Persistence
//
// Each Coordinator hands its records to a persister goroutine that
// keeps only the newest one and writes it to the [Store] when it can.
// Storage failures are logged and never fail a mutation. A board that
// is closed normally flushes its last record; a deleted board discards
// it.
package session
