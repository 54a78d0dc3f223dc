// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// lifeboard-service hosts shared Game of Life boards over a CBOR Unix
// socket. It is the single in-memory authority for the boards in its
// state directory: it holds an exclusive lock on the directory, keeps
// one session coordinator per loaded board, and persists every
// committed version to SQLite.
//
// Request/response actions (one request per connection):
//
//   - status: build, uptime, board counts, registered actions
//   - list-boards, create-board, get-board, delete-board
//   - submit: apply one mutation, returning the resulting snapshot
//   - list-rules, list-patterns: presets offered for new boards
//   - participants: per-board contribution counts
//
// The subscribe action is a stream. The first frame is the board's
// current snapshot; later frames are snapshot, resync (the subscriber
// fell behind and intermediate versions were skipped), heartbeat while
// idle, and a final disposed frame if the board is deleted. A failed
// subscribe sends one error frame carrying the error kind.
//
// Configuration comes from the YAML file named by --config or
// LIFEBOARD_CONFIG. Without either, development defaults rooted at
// --state-dir are used.
package main
