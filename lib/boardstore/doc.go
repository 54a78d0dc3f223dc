// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package boardstore persists boards and participation history in a
// SQLite database through lib/sqlitepool.
//
// Cell text is compressed before storage: the encoder probes each grid
// with zstd and keeps zstd, switches to LZ4, or stores the text raw
// depending on the ratio. A keyed BLAKE3 digest of the uncompressed
// text is stored alongside and checked on every read, so a damaged row
// surfaces as a life.KindFormatError rather than a wrong board.
package boardstore
