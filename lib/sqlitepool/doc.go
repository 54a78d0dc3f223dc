// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens the SQLite connection pool behind
// lifeboard's board store.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool. Every connection gets
// the same pragmas on first use:
//
//   - journal_mode=WAL: readers never block the writer.
//   - synchronous=NORMAL: commits survive a process crash. Board
//     persistence is best-effort, so surviving power loss is not worth
//     an fsync per save.
//   - busy_timeout=5000: wait for the write lock instead of failing.
//   - foreign_keys=ON: participation rows cascade with their board.
//   - temp_store=MEMORY.
//
// # Schema migrations
//
// [Config].Migrations is an ordered list of SQL scripts. The pool
// records how many have run in PRAGMA user_version and applies the rest
// inside an IMMEDIATE transaction when a connection is prepared, so
// every connection sees the current schema and concurrent first opens
// do not race. Migrations are append-only: never edit one that has
// shipped.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:       cfg.DatabasePath(),
//	    Logger:     logger,
//	    Migrations: boardstore.Migrations,
//	})
//	...
//	err = pool.WithConn(ctx, func(conn *sqlite.Conn) error {
//	    return sqlitex.Execute(conn, "SELECT ...", &sqlitex.ExecOptions{...})
//	})
package sqlitepool
