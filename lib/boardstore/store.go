// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/lifeboard/lib/life"
	"github.com/bureau-foundation/lifeboard/lib/session"
	"github.com/bureau-foundation/lifeboard/lib/sqlitepool"
)

// migrations is the schema history. Append only: the index of each
// entry plus one is the user_version it produces.
var migrations = []string{
	`CREATE TABLE boards (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		width       INTEGER NOT NULL,
		height      INTEGER NOT NULL,
		rules       TEXT NOT NULL,
		cells       BLOB NOT NULL,
		compression INTEGER NOT NULL,
		cells_size  INTEGER NOT NULL,
		digest      TEXT NOT NULL,
		version     INTEGER NOT NULL,
		generation  INTEGER NOT NULL,
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	);
	CREATE INDEX boards_by_updated ON boards (updated_at DESC);
	CREATE TABLE participation (
		board_id      TEXT NOT NULL REFERENCES boards (id) ON DELETE CASCADE,
		participant   TEXT NOT NULL,
		contributions INTEGER NOT NULL,
		last_active   INTEGER NOT NULL,
		PRIMARY KEY (board_id, participant)
	);`,
}

// Store keeps boards and their participation history in SQLite. It
// implements session.Store.
type Store struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

var _ session.Store = (*Store)(nil)

// Config holds the parameters for opening a Store.
type Config struct {
	// Path is the database file. Its directory must exist.
	Path string

	// PoolSize defaults to sqlitepool.DefaultPoolSize.
	PoolSize int

	Logger *slog.Logger
}

// Open opens or creates the database at cfg.Path and brings its schema
// up to date.
func Open(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("board store: Logger is required")
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:       cfg.Path,
		PoolSize:   cfg.PoolSize,
		Logger:     cfg.Logger,
		Migrations: migrations,
	})
	if err != nil {
		return nil, fmt.Errorf("board store: %w", err)
	}
	store := &Store{pool: pool, logger: cfg.Logger}

	// Connections are prepared lazily. Take one now so a bad path or a
	// schema from a newer binary fails at startup instead of on the
	// first request.
	if err := pool.WithConn(context.Background(), func(*sqlite.Conn) error { return nil }); err != nil {
		pool.Close()
		return nil, fmt.Errorf("board store: %w", err)
	}
	return store, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Save inserts or replaces a record. A record older than the stored
// one (lower version) is ignored, so a late write can never roll a
// board back.
func (s *Store) Save(ctx context.Context, record life.Record) error {
	blob, compression, err := compressCells([]byte(record.Cells))
	if err != nil {
		return fmt.Errorf("board store: save %s: %w", record.ID, err)
	}
	return s.pool.WithConn(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, `
			INSERT INTO boards (id, name, width, height, rules, cells, compression,
				cells_size, digest, version, generation, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				rules = excluded.rules,
				cells = excluded.cells,
				compression = excluded.compression,
				cells_size = excluded.cells_size,
				digest = excluded.digest,
				version = excluded.version,
				generation = excluded.generation,
				updated_at = excluded.updated_at
			WHERE excluded.version >= boards.version`,
			&sqlitex.ExecOptions{
				Args: []any{
					record.ID,
					record.Name,
					record.Width,
					record.Height,
					record.Rules.String(),
					blob,
					int64(compression),
					len(record.Cells),
					life.GridDigest(record.Cells),
					int64(record.Version),
					int64(record.Generation),
					record.CreatedAt.UnixNano(),
					record.UpdatedAt.UnixNano(),
				},
			})
		if err != nil {
			return fmt.Errorf("board store: save %s: %w", record.ID, err)
		}
		if conn.Changes() == 0 {
			s.logger.Debug("ignored stale board record", "board", record.ID, "version", record.Version)
		}
		return nil
	})
}

const boardColumns = `id, name, width, height, rules, cells, compression, cells_size,
	digest, version, generation, created_at, updated_at`

// Load returns the record for id.
func (s *Store) Load(ctx context.Context, id string) (life.Record, error) {
	var record life.Record
	found := false
	err := s.pool.WithConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT `+boardColumns+` FROM boards WHERE id = ?`,
			&sqlitex.ExecOptions{
				Args: []any{id},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					var err error
					record, err = scanRecord(stmt)
					found = true
					return err
				},
			})
	})
	if err != nil {
		return life.Record{}, fmt.Errorf("board store: load %s: %w", id, err)
	}
	if !found {
		return life.Record{}, life.Errorf(life.KindBoardNotFound, "board %s not found", id)
	}
	return record, nil
}

// List returns every board, most recently updated first.
func (s *Store) List(ctx context.Context) ([]life.Record, error) {
	var records []life.Record
	err := s.pool.WithConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT `+boardColumns+` FROM boards ORDER BY updated_at DESC, id`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					record, err := scanRecord(stmt)
					if err != nil {
						// One unreadable board should not hide the rest.
						s.logger.Warn("skipping unreadable board", "board", stmt.ColumnText(0), "error", err)
						return nil
					}
					records = append(records, record)
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("board store: list: %w", err)
	}
	return records, nil
}

// Delete removes a board. Its participation rows go with it.
func (s *Store) Delete(ctx context.Context, id string) error {
	deleted := 0
	err := s.pool.WithConn(ctx, func(conn *sqlite.Conn) error {
		if err := sqlitex.Execute(conn, `DELETE FROM boards WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []any{id}}); err != nil {
			return err
		}
		deleted = conn.Changes()
		return nil
	})
	if err != nil {
		return fmt.Errorf("board store: delete %s: %w", id, err)
	}
	if deleted == 0 {
		return life.Errorf(life.KindBoardNotFound, "board %s not found", id)
	}
	return nil
}

// RecordContributions adds counts to each participant's tally in one
// transaction.
func (s *Store) RecordContributions(ctx context.Context, boardID string, counts map[string]int, at time.Time) (err error) {
	if len(counts) == 0 {
		return nil
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("board store: record contributions: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("board store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	for participant, count := range counts {
		err = sqlitex.Execute(conn, `
			INSERT INTO participation (board_id, participant, contributions, last_active)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (board_id, participant) DO UPDATE SET
				contributions = contributions + excluded.contributions,
				last_active = max(last_active, excluded.last_active)`,
			&sqlitex.ExecOptions{Args: []any{boardID, participant, count, at.UnixNano()}})
		if err != nil {
			return fmt.Errorf("board store: record contributions for %s: %w", boardID, err)
		}
	}
	return nil
}

// Participants returns a board's contributors, most contributions
// first.
func (s *Store) Participants(ctx context.Context, boardID string) ([]session.Participation, error) {
	var participants []session.Participation
	err := s.pool.WithConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			SELECT participant, contributions, last_active FROM participation
			WHERE board_id = ?
			ORDER BY contributions DESC, participant`,
			&sqlitex.ExecOptions{
				Args: []any{boardID},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					participants = append(participants, session.Participation{
						Participant:   stmt.ColumnText(0),
						Contributions: stmt.ColumnInt(1),
						LastActive:    time.Unix(0, stmt.ColumnInt64(2)).UTC(),
					})
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("board store: participants of %s: %w", boardID, err)
	}
	return participants, nil
}

// Count returns the number of stored boards.
func (s *Store) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.pool.WithConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT count(*) FROM boards`, &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = stmt.ColumnInt(0)
				return nil
			},
		})
	})
	if err != nil {
		return 0, fmt.Errorf("board store: count: %w", err)
	}
	return count, nil
}

// scanRecord reads one boards row selected with boardColumns. Cells
// that fail to decompress, or whose digest does not match, are a
// life.KindFormatError.
func scanRecord(stmt *sqlite.Stmt) (life.Record, error) {
	id := stmt.ColumnText(0)
	rules, err := life.ParseRuleSet(stmt.ColumnText(4))
	if err != nil {
		return life.Record{}, fmt.Errorf("board %s: %w", id, err)
	}

	blob := make([]byte, stmt.ColumnLen(5))
	stmt.ColumnBytes(5, blob)
	raw, err := decompressCells(blob, Compression(stmt.ColumnInt(6)), stmt.ColumnInt(7))
	if err != nil {
		return life.Record{}, life.Errorf(life.KindFormatError, "board %s: %v", id, err)
	}
	cells := string(raw)
	if life.GridDigest(cells) != stmt.ColumnText(8) {
		return life.Record{}, life.Errorf(life.KindFormatError, "board %s: stored cells do not match their digest", id)
	}

	return life.Record{
		ID:         id,
		Name:       stmt.ColumnText(1),
		Width:      stmt.ColumnInt(2),
		Height:     stmt.ColumnInt(3),
		Rules:      rules,
		Cells:      cells,
		Version:    uint64(stmt.ColumnInt64(9)),
		Generation: uint64(stmt.ColumnInt64(10)),
		CreatedAt:  time.Unix(0, stmt.ColumnInt64(11)).UTC(),
		UpdatedAt:  time.Unix(0, stmt.ColumnInt64(12)).UTC(),
	}, nil
}
