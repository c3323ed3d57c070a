// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package journal records per-generation statistics (live-cell count,
// bucket count, pending-change count, step duration) to a local SQLite
// database. It is an append-only log for observability and replay of
// aggregate history, not a grid-state snapshot store: it cannot be used
// to reconstruct or undo a simulation's cell contents.
package journal

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	driver "github.com/mattn/go-sqlite3"
	"github.com/qustavo/sqlhooks/v2"

	log "github.com/ClusterCockpit/lifesim/pkg/log"
)

//go:embed migrations/sqlite3
var migrationFiles embed.FS

const sqliteDriverName = "sqlite3WithHooks"

var registerDriverOnce sync.Once

// GenerationStat is one recorded row of the generation_stat table.
type GenerationStat struct {
	Generation  uint64 `db:"generation"`
	RecordedAt  int64  `db:"recorded_at"`
	LiveCells   int    `db:"live_cells"`
	BucketCount int    `db:"bucket_count"`
	ChangeCount int    `db:"change_count"`
	StepMicros  int64  `db:"step_micros"`
}

// Journal wraps a sqlite3 connection used to append per-generation
// statistics. A single connection is kept open (sqlite does not profit
// from concurrent writers), guarded by mu the same way the teacher's
// JobRepository bundles inserts behind its own mutex.
type Journal struct {
	db        *sqlx.DB
	stmtCache *sq.StmtCache

	mu sync.Mutex
}

// Open connects to the sqlite3 database at path (created if absent),
// runs any pending migrations, and returns a ready Journal.
func Open(path string) (*Journal, error) {
	registerDriverOnce.Do(func() {
		sql.Register(sqliteDriverName, sqlhooks.Wrap(&driver.SQLiteDriver{}, &hooks{}))
	})

	db, err := sqlx.Open(sqliteDriverName, fmt.Sprintf("%s?_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	// sqlite does not multithread; more than one connection just
	// serializes on the database's own locks.
	db.SetMaxOpenConns(1)

	if err := migrateUp(db.DB); err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db, stmtCache: sq.NewStmtCache(db.DB)}, nil
}

func migrateUp(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("journal: sqlite3 migration driver: %w", err)
	}

	src, err := iofs.New(migrationFiles, "migrations/sqlite3")
	if err != nil {
		return fmt.Errorf("journal: migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("journal: migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("journal: migrate up: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one generation's statistics. now is the caller-supplied
// wall-clock time of the recording, so the journal stays replayable
// without depending on an untestable clock read inside this package.
func (j *Journal) Record(now time.Time, stat GenerationStat) error {
	stat.RecordedAt = now.Unix()

	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.NamedExec(`INSERT INTO generation_stat (
		generation, recorded_at, live_cells, bucket_count, change_count, step_micros
	) VALUES (
		:generation, :recorded_at, :live_cells, :bucket_count, :change_count, :step_micros
	)`, stat)
	if err != nil {
		log.Warnf("journal: insert generation %d: %v", stat.Generation, err)
		return err
	}

	return nil
}

// Recent returns up to limit of the most recently recorded generations,
// newest first.
func (j *Journal) Recent(limit int) ([]GenerationStat, error) {
	query := sq.Select(
		"generation", "recorded_at", "live_cells", "bucket_count", "change_count", "step_micros",
	).From("generation_stat").OrderBy("generation DESC").Limit(uint64(limit))

	rows, err := query.RunWith(j.stmtCache).Query()
	if err != nil {
		log.Warnf("journal: query recent generations: %v", err)
		return nil, err
	}
	defer rows.Close()

	stats := make([]GenerationStat, 0, 32)
	for rows.Next() {
		var s GenerationStat
		if err := rows.Scan(&s.Generation, &s.RecordedAt, &s.LiveCells, &s.BucketCount, &s.ChangeCount, &s.StepMicros); err != nil {
			return nil, fmt.Errorf("journal: scan row: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// CompactBefore deletes recorded generations older than before, for use
// by a periodic maintenance job so the journal does not grow unbounded
// across a long-running simulation.
func (j *Journal) CompactBefore(before time.Time) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	res, err := j.db.Exec(`DELETE FROM generation_stat WHERE recorded_at < ?`, before.Unix())
	if err != nil {
		log.Warnf("journal: compact: %v", err)
		return 0, err
	}

	return res.RowsAffected()
}
