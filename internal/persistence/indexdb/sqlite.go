// Package indexdb keeps a queryable sqlite index of simulation runs: one row
// per tick, one per removed container and the final statistics. The JSONL
// journal remains the source of truth; the index may drop tick rows under load.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"portsim.ai/internal/sim/stats"
	"portsim.ai/internal/sim/world"
)

type SQLiteIndex struct {
	db    *sql.DB
	runID string

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTicks atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqFinal
)

type req struct {
	kind reqKind

	tick  world.TickLogEntry
	final finalRow
	done  chan error
}

type finalRow struct {
	EndTick uint64
	Report  stats.Report
}

// Run describes one simulation run.
type Run struct {
	ID         string
	StartedAt  time.Time
	Seed       int64
	LazyAgents int
	FakeOracle bool
	Config     world.WorldConfig
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 65536)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{db: db, ch: make(chan req, queue)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			seed INTEGER NOT NULL,
			lazy_agents INTEGER NOT NULL,
			fake_oracle INTEGER NOT NULL,
			config_json TEXT NOT NULL,
			end_tick INTEGER,
			cleared_ok INTEGER,
			cleared_bad INTEGER,
			rejected INTEGER,
			report_json TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			arrivals INTEGER NOT NULL,
			evictions INTEGER NOT NULL,
			assignments INTEGER NOT NULL,
			pairings INTEGER NOT NULL,
			punishments INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS container_outcomes (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			container_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			slot INTEGER NOT NULL,
			company TEXT NOT NULL,
			source TEXT NOT NULL,
			faked TEXT NOT NULL,
			cleared_by_customs TEXT NOT NULL,
			cleared_by_pa TEXT NOT NULL,
			state TEXT NOT NULL,
			PRIMARY KEY (run_id, container_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_company ON container_outcomes(run_id, company);`,
		`CREATE TABLE IF NOT EXISTS agent_stats (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			agent_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			physical INTEGER NOT NULL,
			virtual INTEGER NOT NULL,
			computer INTEGER NOT NULL,
			PRIMARY KEY (run_id, agent_id)
		);`,
		`CREATE TABLE IF NOT EXISTS pairings (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			officer_id TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (run_id, officer_id, agent_id)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun registers the run that subsequent ticks belong to.
func (s *SQLiteIndex) RecordRun(ctx context.Context, r Run) error {
	if r.ID == "" {
		return errors.New("indexdb: run without id")
	}
	cfg, err := json.Marshal(r.Config)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs(run_id,started_at,seed,lazy_agents,fake_oracle,config_json) VALUES(?,?,?,?,?,?)`,
		r.ID, r.StartedAt.UTC().Format(time.RFC3339Nano), r.Seed, r.LazyAgents, r.FakeOracle, string(cfg),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	s.runID = r.ID
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteTick queues a tick row. It never blocks the world loop: when the
// writer falls behind the row is dropped and counted.
func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	if entry.RunID == "" {
		entry.RunID = s.runID
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		s.dropTicks.Add(1)
	}
	return nil
}

// RecordFinalStats stores the end-of-run report and waits until every queued
// row before it is written.
func (s *SQLiteIndex) RecordFinalStats(endTick uint64, rep stats.Report) error {
	if s == nil || s.closed.Load() {
		return errors.New("indexdb: closed")
	}
	done := make(chan error, 1)
	s.ch <- req{kind: reqFinal, final: finalRow{EndTick: endTick, Report: rep}, done: done}
	return <-done
}

type QueueStats struct {
	QueueDepth    int
	QueueCapacity int
	DropTickTotal uint64
}

func (s *SQLiteIndex) Stats() QueueStats {
	return QueueStats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropTickTotal: s.dropTicks.Load(),
	}
}
