package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"portsim.ai/internal/sim/stats"
	"portsim.ai/internal/sim/world"
)

const (
	commitEvery   = 2000
	commitMaxWait = 2 * time.Second
)

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	var (
		tx         *sql.Tx
		opCount    int
		txTicks    uint64 // ticks written inside tx; lost if it does not commit
		lastCommit = time.Now()
	)
	begin := func() error {
		if tx != nil {
			return nil
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
		return nil
	}
	commit := func() error {
		if tx == nil {
			return nil
		}
		err := tx.Commit()
		if err != nil {
			s.dropTicks.Add(txTicks)
		}
		tx = nil
		opCount = 0
		txTicks = 0
		lastCommit = time.Now()
		return err
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		s.dropTicks.Add(txTicks)
		txTicks = 0
		tx = nil
		opCount = 0
	}

	for r := range s.ch {
		if err := begin(); err != nil {
			if r.done != nil {
				r.done <- err
			}
			time.Sleep(50 * time.Millisecond)
			continue
		}
		switch r.kind {
		case reqTick:
			n, err := insertTick(tx, r.tick)
			txTicks++
			if err != nil {
				rollback()
				continue
			}
			opCount += n
		case reqFinal:
			err := insertFinal(tx, s.runID, r.final)
			if err != nil {
				rollback()
			} else {
				err = commit()
			}
			r.done <- err
			continue
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			_ = commit()
		}
	}
	_ = commit()
}

func insertTick(tx *sql.Tx, e world.TickLogEntry) (int, error) {
	raw, _ := json.Marshal(e)
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO ticks(run_id,tick,digest,arrivals,evictions,assignments,pairings,punishments,raw_json) VALUES(?,?,?,?,?,?,?,?,?)`,
		e.RunID, int64(e.Tick), e.Digest,
		len(e.Arrivals), len(e.Evictions), len(e.Assignments), len(e.Pairings), len(e.Punishments),
		string(raw),
	); err != nil {
		return 0, err
	}
	n := 1
	for _, ev := range e.Evictions {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO container_outcomes(run_id,container_id,tick,slot,company,source,faked,cleared_by_customs,cleared_by_pa,state) VALUES(?,?,?,?,?,?,?,?,?,?)`,
			e.RunID, ev.ContainerID, int64(e.Tick), ev.Slot, ev.Company, ev.Source, ev.Faked, ev.ClearedByCustoms, ev.ClearedByPA, ev.State,
		); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func insertFinal(tx *sql.Tx, runID string, f finalRow) error {
	raw, err := json.Marshal(f.Report)
	if err != nil {
		return err
	}
	c := f.Report.Containers
	res, err := tx.Exec(
		`UPDATE runs SET end_tick=?, cleared_ok=?, cleared_bad=?, rejected=?, report_json=? WHERE run_id=?`,
		int64(f.EndTick), c.ClearedOK, c.ClearedBad, c.Rejected, string(raw), runID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("indexdb: unknown run %q", runID)
	}
	for _, a := range f.Report.Agents {
		if err := insertAgentStats(tx, runID, a.ID, "CUSTOMS", a.Physical, a.Virtual, 0); err != nil {
			return err
		}
	}
	for _, o := range f.Report.Officers {
		if err := insertAgentStats(tx, runID, o.ID, "PORT_AUTHORITY", o.Physical, o.Virtual, o.Computer); err != nil {
			return err
		}
	}
	for _, p := range f.Report.Pairings {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO pairings(run_id,officer_id,agent_id,count) VALUES(?,?,?,?)`,
			runID, p.Officer, p.Agent, p.Count); err != nil {
			return err
		}
	}
	return nil
}

func insertAgentStats(tx *sql.Tx, runID, id, kind string, physical, virtual, computer int) error {
	_, err := tx.Exec(`INSERT OR REPLACE INTO agent_stats(run_id,agent_id,kind,physical,virtual,computer) VALUES(?,?,?,?,?,?)`,
		runID, id, kind, physical, virtual, computer)
	return err
}

// Outcome is one removed container as stored in the index.
type Outcome struct {
	ContainerID      string
	Tick             uint64
	Company          string
	Faked            string
	ClearedByCustoms string
	ClearedByPA      string
	State            string
}

func (s *SQLiteIndex) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT container_id,tick,company,faked,cleared_by_customs,cleared_by_pa,state FROM container_outcomes WHERE run_id=? ORDER BY tick, container_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Outcome
	for rows.Next() {
		var o Outcome
		var tick int64
		if err := rows.Scan(&o.ContainerID, &tick, &o.Company, &o.Faked, &o.ClearedByCustoms, &o.ClearedByPA, &o.State); err != nil {
			return nil, err
		}
		o.Tick = uint64(tick)
		out = append(out, o)
	}
	return out, rows.Err()
}

// RunSummary reads back the final container counts of a run.
func (s *SQLiteIndex) RunSummary(ctx context.Context, runID string) (endTick uint64, c stats.ContainerCounts, err error) {
	var end sql.NullInt64
	var ok, bad, rej sql.NullInt64
	err = s.db.QueryRowContext(ctx, `SELECT end_tick,cleared_ok,cleared_bad,rejected FROM runs WHERE run_id=?`, runID).Scan(&end, &ok, &bad, &rej)
	if err != nil {
		return 0, c, err
	}
	return uint64(end.Int64), stats.ContainerCounts{ClearedOK: int(ok.Int64), ClearedBad: int(bad.Int64), Rejected: int(rej.Int64)}, nil
}

// AgentRow is the final per-agent tally of a run.
type AgentRow struct {
	AgentID  string
	Kind     string
	Physical int
	Virtual  int
	Computer int
}

func (s *SQLiteIndex) AgentStats(ctx context.Context, runID string) ([]AgentRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT agent_id,kind,physical,virtual,computer FROM agent_stats WHERE run_id=? ORDER BY agent_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AgentRow
	for rows.Next() {
		var r AgentRow
		if err := rows.Scan(&r.AgentID, &r.Kind, &r.Physical, &r.Virtual, &r.Computer); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) TickCount(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ticks WHERE run_id=?`, runID).Scan(&n)
	return n, err
}
