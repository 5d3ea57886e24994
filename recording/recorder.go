// Package recording snapshots a tagging.DefaultStats into a SQLite
// database, the way datarecording.DataRecorder snapshots simulator
// task records: rows accumulate in memory and are only written to the
// database in a batch, flushed early once batchSize rows are pending
// and always flushed at Close.
package recording

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/shepherdtags/tagging"
)

const snapshotTableDDL = `CREATE TABLE snapshots (
	run_id TEXT,
	seq INTEGER,
	cycle INTEGER,
	tags_in_use INTEGER,
	replacements INTEGER,
	total_refs INTEGER,
	sampled_refs INTEGER,
	warmed_up INTEGER,
	warmup_cycle INTEGER
);`

const occupancyTableDDL = `CREATE TABLE occupancies (
	run_id TEXT,
	seq INTEGER,
	owner INTEGER,
	occupancy INTEGER
);`

type snapshotRow struct {
	seq                                            int
	cycle                                          uint64
	tagsInUse, replacements, totalRefs, sampledRefs int
	warmedUp                                       bool
	warmupCycle                                    uint64
	occupancies                                    map[int]int
}

// StatsRecorder captures a DefaultStats' counters into a SQLite file
// identified by a fresh xid run id, once per Snapshot call. Rows
// accumulate in memory and are only written to the database once
// batchSize rows are pending, mirroring sqliteWriter's
// entries/entryCount/Flush idiom; an atexit hook writes the last
// partial batch when the process exits through atexit.Exit.
type StatsRecorder struct {
	db    *sql.DB
	runID string

	batchSize int
	seq       int
	pending   []snapshotRow
}

// NewStatsRecorder opens (and creates, if absent) a SQLite database at
// path and prepares it to receive snapshots. batchSize of 0 defaults
// to 1 (every snapshot flushes immediately).
func NewStatsRecorder(path string, batchSize int) (*StatsRecorder, error) {
	if batchSize <= 0 {
		batchSize = 1
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("recording: opening %s: %w", path, err)
	}

	for _, ddl := range []string{snapshotTableDDL, occupancyTableDDL} {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("recording: creating schema: %w", err)
		}
	}

	r := &StatsRecorder{
		db:        db,
		runID:     xid.New().String(),
		batchSize: batchSize,
	}

	fmt.Fprintf(os.Stderr, "recording: run %s writing to %s\n", r.runID, path)

	atexit.Register(func() { r.Close() })

	return r, nil
}

// RunID returns the xid stamped on every row this recorder writes.
func (r *StatsRecorder) RunID() string {
	return r.runID
}

// Snapshot buffers one row for the given cycle and every owner's
// current occupancy, flushing to disk once batchSize rows are
// pending.
func (r *StatsRecorder) Snapshot(cycle uint64, stats *tagging.DefaultStats) error {
	r.pending = append(r.pending, snapshotRow{
		seq:          r.seq,
		cycle:        cycle,
		tagsInUse:    stats.TagsInUse(),
		replacements: stats.Replacements(0),
		totalRefs:    stats.TotalRefs(),
		sampledRefs:  stats.SampledRefs(),
		warmedUp:     stats.WarmedUp(),
		warmupCycle:  stats.WarmupCycle(),
		occupancies:  stats.Occupancies(),
	})
	r.seq++

	if len(r.pending) >= r.batchSize {
		return r.Flush()
	}

	return nil
}

// Flush writes every buffered row to the database in one transaction
// and clears the buffer. A no-op if nothing is pending.
func (r *StatsRecorder) Flush() error {
	if len(r.pending) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("recording: begin: %w", err)
	}

	snapshotStmt, err := tx.Prepare(`INSERT INTO snapshots VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("recording: prepare snapshot insert: %w", err)
	}
	defer snapshotStmt.Close()

	occupancyStmt, err := tx.Prepare(`INSERT INTO occupancies VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("recording: prepare occupancy insert: %w", err)
	}
	defer occupancyStmt.Close()

	for _, row := range r.pending {
		_, err := snapshotStmt.Exec(
			r.runID, row.seq, row.cycle,
			row.tagsInUse, row.replacements,
			row.totalRefs, row.sampledRefs,
			boolToInt(row.warmedUp), row.warmupCycle,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("recording: insert snapshot: %w", err)
		}

		for owner, occ := range row.occupancies {
			_, err := occupancyStmt.Exec(r.runID, row.seq, owner, occ)
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("recording: insert occupancy: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("recording: commit: %w", err)
	}

	r.pending = nil

	return nil
}

// Close flushes any remaining buffered rows and closes the underlying
// database. Safe to call more than once; registered automatically
// with atexit, so a process that never calls it explicitly still
// flushes when it exits through atexit.Exit (a plain return from main
// or os.Exit does not run it).
func (r *StatsRecorder) Close() {
	if r.db == nil {
		return
	}

	r.Flush()

	r.db.Close()
	r.db = nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
