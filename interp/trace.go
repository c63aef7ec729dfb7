package interp

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chazu/rrvm/bytecode"
)

// Trace persists a per-opcode execution trace to SQLite when the
// interpreter runs under --trace (§6.1, §6.2). Grounded on the wider
// project's persistence.go: sql.Open("sqlite", path), a busy_timeout
// pragma, and CREATE TABLE IF NOT EXISTS rather than a migration
// framework.
type Trace struct {
	db    *sql.DB
	runID int64
	seq   int64
}

// OpenTrace opens (creating if absent) a trace database at path and
// starts a new run.
func OpenTrace(path string) (*Trace, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("interp: open trace db %s: %w", path, err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("interp: set busy_timeout: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("interp: create runs table: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			run_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			ip INTEGER NOT NULL,
			opcode TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("interp: create events table: %w", err)
	}

	res, err := db.Exec(`INSERT INTO runs (started_at) VALUES (?)`, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("interp: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("interp: run id: %w", err)
	}

	return &Trace{db: db, runID: runID}, nil
}

// Record appends one dispatched-opcode event. It matches vm.TraceFunc's
// signature so it can be passed directly to vm.Run.
func (t *Trace) Record(ip int, op bytecode.Opcode) {
	seq := t.seq
	t.seq++
	// Best-effort: a trace write failure must never abort execution, so
	// errors are dropped rather than surfaced through vm.TraceFunc (which
	// returns nothing).
	_, _ = t.db.Exec(`INSERT INTO events (run_id, seq, ip, opcode) VALUES (?, ?, ?, ?)`,
		t.runID, seq, ip, op.String())
}

// Close closes the underlying database handle.
func (t *Trace) Close() error {
	return t.db.Close()
}
