package interp_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/chazu/rrvm/asm"
	"github.com/chazu/rrvm/interp"
	"github.com/chazu/rrvm/internal/config"
	"github.com/chazu/rrvm/vm"
)

func TestTraceRecordsDispatchedOpcodes(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	tr, err := interp.OpenTrace(dbPath)
	if err != nil {
		t.Fatalf("open trace: %v", err)
	}
	defer tr.Close()

	limits := config.Default().Limits
	prog, err := asm.Parse("push i64 1\npush i64 2\nadd\nhalt\n", limits.MaxFunctions)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	state := vm.NewState(prog, limits)
	in := interp.New()
	if err := vm.Run(state, in, tr.Record); err != nil {
		t.Fatalf("run: %v", err)
	}
	tr.Close()

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 4 {
		t.Fatalf("got %d events, want 4", count)
	}
}
