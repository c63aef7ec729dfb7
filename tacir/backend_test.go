package tacir_test

import (
	"strings"
	"testing"

	"github.com/chazu/rrvm/asm"
	"github.com/chazu/rrvm/internal/config"
	"github.com/chazu/rrvm/tacir"
	"github.com/chazu/rrvm/vm"
)

func lower(t *testing.T, src string) []tacir.Instr {
	t.Helper()
	limits := config.Default().Limits
	prog, err := asm.Parse(src, limits.MaxFunctions)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	backend := tacir.New()
	state := vm.NewState(prog, limits)
	if err := vm.Run(state, backend, nil); err != nil {
		t.Fatalf("lower: %v", err)
	}
	return backend.Prog
}

// Scenario 6 (spec §8): TAC lowering of scenario 1's arithmetic program.
func TestLowerArithmeticMatchesScenario6(t *testing.T) {
	src := `
push i64 3
push i64 4
add
push i64 5
mul
print
halt
`
	prog := lower(t, src)
	got := tacir.Serialize(prog)
	want := strings.Join([]string{
		"l0 :-",
		"  const(t0, i64, 3),",
		"  const(t1, i64, 4),",
		"  add(t2, i64, t0, t1),",
		"  const(t3, i64, 5),",
		"  mul(t4, i64, t2, t3),",
		"  print(t4).",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

// while lowering must emit a condition label, a jz dominating the body,
// a backedge jmp, and an end label (spec §8's while->TAC property).
func TestLowerWhileEmitsLabelJzJmpEnd(t *testing.T) {
	src := `
push i64 4
store
cond1:
load
while cond1
  load
  print
  load
  push i64 1
  sub
  store
end
halt
`
	prog := lower(t, src)

	var sawJz, sawJmp, labelCount int
	for _, instr := range prog {
		switch instr.Op {
		case tacir.TacJz:
			sawJz++
		case tacir.TacJmp:
			sawJmp++
		case tacir.TacLabel:
			labelCount++
		}
	}
	if sawJz == 0 {
		t.Fatal("expected at least one jz in the lowered while loop")
	}
	if sawJmp == 0 {
		t.Fatal("expected a backedge jmp closing the while loop")
	}
	if labelCount < 2 {
		t.Fatalf("expected at least a condition label and an end label, got %d labels", labelCount)
	}
}

// Every jz/jmp/call target must name a label that exists in the stream
// (spec §8's universal property).
func TestLoweredJumpTargetsResolve(t *testing.T) {
	src := `
func foo
  push i64 1
  ret
end
call foo
push i64 1
if
  push i64 2
else
  push i64 3
end
halt
`
	prog := lower(t, src)

	labels := map[int]bool{}
	for _, instr := range prog {
		if instr.Op == tacir.TacLabel {
			labels[instr.Label] = true
		}
	}
	for _, instr := range prog {
		switch instr.Op {
		case tacir.TacJz, tacir.TacJmp, tacir.TacCall:
			if !labels[instr.Label] {
				t.Fatalf("instruction %+v targets undefined label %d", instr, instr.Label)
			}
		}
	}
}

// An if with no else must still resolve its jz target: the join point
// doubles as the jz target instead of allocating an unreferenced label.
func TestLowerIfWithoutElseResolves(t *testing.T) {
	src := `
push i64 1
if
  push i64 2
  print
end
halt
`
	prog := lower(t, src)

	labels := map[int]bool{}
	for _, instr := range prog {
		if instr.Op == tacir.TacLabel {
			labels[instr.Label] = true
		}
	}
	found := false
	for _, instr := range prog {
		if instr.Op == tacir.TacJz {
			found = true
			if !labels[instr.Label] {
				t.Fatalf("jz targets undefined label %d", instr.Label)
			}
		}
	}
	if !found {
		t.Fatal("expected a jz instruction")
	}
}

// Every temp id assigned as a Dst must be unique across the stream (the
// single-static-assignment property spec §8 calls out).
func TestLoweredTempsAssignedOnce(t *testing.T) {
	src := `
push i64 1
push i64 2
add
push i64 3
mul
print
halt
`
	prog := lower(t, src)

	seen := map[int]bool{}
	for _, instr := range prog {
		if instr.Dst < 0 {
			continue
		}
		if seen[instr.Dst] {
			t.Fatalf("temp t%d assigned more than once", instr.Dst)
		}
		seen[instr.Dst] = true
	}
}
