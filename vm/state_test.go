package vm_test

import (
	"testing"

	"github.com/chazu/rrvm/bytecode"
	"github.com/chazu/rrvm/internal/config"
	"github.com/chazu/rrvm/internal/word"
	"github.com/chazu/rrvm/vm"
)

func newTestState() *vm.State {
	prog := bytecode.NewProgram(4)
	limits := config.Default().Limits
	limits.StackSize = 2
	limits.BlockStackSize = 2
	return vm.NewState(prog, limits)
}

func TestPushPopRoundTrip(t *testing.T) {
	s := newTestState()
	if err := s.Push(0, 7, word.I64); err != nil {
		t.Fatalf("push: %v", err)
	}
	v, tag, err := s.Pop(0)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if v != 7 || tag != word.I64 {
		t.Fatalf("got (%v, %v), want (7, i64)", v, tag)
	}
}

func TestStackOverflow(t *testing.T) {
	s := newTestState()
	for i := 0; i < s.Limits.StackSize; i++ {
		if err := s.Push(0, word.Word(i), word.I64); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	err := s.Push(0, 99, word.I64)
	fault, ok := err.(*vm.Fault)
	if !ok || fault.Kind != vm.FaultStackOverflow {
		t.Fatalf("got %v, want a FaultStackOverflow", err)
	}
}

func TestStackUnderflow(t *testing.T) {
	s := newTestState()
	_, _, err := s.Pop(0)
	fault, ok := err.(*vm.Fault)
	if !ok || fault.Kind != vm.FaultStackUnderflow {
		t.Fatalf("got %v, want a FaultStackUnderflow", err)
	}
}

func TestBlockStackOverflow(t *testing.T) {
	s := newTestState()
	for i := 0; i < s.Limits.BlockStackSize; i++ {
		if err := s.PushBlock(0, vm.BlockEntry{Kind: vm.BlockIf}); err != nil {
			t.Fatalf("push block %d: %v", i, err)
		}
	}
	err := s.PushBlock(0, vm.BlockEntry{Kind: vm.BlockIf})
	fault, ok := err.(*vm.Fault)
	if !ok || fault.Kind != vm.FaultBlockStackOverflow {
		t.Fatalf("got %v, want a FaultBlockStackOverflow", err)
	}
}

func TestMoveTPBounds(t *testing.T) {
	s := newTestState()
	s.Tape = make([]word.Word, 2)
	s.TapeTypes = make([]word.TypeTag, 2)

	if err := s.MoveTP(0, 1); err != nil {
		t.Fatalf("move: %v", err)
	}
	if s.TP != 1 {
		t.Fatalf("got tp=%d, want 1", s.TP)
	}
	if err := s.MoveTP(0, 5); err == nil {
		t.Fatal("expected a tape-overflow fault")
	}
	if err := s.MoveTP(0, -10); err == nil {
		t.Fatal("expected a tape-underflow fault")
	}
}
