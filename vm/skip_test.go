package vm_test

import (
	"testing"

	"github.com/chazu/rrvm/bytecode"
	"github.com/chazu/rrvm/vm"
)

func TestForwardScanSkipsNestedIf(t *testing.T) {
	p := bytecode.NewProgram(4)
	p.Emit(bytecode.OpIf) // outer if
	p.Emit(bytecode.OpIf) // nested if
	p.Emit(bytecode.OpEndBlock)
	p.Emit(bytecode.OpEndBlock)
	afterOrigin := p.Emit(bytecode.OpHalt)

	next, hitElse, err := vm.ForwardScan(p, 1, false)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if hitElse {
		t.Fatal("did not expect to hit an else")
	}
	if next != afterOrigin {
		t.Fatalf("got next=%d, want %d", next, afterOrigin)
	}
}

func TestForwardScanStopsAtMatchingElse(t *testing.T) {
	p := bytecode.NewProgram(4)
	p.Emit(bytecode.OpIf)
	elseOrigin := p.Emit(bytecode.OpElse)
	p.Emit(bytecode.OpEndBlock)

	next, hitElse, err := vm.ForwardScan(p, 1, true)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !hitElse {
		t.Fatal("expected to hit the else")
	}
	if next != elseOrigin+1 {
		t.Fatalf("got next=%d, want %d", next, elseOrigin+1)
	}
}

func TestForwardScanUnterminatedBlockFaults(t *testing.T) {
	p := bytecode.NewProgram(4)
	p.Emit(bytecode.OpIf)
	p.Emit(bytecode.OpNop)

	_, _, err := vm.ForwardScan(p, 1, false)
	if err == nil {
		t.Fatal("expected an unterminated-block fault")
	}
	fault, ok := err.(*vm.Fault)
	if !ok || fault.Kind != vm.FaultMalformedControlFlow {
		t.Fatalf("got %v, want a FaultMalformedControlFlow", err)
	}
}
