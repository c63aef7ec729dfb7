package bytecode_test

import (
	"testing"

	"github.com/chazu/rrvm/bytecode"
)

// Immediate encoding property (spec §8): push/set consume 3 words,
// move/offset/function/call/while consume 2, everything else 1.
func TestImmediateEncodingWidths(t *testing.T) {
	threeWord := []bytecode.Opcode{bytecode.OpPush, bytecode.OpSet}
	twoWord := []bytecode.Opcode{bytecode.OpMove, bytecode.OpOffset, bytecode.OpFunction, bytecode.OpCall, bytecode.OpWhile}
	oneWord := []bytecode.Opcode{bytecode.OpNop, bytecode.OpAdd, bytecode.OpIf, bytecode.OpElse, bytecode.OpEndBlock, bytecode.OpHalt}

	for _, op := range threeWord {
		if got := op.InstructionWords(); got != 3 {
			t.Errorf("%s: got %d words, want 3", op, got)
		}
	}
	for _, op := range twoWord {
		if got := op.InstructionWords(); got != 2 {
			t.Errorf("%s: got %d words, want 2", op, got)
		}
	}
	for _, op := range oneWord {
		if got := op.InstructionWords(); got != 1 {
			t.Errorf("%s: got %d words, want 1", op, got)
		}
	}
}

func TestLookupMnemonicRoundTrip(t *testing.T) {
	op, ok := bytecode.LookupMnemonic("add")
	if !ok || op != bytecode.OpAdd {
		t.Fatalf("got (%v, %v), want (OpAdd, true)", op, ok)
	}
	if _, ok := bytecode.LookupMnemonic("nonexistent"); ok {
		t.Fatal("expected lookup of an unknown mnemonic to fail")
	}
}

func TestOpcodeValid(t *testing.T) {
	if !bytecode.OpHalt.Valid() {
		t.Fatal("OpHalt should be valid")
	}
	invalid := bytecode.Opcode(255)
	if invalid.Valid() {
		t.Fatal("255 should not be a valid opcode")
	}
}
