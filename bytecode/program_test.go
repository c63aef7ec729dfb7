package bytecode_test

import (
	"testing"

	"github.com/chazu/rrvm/bytecode"
	"github.com/chazu/rrvm/internal/word"
)

func TestProgramEmitAndPatch(t *testing.T) {
	p := bytecode.NewProgram(4)
	origin := p.Emit1(bytecode.OpWhile, 0)
	if origin != 0 {
		t.Fatalf("got origin %d, want 0", origin)
	}
	if err := p.PatchImm(origin+1, 42); err != nil {
		t.Fatalf("patch: %v", err)
	}
	imm, ok := p.At(1)
	if !ok || imm != 42 {
		t.Fatalf("got (%v, %v), want (42, true)", imm, ok)
	}
}

func TestProgramPatchOutOfRange(t *testing.T) {
	p := bytecode.NewProgram(4)
	if err := p.PatchImm(5, 1); err == nil {
		t.Fatal("expected an out-of-range patch to fail")
	}
}

func TestImageRoundTrip(t *testing.T) {
	p := bytecode.NewProgram(4)
	p.Emit2(bytecode.OpPush, word.I64, 3)
	p.Emit2(bytecode.OpPush, word.I64, 4)
	p.Emit(bytecode.OpAdd)
	p.Emit(bytecode.OpHalt)
	p.Functions[0] = 2

	data, err := bytecode.MarshalImage(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := bytecode.UnmarshalImage(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Len() != p.Len() {
		t.Fatalf("got len %d, want %d", got.Len(), p.Len())
	}
	for i := range p.Code {
		if got.Code[i] != p.Code[i] {
			t.Fatalf("code[%d]: got %v, want %v", i, got.Code[i], p.Code[i])
		}
	}
	if got.Functions[0] != 2 {
		t.Fatalf("got Functions[0]=%d, want 2", got.Functions[0])
	}
}

func TestImageEncodingIsDeterministic(t *testing.T) {
	p := bytecode.NewProgram(2)
	p.Emit2(bytecode.OpPush, word.F64, 7)
	p.Emit(bytecode.OpHalt)

	a, err := bytecode.MarshalImage(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := bytecode.MarshalImage(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Fatal("canonical CBOR encoding of identical input should be byte-identical")
	}
}
