package bytecode

import (
	"fmt"

	"github.com/chazu/rrvm/internal/word"
)

// Program is the flat word stream produced by the assembler and consumed
// by the dispatcher: opcodes interleaved with their inline immediates.
// Bytecode is immutable once a Program leaves the assembler (§3).
type Program struct {
	Code []word.Word

	// Functions maps a function index to the code offset of its first
	// body instruction (the IP recorded when its `function` opcode ran).
	// Populated by the interpreter backend on the initial top-level scan,
	// not by the assembler.
	Functions []int
}

// NewProgram returns an empty Program sized for maxFunctions function
// slots, all initially unresolved (-1).
func NewProgram(maxFunctions int) *Program {
	fns := make([]int, maxFunctions)
	for i := range fns {
		fns[i] = -1
	}
	return &Program{Functions: fns}
}

// Len returns the current code length in words (code_len in §3).
func (p *Program) Len() int {
	return len(p.Code)
}

// Emit appends a 0-immediate opcode and returns its origin offset (VM-IP).
func (p *Program) Emit(op Opcode) int {
	origin := len(p.Code)
	p.Code = append(p.Code, word.Word(op))
	return origin
}

// Emit1 appends a 1-immediate opcode and returns its origin offset.
func (p *Program) Emit1(op Opcode, imm word.Word) int {
	origin := len(p.Code)
	p.Code = append(p.Code, word.Word(op), imm)
	return origin
}

// Emit2 appends a 2-immediate opcode (push/set: type tag then immediate)
// and returns its origin offset.
func (p *Program) Emit2(op Opcode, tag word.TypeTag, imm word.Word) int {
	origin := len(p.Code)
	p.Code = append(p.Code, word.Word(op), word.Word(tag), imm)
	return origin
}

// PatchImm overwrites the immediate word at codePos (the position
// immediately following a 1-immediate opcode) with value. Used by the
// assembler to backpatch forward `while` label references.
func (p *Program) PatchImm(codePos int, value word.Word) error {
	if codePos < 0 || codePos >= len(p.Code) {
		return fmt.Errorf("bytecode: patch position %d out of range (len=%d)", codePos, len(p.Code))
	}
	p.Code[codePos] = value
	return nil
}

// At returns the word at pos, and whether pos is in range.
func (p *Program) At(pos int) (word.Word, bool) {
	if pos < 0 || pos >= len(p.Code) {
		return 0, false
	}
	return p.Code[pos], true
}

// OpcodeAt decodes the opcode at pos.
func (p *Program) OpcodeAt(pos int) (Opcode, bool) {
	w, ok := p.At(pos)
	if !ok {
		return OpNop, false
	}
	return Opcode(w), true
}
