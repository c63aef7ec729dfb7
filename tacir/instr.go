// Package tacir is RRVM's TAC (three-address code) backend (§4.3): it
// implements vm.Backend by re-running the dispatcher's structural walk of
// the bytecode and, instead of computing values, emitting SSA-style
// three-address instructions that reference monotonically-allocated temp
// ids. It is the "second interpretation" the design centers on.
package tacir

import "github.com/chazu/rrvm/internal/word"

// TacOp enumerates the instruction opcodes emitted into the TAC stream
// (§4.3's "Emitted TAC opcodes" list).
type TacOp int

const (
	TacConst TacOp = iota
	TacAdd
	TacSub
	TacMul
	TacDiv
	TacRem
	TacBitAnd
	TacBitOr
	TacBitXor
	TacLsh
	TacLrsh
	TacArsh
	TacOr
	TacAnd
	TacNot
	TacGez
	TacMove
	TacLoad
	TacStore
	TacPrint
	TacPrintChar
	TacDeref
	TacRefer
	TacWhere
	TacOffset
	TacIndex
	TacSet
	TacLabel
	TacJmp
	TacJz
	TacCall
	TacRet
)

// Instr is one emitted TAC instruction. Fields not meaningful for a
// given Op are left at their zero value; Dst/A/B are temp ids and -1
// when unused.
type Instr struct {
	Op    TacOp
	Dst   int
	A, B  int
	Type  word.TypeTag
	Imm   word.Word
	HasImm bool
	Label int
}

func newInstr(op TacOp) Instr {
	return Instr{Op: op, Dst: -1, A: -1, B: -1}
}
