// Package bytecode defines RRVM's flat instruction encoding: the Opcode
// enumeration, the number of immediate words each opcode carries, and the
// Program type produced by the assembler and consumed by the dispatcher.
//
// The opcode table is centralized here, exactly once: duplicating the
// immediate-word arithmetic across the interpreter's forward scanner, the
// TAC backend, and a disassembler is the single biggest correctness risk
// in a VM like this one.
package bytecode

import "fmt"

// Opcode identifies one RRVM instruction. Values are grouped by category,
// mirroring the source project's opcode.go range convention.
type Opcode byte

const (
	OpNop Opcode = iota

	// stack/arith
	OpPush
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem

	// memory / tape
	OpMove
	OpLoad
	OpStore
	OpPrint
	OpPrintChar

	// pointer/refs
	OpDeref
	OpRefer
	OpWhere
	OpOffset
	OpIndex
	OpSet

	// control
	OpFunction
	OpCall
	OpReturn
	OpWhile
	OpIf
	OpElse
	OpEndBlock

	// bitwise/logical
	OpOrAssign
	OpAndAssign
	OpNot
	OpBitAnd
	OpBitOr
	OpBitXor
	OpLsh
	OpLrsh
	OpArsh
	OpGez

	// terminator
	OpHalt

	opcodeCount
)

var opcodeNames = [...]string{
	OpNop:       "nop",
	OpPush:      "push",
	OpAdd:       "add",
	OpSub:       "sub",
	OpMul:       "mul",
	OpDiv:       "div",
	OpRem:       "rem",
	OpMove:      "move",
	OpLoad:      "load",
	OpStore:     "store",
	OpPrint:     "print",
	OpPrintChar: "printchar",
	OpDeref:     "deref",
	OpRefer:     "refer",
	OpWhere:     "where",
	OpOffset:    "offset",
	OpIndex:     "index",
	OpSet:       "set",
	OpFunction:  "function",
	OpCall:      "call",
	OpReturn:    "return",
	OpWhile:     "while",
	OpIf:        "if",
	OpElse:      "else",
	OpEndBlock:  "endblock",
	OpOrAssign:  "orassign",
	OpAndAssign: "andassign",
	OpNot:       "not",
	OpBitAnd:    "bitand",
	OpBitOr:     "bitor",
	OpBitXor:    "bitxor",
	OpLsh:       "lsh",
	OpLrsh:      "lrsh",
	OpArsh:      "arsh",
	OpGez:       "gez",
	OpHalt:      "halt",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", byte(op))
}

// ImmWords reports how many immediate words follow this opcode in the
// bytecode stream, per §3's "Instruction encoding" table:
//
//	0-immediate ops: nop and everything without a listed case below.
//	1-immediate ops: move, offset, function, call, while.
//	2-immediate ops: push, set.
func (op Opcode) ImmWords() int {
	switch op {
	case OpPush, OpSet:
		return 2
	case OpMove, OpOffset, OpFunction, OpCall, OpWhile:
		return 1
	default:
		return 0
	}
}

// InstructionWords is 1 + ImmWords: the total width of this opcode's
// encoding in the flat word stream.
func (op Opcode) InstructionWords() int {
	return 1 + op.ImmWords()
}

// Valid reports whether op is a recognized opcode.
func (op Opcode) Valid() bool {
	return op < opcodeCount
}

// LookupMnemonic resolves a case-normalized assembly mnemonic (§6.3) to
// its Opcode. "end" (the source spelling for endblock), "ret" and
// "return" both map to OpReturn's mnemonic family are handled by the
// caller (asm/parser.go), since they are surface-syntax aliases rather
// than distinct opcodes.
func LookupMnemonic(name string) (Opcode, bool) {
	for i, n := range opcodeNames {
		if n == name {
			return Opcode(i), true
		}
	}
	return OpNop, false
}
