package vm

import (
	"github.com/chazu/rrvm/bytecode"
	"github.com/chazu/rrvm/internal/word"
)

// TraceFunc observes each dispatched opcode after its hook has run, at
// its origin IP. It is the seam interp/trace.go hooks execution tracing
// into without the dispatcher knowing anything about SQLite.
type TraceFunc func(ip int, op bytecode.Opcode)

// Run is the dispatcher (§4.1): the single structural execution loop
// shared by every backend. It reads immediates, advances IP past an
// opcode's full encoding *before* invoking the matching hook (hooks see
// IP already past their own encoding — TAC relies on this to recover an
// opcode's origin as ip-encoding_length), and stops on `halt` or
// exhausted code.
//
// Run contains no arithmetic, control-flow, or type semantics of its
// own beyond decoding immediates; all of that lives in Backend hooks.
func Run(s *State, b Backend, trace TraceFunc) error {
	if err := b.Setup(s); err != nil {
		return err
	}

	halted := false
	for !halted && s.IP < s.Program.Len() {
		origin := s.IP
		op, ok := s.Program.OpcodeAt(origin)
		if !ok {
			return NewFault(FaultTruncatedInstruction, origin, "opcode read past end of code")
		}
		if !op.Valid() {
			return NewFault(FaultUnknownOpcode, origin, "opcode byte %d", byte(op))
		}

		imms := op.ImmWords()
		if origin+1+imms > s.Program.Len() {
			return NewFault(FaultTruncatedInstruction, origin, "%s expects %d immediate word(s)", op, imms)
		}

		var imm1, imm2 word.Word
		if imms >= 1 {
			imm1, _ = s.Program.At(origin + 1)
		}
		if imms >= 2 {
			imm2, _ = s.Program.At(origin + 2)
		}

		s.IP = origin + op.InstructionWords()

		var err error
		switch op {
		case bytecode.OpNop:
			err = b.Nop(s)
		case bytecode.OpPush:
			err = b.Push(s, word.TypeTag(imm1), imm2)
		case bytecode.OpAdd:
			err = b.Add(s)
		case bytecode.OpSub:
			err = b.Sub(s)
		case bytecode.OpMul:
			err = b.Mul(s)
		case bytecode.OpDiv:
			err = b.Div(s)
		case bytecode.OpRem:
			err = b.Rem(s)
		case bytecode.OpMove:
			err = b.Move(s, imm1)
		case bytecode.OpLoad:
			err = b.Load(s)
		case bytecode.OpStore:
			err = b.Store(s)
		case bytecode.OpPrint:
			err = b.Print(s)
		case bytecode.OpPrintChar:
			err = b.PrintChar(s)
		case bytecode.OpDeref:
			err = b.Deref(s)
		case bytecode.OpRefer:
			err = b.Refer(s)
		case bytecode.OpWhere:
			err = b.Where(s)
		case bytecode.OpOffset:
			err = b.Offset(s, imm1)
		case bytecode.OpIndex:
			err = b.Index(s)
		case bytecode.OpSet:
			err = b.Set(s, word.TypeTag(imm1), imm2)
		case bytecode.OpFunction:
			err = b.Function(s, imm1)
		case bytecode.OpCall:
			err = b.Call(s, imm1)
		case bytecode.OpReturn:
			err = b.Return(s)
		case bytecode.OpWhile:
			err = b.While(s, imm1)
		case bytecode.OpIf:
			err = b.If(s)
		case bytecode.OpElse:
			err = b.Else(s)
		case bytecode.OpEndBlock:
			err = b.EndBlock(s)
		case bytecode.OpOrAssign:
			err = b.OrAssign(s)
		case bytecode.OpAndAssign:
			err = b.AndAssign(s)
		case bytecode.OpNot:
			err = b.Not(s)
		case bytecode.OpBitAnd:
			err = b.BitAnd(s)
		case bytecode.OpBitOr:
			err = b.BitOr(s)
		case bytecode.OpBitXor:
			err = b.BitXor(s)
		case bytecode.OpLsh:
			err = b.Lsh(s)
		case bytecode.OpLrsh:
			err = b.Lrsh(s)
		case bytecode.OpArsh:
			err = b.Arsh(s)
		case bytecode.OpGez:
			err = b.Gez(s)
		case bytecode.OpHalt:
			err = b.Halt(s)
			halted = true
		default:
			err = NewFault(FaultUnknownOpcode, origin, "opcode %s has no dispatcher case", op)
		}
		if err != nil {
			return err
		}

		if trace != nil {
			trace(origin, op)
		}
	}

	return b.Finalize(s)
}
