// Package interp is RRVM's Interpreter backend (§4.2): it implements
// vm.Backend by evaluating each opcode against live VM state, maintaining
// type discipline and structured-control-flow bookkeeping. It is the
// "first" interpretation of a program's dispatch sequence; tacir is the
// second.
package interp

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"

	"github.com/chazu/rrvm/internal/word"
	"github.com/chazu/rrvm/vm"
)

// Interpreter evaluates bytecode directly, writing program output to Out.
// Log is a stdlib `log` logger (the ambient convention used elsewhere in
// this codebase); the hooks do not write to it, and faults are returned
// as errors to the caller of vm.Run.
type Interpreter struct {
	Out io.Writer
	Log *log.Logger
}

// New returns an Interpreter writing program output to stdout, with Log
// set to a logger on stderr.
func New() *Interpreter {
	return &Interpreter{
		Out: os.Stdout,
		Log: log.New(os.Stderr, "rrvm: ", 0),
	}
}

var _ vm.Backend = (*Interpreter)(nil)

func (in *Interpreter) Setup(s *vm.State) error    { return nil }
func (in *Interpreter) Finalize(s *vm.State) error { return nil }

func (in *Interpreter) Nop(s *vm.State) error { return nil }

func (in *Interpreter) Push(s *vm.State, tag word.TypeTag, imm word.Word) error {
	return s.Push(s.IP, imm, tag)
}

func (in *Interpreter) sameTypeBinary(op binOp) func(s *vm.State) error {
	return func(s *vm.State) error {
		r, tr, err := s.Pop(s.IP)
		if err != nil {
			return err
		}
		l, tl, err := s.Pop(s.IP)
		if err != nil {
			return err
		}
		if tl != tr {
			return vm.NewFault(vm.FaultTypeMismatch, s.IP, "operand types %s and %s differ", tl, tr)
		}
		res, err := evalBinary(s.IP, op, l, r, tl)
		if err != nil {
			return err
		}
		return s.Push(s.IP, res, tl)
	}
}

func (in *Interpreter) Add(s *vm.State) error { return in.sameTypeBinary(opAdd)(s) }
func (in *Interpreter) Sub(s *vm.State) error { return in.sameTypeBinary(opSub)(s) }
func (in *Interpreter) Mul(s *vm.State) error { return in.sameTypeBinary(opMul)(s) }
func (in *Interpreter) Div(s *vm.State) error { return in.sameTypeBinary(opDiv)(s) }
func (in *Interpreter) Rem(s *vm.State) error { return in.sameTypeBinary(opRem)(s) }

func (in *Interpreter) BitAnd(s *vm.State) error { return in.sameTypeBinary(opBitAnd)(s) }
func (in *Interpreter) BitOr(s *vm.State) error  { return in.sameTypeBinary(opBitOr)(s) }
func (in *Interpreter) BitXor(s *vm.State) error { return in.sameTypeBinary(opBitXor)(s) }
func (in *Interpreter) Lsh(s *vm.State) error    { return in.sameTypeBinary(opLsh)(s) }
func (in *Interpreter) Lrsh(s *vm.State) error   { return in.sameTypeBinary(opLrsh)(s) }
func (in *Interpreter) Arsh(s *vm.State) error   { return in.sameTypeBinary(opArsh)(s) }

func (in *Interpreter) OrAssign(s *vm.State) error {
	r, tr, err := s.Pop(s.IP)
	if err != nil {
		return err
	}
	l, tl, err := s.Pop(s.IP)
	if err != nil {
		return err
	}
	if tl != tr {
		return vm.NewFault(vm.FaultTypeMismatch, s.IP, "operand types %s and %s differ", tl, tr)
	}
	return s.Push(s.IP, boolWord(l != 0 || r != 0), word.Bool)
}

func (in *Interpreter) AndAssign(s *vm.State) error {
	r, tr, err := s.Pop(s.IP)
	if err != nil {
		return err
	}
	l, tl, err := s.Pop(s.IP)
	if err != nil {
		return err
	}
	if tl != tr {
		return vm.NewFault(vm.FaultTypeMismatch, s.IP, "operand types %s and %s differ", tl, tr)
	}
	return s.Push(s.IP, boolWord(l != 0 && r != 0), word.Bool)
}

func (in *Interpreter) Not(s *vm.State) error {
	v, _, err := s.Pop(s.IP)
	if err != nil {
		return err
	}
	return s.Push(s.IP, boolWord(v == 0), word.Bool)
}

func (in *Interpreter) Gez(s *vm.State) error {
	v, _, err := s.Pop(s.IP)
	if err != nil {
		return err
	}
	return s.Push(s.IP, boolWord(v >= 0), word.Bool)
}

func (in *Interpreter) Move(s *vm.State, imm word.Word) error {
	return s.MoveTP(s.IP, imm)
}

func (in *Interpreter) Load(s *vm.State) error {
	return s.Push(s.IP, s.Tape[s.TP], s.TapeTypes[s.TP])
}

func (in *Interpreter) Store(s *vm.State) error {
	v, t, err := s.Pop(s.IP)
	if err != nil {
		return err
	}
	s.Tape[s.TP] = v
	s.TapeTypes[s.TP] = t
	return nil
}

func (in *Interpreter) formatValue(v word.Word, t word.TypeTag) string {
	switch t {
	case word.F32:
		return strconv.FormatFloat(float64(math.Float32frombits(uint32(v))), 'g', -1, 32)
	case word.F64:
		return strconv.FormatFloat(math.Float64frombits(uint64(v)), 'g', -1, 64)
	case word.U8, word.U16, word.U32, word.U64:
		return strconv.FormatUint(uint64(v), 10)
	default:
		return strconv.FormatInt(int64(v), 10)
	}
}

func (in *Interpreter) Print(s *vm.State) error {
	v, t, err := s.Pop(s.IP)
	if err != nil {
		return err
	}
	fmt.Fprintln(in.Out, in.formatValue(v, t))
	return nil
}

func (in *Interpreter) PrintChar(s *vm.State) error {
	v, _, err := s.Pop(s.IP)
	if err != nil {
		return err
	}
	fmt.Fprintf(in.Out, "%c", rune(v))
	return nil
}

func (in *Interpreter) Deref(s *vm.State) error {
	if err := s.PushPtrHistory(s.IP); err != nil {
		return err
	}
	idx := int(s.Tape[s.TP])
	if idx < 0 || idx >= len(s.Tape) {
		return vm.NewFault(vm.FaultTapeOverflow, s.IP, "deref target %d out of range", idx)
	}
	s.TP = idx
	return nil
}

func (in *Interpreter) Refer(s *vm.State) error {
	idx, err := s.PopPtrHistory(s.IP)
	if err != nil {
		return err
	}
	s.TP = idx
	return nil
}

func (in *Interpreter) Where(s *vm.State) error {
	return s.Push(s.IP, word.Word(s.TP), word.Ptr)
}

func (in *Interpreter) Offset(s *vm.State, imm word.Word) error {
	return s.MoveTP(s.IP, imm)
}

func (in *Interpreter) Index(s *vm.State) error {
	return s.MoveTP(s.IP, s.Tape[s.TP])
}

func (in *Interpreter) Set(s *vm.State, tag word.TypeTag, imm word.Word) error {
	s.Tape[s.TP] = imm
	s.TapeTypes[s.TP] = tag
	return nil
}

func (in *Interpreter) Function(s *vm.State, idx word.Word) error {
	i := int(idx)
	if i < 0 || i >= len(s.Program.Functions) {
		return vm.NewFault(vm.FaultUnresolvedFunction, s.IP, "function index %d out of range", i)
	}
	s.Program.Functions[i] = s.IP
	next, _, err := vm.ForwardScan(s.Program, s.IP, false)
	if err != nil {
		return err
	}
	s.IP = next
	return nil
}

func (in *Interpreter) Call(s *vm.State, idx word.Word) error {
	i := int(idx)
	if i < 0 || i >= len(s.Program.Functions) || s.Program.Functions[i] < 0 {
		return vm.NewFault(vm.FaultUnresolvedFunction, s.IP, "function index %d not defined", i)
	}
	if err := s.PushFrame(s.IP, vm.Frame{ReturnIP: s.IP, OldFP: s.FP}); err != nil {
		return err
	}
	s.FP = s.SP
	s.IP = s.Program.Functions[i]
	return nil
}

func (in *Interpreter) Return(s *vm.State) error {
	var retVal word.Word
	retType := word.I64
	if s.SP > s.FP {
		v, t, err := s.Pop(s.IP)
		if err != nil {
			return err
		}
		retVal, retType = v, t
	}
	s.SP = s.FP
	frame, err := s.PopFrame(s.IP)
	if err != nil {
		return err
	}
	s.FP = frame.OldFP
	s.IP = frame.ReturnIP
	return s.Push(s.IP, retVal, retType)
}

func (in *Interpreter) While(s *vm.State, condIP word.Word) error {
	v, _, err := s.Pop(s.IP)
	if err != nil {
		return err
	}
	if v == 0 {
		next, _, err := vm.ForwardScan(s.Program, s.IP, false)
		if err != nil {
			return err
		}
		s.IP = next
		return nil
	}
	return s.PushBlock(s.IP, vm.BlockEntry{Kind: vm.BlockWhile, CondIP: int(condIP)})
}

func (in *Interpreter) If(s *vm.State) error {
	v, _, err := s.Pop(s.IP)
	if err != nil {
		return err
	}
	if v == 0 {
		next, hitElse, err := vm.ForwardScan(s.Program, s.IP, true)
		if err != nil {
			return err
		}
		s.IP = next
		if hitElse {
			// The else branch runs next; its closing endblock pops this.
			return s.PushBlock(s.IP, vm.BlockEntry{Kind: vm.BlockElse})
		}
		return nil
	}
	return s.PushBlock(s.IP, vm.BlockEntry{Kind: vm.BlockIf})
}

func (in *Interpreter) Else(s *vm.State) error {
	next, _, err := vm.ForwardScan(s.Program, s.IP, false)
	if err != nil {
		return err
	}
	if _, err := s.PopBlock(s.IP); err != nil {
		return err
	}
	s.IP = next
	return nil
}

func (in *Interpreter) EndBlock(s *vm.State) error {
	// A while entry is popped too: the loop's `while` pushes a fresh one
	// each time its condition holds, so the block stack only ever holds
	// constructs that are still open.
	top, err := s.PopBlock(s.IP)
	if err != nil {
		return err
	}
	if top.Kind == vm.BlockWhile {
		s.IP = top.CondIP
	}
	return nil
}

func (in *Interpreter) Halt(s *vm.State) error { return nil }
