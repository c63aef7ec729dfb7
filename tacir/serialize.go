package tacir

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chazu/rrvm/internal/word"
)

// Serialize renders a TAC instruction stream in the block-structured
// textual form §6.4 fixes as a surface syntax: `l<N> :- goal, ...,
// goal.` clauses, one per label-delimited block, with a `ret` ending a
// block early and the next non-label instruction opening a fresh
// implicit `l0` block.
func Serialize(prog []Instr) string {
	type block struct {
		name  string
		goals []string
	}

	var blocks []block
	open := func(name string) {
		blocks = append(blocks, block{name: name})
	}
	open("l0")
	closed := false

	for _, instr := range prog {
		if instr.Op == TacLabel {
			open(fmt.Sprintf("l%d", instr.Label))
			closed = false
			continue
		}
		if closed {
			open("l0")
			closed = false
		}
		cur := &blocks[len(blocks)-1]
		cur.goals = append(cur.goals, goalText(instr))
		if instr.Op == TacRet {
			closed = true
		}
	}

	var out strings.Builder
	for _, b := range blocks {
		if len(b.goals) == 0 {
			continue
		}
		fmt.Fprintf(&out, "%s :-\n", b.name)
		for i, g := range b.goals {
			if i == len(b.goals)-1 {
				fmt.Fprintf(&out, "  %s.\n", g)
			} else {
				fmt.Fprintf(&out, "  %s,\n", g)
			}
		}
	}
	return out.String()
}

func temp(id int) string {
	return fmt.Sprintf("t%d", id)
}

func label(id int) string {
	return fmt.Sprintf("l%d", id)
}

// constText renders a `const` goal's immediate, using the hex-bit-
// pattern-plus-decimal-comment form §6.4 mandates for floats.
func constText(t word.TypeTag, imm word.Word) string {
	if t == word.F32 {
		bits := uint32(imm)
		return fmt.Sprintf("0x%08x /* %s */", bits,
			strconv.FormatFloat(float64(math.Float32frombits(bits)), 'g', -1, 32))
	}
	if t == word.F64 {
		bits := uint64(imm)
		return fmt.Sprintf("0x%016x /* %s */", bits,
			strconv.FormatFloat(math.Float64frombits(bits), 'g', -1, 64))
	}
	return strconv.FormatInt(int64(imm), 10)
}

var binGoalName = map[TacOp]string{
	TacAdd:    "add",
	TacSub:    "sub",
	TacMul:    "mul",
	TacDiv:    "div",
	TacRem:    "rem",
	TacBitAnd: "bitand",
	TacBitOr:  "bitor",
	TacBitXor: "bitxor",
	TacLsh:    "lsh",
	TacLrsh:   "lrsh",
	TacArsh:   "arsh",
	TacOr:     "or",
	TacAnd:    "and",
}

func goalText(instr Instr) string {
	switch instr.Op {
	case TacConst:
		return fmt.Sprintf("const(%s, %s, %s)", temp(instr.Dst), instr.Type, constText(instr.Type, instr.Imm))
	case TacAdd, TacSub, TacMul, TacDiv, TacRem, TacBitAnd, TacBitOr, TacBitXor, TacLsh, TacLrsh, TacArsh, TacOr, TacAnd:
		return fmt.Sprintf("%s(%s, %s, %s, %s)", binGoalName[instr.Op], temp(instr.Dst), instr.Type, temp(instr.A), temp(instr.B))
	case TacNot:
		return fmt.Sprintf("not(%s, %s, %s)", temp(instr.Dst), instr.Type, temp(instr.A))
	case TacGez:
		return fmt.Sprintf("gez(%s, %s, %s)", temp(instr.Dst), instr.Type, temp(instr.A))
	case TacMove:
		return fmt.Sprintf("move(%d)", instr.Imm)
	case TacLoad:
		return fmt.Sprintf("load(%s)", temp(instr.Dst))
	case TacStore:
		return fmt.Sprintf("store(%s)", temp(instr.A))
	case TacPrint:
		return fmt.Sprintf("print(%s)", temp(instr.A))
	case TacPrintChar:
		return fmt.Sprintf("printchar(%s)", temp(instr.A))
	case TacDeref:
		return fmt.Sprintf("deref(%s, %s)", temp(instr.Dst), temp(instr.A))
	case TacRefer:
		return fmt.Sprintf("refer(%s, %s)", temp(instr.Dst), temp(instr.A))
	case TacWhere:
		return fmt.Sprintf("where(%s)", temp(instr.Dst))
	case TacOffset:
		return fmt.Sprintf("offset(%s, %s, %d)", temp(instr.Dst), temp(instr.A), instr.Imm)
	case TacIndex:
		return fmt.Sprintf("index(%s, %s, %s)", temp(instr.Dst), temp(instr.A), temp(instr.B))
	case TacSet:
		return fmt.Sprintf("set(%s, %s)", temp(instr.A), temp(instr.B))
	case TacJmp:
		return fmt.Sprintf("jmp(%s)", label(instr.Label))
	case TacJz:
		return fmt.Sprintf("jz(%s, %s)", temp(instr.A), label(instr.Label))
	case TacCall:
		return fmt.Sprintf("call(%s, %s)", label(instr.Label), temp(instr.Dst))
	case TacRet:
		return "ret"
	default:
		return fmt.Sprintf("/* unknown tac op %d */", instr.Op)
	}
}
