package interp

import (
	"math"

	"github.com/chazu/rrvm/internal/word"
	"github.com/chazu/rrvm/vm"
)

// binOp is the set of binary arithmetic/bitwise operators the
// interpreter dispatches through evalBinary.
type binOp int

const (
	opAdd binOp = iota
	opSub
	opMul
	opDiv
	opRem
	opBitAnd
	opBitOr
	opBitXor
	opLsh
	opLrsh
	opArsh
)

// evalBinary implements §4.2's arithmetic semantics: both operands must
// share a type tag, integer division/remainder fault on a zero divisor,
// float ops operate on the bit-cast value, and unsigned types use
// unsigned arithmetic.
func evalBinary(ip int, op binOp, l, r word.Word, tag word.TypeTag) (word.Word, error) {
	switch tag {
	case word.F32:
		lf, rf := math.Float32frombits(uint32(l)), math.Float32frombits(uint32(r))
		var res float32
		switch op {
		case opAdd:
			res = lf + rf
		case opSub:
			res = lf - rf
		case opMul:
			res = lf * rf
		case opDiv:
			if rf == 0 {
				return 0, vm.NewFault(vm.FaultDivideByZero, ip, "f32 division by zero")
			}
			res = lf / rf
		case opRem:
			if rf == 0 {
				return 0, vm.NewFault(vm.FaultDivideByZero, ip, "f32 remainder by zero")
			}
			res = float32(math.Mod(float64(lf), float64(rf)))
		default:
			return 0, vm.NewFault(vm.FaultTypeMismatch, ip, "bitwise op on f32 operand")
		}
		return word.Word(int64(math.Float32bits(res))), nil

	case word.F64:
		ld, rd := math.Float64frombits(uint64(l)), math.Float64frombits(uint64(r))
		var res float64
		switch op {
		case opAdd:
			res = ld + rd
		case opSub:
			res = ld - rd
		case opMul:
			res = ld * rd
		case opDiv:
			if rd == 0 {
				return 0, vm.NewFault(vm.FaultDivideByZero, ip, "f64 division by zero")
			}
			res = ld / rd
		case opRem:
			if rd == 0 {
				return 0, vm.NewFault(vm.FaultDivideByZero, ip, "f64 remainder by zero")
			}
			res = math.Mod(ld, rd)
		default:
			return 0, vm.NewFault(vm.FaultTypeMismatch, ip, "bitwise op on f64 operand")
		}
		return word.Word(int64(math.Float64bits(res))), nil

	case word.U8, word.U16, word.U32, word.U64:
		lu, ru := uint64(l), uint64(r)
		var res uint64
		switch op {
		case opAdd:
			res = lu + ru
		case opSub:
			res = lu - ru
		case opMul:
			res = lu * ru
		case opDiv:
			if ru == 0 {
				return 0, vm.NewFault(vm.FaultDivideByZero, ip, "unsigned division by zero")
			}
			res = lu / ru
		case opRem:
			if ru == 0 {
				return 0, vm.NewFault(vm.FaultDivideByZero, ip, "unsigned remainder by zero")
			}
			res = lu % ru
		case opBitAnd:
			res = lu & ru
		case opBitOr:
			res = lu | ru
		case opBitXor:
			res = lu ^ ru
		case opLsh:
			res = lu << (ru & 63)
		case opLrsh:
			res = lu >> (ru & 63)
		case opArsh:
			res = uint64(int64(lu) >> (ru & 63))
		}
		return word.Word(int64(res)), nil

	default: // signed integers, bool, ptr
		li, ri := int64(l), int64(r)
		var res int64
		switch op {
		case opAdd:
			res = li + ri
		case opSub:
			res = li - ri
		case opMul:
			res = li * ri
		case opDiv:
			if ri == 0 {
				return 0, vm.NewFault(vm.FaultDivideByZero, ip, "division by zero")
			}
			res = li / ri
		case opRem:
			if ri == 0 {
				return 0, vm.NewFault(vm.FaultDivideByZero, ip, "remainder by zero")
			}
			res = li % ri
		case opBitAnd:
			res = li & ri
		case opBitOr:
			res = li | ri
		case opBitXor:
			res = li ^ ri
		case opLsh:
			res = li << (uint64(ri) & 63)
		case opLrsh:
			res = int64(uint64(li) >> (uint64(ri) & 63))
		case opArsh:
			res = li >> (uint64(ri) & 63)
		}
		return word.Word(res), nil
	}
}

func boolWord(b bool) word.Word {
	if b {
		return 1
	}
	return 0
}
