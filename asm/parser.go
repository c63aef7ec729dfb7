package asm

import (
	"math"
	"strconv"
	"strings"

	"github.com/chazu/rrvm/bytecode"
	"github.com/chazu/rrvm/internal/word"
)

// parser holds the two symbol tables §4.5 specifies plus the
// while-patch worklist, and assembles directly into a bytecode.Program
// as it walks the lexed lines — a single forward pass, backpatching
// only the while/label case where a loop's condition label can't be
// known until the label line is reached.
type parser struct {
	prog *bytecode.Program

	labels        map[string]int
	whilePatches  map[string][]int
	funcs         map[string]int
	funcsDefined  map[string]bool
	nextFunc      int
	maxFunctions  int
}

// Parse assembles src (per §6.3's grammar) into a bytecode.Program sized
// for at most maxFunctions function slots.
func Parse(src string, maxFunctions int) (*bytecode.Program, error) {
	p := &parser{
		prog:         bytecode.NewProgram(maxFunctions),
		labels:       map[string]int{},
		whilePatches: map[string][]int{},
		funcs:        map[string]int{},
		funcsDefined: map[string]bool{},
		maxFunctions: maxFunctions,
	}
	for _, line := range Lex(src) {
		if err := p.parseLine(line); err != nil {
			return nil, err
		}
	}
	for name, idx := range p.funcs {
		if !p.funcsDefined[name] {
			return nil, errf(0, "function %q (index %d) referenced but never defined", name, idx)
		}
	}
	for name, positions := range p.whilePatches {
		if len(positions) > 0 {
			return nil, errf(0, "while label %q never defined", name)
		}
	}
	return p.prog, nil
}

func (p *parser) funcIndex(line int, name string) (int, error) {
	if idx, ok := p.funcs[name]; ok {
		return idx, nil
	}
	if p.nextFunc >= p.maxFunctions {
		return 0, errf(line, "function table exhausted (limit %d)", p.maxFunctions)
	}
	idx := p.nextFunc
	p.nextFunc++
	p.funcs[name] = idx
	return idx, nil
}

func (p *parser) defineLabel(line int, name string) error {
	if _, ok := p.labels[name]; ok {
		return errf(line, "label %q redefined", name)
	}
	pos := p.prog.Len()
	p.labels[name] = pos
	for _, patchPos := range p.whilePatches[name] {
		if err := p.prog.PatchImm(patchPos, word.Word(pos)); err != nil {
			return errf(line, "patching while target for %q: %v", name, err)
		}
	}
	delete(p.whilePatches, name)
	return nil
}

func (p *parser) parseLine(line Line) error {
	fields := line.Fields
	head := fields[0]

	if strings.HasSuffix(head, ":") && len(fields) == 1 {
		return p.defineLabel(line.Num, strings.TrimSuffix(head, ":"))
	}

	mnem := strings.ToLower(head)

	switch mnem {
	case "label":
		if len(fields) != 2 {
			return errf(line.Num, "label expects a name")
		}
		return p.defineLabel(line.Num, fields[1])

	case "func":
		if len(fields) != 2 {
			return errf(line.Num, "func expects a name")
		}
		idx, err := p.funcIndex(line.Num, fields[1])
		if err != nil {
			return err
		}
		if p.funcsDefined[fields[1]] {
			return errf(line.Num, "function %q redefined", fields[1])
		}
		p.funcsDefined[fields[1]] = true
		p.prog.Emit1(bytecode.OpFunction, word.Word(idx))
		return nil

	case "call":
		if len(fields) != 2 {
			return errf(line.Num, "call expects a function name")
		}
		idx, err := p.funcIndex(line.Num, fields[1])
		if err != nil {
			return err
		}
		p.prog.Emit1(bytecode.OpCall, word.Word(idx))
		return nil

	case "ret", "return":
		if len(fields) != 1 {
			return errf(line.Num, "%s takes no operands", mnem)
		}
		p.prog.Emit(bytecode.OpReturn)
		return nil

	case "end":
		if len(fields) != 1 {
			return errf(line.Num, "end takes no operands")
		}
		p.prog.Emit(bytecode.OpEndBlock)
		return nil

	case "or":
		if len(fields) != 1 {
			return errf(line.Num, "or takes no operands")
		}
		p.prog.Emit(bytecode.OpOrAssign)
		return nil

	case "and":
		if len(fields) != 1 {
			return errf(line.Num, "and takes no operands")
		}
		p.prog.Emit(bytecode.OpAndAssign)
		return nil

	case "push", "set":
		if len(fields) != 3 {
			return errf(line.Num, "%s expects a type and an immediate", mnem)
		}
		tag, ok := word.ParseTypeTag(strings.ToLower(fields[1]))
		if !ok {
			return errf(line.Num, "unknown type %q", fields[1])
		}
		imm, err := parseImmediate(tag, fields[2])
		if err != nil {
			return errf(line.Num, "bad immediate %q: %v", fields[2], err)
		}
		op := bytecode.OpPush
		if mnem == "set" {
			op = bytecode.OpSet
		}
		p.prog.Emit2(op, tag, imm)
		return nil

	case "move", "offset":
		if len(fields) != 2 {
			return errf(line.Num, "%s expects an immediate", mnem)
		}
		v, err := strconv.ParseInt(fields[1], 0, 64)
		if err != nil {
			return errf(line.Num, "bad immediate %q: %v", fields[1], err)
		}
		op := bytecode.OpMove
		if mnem == "offset" {
			op = bytecode.OpOffset
		}
		p.prog.Emit1(op, word.Word(v))
		return nil

	case "while":
		if len(fields) != 2 {
			return errf(line.Num, "while expects a label")
		}
		name := fields[1]
		if pos, ok := p.labels[name]; ok {
			p.prog.Emit1(bytecode.OpWhile, word.Word(pos))
			return nil
		}
		placeholder := p.prog.Emit1(bytecode.OpWhile, 0)
		p.whilePatches[name] = append(p.whilePatches[name], placeholder+1)
		return nil
	}

	if len(fields) != 1 {
		return errf(line.Num, "%s takes no operands", mnem)
	}
	op, ok := bytecode.LookupMnemonic(mnem)
	if !ok {
		return errf(line.Num, "unknown mnemonic %q", head)
	}
	p.prog.Emit(op)
	return nil
}

// parseImmediate parses a single immediate token against its declared
// type tag, per §4.5/§6.3: decimal or C-hex for integers; for floats,
// either a decimal/hex-float literal (bit-cast into the word) or a
// `0x`-prefixed literal taken as the raw bit pattern.
func parseImmediate(tag word.TypeTag, tok string) (word.Word, error) {
	if tag.IsFloat() {
		if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
			bitSize := 64
			if tag == word.F32 {
				bitSize = 32
			}
			bits, err := strconv.ParseUint(tok[2:], 16, bitSize)
			if err != nil {
				return 0, err
			}
			return word.Word(int64(bits)), nil
		}
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return 0, err
		}
		if tag == word.F32 {
			return word.Word(int64(math.Float32bits(float32(f)))), nil
		}
		return word.Word(int64(math.Float64bits(f))), nil
	}
	v, err := strconv.ParseInt(tok, 0, 64)
	if err != nil {
		return 0, err
	}
	return word.Word(v), nil
}
