package tacir

import (
	"github.com/chazu/rrvm/internal/word"
	"github.com/chazu/rrvm/vm"
)

type blockKind int

const (
	blockIf blockKind = iota
	blockElse
	blockWhile
	blockFunction
)

type blockEntry struct {
	Kind blockKind
	// SkipLbl is the jz target allocated by `if`: the join point if no
	// `else` follows, or the else-branch start if one does.
	SkipLbl int
	// MergeLbl is allocated lazily by `else` (an if without an else never
	// needs a second label): the point execution reaches after either
	// branch runs.
	MergeLbl int
	// CondLbl is the while condition's retroactively-inserted label;
	// EndLbl its exit label. Meaningful only for blockWhile.
	CondLbl, EndLbl int
}

// Backend lowers a bytecode program into TAC by observing the same
// dispatch sequence the interpreter does (vm.Run drives both), but
// replacing "compute a value" with "emit an instruction referencing a
// temp id". Unlike the interpreter, control-flow hooks here never
// redirect s.IP: the dispatcher's natural forward advance already visits
// every opcode exactly once, in bytecode order, which is exactly the
// linear walk TAC lowering wants (function bodies lowered once, in
// place, at their definition site; loop bodies lowered once, not
// replayed per iteration).
type Backend struct {
	Prog []Instr

	// ipIndex maps a VM-IP (opcode origin) to the TAC index of that
	// opcode's primary emitted instruction, populated by every hook at
	// emission time. while's retroactive label insertion is the reason
	// this map exists.
	ipIndex map[int]int
	// ipLabel maps a VM-IP to a retro-inserted label id, for downstream
	// passes that search by VM-IP.
	ipLabel map[int]int

	shadow    []int
	tempTypes []word.TypeTag
	nextLabel int

	funcLabels map[int]int

	// curPtr is the temp id currently representing the tape pointer;
	// ptrHistory is the SSA-form analogue of the interpreter's
	// pointer-history stack. Neither participates in `shadow`: per
	// SPEC_FULL.md's Open Question decision, only `where` bridges a
	// pointer temp onto the general operand shadow stack.
	curPtr     int
	ptrHistory []int

	blocks []blockEntry
}

var _ vm.Backend = (*Backend)(nil)

// New returns a ready-to-run TAC backend.
func New() *Backend {
	return &Backend{
		ipIndex:    map[int]int{},
		ipLabel:    map[int]int{},
		funcLabels: map[int]int{},
		curPtr:     -1,
	}
}

func (b *Backend) Setup(s *vm.State) error    { return nil }
func (b *Backend) Finalize(s *vm.State) error { return nil }

func (b *Backend) newTemp(t word.TypeTag) int {
	id := len(b.tempTypes)
	b.tempTypes = append(b.tempTypes, t)
	return id
}

func (b *Backend) typeOf(temp int) word.TypeTag {
	if temp < 0 || temp >= len(b.tempTypes) {
		return word.Unknown
	}
	return b.tempTypes[temp]
}

func (b *Backend) newLabel() int {
	id := b.nextLabel
	b.nextLabel++
	return id
}

func (b *Backend) pushShadow(t int) {
	b.shadow = append(b.shadow, t)
}

func (b *Backend) popShadow(ip int) (int, error) {
	if len(b.shadow) == 0 {
		return 0, vm.NewFault(vm.FaultStackUnderflow, ip, "TAC shadow stack empty")
	}
	n := len(b.shadow) - 1
	t := b.shadow[n]
	b.shadow = b.shadow[:n]
	return t, nil
}

// emit appends instr to the TAC stream. When originIP is non-negative,
// it is recorded in ipIndex — the VM-IP → TAC-index map that while's
// retroactive label insertion depends on. Synthetic instructions that
// don't correspond 1:1 to a dispatched opcode (an else's `label`
// following its `jmp`, for instance) pass originIP = -1.
func (b *Backend) emit(originIP int, instr Instr) int {
	idx := len(b.Prog)
	if originIP >= 0 {
		b.ipIndex[originIP] = idx
	}
	b.Prog = append(b.Prog, instr)
	return idx
}

// insertLabelAt splices a `label` instruction into the TAC stream at
// idx, shifting every ipIndex entry at or past idx up by one. This is
// the "retroactive label insertion" algorithm SPEC_FULL.md calls the
// crux of lowering correctness.
func (b *Backend) insertLabelAt(idx int, lbl int) {
	instr := newInstr(TacLabel)
	instr.Label = lbl
	b.Prog = append(b.Prog, Instr{})
	copy(b.Prog[idx+1:], b.Prog[idx:])
	b.Prog[idx] = instr

	for ip, pos := range b.ipIndex {
		if pos >= idx {
			b.ipIndex[ip] = pos + 1
		}
	}
}

// retroLabel implements while's core algorithm (§4.3): look up condIP's
// already-emitted TAC position and insert a fresh label there. A missing
// map entry indicates a lowering bug; a floating label is allocated as a
// best-effort fallback rather than crashing.
func (b *Backend) retroLabel(condIP int) int {
	lbl := b.newLabel()
	if idx, ok := b.ipIndex[condIP]; ok {
		b.insertLabelAt(idx, lbl)
	} else {
		b.emit(-1, func() Instr { i := newInstr(TacLabel); i.Label = lbl; return i }())
	}
	b.ipLabel[condIP] = lbl
	return lbl
}

func (b *Backend) ensurePtr(originIP int) int {
	if b.curPtr == -1 {
		t := b.newTemp(word.Ptr)
		instr := newInstr(TacConst)
		instr.Dst, instr.Type, instr.Imm, instr.HasImm = t, word.Ptr, 0, true
		b.emit(originIP, instr)
		b.curPtr = t
	}
	return b.curPtr
}

func (b *Backend) Nop(s *vm.State) error {
	origin := s.IP - 1
	b.ipIndex[origin] = len(b.Prog)
	return nil
}

func (b *Backend) Push(s *vm.State, tag word.TypeTag, imm word.Word) error {
	origin := s.IP - 3
	t := b.newTemp(tag)
	instr := newInstr(TacConst)
	instr.Dst, instr.Type, instr.Imm, instr.HasImm = t, tag, imm, true
	b.emit(origin, instr)
	b.pushShadow(t)
	return nil
}

func (b *Backend) binary(originIP int, op TacOp) error {
	r, err := b.popShadow(originIP)
	if err != nil {
		return err
	}
	l, err := b.popShadow(originIP)
	if err != nil {
		return err
	}
	t := b.typeOf(l)
	d := b.newTemp(t)
	instr := newInstr(op)
	instr.Dst, instr.A, instr.B, instr.Type = d, l, r, t
	b.emit(originIP, instr)
	b.pushShadow(d)
	return nil
}

func (b *Backend) Add(s *vm.State) error { return b.binary(s.IP-1, TacAdd) }
func (b *Backend) Sub(s *vm.State) error { return b.binary(s.IP-1, TacSub) }
func (b *Backend) Mul(s *vm.State) error { return b.binary(s.IP-1, TacMul) }
func (b *Backend) Div(s *vm.State) error { return b.binary(s.IP-1, TacDiv) }
func (b *Backend) Rem(s *vm.State) error { return b.binary(s.IP-1, TacRem) }

func (b *Backend) BitAnd(s *vm.State) error { return b.binary(s.IP-1, TacBitAnd) }
func (b *Backend) BitOr(s *vm.State) error  { return b.binary(s.IP-1, TacBitOr) }
func (b *Backend) BitXor(s *vm.State) error { return b.binary(s.IP-1, TacBitXor) }
func (b *Backend) Lsh(s *vm.State) error    { return b.binary(s.IP-1, TacLsh) }
func (b *Backend) Lrsh(s *vm.State) error   { return b.binary(s.IP-1, TacLrsh) }
func (b *Backend) Arsh(s *vm.State) error   { return b.binary(s.IP-1, TacArsh) }

func (b *Backend) boolBinary(originIP int, op TacOp) error {
	r, err := b.popShadow(originIP)
	if err != nil {
		return err
	}
	l, err := b.popShadow(originIP)
	if err != nil {
		return err
	}
	d := b.newTemp(word.Bool)
	instr := newInstr(op)
	instr.Dst, instr.A, instr.B, instr.Type = d, l, r, word.Bool
	b.emit(originIP, instr)
	b.pushShadow(d)
	return nil
}

func (b *Backend) OrAssign(s *vm.State) error  { return b.boolBinary(s.IP-1, TacOr) }
func (b *Backend) AndAssign(s *vm.State) error { return b.boolBinary(s.IP-1, TacAnd) }

func (b *Backend) unaryBool(originIP int, op TacOp) error {
	l, err := b.popShadow(originIP)
	if err != nil {
		return err
	}
	d := b.newTemp(word.Bool)
	instr := newInstr(op)
	instr.Dst, instr.A, instr.Type = d, l, word.Bool
	b.emit(originIP, instr)
	b.pushShadow(d)
	return nil
}

func (b *Backend) Not(s *vm.State) error { return b.unaryBool(s.IP-1, TacNot) }
func (b *Backend) Gez(s *vm.State) error { return b.unaryBool(s.IP-1, TacGez) }

func (b *Backend) Move(s *vm.State, imm word.Word) error {
	origin := s.IP - 2
	instr := newInstr(TacMove)
	instr.Imm, instr.HasImm = imm, true
	b.emit(origin, instr)
	return nil
}

func (b *Backend) Load(s *vm.State) error {
	origin := s.IP - 1
	d := b.newTemp(word.Unknown)
	instr := newInstr(TacLoad)
	instr.Dst = d
	b.emit(origin, instr)
	b.pushShadow(d)
	return nil
}

func (b *Backend) Store(s *vm.State) error {
	origin := s.IP - 1
	l, err := b.popShadow(origin)
	if err != nil {
		return err
	}
	instr := newInstr(TacStore)
	instr.A = l
	b.emit(origin, instr)
	return nil
}

func (b *Backend) Print(s *vm.State) error {
	origin := s.IP - 1
	l, err := b.popShadow(origin)
	if err != nil {
		return err
	}
	instr := newInstr(TacPrint)
	instr.A = l
	b.emit(origin, instr)
	return nil
}

func (b *Backend) PrintChar(s *vm.State) error {
	origin := s.IP - 1
	l, err := b.popShadow(origin)
	if err != nil {
		return err
	}
	instr := newInstr(TacPrintChar)
	instr.A = l
	b.emit(origin, instr)
	return nil
}

func (b *Backend) Deref(s *vm.State) error {
	origin := s.IP - 1
	l := b.ensurePtr(origin)
	b.ptrHistory = append(b.ptrHistory, l)
	d := b.newTemp(word.Ptr)
	instr := newInstr(TacDeref)
	instr.Dst, instr.A = d, l
	b.emit(origin, instr)
	b.curPtr = d
	return nil
}

func (b *Backend) Refer(s *vm.State) error {
	origin := s.IP - 1
	if len(b.ptrHistory) == 0 {
		return vm.NewFault(vm.FaultPointerHistoryUnderflow, origin, "TAC pointer history empty")
	}
	l := b.curPtr
	n := len(b.ptrHistory) - 1
	d := b.ptrHistory[n]
	b.ptrHistory = b.ptrHistory[:n]
	instr := newInstr(TacRefer)
	instr.Dst, instr.A = d, l
	b.emit(origin, instr)
	b.curPtr = d
	return nil
}

func (b *Backend) Where(s *vm.State) error {
	origin := s.IP - 1
	b.ensurePtr(origin)
	d := b.newTemp(word.Ptr)
	instr := newInstr(TacWhere)
	instr.Dst = d
	b.emit(origin, instr)
	b.pushShadow(d)
	return nil
}

func (b *Backend) Offset(s *vm.State, imm word.Word) error {
	origin := s.IP - 2
	l := b.ensurePtr(origin)
	d := b.newTemp(word.Ptr)
	instr := newInstr(TacOffset)
	instr.Dst, instr.A, instr.Imm, instr.HasImm = d, l, imm, true
	b.emit(origin, instr)
	b.curPtr = d
	return nil
}

func (b *Backend) Index(s *vm.State) error {
	origin := s.IP - 1
	l := b.ensurePtr(origin)
	r := b.newTemp(word.Unknown)
	d := b.newTemp(word.Ptr)
	instr := newInstr(TacIndex)
	instr.Dst, instr.A, instr.B = d, l, r
	b.emit(origin, instr)
	b.curPtr = d
	return nil
}

func (b *Backend) Set(s *vm.State, tag word.TypeTag, imm word.Word) error {
	origin := s.IP - 3
	l := b.ensurePtr(origin)
	v := b.newTemp(tag)
	c := newInstr(TacConst)
	c.Dst, c.Type, c.Imm, c.HasImm = v, tag, imm, true
	b.emit(origin, c)
	set := newInstr(TacSet)
	set.A, set.B = l, v
	b.emit(-1, set)
	return nil
}

func (b *Backend) Function(s *vm.State, idx word.Word) error {
	origin := s.IP - 2
	i := int(idx)
	lbl, ok := b.funcLabels[i]
	if !ok {
		lbl = b.newLabel()
		b.funcLabels[i] = lbl
	}
	instr := newInstr(TacLabel)
	instr.Label = lbl
	b.emit(origin, instr)
	b.blocks = append(b.blocks, blockEntry{Kind: blockFunction})
	return nil
}

func (b *Backend) Call(s *vm.State, idx word.Word) error {
	origin := s.IP - 2
	i := int(idx)
	lbl, ok := b.funcLabels[i]
	if !ok {
		lbl = b.newLabel()
		b.funcLabels[i] = lbl
	}
	d := b.newTemp(word.Unknown)
	instr := newInstr(TacCall)
	instr.Dst, instr.Label = d, lbl
	b.emit(origin, instr)
	b.pushShadow(d)
	return nil
}

func (b *Backend) Return(s *vm.State) error {
	origin := s.IP - 1
	b.emit(origin, newInstr(TacRet))
	return nil
}

// If emits a jz to a single label allocated up front. That label is
// either the join point (if no else follows — see EndBlock) or, if an
// else does follow, the else-branch's own start (see Else): the second
// label for the post-else merge point is only allocated when an else is
// actually seen, so a plain if/end never carries an unreferenced label.
func (b *Backend) If(s *vm.State) error {
	origin := s.IP - 1
	cond, err := b.popShadow(origin)
	if err != nil {
		return err
	}
	skipLbl := b.newLabel()
	instr := newInstr(TacJz)
	instr.A, instr.Label = cond, skipLbl
	b.emit(origin, instr)
	b.blocks = append(b.blocks, blockEntry{Kind: blockIf, SkipLbl: skipLbl, MergeLbl: -1})
	return nil
}

func (b *Backend) Else(s *vm.State) error {
	origin := s.IP - 1
	if len(b.blocks) == 0 {
		return vm.NewFault(vm.FaultBlockStackUnderflow, origin, "else without if")
	}
	top := b.blocks[len(b.blocks)-1]
	if top.Kind != blockIf {
		return vm.NewFault(vm.FaultMalformedControlFlow, origin, "else without matching if")
	}
	mergeLbl := b.newLabel()
	jmp := newInstr(TacJmp)
	jmp.Label = mergeLbl
	b.emit(origin, jmp)
	lbl := newInstr(TacLabel)
	lbl.Label = top.SkipLbl
	b.emit(-1, lbl)
	top.Kind = blockElse
	top.MergeLbl = mergeLbl
	b.blocks[len(b.blocks)-1] = top
	return nil
}

func (b *Backend) While(s *vm.State, condIP word.Word) error {
	origin := s.IP - 2
	cond, err := b.popShadow(origin)
	if err != nil {
		return err
	}
	endLbl := b.newLabel()
	jz := newInstr(TacJz)
	jz.A, jz.Label = cond, endLbl
	b.emit(origin, jz)
	body := newInstr(TacLabel)
	body.Label = b.newLabel()
	b.emit(-1, body)

	condLbl := b.retroLabel(int(condIP))
	b.blocks = append(b.blocks, blockEntry{Kind: blockWhile, CondLbl: condLbl, EndLbl: endLbl})
	return nil
}

func (b *Backend) EndBlock(s *vm.State) error {
	origin := s.IP - 1
	if len(b.blocks) == 0 {
		return vm.NewFault(vm.FaultBlockStackUnderflow, origin, "endblock without open block")
	}
	n := len(b.blocks) - 1
	top := b.blocks[n]
	b.blocks = b.blocks[:n]

	switch top.Kind {
	case blockWhile:
		jmp := newInstr(TacJmp)
		jmp.Label = top.CondLbl
		b.emit(origin, jmp)
		lbl := newInstr(TacLabel)
		lbl.Label = top.EndLbl
		b.emit(-1, lbl)
	case blockIf:
		// No else was seen: SkipLbl is both the jz target and the join
		// point, since there's no second branch to jump over.
		lbl := newInstr(TacLabel)
		lbl.Label = top.SkipLbl
		b.emit(origin, lbl)
	case blockElse:
		lbl := newInstr(TacLabel)
		lbl.Label = top.MergeLbl
		b.emit(origin, lbl)
	case blockFunction:
		// no emission
	}
	return nil
}

func (b *Backend) Halt(s *vm.State) error { return nil }
