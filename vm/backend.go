package vm

import "github.com/chazu/rrvm/internal/word"

// Backend is the hook table the dispatcher calls into: one method per
// opcode, plus Setup/Finalize lifecycle hooks. Modeling this as a Go
// interface (rather than a struct of function pointers, as the reference
// VM does) makes an incomplete backend a compile-time error rather than
// tolerating nil hooks.
//
// Both the interpreter and the TAC backend implement Backend; the
// dispatcher (Run, in dispatch.go) is identical for both. This is the
// mechanism behind the central design invariant: TAC lowering is a
// second interpretation, not a separate pass over bytecode.
type Backend interface {
	Setup(s *State) error
	Finalize(s *State) error

	Nop(s *State) error
	Push(s *State, tag word.TypeTag, imm word.Word) error
	Add(s *State) error
	Sub(s *State) error
	Mul(s *State) error
	Div(s *State) error
	Rem(s *State) error

	Move(s *State, imm word.Word) error
	Load(s *State) error
	Store(s *State) error
	Print(s *State) error
	PrintChar(s *State) error

	Deref(s *State) error
	Refer(s *State) error
	Where(s *State) error
	Offset(s *State, imm word.Word) error
	Index(s *State) error
	Set(s *State, tag word.TypeTag, imm word.Word) error

	Function(s *State, idx word.Word) error
	Call(s *State, idx word.Word) error
	Return(s *State) error
	While(s *State, condIP word.Word) error
	If(s *State) error
	Else(s *State) error
	EndBlock(s *State) error

	OrAssign(s *State) error
	AndAssign(s *State) error
	Not(s *State) error
	BitAnd(s *State) error
	BitOr(s *State) error
	BitXor(s *State) error
	Lsh(s *State) error
	Lrsh(s *State) error
	Arsh(s *State) error
	Gez(s *State) error

	Halt(s *State) error
}
