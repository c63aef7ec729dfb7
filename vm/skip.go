package vm

import "github.com/chazu/rrvm/bytecode"

// ForwardScan implements the single forward-scan immediate skipper used
// by if/else/while/function (§4.2). Centralizing it here, driven by
// bytecode.Opcode.ImmWords, is the fix for the "biggest correctness
// risk" the design notes call out: four independent scanners each
// re-deriving how many words an opcode consumes.
//
// It starts scanning at ip (which must point at the instruction *after*
// the opening construct's own encoding) and walks forward, treating
// if/while/function as depth-opening and endblock as depth-closing. At
// depth 0:
//   - if stopAtElse is true and an `else` is encountered, scanning stops
//     immediately after the else's own encoding, with hitElse=true (used
//     by `if` to land just past a matching else, and to continue past it
//     when there is none).
//   - an `endblock` always stops scanning, immediately after its own
//     encoding, with hitElse=false (used by `else`, `while`, and
//     `function` body skipping).
//
// Returns the next IP and whether an else was found before it. An
// unterminated region (code exhausted before depth returns to -1)
// produces a Fault.
func ForwardScan(prog *bytecode.Program, ip int, stopAtElse bool) (nextIP int, hitElse bool, err error) {
	depth := 0
	for ip < prog.Len() {
		origin := ip
		op, ok := prog.OpcodeAt(ip)
		if !ok {
			return 0, false, NewFault(FaultTruncatedInstruction, origin, "opcode read past end of code")
		}
		if !op.Valid() {
			return 0, false, NewFault(FaultUnknownOpcode, origin, "opcode byte %d", byte(op))
		}

		switch op {
		case bytecode.OpIf, bytecode.OpWhile, bytecode.OpFunction:
			depth++
		case bytecode.OpElse:
			if depth == 0 && stopAtElse {
				return ip + op.InstructionWords(), true, nil
			}
			// nested else, or an else we're not stopping for: not a
			// depth change, just an ordinary instruction to skip past.
		case bytecode.OpEndBlock:
			if depth == 0 {
				return ip + op.InstructionWords(), false, nil
			}
			depth--
		}

		width := op.InstructionWords()
		if origin+width > prog.Len() {
			return 0, false, NewFault(FaultTruncatedInstruction, origin, "%s expects %d immediate word(s)", op, op.ImmWords())
		}
		ip = origin + width
	}
	return 0, false, NewFault(FaultMalformedControlFlow, ip, "unterminated block: reached end of code without endblock")
}
