package asm

import "fmt"

// ParseError is the recoverable-with-position error the assembler
// returns for any surface-syntax problem (§7): unknown mnemonic, wrong
// operand count, bad immediate, label/function redefinition, an
// unresolved while-label, or a function never given a body. Parsing
// fails fast on the first error rather than collecting a batch.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func errf(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}
