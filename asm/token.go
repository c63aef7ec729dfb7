// Package asm is RRVM's textual-source lexer and assembler (§4.4, §4.5,
// §6.3): it turns a `.rr` source file into a bytecode.Program.
package asm

// Line is one lexed source line: its 1-based line number (for error
// reporting) and its whitespace-separated, comment-stripped tokens. A
// full-line comment or a blank line yields zero Fields and is dropped by
// the lexer rather than kept as an empty Line.
type Line struct {
	Num    int
	Fields []string
}
