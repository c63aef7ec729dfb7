package asm

import "strings"

// Lex tokenizes src per §4.4: line-oriented, CR stripped, `#` starts a
// comment running to end of line (a line whose first non-space
// character is `#` yields no tokens at all), and tokens are
// whitespace-separated with runs of whitespace collapsing to one
// separator. It fails only on allocation exhaustion, which Go's
// allocator reports as a runtime panic rather than an error return, so
// Lex itself is infallible.
func Lex(src string) []Line {
	var lines []Line
	for i, raw := range strings.Split(src, "\n") {
		raw = strings.TrimSuffix(raw, "\r")
		if idx := strings.IndexByte(raw, '#'); idx >= 0 {
			raw = raw[:idx]
		}
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			continue
		}
		lines = append(lines, Line{Num: i + 1, Fields: fields})
	}
	return lines
}
