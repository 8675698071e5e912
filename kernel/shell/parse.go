package shell

import (
	"strconv"
	"strings"
)

// tokenize splits line on whitespace, treating a double-quoted span as one
// token that preserves its internal whitespace (spec §4.12: "Quoted strings
// preserve whitespace").
func tokenize(line string) []string {
	var toks []string
	var cur strings.Builder
	inQuotes := false

	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ' ' && !inQuotes:
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return toks
}

// parseLine tokenizes line, strips and records any `>`/`>>`/`<` redirection
// per spec §4.12, and returns the remaining argv. ok is false only when a
// redirection operator appears with nothing after it.
func parseLine(ctx *Context, line string) (argv []string, ok bool) {
	toks := tokenize(line)

	ctx.outputRedirectPath = ""
	ctx.outputAppend = false
	ctx.inputRedirectPath = ""

	out := make([]string, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		switch toks[i] {
		case ">":
			if i+1 >= len(toks) {
				return nil, false
			}
			ctx.outputRedirectPath = toks[i+1]
			ctx.outputAppend = false
			i++
		case ">>":
			if i+1 >= len(toks) {
				return nil, false
			}
			ctx.outputRedirectPath = toks[i+1]
			ctx.outputAppend = true
			i++
		case "<":
			if i+1 >= len(toks) {
				return nil, false
			}
			ctx.inputRedirectPath = toks[i+1]
			i++
		case "$?":
			out = append(out, strconv.Itoa(ctx.LastExitCode))
		default:
			out = append(out, toks[i])
		}
	}
	return out, true
}
