// Package route implements the five-stage route pipeline: lexer, parser,
// resolver, expander, and calculator. Each stage produces a value plus a
// util.Diagnostics accumulator rather than aborting on the first error,
// so later stages still run on a best-effort basis (grounded on
// mmp-vice's non-fatal route.go:parseWaypoints, generalized from
// returning a single error to accumulating many).
package route

import "strings"

// Token is one whitespace-delimited element of a route string.
type Token struct {
	Text  string // normalized: uppercased
	Raw   string // original casing, as entered
	Index int    // position in the token sequence
}

// Lex splits a route string into tokens: trim, uppercase, split on runs
// of whitespace, drop empty elements. Never fails.
func Lex(s string) []Token {
	fields := strings.Fields(s)
	tokens := make([]Token, 0, len(fields))
	for i, f := range fields {
		tokens = append(tokens, Token{Text: strings.ToUpper(f), Raw: f, Index: i})
	}
	return tokens
}
