package finchat

import "regexp"

// reSymbol matches ticker-like tokens: 1-5 consecutive uppercase letters on
// word boundaries. Compiled once at package init.
// There is no semantic validation, so ordinary words like "AI" or "NY" match.
var reSymbol = regexp.MustCompile(`\b[A-Z]{1,5}\b`)

// ExtractSymbols returns candidate ticker symbols from free-form text in
// order of appearance. The result has length zero when the text contains no
// candidate; callers must handle that case distinctly from a found symbol.
func ExtractSymbols(text string) []string {
	return reSymbol.FindAllString(text, -1)
}
