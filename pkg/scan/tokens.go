package scan

import "iter"

// YieldTokens splits s on breaking, ignoring breaking bytes inside quotes
// (handleQuotes) or parentheses (handleParens). Empty tokens between two
// adjacent breaking bytes are yielded; a trailing token only when non-empty.
//
// The returned sequence is lazy and scans s again on every range.
func YieldTokens(s string, breaking byte, handleQuotes, handleParens bool) iter.Seq[string] {
	return func(yield func(string) bool) {
		var quotes QuoteTracker
		depth := 0
		start := 0

		for i := 0; i < len(s); i++ {
			c := s[i]

			if handleQuotes {
				quotes.Update(c)
			}
			if handleParens && !quotes.Inside() {
				switch c {
				case '(':
					depth++
				case ')':
					if depth > 0 {
						depth--
					}
				}
			}

			if c == breaking && !quotes.Inside() && depth == 0 {
				if !yield(s[start:i]) {
					return
				}
				start = i + 1
			}
		}

		if start < len(s) {
			yield(s[start:])
		}
	}
}

// Tokens collects YieldTokens into a slice.
func Tokens(s string, breaking byte, handleQuotes, handleParens bool) []string {
	var out []string
	for tok := range YieldTokens(s, breaking, handleQuotes, handleParens) {
		out = append(out, tok)
	}
	return out
}
