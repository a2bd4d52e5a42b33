package scan

// Matcher decides whether a single byte is the one being searched for.
type Matcher func(c byte) bool

// Char matches exactly one byte.
func Char(want byte) Matcher {
	return func(c byte) bool { return c == want }
}

// AnyOf matches any byte of set, the single-character class equivalent of
// `[set]`.
func AnyOf(set string) Matcher {
	return func(c byte) bool {
		for i := 0; i < len(set); i++ {
			if set[i] == c {
				return true
			}
		}
		return false
	}
}

// Space matches ASCII whitespace.
func Space(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// SpaceOr matches whitespace or any byte of extra.
func SpaceOr(extra string) Matcher {
	other := AnyOf(extra)
	return func(c byte) bool { return Space(c) || other(c) }
}

// FindCharacter scans text from start for the first byte accepted by match
// that is not inside quotes. A reverse scan starts at start-1 and walks to
// the beginning of text. Returns -1 when nothing matches.
func FindCharacter(text string, start int, match Matcher, reverse bool) int {
	var quotes QuoteTracker

	if reverse {
		if start > len(text) {
			start = len(text)
		}
		for i := start - 1; i >= 0; i-- {
			c := text[i]
			quotes.Update(c)
			if !quotes.Inside() && match(c) {
				return i
			}
		}
		return -1
	}

	if start < 0 {
		start = 0
	}
	for i := start; i < len(text); i++ {
		c := text[i]
		quotes.Update(c)
		if !quotes.Inside() && match(c) {
			return i
		}
	}
	return -1
}

// FindTagEnd returns the offset just past the `>` closing the tag that opens
// at start, or -1 if the tag never closes.
func FindTagEnd(text string, start int) int {
	idx := FindCharacter(text, start, Char('>'), false)
	if idx < 0 {
		return -1
	}
	return idx + 1
}
