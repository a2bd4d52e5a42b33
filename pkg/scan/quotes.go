package scan

// QuoteTracker follows single and double quote state while walking text one
// byte at a time. Only one kind of quote is active at a time: a `'` inside
// double quotes is literal and vice versa.
type QuoteTracker struct {
	inSingle bool
	inDouble bool
}

// Update feeds one byte into the tracker.
func (q *QuoteTracker) Update(c byte) {
	switch c {
	case '\'':
		if !q.inDouble {
			q.inSingle = !q.inSingle
		}
	case '"':
		if !q.inSingle {
			q.inDouble = !q.inDouble
		}
	}
}

// Inside reports whether the tracker is currently inside any quote.
func (q *QuoteTracker) Inside() bool {
	return q.inSingle || q.inDouble
}

func (q *QuoteTracker) Reset() {
	q.inSingle = false
	q.inDouble = false
}

// IsQuoted reports whether s is wrapped in a matching pair of quotes.
func IsQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	return (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"')
}

// Dequote strips one pair of matching outer quotes, if present.
func Dequote(s string) string {
	if IsQuoted(s) {
		return s[1 : len(s)-1]
	}
	return s
}
