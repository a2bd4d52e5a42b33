package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestYieldTokens(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		breaking     byte
		handleQuotes bool
		handleParens bool
		want         []string
	}{
		{"spaces", "a b c", ' ', true, false, []string{"a", "b", "c"}},
		{"single quotes", "a 'b c' d", ' ', true, false, []string{"a", "'b c'", "d"}},
		{"double quotes", `a="b c" d`, ' ', true, false, []string{`a="b c"`, "d"}},
		{"apostrophe inside double quotes", `x="it's here" y`, ' ', true, false, []string{`x="it's here"`, "y"}},
		{"quotes ignored", "a 'b c'", ' ', false, false, []string{"a", "'b", "c'"}},
		{"parenthesis", "a.b(1.2).c", '.', true, true, []string{"a", "b(1.2)", "c"}},
		{"empty middle token", "a  b", ' ', true, false, []string{"a", "", "b"}},
		{"trailing break", "a b ", ' ', true, false, []string{"a", "b"}},
		{"empty", "", ' ', true, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokens(tt.input, tt.breaking, tt.handleQuotes, tt.handleParens)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestYieldTokensStopsEarly(t *testing.T) {
	var seen []string
	for tok := range YieldTokens("a b c d", ' ', true, false) {
		seen = append(seen, tok)
		if tok == "b" {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestYieldTokensRepeatable(t *testing.T) {
	seq := YieldTokens("x y", ' ', true, false)

	var first, second []string
	for tok := range seq {
		first = append(first, tok)
	}
	for tok := range seq {
		second = append(second, tok)
	}
	assert.Equal(t, first, second)
}

func TestDequote(t *testing.T) {
	assert.Equal(t, "a", Dequote("'a'"))
	assert.Equal(t, "a", Dequote(`"a"`))
	assert.Equal(t, `'a"`, Dequote(`'a"`))
	assert.Equal(t, "'", Dequote("'"))
	assert.Equal(t, "", Dequote("''"))
	assert.True(t, IsQuoted("'x'"))
	assert.False(t, IsQuoted("x'"))
}
