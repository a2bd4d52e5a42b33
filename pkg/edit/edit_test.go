package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		edits []Edit
		want  string
	}{
		{"no edits", "abcd", nil, "abcd"},
		{"insert", "abcd", []Edit{Insert(2, "X")}, "abXcd"},
		{"replace", "abcd", []Edit{Replace(1, 3, "X")}, "aXd"},
		{"delete", "abcd", []Edit{Replace(1, 3, "")}, "ad"},
		{"overlapping replace composes", "abcd", []Edit{Replace(1, 3, "X"), Replace(2, 3, "Y")}, "aXYd"},
		{"unsorted input", "abcd", []Edit{Insert(4, "!"), Insert(0, "^")}, "^abcd!"},
		{"stable for equal positions", "ab", []Edit{Insert(1, "1"), Insert(1, "2"), Replace(1, 2, "B")}, "a12B"},
		{"insert at end", "ab", []Edit{Insert(2, "c")}, "abc"},
		{"disjoint", "abcdef", []Edit{Replace(0, 1, "A"), Replace(4, 6, "EF")}, "AbcdEF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(tt.text, tt.edits))
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	edits := []Edit{Insert(3, "b"), Insert(1, "a")}
	Apply("xyz", edits)
	assert.Equal(t, 3, edits[0].Position)
}

func TestList(t *testing.T) {
	var l List
	l.Insert(0, "{% if a %}")
	l.Replace(0, 5, "<p>")
	l.Insert(13, "{% endif %}")

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, "{% if a %}<p>text</p>{% endif %}", l.Apply("<p x>text</p>"))
}
