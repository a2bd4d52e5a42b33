// Package edit applies positional text edits computed against one source
// string in a single pass.
package edit

import (
	"slices"
	"strings"
)

// Edit inserts Content at Position, or replaces [Position, End) with it when
// IsInsert is false.
type Edit struct {
	Position int
	End      int
	Content  string
	IsInsert bool
}

// Insert returns an insertion edit.
func Insert(pos int, content string) Edit {
	return Edit{Position: pos, End: pos, Content: content, IsInsert: true}
}

// Replace returns an edit replacing [start, end).
func Replace(start, end int, content string) Edit {
	return Edit{Position: start, End: end, Content: content}
}

// Apply sorts edits by position (stable) and writes them over text. Edits
// starting inside a range already replaced keep their content but do not
// repeat the replaced source text.
func Apply(text string, edits []Edit) string {
	if len(edits) == 0 {
		return text
	}

	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b Edit) int {
		return a.Position - b.Position
	})

	var b strings.Builder
	b.Grow(len(text))
	cursor := 0

	for _, e := range sorted {
		pos := min(max(e.Position, 0), len(text))
		if pos > cursor {
			b.WriteString(text[cursor:pos])
			cursor = pos
		}
		b.WriteString(e.Content)
		if !e.IsInsert {
			cursor = max(cursor, min(e.End, len(text)))
		}
	}

	b.WriteString(text[cursor:])
	return b.String()
}

// List collects edits from several passes.
type List struct {
	edits []Edit
}

func (l *List) Insert(pos int, content string) {
	l.edits = append(l.edits, Insert(pos, content))
}

func (l *List) Replace(start, end int, content string) {
	l.edits = append(l.edits, Replace(start, end, content))
}

func (l *List) Add(e ...Edit) {
	l.edits = append(l.edits, e...)
}

func (l *List) Len() int {
	return len(l.edits)
}

func (l *List) Edits() []Edit {
	return l.edits
}

// Apply writes the collected edits over text.
func (l *List) Apply(text string) string {
	return Apply(text, l.edits)
}
