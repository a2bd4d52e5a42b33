package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnosticIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewMissingAttributeError("src"))
	assert.True(t, errors.Is(err, ErrMissingAttribute))
	assert.False(t, errors.Is(err, ErrParse))
}

func TestLocate(t *testing.T) {
	source := "line one\n  <dj-x>"
	err := AtOffset(NewParseError("bad"), 11)
	err = Locate(err, "page.html", source)

	var d Diagnostic
	assert.True(t, errors.As(err, &d))
	assert.Equal(t, 2, d.Line)
	assert.Equal(t, 3, d.Col)
	assert.Equal(t, "page.html:2:3: bad", d.Error())
}

func TestAtOffsetKeepsFirstPosition(t *testing.T) {
	err := AtOffset(AtOffset(NewParseError("bad"), 3), 9)
	var d Diagnostic
	assert.True(t, errors.As(err, &d))
	assert.Equal(t, 3, d.Offset)
}

func TestLocatePlainError(t *testing.T) {
	plain := errors.New("io")
	assert.Same(t, plain, Locate(plain, "x", "y"))
}
