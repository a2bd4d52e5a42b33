package engine

import (
	"errors"
	"fmt"
)

// Error kinds. Every transpile failure is a Diagnostic of one of these kinds.
const (
	KindParse                       = "parse"
	KindMissingAttribute            = "missing_attribute"
	KindDuplicateAttribute          = "duplicate_attribute"
	KindInvalidEndTag               = "invalid_end_tag"
	KindInvalidConditionalUse       = "invalid_conditional_use"
	KindInvalidAttributeCombination = "invalid_attribute_combination"
	KindPanic                       = "panic"
)

var (
	ErrParse                       = errors.New("parse error")
	ErrMissingAttribute            = errors.New("missing attribute")
	ErrDuplicateAttribute          = errors.New("duplicate attribute")
	ErrInvalidEndTag               = errors.New("invalid end tag")
	ErrInvalidConditionalUse       = errors.New("invalid conditional use")
	ErrInvalidAttributeCombination = errors.New("invalid attribute combination")
	ErrHandlerPanic                = errors.New("handler panic")
)

var kindSentinels = map[string]error{
	KindParse:                       ErrParse,
	KindMissingAttribute:            ErrMissingAttribute,
	KindDuplicateAttribute:          ErrDuplicateAttribute,
	KindInvalidEndTag:               ErrInvalidEndTag,
	KindInvalidConditionalUse:       ErrInvalidConditionalUse,
	KindInvalidAttributeCombination: ErrInvalidAttributeCombination,
	KindPanic:                       ErrHandlerPanic,
}

// Diagnostic is a transpile failure with enough position information to point
// a template author at the offending markup.
type Diagnostic struct {
	Type     string `json:"type"` // "error" or "panic"
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Filename string `json:"filename,omitempty"`
	Line     int    `json:"line,omitempty"`
	Col      int    `json:"col,omitempty"`
	Offset   int    `json:"-"`

	// Tag and Other carry the two tags of an end-tag mismatch, or the
	// attribute name for attribute errors.
	Tag   string `json:"tag,omitempty"`
	Other string `json:"other,omitempty"`
}

func (d Diagnostic) Error() string {
	if d.Filename != "" && d.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", d.Filename, d.Line, d.Col, d.Message)
	}
	if d.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", d.Line, d.Col, d.Message)
	}
	return d.Message
}

// Unwrap exposes the kind sentinel so callers can use errors.Is.
func (d Diagnostic) Unwrap() error {
	return kindSentinels[d.Kind]
}

func newDiagnostic(kind, msg string) Diagnostic {
	return Diagnostic{Type: "error", Kind: kind, Message: msg, Offset: -1}
}

// NewParseError reports malformed tag or attribute syntax.
func NewParseError(format string, args ...any) Diagnostic {
	return newDiagnostic(KindParse, fmt.Sprintf(format, args...))
}

// NewMissingAttributeError reports a required attribute that is absent.
func NewMissingAttributeError(name string) Diagnostic {
	d := newDiagnostic(KindMissingAttribute, fmt.Sprintf("missing attribute: %s", name))
	d.Tag = name
	return d
}

func NewDuplicateAttributeError(name string) Diagnostic {
	d := newDiagnostic(KindDuplicateAttribute, fmt.Sprintf("duplicate attribute: %s", name))
	d.Tag = name
	return d
}

// NewInvalidEndTagError reports an end tag that does not close the most
// recently opened tag. last is nil when nothing was open.
func NewInvalidEndTagError(tag, last *Tag) Diagnostic {
	var d Diagnostic
	if last == nil {
		d = newDiagnostic(KindInvalidEndTag, fmt.Sprintf("end tag %s has no matching start tag", tag.HTML))
	} else {
		d = newDiagnostic(KindInvalidEndTag, fmt.Sprintf("end tag %s does not match start tag %s", tag.HTML, last.HTML))
		d.Other = last.HTML
	}
	d.Tag = tag.HTML
	d.Offset = tag.Offset
	return d
}

func NewInvalidConditionalUseError(format string, args ...any) Diagnostic {
	return newDiagnostic(KindInvalidConditionalUse, fmt.Sprintf(format, args...))
}

func NewInvalidAttributeCombinationError(tagName, msg string) Diagnostic {
	d := newDiagnostic(KindInvalidAttributeCombination, fmt.Sprintf("<%s>: %s", tagName, msg))
	d.Tag = tagName
	return d
}

// AtOffset returns a copy of err positioned at offset when err is a
// Diagnostic without a position yet. Other errors pass through untouched.
func AtOffset(err error, offset int) error {
	var d Diagnostic
	if !errors.As(err, &d) {
		return err
	}
	if d.Offset < 0 {
		d.Offset = offset
	}
	return d
}

// Locate fills Filename, Line and Col from the diagnostic's byte offset into
// source.
func Locate(err error, filename, source string) error {
	var d Diagnostic
	if !errors.As(err, &d) {
		return err
	}
	d.Filename = filename
	if d.Offset >= 0 && d.Offset <= len(source) {
		d.Line, d.Col = LineCol(source, d.Offset)
	}
	return d
}

// LineCol converts a byte offset to 1-based line and column numbers.
func LineCol(source string, offset int) (int, int) {
	line, col := 1, 1
	for i := 0; i < offset && i < len(source); i++ {
		if source[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
