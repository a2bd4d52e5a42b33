package engine

import (
	"iter"
	"strings"

	"angles/pkg/scan"
)

// Attribute is one `key` or `key=value` token from a tag's argument string.
// Values keep their quotes.
type Attribute struct {
	Key      string
	Value    string
	HasValue bool
}

// ParseAttribute splits token on the first `=` outside quotes.
func ParseAttribute(token string) (Attribute, error) {
	var quotes scan.QuoteTracker
	for i := 0; i < len(token); i++ {
		quotes.Update(token[i])
	}
	if quotes.Inside() {
		return Attribute{}, NewParseError("unterminated quote in attribute: %s", token)
	}

	parts := scan.Tokens(token, '=', true, false)
	switch {
	case len(parts) == 0 || parts[0] == "":
		return Attribute{}, NewParseError("invalid attribute: %s", token)
	case len(parts) > 2:
		return Attribute{}, NewParseError("invalid attribute, too many '=': %s", token)
	case len(parts) == 2:
		return Attribute{Key: parts[0], Value: parts[1], HasValue: true}, nil
	}
	return Attribute{Key: parts[0]}, nil
}

func (a Attribute) String() string {
	if !a.HasValue {
		return a.Key
	}
	return a.Key + "=" + a.Value
}

// AttributeSet is an insertion-ordered set of attributes with unique keys.
type AttributeSet struct {
	items []Attribute
}

// ParseAttributes tokenizes args on spaces (quote-aware). A repeated key
// keeps its first occurrence.
func ParseAttributes(args string) (*AttributeSet, error) {
	set := &AttributeSet{}
	for tok := range scan.YieldTokens(args, ' ', true, false) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		attr, err := ParseAttribute(tok)
		if err != nil {
			return nil, err
		}
		if set.Has(attr.Key) {
			continue
		}
		set.items = append(set.items, attr)
	}
	return set, nil
}

func (s *AttributeSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

func (s *AttributeSet) index(key string) int {
	for i, attr := range s.items {
		if attr.Key == key {
			return i
		}
	}
	return -1
}

func (s *AttributeSet) Get(key string) (Attribute, bool) {
	if i := s.index(key); i >= 0 {
		return s.items[i], true
	}
	return Attribute{}, false
}

func (s *AttributeSet) Has(key string) bool {
	return s.index(key) >= 0
}

// At returns the attribute at position i.
func (s *AttributeSet) At(i int) Attribute {
	return s.items[i]
}

// All iterates attributes in order.
func (s *AttributeSet) All() iter.Seq[Attribute] {
	return func(yield func(Attribute) bool) {
		for _, attr := range s.items {
			if !yield(attr) {
				return
			}
		}
	}
}

// Remove deletes key, failing with a missing-attribute error when absent.
func (s *AttributeSet) Remove(key string) error {
	i := s.index(key)
	if i < 0 {
		return NewMissingAttributeError(key)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

// Pop removes and returns the attribute at position i.
func (s *AttributeSet) Pop(i int) (Attribute, bool) {
	if i < 0 || i >= len(s.items) {
		return Attribute{}, false
	}
	attr := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	return attr, true
}

// PopValue removes key and returns its value. The boolean is false when the
// key is absent.
func (s *AttributeSet) PopValue(key string) (string, bool) {
	attr, ok := s.Get(key)
	if !ok {
		return "", false
	}
	_ = s.Remove(key)
	return attr.Value, true
}

// PopValueOrFirstKey supports directives that accept either `name="x"` or a
// bare first token. When key is present its value is consumed; otherwise the
// first attribute is consumed and must be a bare key.
func (s *AttributeSet) PopValueOrFirstKey(key string) (string, error) {
	if value, ok := s.PopValue(key); ok {
		return value, nil
	}

	first, ok := s.Pop(0)
	if !ok {
		return "", NewMissingAttributeError(key)
	}
	if first.HasValue || first.Key == "" {
		return "", NewMissingAttributeError(key)
	}
	return first.Key, nil
}

// Prepend parses token and inserts it first.
func (s *AttributeSet) Prepend(token string) error {
	attr, err := ParseAttribute(token)
	if err != nil {
		return err
	}
	if s.Has(attr.Key) {
		return NewDuplicateAttributeError(attr.Key)
	}
	s.items = append([]Attribute{attr}, s.items...)
	return nil
}

// Append parses token and adds it last.
func (s *AttributeSet) Append(token string) error {
	attr, err := ParseAttribute(token)
	if err != nil {
		return err
	}
	if s.Has(attr.Key) {
		return NewDuplicateAttributeError(attr.Key)
	}
	s.items = append(s.items, attr)
	return nil
}

// String renders the remaining attributes space-separated.
func (s *AttributeSet) String() string {
	if s == nil {
		return ""
	}
	parts := make([]string, 0, len(s.items))
	for _, attr := range s.items {
		parts = append(parts, attr.String())
	}
	return strings.Join(parts, " ")
}
