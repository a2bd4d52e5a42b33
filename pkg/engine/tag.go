package engine

import (
	"strings"

	"angles/pkg/scan"

	"github.com/iancoleman/strcase"
)

// TagOptions are the naming settings applied while building a Tag.
type TagOptions struct {
	LowerCase bool
	KebabCase bool
}

// Tag is one occurrence of a custom element: a start tag, an end tag or a
// self-closing tag.
type Tag struct {
	Name          string // normalised name used for registry lookup
	HTML          string // original markup of the tag
	Args          string // argument string after the name
	Offset        int    // byte offset of HTML in the template
	IsEnd         bool
	IsSelfClosing bool
	IsShadow      bool
	IsWrapped     bool
	Attributes    *AttributeSet

	// Start is the matching start tag, set on end tags by the TagQueue. It is
	// a non-owning reference.
	Start *Tag

	// Mapper is the resolved handler; HasMapper is false when neither the
	// name nor a default is registered.
	Mapper    Mapper
	HasMapper bool
}

// NewTag builds a Tag from its parts and resolves its mapper from reg.
// rawName is the element name without the custom prefix.
func NewTag(reg *Registry, opts TagOptions, html, rawName, args string, offset int) (*Tag, error) {
	args = strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(args))

	tag := &Tag{
		Name:          rawName,
		HTML:          html,
		Args:          args,
		Offset:        offset,
		IsEnd:         strings.HasPrefix(html, "</"),
		IsSelfClosing: strings.HasSuffix(html, "/>"),
	}

	if err := tag.ParseAttributes(); err != nil {
		return nil, AtOffset(err, offset)
	}

	if strings.HasSuffix(tag.Name, "!") {
		tag.Name = strings.TrimSuffix(tag.Name, "!")
		tag.IsShadow = true
	} else if tag.Attributes.Has("shadow") {
		tag.IsShadow = true
		_ = tag.Attributes.Remove("shadow")
	}

	tag.IsWrapped = !tag.Attributes.Has("no-wrap")
	if tag.IsShadow && !tag.IsWrapped {
		return nil, AtOffset(NewInvalidAttributeCombinationError(tag.Name, "shadow and `no-wrap` cannot be used together"), offset)
	}

	tag.Name = NormalizeTagName(tag.Name, opts)

	if scan.IsVoid(tag.Name) && !tag.IsEnd {
		tag.IsSelfClosing = true
	}

	if reg != nil {
		tag.Mapper, tag.HasMapper = reg.Lookup(tag.Name)
	}

	return tag, nil
}

// ParseAttributes (re)builds the attribute set from the original argument
// string, undoing any attributes consumed by a handler.
func (t *Tag) ParseAttributes() error {
	attrs, err := ParseAttributes(t.Args)
	if err != nil {
		return err
	}
	t.Attributes = attrs
	if t.IsShadow {
		_ = t.Attributes.Remove("shadow")
	}
	return nil
}

// PopValueOrFirstKey consumes `key` or the bare first attribute of the tag.
func (t *Tag) PopValueOrFirstKey(key string) (string, error) {
	value, err := t.Attributes.PopValueOrFirstKey(key)
	if err != nil {
		return "", AtOffset(err, t.Offset)
	}
	return value, nil
}

// IsInclude reports whether the tag resolves to an include-style handler.
func (t *Tag) IsInclude() bool {
	return t.HasMapper && t.Mapper.Include
}

func (t *Tag) String() string {
	return t.HTML
}

// NormalizeTagName applies the case settings to a raw element name.
// Punctuation such as `/` and `:` is kept.
func NormalizeTagName(name string, opts TagOptions) string {
	if opts.LowerCase {
		name = strings.ToLower(name)
	}
	if opts.KebabCase {
		name = strcase.ToKebab(name)
	}
	return name
}
