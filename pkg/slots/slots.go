// Package slots finds slot-carrying children at an include call site and
// fills the matching <slot name="..."> placeholders of the included
// template.
package slots

import (
	"strings"

	"angles/pkg/edit"
	"angles/pkg/engine"
	"angles/pkg/scan"

	"golang.org/x/net/html"
)

// Find returns the top-level elements of inner that have a `slot` attribute,
// with their markup exactly as written.
func Find(inner string) []engine.Slot {
	var (
		found   []engine.Slot
		current *engine.Slot
		start   int
		offset  int
		depth   int
	)

	z := html.NewTokenizer(strings.NewReader(inner))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tokenStart := offset
		offset += len(z.Raw())

		switch tt {
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			void := scan.IsVoid(string(name))

			if depth == 0 {
				if slotName := attr(z, hasAttr, "slot"); slotName != "" {
					if void {
						found = append(found, engine.Slot{Name: slotName, HTML: inner[tokenStart:offset]})
					} else {
						current = &engine.Slot{Name: slotName}
						start = tokenStart
					}
				}
			}
			if !void {
				depth++
			}
		case html.SelfClosingTagToken:
			if depth == 0 {
				_, hasAttr := z.TagName()
				if slotName := attr(z, hasAttr, "slot"); slotName != "" {
					found = append(found, engine.Slot{Name: slotName, HTML: inner[tokenStart:offset]})
				}
			}
		case html.EndTagToken:
			if depth > 0 {
				depth--
			}
			if depth == 0 && current != nil {
				current.HTML = inner[start:offset]
				found = append(found, *current)
				current = nil
			}
		}
	}

	return found
}

// Fill replaces the children of every <slot name="x"> element in src with the
// markup of the slots named x. Unmatched slots keep their fallback content.
func Fill(src string, slots []engine.Slot) string {
	var (
		edits      edit.List
		offset     int
		depth      int
		innerStart = -1
		content    string
	)

	z := html.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tokenStart := offset
		offset += len(z.Raw())

		switch tt {
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "slot" {
				continue
			}
			if depth == 0 {
				if c, ok := lookup(slots, attr(z, hasAttr, "name")); ok {
					innerStart = offset
					content = c
				}
			}
			depth++
		case html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "slot" || depth > 0 {
				continue
			}
			if c, ok := lookup(slots, attr(z, hasAttr, "name")); ok {
				raw := src[tokenStart:offset]
				opened := strings.TrimRight(strings.TrimSuffix(raw, "/>"), " \t\r\n") + ">"
				edits.Replace(tokenStart, offset, opened+c+"</slot>")
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) != "slot" || depth == 0 {
				continue
			}
			depth--
			if depth == 0 && innerStart >= 0 {
				edits.Replace(innerStart, tokenStart, content)
				innerStart = -1
			}
		}
	}

	return edits.Apply(src)
}

func lookup(slots []engine.Slot, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	var b strings.Builder
	found := false
	for _, s := range slots {
		if s.Name == name {
			b.WriteString(s.HTML)
			found = true
		}
	}
	return b.String(), found
}

func attr(z *html.Tokenizer, hasAttr bool, key string) string {
	for hasAttr {
		var k, v []byte
		k, v, hasAttr = z.TagAttr()
		if string(k) == key {
			return string(v)
		}
	}
	return ""
}
