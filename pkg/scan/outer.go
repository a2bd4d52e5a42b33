package scan

import "strings"

// VoidElements never have an end tag.
var VoidElements = map[string]bool{
	"area":    true,
	"base":    true,
	"br":      true,
	"col":     true,
	"command": true,
	"embed":   true,
	"hr":      true,
	"img":     true,
	"input":   true,
	"keygen":  true,
	"link":    true,
	"meta":    true,
	"param":   true,
	"source":  true,
	"track":   true,
	"wbr":     true,
}

// IsVoid reports whether name is an HTML void element.
func IsVoid(name string) bool {
	return VoidElements[strings.ToLower(name)]
}

// RawTag is one `<...>` tag located in a larger text.
type RawTag struct {
	Name        string
	Start       int
	End         int
	IsEnd       bool
	SelfClosing bool
}

// Void reports whether the tag can never have children.
func (t RawTag) Void() bool {
	return t.SelfClosing || IsVoid(t.Name)
}

// ReadTag parses the tag opening at start (text[start] must be '<').
// `>` inside quoted attribute values does not terminate the tag.
func ReadTag(text string, start int) (RawTag, bool) {
	if start < 0 || start >= len(text) || text[start] != '<' {
		return RawTag{}, false
	}

	end := FindTagEnd(text, start)
	if end < 0 {
		return RawTag{}, false
	}

	inner := text[start+1 : end-1]
	tag := RawTag{Start: start, End: end}

	if strings.HasPrefix(inner, "/") {
		tag.IsEnd = true
		inner = inner[1:]
	}
	if strings.HasSuffix(strings.TrimSpace(inner), "/") {
		tag.SelfClosing = true
	}

	nameEnd := strings.IndexFunc(inner, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '/' || r == '>'
	})
	if nameEnd < 0 {
		nameEnd = len(inner)
	}
	tag.Name = inner[:nameEnd]

	return tag, tag.Name != ""
}

// GetOuterHTML returns the outer extent [elementStart, elementEnd) of the
// element whose opening tag starts at or after start. Void, self-closing and
// end tags are their own extent. Nesting is tracked by tag name only; quote
// state is reset between tags so apostrophes in text do not confuse it.
func GetOuterHTML(text string, start int) (int, int, bool) {
	open := strings.IndexByte(text[min(start, len(text)):], '<')
	if open < 0 {
		return -1, -1, false
	}
	open += start

	first, ok := ReadTag(text, open)
	if !ok {
		return -1, -1, false
	}
	if first.IsEnd || first.Void() {
		return first.Start, first.End, true
	}

	depth := 1
	pos := first.End

	for pos < len(text) {
		next := strings.IndexByte(text[pos:], '<')
		if next < 0 {
			break
		}
		next += pos

		if strings.HasPrefix(text[next:], "<!--") {
			closeIdx := strings.Index(text[next+4:], "-->")
			if closeIdx < 0 {
				break
			}
			pos = next + 4 + closeIdx + 3
			continue
		}

		tag, ok := ReadTag(text, next)
		if !ok {
			pos = next + 1
			continue
		}

		if strings.EqualFold(tag.Name, first.Name) {
			if tag.IsEnd {
				depth--
			} else if !tag.SelfClosing {
				depth++
			}
		}

		if depth == 0 {
			return first.Start, tag.End, true
		}
		pos = tag.End
	}

	return first.Start, first.End, false
}
