package transpiler

import (
	"strings"
	"unicode"

	"angles/pkg/edit"
	"angles/pkg/engine"
	"angles/pkg/scan"
	"angles/pkg/slots"
)

// replaceTags renders every custom tag through the registry.
func (t *Transpiler) replaceTags(html string) (string, error) {
	var (
		edits  edit.List
		queue  engine.TagQueue
		cursor int
	)

	nameGroup := t.tagRe.SubexpIndex("name")

	for _, m := range t.tagRe.FindAllStringSubmatchIndex(html, -1) {
		start := m[0]
		if start < cursor {
			continue
		}

		end := scan.FindTagEnd(html, start)
		limit := end
		if end < 0 {
			limit = len(html)
		}

		nameStart := m[2*nameGroup]
		nameEnd := tagNameEnd(html, nameStart, limit)
		rawName := html[nameStart:nameEnd]

		if !t.wants(rawName) {
			continue
		}
		if end < 0 {
			return "", engine.AtOffset(unterminatedTag(html[start:]), start)
		}

		args := strings.TrimSpace(html[nameEnd : end-1])
		args = strings.TrimSpace(strings.TrimSuffix(args, "/"))

		tag, err := engine.NewTag(t.registry, t.opts.Tag, html[start:end], rawName, args, start)
		if err != nil {
			return "", err
		}
		if err := queue.Track(tag); err != nil {
			return "", err
		}

		scope := &engine.Scope{
			Loader:        t.loader,
			WrapperPrefix: t.opts.WrapperPrefix,
			Extension:     t.opts.Extension,
		}
		cursor = end

		if t.opts.SlotsEnabled && !tag.IsSelfClosing && !tag.IsEnd && tag.IsInclude() {
			found, from, to, err := t.collectSlots(html, end)
			if err != nil {
				return "", err
			}
			if len(found) > 0 {
				scope.Slots = found
				edits.Replace(from, to, "")
				cursor = to
			}
		}

		if !tag.HasMapper {
			continue
		}

		out, err := t.registry.Render(tag, scope)
		if err != nil {
			return "", err
		}
		tagsRendered.WithLabelValues(mapperKind(tag)).Inc()
		edits.Replace(start, end, out)
	}

	return edits.Apply(html), nil
}

// wants reports whether a tag name should be handled at all. Unregistered
// names are only handled when a default mapper exists and explicit mapping
// is off.
func (t *Transpiler) wants(rawName string) bool {
	name := engine.NormalizeTagName(strings.TrimSuffix(rawName, "!"), t.opts.Tag)
	if t.registry.Has(name) || t.registry.Has(strings.ToLower(name)) {
		return true
	}
	return !t.opts.ExplicitOnly && t.registry.HasDefault()
}

// tagNameEnd returns the end of the element name starting at start: the
// first whitespace, `>` or `/>`.
func tagNameEnd(html string, start, limit int) int {
	for i := start; i < limit; i++ {
		switch c := html[i]; {
		case scan.Space(c), c == '>':
			return i
		case c == '/' && i+1 < limit && html[i+1] == '>':
			return i
		}
	}
	return limit
}

// collectSlots looks at the markup between an include start tag and the next
// custom end tag. When it holds slot elements they are returned, already
// transpiled, with the range to drop from the output.
func (t *Transpiler) collectSlots(html string, from int) ([]engine.Slot, int, int, error) {
	loc := t.closeRe.FindStringIndex(html[from:])
	if loc == nil {
		return nil, 0, 0, nil
	}

	raw := html[from : from+loc[0]]
	inner := strings.TrimSpace(raw)
	if inner == "" {
		return nil, 0, 0, nil
	}

	found := slots.Find(inner)
	for i, slot := range found {
		out, err := t.replaceTags(slot.HTML)
		if err != nil {
			return nil, 0, 0, err
		}
		found[i].HTML = out
	}

	start := from + len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
	return found, start, start + len(inner), nil
}

func unterminatedTag(rest string) error {
	tag, _, _ := strings.Cut(rest, "\n")
	if insideQuotes(rest) {
		return engine.NewParseError("unterminated quote in tag: %s", tag)
	}
	return engine.NewParseError("unterminated tag: %s", tag)
}

func mapperKind(tag *engine.Tag) string {
	switch {
	case tag.Mapper.Include:
		return "include"
	case tag.Mapper.IsStatic():
		return "static"
	}
	return "handler"
}
