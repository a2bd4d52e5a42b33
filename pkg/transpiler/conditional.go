package transpiler

import (
	"regexp"
	"strings"

	"angles/pkg/edit"
	"angles/pkg/engine"
	"angles/pkg/scan"
)

const (
	condIf    = "if"
	condElif  = "elif"
	condElse  = "else"
	condEndif = "endif"
	condFi    = "fi"
)

// conditional is one element carrying a conditional attribute.
type conditional struct {
	kind      string
	attr      string // attribute name as written, e.g. dj-elif
	condition string

	start, end int // outer extent of the element
	tagEnd     int // end of the tag holding the attribute
	attrStart  int // includes the whitespace in front of the attribute
	attrEnd    int
	closing    bool // the attribute sits on an end tag

	parent *conditional // innermost conditional element containing this one
	chain  *chain
	next   *conditional
}

func (c *conditional) contains(o *conditional) bool {
	return c.start <= o.start && o.end <= c.end && c != o
}

func (c *conditional) opens() bool {
	return c.kind == condIf || c.kind == condElif || c.kind == condElse
}

type chain struct {
	head     *conditional
	tail     *conditional
	closedBy *conditional
}

var (
	spaceBeforeClose = regexp.MustCompile(`\s+>`)
	repeatedSpace    = regexp.MustCompile(`\s{2,}`)
)

// replaceAttributes turns conditional attributes into if/elif/else/endif
// directives around their elements.
func (t *Transpiler) replaceAttributes(html string) (string, error) {
	elements, err := t.findConditionals(html)
	if err != nil || len(elements) == 0 {
		return html, err
	}

	if err := linkConditionals(elements); err != nil {
		return "", err
	}
	conditionalsTotal.Add(float64(len(elements)))

	var edits edit.List
	for _, el := range elements {
		switch el.kind {
		case condIf:
			edits.Insert(el.start, "{% if "+el.condition+" %}")
		case condElif:
			edits.Insert(el.start, "{% elif "+el.condition+" %}")
		case condElse:
			edits.Insert(el.start, "{% else %}")
		default:
			if !el.closing {
				edits.Insert(el.start, "{% endif %}")
			}
		}

		edits.Replace(el.start, el.tagEnd, removeAttribute(html, el))

		switch {
		case el.opens() && el.next == nil && el.chain.closedBy == nil:
			edits.Insert(el.end, "{% endif %}")
		case !el.opens() && el.closing:
			edits.Insert(el.end, "{% endif %}")
		}
	}

	return edits.Apply(html), nil
}

// findConditionals collects every conditional attribute that sits inside a
// tag, in text order.
func (t *Transpiler) findConditionals(html string) ([]*conditional, error) {
	var (
		elements []*conditional
		byStart  = make(map[int]*conditional)
	)

	nameGroup, kindGroup := t.attrRe.SubexpIndex("name"), t.attrRe.SubexpIndex("kind")

	for _, m := range t.attrRe.FindAllStringSubmatchIndex(html, -1) {
		nameStart, nameEnd := m[2*nameGroup], m[2*nameGroup+1]
		kind := html[m[2*kindGroup]:m[2*kindGroup+1]]

		if nameEnd < len(html) {
			if c := html[nameEnd]; c != '=' && c != '/' && c != '>' && !scan.Space(c) {
				continue
			}
		}

		tagStart := scan.FindCharacter(html, m[0], scan.AnyOf("<>"), true)
		if tagStart < 0 || html[tagStart] != '<' {
			continue
		}
		tagEnd := scan.FindTagEnd(html, tagStart)
		if tagEnd < 0 || tagEnd <= nameEnd || insideQuotes(html[tagStart:m[0]]) {
			continue
		}

		el := &conditional{
			kind:      kind,
			attr:      html[nameStart:nameEnd],
			tagEnd:    tagEnd,
			attrStart: m[0],
			attrEnd:   nameEnd,
			closing:   strings.HasPrefix(html[tagStart:], "</"),
		}

		if nameEnd < len(html) && html[nameEnd] == '=' {
			valueStart := nameEnd + 1
			valueEnd := scan.FindCharacter(html, valueStart, scan.SpaceOr(">"), false)
			if valueEnd < 0 || valueEnd > tagEnd-1 {
				valueEnd = tagEnd - 1
			}
			value := html[valueStart:valueEnd]
			if !scan.IsQuoted(value) && strings.HasSuffix(value, "/") {
				value = strings.TrimSuffix(value, "/")
				valueEnd--
			}
			el.condition = strings.TrimSpace(scan.Dequote(value))
			el.attrEnd = valueEnd
		}

		if el.kind == condIf || el.kind == condElif {
			if el.condition == "" {
				return nil, engine.AtOffset(engine.NewInvalidConditionalUseError("%s requires a condition", el.attr), tagStart)
			}
		}

		if other, ok := byStart[tagStart]; ok {
			return nil, engine.AtOffset(engine.NewInvalidConditionalUseError("%s and %s cannot be used on the same element", other.attr, el.attr), tagStart)
		}

		start, end, _ := scan.GetOuterHTML(html, tagStart)
		if start != tagStart {
			start, end = tagStart, tagEnd
		}
		el.start, el.end = start, end

		byStart[tagStart] = el
		elements = append(elements, el)
	}

	assignParents(elements)
	return elements, nil
}

// assignParents records the innermost containing conditional element of
// each element. elements must be in text order.
func assignParents(elements []*conditional) {
	var stack []*conditional
	for _, el := range elements {
		for len(stack) > 0 && !stack[len(stack)-1].contains(el) {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			el.parent = stack[len(stack)-1]
		}
		stack = append(stack, el)
	}
}

// follows reports whether el can continue or close the chain ending at c:
// c ends before el starts, and every conditional element around c also
// surrounds el. An end tag closing c's own element also qualifies.
func follows(c, el *conditional) bool {
	if c.end > el.start && !(el.closing && c.end == el.end && c.start < el.start) {
		return false
	}
	for p := c.parent; p != nil; p = p.parent {
		if !(p.start <= el.start && el.end <= p.end) {
			return false
		}
	}
	return true
}

// linkConditionals pairs elif/else with the if or elif they follow and binds
// explicit endif/fi attributes to the nearest open chain.
func linkConditionals(elements []*conditional) error {
	for i, el := range elements {
		switch el.kind {
		case condIf:
			el.chain = &chain{head: el, tail: el}

		case condElif, condElse:
			prev := findPredecessor(el, elements[:i])
			if prev == nil {
				return engine.AtOffset(engine.NewInvalidConditionalUseError("invalid use of %s attribute outside a conditional block", el.attr), el.start)
			}
			prev.next = el
			el.chain = prev.chain
			el.chain.tail = el

		default:
			ch, err := findOpenChain(el, elements[:i])
			if err != nil {
				return err
			}
			ch.closedBy = el
			el.chain = ch
		}
	}
	return nil
}

func findPredecessor(el *conditional, candidates []*conditional) *conditional {
	for i := len(candidates) - 1; i >= 0; i-- {
		c := candidates[i]
		if c.kind != condIf && c.kind != condElif {
			continue
		}
		if c.next != nil || c.chain.closedBy != nil {
			continue
		}
		if follows(c, el) {
			return c
		}
	}
	return nil
}

func findOpenChain(el *conditional, candidates []*conditional) (*chain, error) {
	var closed *chain
	for i := len(candidates) - 1; i >= 0; i-- {
		c := candidates[i]
		if !c.opens() || c.next != nil || !follows(c, el) {
			continue
		}
		if c.chain.closedBy == nil {
			return c.chain, nil
		}
		if closed == nil {
			closed = c.chain
		}
	}

	if closed != nil {
		return nil, engine.AtOffset(engine.NewInvalidConditionalUseError("%s closes a conditional block that is already closed by %s", el.attr, closed.closedBy.attr), el.start)
	}
	return nil, engine.AtOffset(engine.NewInvalidConditionalUseError("invalid use of %s attribute outside a conditional block", el.attr), el.start)
}

// removeAttribute returns the tag holding el without its conditional
// attribute.
func removeAttribute(html string, el *conditional) string {
	tag := html[el.start:el.attrStart] + html[el.attrEnd:el.tagEnd]
	tag = spaceBeforeClose.ReplaceAllString(tag, ">")
	return repeatedSpace.ReplaceAllString(tag, " ")
}

func insideQuotes(s string) bool {
	var quotes scan.QuoteTracker
	for i := 0; i < len(s); i++ {
		quotes.Update(s[i])
	}
	return quotes.Inside()
}
