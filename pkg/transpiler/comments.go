package transpiler

import (
	"fmt"
	"regexp"
	"strings"
)

const commentPlaceholder = "__ANGLES_COMMENT_%d__"

func (t *Transpiler) compileComments(tagPrefix string) error {
	var err error

	customOpen := `<` + tagPrefix + `(?:comment|#)(?:>|\s[^>]*>)`
	customEnd := `</` + tagPrefix + `(?:comment|#)>`

	t.commentRe, err = regexp.Compile(`(?is)` +
		`(?P<block_start>\{%-?\s*comment(?:\s[^%]*)?-?%\})` +
		`|(?P<block_end>\{%-?\s*endcomment\s*-?%\})` +
		`|(?P<custom_start>` + customOpen + `)` +
		`|(?P<custom_end>` + customEnd + `)` +
		`|(?P<single>\{#.*?#\})`)
	if err != nil {
		return err
	}

	if t.commentOpenRe, err = regexp.Compile(`(?is)^` + customOpen); err != nil {
		return err
	}
	t.commentEndRe, err = regexp.Compile(`(?is)` + customEnd + `$`)
	return err
}

// placeholder stands in for comment i. It keeps the comment's line breaks so
// diagnostics raised on the masked text report source lines.
func placeholder(i int, comment string) string {
	return fmt.Sprintf(commentPlaceholder, i) + strings.Repeat("\n", strings.Count(comment, "\n"))
}

// maskComments swaps every comment for a placeholder so no pass rewrites
// markup that is commented out. Custom comments nest; an opener that is never
// closed is left in place.
func (t *Transpiler) maskComments(html string) (string, []string) {
	var (
		comments []string
		out      strings.Builder
		last     int
		open     = -1
		depth    int
		inBlock  bool
	)

	names := t.commentRe.SubexpNames()
	kind := func(m []int) string {
		for i := 1; i < len(names); i++ {
			if names[i] != "" && m[2*i] >= 0 {
				return names[i]
			}
		}
		return ""
	}

	mask := func(start, end int) {
		out.WriteString(html[last:start])
		comments = append(comments, html[start:end])
		out.WriteString(placeholder(len(comments)-1, html[start:end]))
		last = end
	}

	for _, m := range t.commentRe.FindAllStringSubmatchIndex(html, -1) {
		start, end := m[0], m[1]

		switch k := kind(m); {
		case inBlock:
			if k == "block_end" {
				inBlock = false
				mask(open, end)
				open = -1
			}
		case depth > 0:
			switch k {
			case "custom_start":
				depth++
			case "custom_end":
				depth--
				if depth == 0 {
					mask(open, end)
					open = -1
				}
			}
		case k == "single", k == "block_end", k == "custom_end":
			// Orphaned end tags are masked too so later passes ignore them.
			mask(start, end)
		case k == "block_start":
			open = start
			inBlock = true
		case k == "custom_start":
			open = start
			depth = 1
		}
	}

	out.WriteString(html[last:])
	return out.String(), comments
}

// unmaskComments restores the masked comments. A complete custom comment
// becomes a Django comment block.
func (t *Transpiler) unmaskComments(html string, comments []string) string {
	for i, original := range comments {
		comment := original
		if loc := t.commentOpenRe.FindStringIndex(comment); loc != nil {
			if end := t.commentEndRe.FindStringIndex(comment); end != nil && end[0] >= loc[1] {
				comment = "{% comment %}" + comment[loc[1]:end[0]] + "{% endcomment %}"
			}
		}
		html = strings.Replace(html, placeholder(i, original), comment, 1)
	}
	return html
}
