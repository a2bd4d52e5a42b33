package transpiler

import (
	"regexp"
	"strings"

	"angles/pkg/edit"
	"angles/pkg/scan"
)

var variableRe = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// replaceExpressions rewrites inline conditionals inside `{{ }}`:
//
//	{{ 'yes' if ok else 'no' }}  ->  {% if ok %}yes{% else %}no{% endif %}
//	{{ name or 'anonymous' }}    ->  {% if name %}{{ name }}{% else %}anonymous{% endif %}
func replaceExpressions(html string) string {
	var edits edit.List

	for _, m := range variableRe.FindAllStringSubmatchIndex(html, -1) {
		tokens := expressionTokens(html[m[2]:m[3]])
		if out, ok := rewriteExpression(tokens); ok {
			edits.Replace(m[0], m[1], out)
		}
	}

	return edits.Apply(html)
}

func expressionTokens(expr string) []string {
	var tokens []string
	for tok := range scan.YieldTokens(strings.TrimSpace(expr), ' ', true, true) {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func indexOf(tokens []string, word string, from int) int {
	for i := from; i < len(tokens); i++ {
		if tokens[i] == word {
			return i
		}
	}
	return -1
}

// rewriteExpression handles the ternary form first, then `or` defaults. The
// fallback branch of either may itself be an inline conditional.
func rewriteExpression(tokens []string) (string, bool) {
	if i := indexOf(tokens, "if", 1); i > 0 {
		if j := indexOf(tokens, "else", i+2); j > 0 && j < len(tokens)-1 {
			return "{% if " + strings.Join(tokens[i+1:j], " ") + " %}" +
				expressionValue(tokens[:i]) +
				"{% else %}" + expressionValue(tokens[j+1:]) + "{% endif %}", true
		}
		return "", false
	}

	if k := indexOf(tokens, "or", 1); k > 0 && k < len(tokens)-1 {
		variable := strings.Join(tokens[:k], " ")
		return "{% if " + variable + " %}{{ " + variable + " }}" +
			"{% else %}" + expressionValue(tokens[k+1:]) + "{% endif %}", true
	}

	return "", false
}

// expressionValue renders a branch: quoted literals are emitted as text,
// anything else as a variable.
func expressionValue(tokens []string) string {
	if out, ok := rewriteExpression(tokens); ok {
		return out
	}
	value := strings.Join(tokens, " ")
	if len(tokens) == 1 && scan.IsQuoted(value) {
		return scan.Dequote(value)
	}
	return "{{ " + value + " }}"
}
