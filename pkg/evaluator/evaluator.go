// Package evaluator parses function-call strings such as
// `set_name('Bob', greeting="hi")` into a name plus positional and keyword
// arguments. Argument values are parsed with the expr-lang parser; nothing is
// ever executed.
package evaluator

import (
	"regexp"
	"strings"

	"angles/pkg/engine"
	"angles/pkg/scan"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var (
	identRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	kwargRe  = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=([^=][\s\S]*)$`)
	dateLike = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

// Call is a parsed function call.
type Call struct {
	Name   string
	Args   []any
	Kwargs map[string]any
}

// Portion is one dotted segment of a chain like `Book.objects.filter(id=1)`.
type Portion struct {
	Name   string
	Args   []any
	Kwargs map[string]any
}

// Variable is a bare name in an argument, to be resolved by the host engine
// at render time.
type Variable struct {
	Name     string
	Portions []Portion
}

func (v Variable) String() string {
	parts := []string{v.Name}
	for _, p := range v.Portions {
		parts = append(parts, p.Name)
	}
	return strings.Join(parts, ".")
}

// ParseCall parses `name(args...)`. A string without parentheses is a call
// with no arguments.
func ParseCall(s string) (Call, error) {
	s = strings.TrimSpace(s)
	call := Call{Kwargs: map[string]any{}}

	open := strings.IndexByte(s, '(')
	if open < 0 {
		if !identRe.MatchString(s) {
			return Call{}, engine.NewParseError("invalid function name: %q", s)
		}
		call.Name = s
		return call, nil
	}

	call.Name = strings.TrimSpace(s[:open])
	if !identRe.MatchString(call.Name) {
		return Call{}, engine.NewParseError("invalid function name: %q", call.Name)
	}
	if closeIdx := matchingParen(s, open); closeIdx != len(s)-1 {
		return Call{}, engine.NewParseError("unbalanced parentheses in %q", s)
	}

	args := splitArgs(s[open+1 : len(s)-1])

	if len(args) == 1 && strings.HasPrefix(args[0], "*") && !strings.HasPrefix(args[0], "**") {
		v, err := parseValue(args[0][1:])
		if err != nil {
			return Call{}, err
		}
		list, ok := v.([]any)
		if !ok {
			return Call{}, engine.NewParseError("starred argument must be a list: %q", args[0])
		}
		call.Args = list
		return call, nil
	}

	for _, arg := range args {
		if m := kwargRe.FindStringSubmatch(arg); m != nil {
			v, err := parseValue(m[2])
			if err != nil {
				return Call{}, err
			}
			call.Kwargs[m[1]] = v
			continue
		}

		v, err := parseValue(arg)
		if err != nil {
			return Call{}, err
		}
		call.Args = append(call.Args, v)
	}

	return call, nil
}

// ParseChain splits a dotted chain and parses each call segment.
func ParseChain(s string) ([]Portion, error) {
	var portions []Portion

	for tok := range scan.YieldTokens(strings.TrimSpace(s), '.', true, true) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return nil, engine.NewParseError("empty segment in %q", s)
		}

		switch {
		case strings.HasSuffix(tok, "()"):
			portions = append(portions, Portion{Name: strings.TrimSuffix(tok, "()")})
		case strings.Contains(tok, "(") && strings.Contains(tok, ")"):
			call, err := ParseCall(tok)
			if err != nil {
				return nil, err
			}
			portions = append(portions, Portion{Name: call.Name, Args: call.Args, Kwargs: call.Kwargs})
		default:
			if !identRe.MatchString(tok) {
				return nil, engine.NewParseError("invalid name %q in %q", tok, s)
			}
			portions = append(portions, Portion{Name: tok})
		}
	}

	if len(portions) == 0 {
		return nil, engine.NewParseError("empty expression")
	}
	return portions, nil
}

func matchingParen(s string, open int) int {
	var quotes scan.QuoteTracker
	depth := 0
	for i := open; i < len(s); i++ {
		quotes.Update(s[i])
		if quotes.Inside() {
			continue
		}
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitArgs splits on top-level commas, respecting quotes and brackets.
func splitArgs(s string) []string {
	var (
		out    []string
		quotes scan.QuoteTracker
		depth  int
		start  int
	)

	flush := func(end int) {
		if arg := strings.TrimSpace(s[start:end]); arg != "" {
			out = append(out, arg)
		}
	}

	for i := 0; i < len(s); i++ {
		quotes.Update(s[i])
		if quotes.Inside() {
			continue
		}
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(s))

	return out
}

func parseValue(src string) (any, error) {
	tree, err := parser.Parse(strings.TrimSpace(src))
	if err != nil {
		return nil, engine.NewParseError("invalid argument %q: %v", src, err)
	}
	return nodeValue(tree.Node)
}

func nodeValue(node ast.Node) (any, error) {
	switch n := node.(type) {
	case *ast.IntegerNode:
		return n.Value, nil
	case *ast.FloatNode:
		return decimal.NewFromFloat(n.Value), nil
	case *ast.StringNode:
		return castString(n.Value), nil
	case *ast.BoolNode:
		return n.Value, nil
	case *ast.NilNode:
		return nil, nil
	case *ast.IdentifierNode:
		switch n.Value {
		case "None":
			return nil, nil
		case "True":
			return true, nil
		case "False":
			return false, nil
		}
		return Variable{Name: n.Value}, nil
	case *ast.MemberNode:
		return memberValue(n)
	case *ast.CallNode:
		return callValue(n)
	case *ast.UnaryNode:
		return unaryValue(n)
	case *ast.ArrayNode:
		list := make([]any, 0, len(n.Nodes))
		for _, item := range n.Nodes {
			v, err := nodeValue(item)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case *ast.MapNode:
		m := make(map[string]any, len(n.Pairs))
		for _, p := range n.Pairs {
			pair, ok := p.(*ast.PairNode)
			if !ok {
				return nil, engine.NewParseError("invalid map entry")
			}
			k, err := nodeValue(pair.Key)
			if err != nil {
				return nil, err
			}
			v, err := nodeValue(pair.Value)
			if err != nil {
				return nil, err
			}
			m[cast.ToString(k)] = v
		}
		return m, nil
	}
	return nil, engine.NewParseError("unsupported argument expression: %T", node)
}

func memberValue(n *ast.MemberNode) (any, error) {
	base, err := nodeValue(n.Node)
	if err != nil {
		return nil, err
	}
	v, ok := base.(Variable)
	if !ok {
		return nil, engine.NewParseError("attribute access on a literal")
	}
	prop, ok := n.Property.(*ast.StringNode)
	if !ok {
		return nil, engine.NewParseError("dynamic attribute access is not supported")
	}
	v.Portions = append(v.Portions, Portion{Name: prop.Value})
	return v, nil
}

func callValue(n *ast.CallNode) (any, error) {
	resolved, err := nodeValue(n.Callee)
	if err != nil {
		return nil, err
	}
	v, ok := resolved.(Variable)
	if !ok {
		return nil, engine.NewParseError("call on a literal")
	}
	if _, isMember := n.Callee.(*ast.MemberNode); isMember && len(v.Portions) > 0 {
		last := &v.Portions[len(v.Portions)-1]
		for _, arg := range n.Arguments {
			av, err := nodeValue(arg)
			if err != nil {
				return nil, err
			}
			last.Args = append(last.Args, av)
		}
	}
	return v, nil
}

func unaryValue(n *ast.UnaryNode) (any, error) {
	v, err := nodeValue(n.Node)
	if err != nil {
		return nil, err
	}
	if n.Operator != "-" {
		return nil, engine.NewParseError("unsupported operator %q", n.Operator)
	}
	switch x := v.(type) {
	case int:
		return -x, nil
	case decimal.Decimal:
		return x.Neg(), nil
	}
	return nil, engine.NewParseError("cannot negate %v", v)
}

// castString turns date-like strings into time.Time and UUID strings into
// uuid.UUID; anything else stays a string.
func castString(s string) any {
	if dateLike.MatchString(s) {
		if t, err := cast.ToTimeE(s); err == nil {
			return t
		}
	}
	if len(s) == 36 {
		if id, err := uuid.Parse(s); err == nil {
			return id
		}
	}
	return s
}
