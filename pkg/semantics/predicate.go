package semantics

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/gobwas/glob"
)

// Predicate matches nodes of a tree.
type Predicate func(t *Tree, n *Node) bool

// ParsePredicate compiles an NSPredicate-style expression such as
//
//	type == 'XCUIElementTypeButton' AND label BEGINSWITH[c] 'row'
//
// Supported operators are ==, !=, CONTAINS, BEGINSWITH, ENDSWITH, LIKE (with
// * and ? wildcards) and MATCHES (regular expression), combined with AND, OR,
// NOT and parentheses. The [c] modifier makes a comparison case-insensitive.
func ParsePredicate(expr string) (Predicate, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &predParser{toks: toks}
	pred, err := p.or()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("predicate: unexpected %q", p.peek().text)
	}
	return pred, nil
}

type tokKind int

const (
	tokIdent tokKind = iota
	tokString
	tokOp
	tokLParen
	tokRParen
	tokModifier
)

type token struct {
	kind tokKind
	text string
}

func tokenize(s string) ([]token, error) {
	var toks []token
	rs := []rune(s)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case r == '[':
			end := i + 1
			for end < len(rs) && rs[end] != ']' {
				end++
			}
			if end == len(rs) {
				return nil, fmt.Errorf("predicate: unterminated modifier")
			}
			toks = append(toks, token{tokModifier, string(rs[i+1 : end])})
			i = end + 1
		case r == '\'' || r == '"':
			var sb strings.Builder
			j := i + 1
			for ; j < len(rs) && rs[j] != r; j++ {
				if rs[j] == '\\' && j+1 < len(rs) {
					j++
				}
				sb.WriteRune(rs[j])
			}
			if j == len(rs) {
				return nil, fmt.Errorf("predicate: unterminated string")
			}
			toks = append(toks, token{tokString, sb.String()})
			i = j + 1
		case strings.ContainsRune("=!<>&|", r):
			j := i + 1
			for j < len(rs) && strings.ContainsRune("=!<>&|", rs[j]) {
				j++
			}
			toks = append(toks, token{tokOp, string(rs[i:j])})
			i = j
		default:
			j := i
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_' || rs[j] == '.' || rs[j] == '-') {
				j++
			}
			if j == i {
				return nil, fmt.Errorf("predicate: unexpected character %q", r)
			}
			toks = append(toks, token{tokIdent, string(rs[i:j])})
			i = j
		}
	}
	return toks, nil
}

type predParser struct {
	toks []token
	pos  int
}

func (p *predParser) done() bool { return p.pos >= len(p.toks) }

func (p *predParser) peek() token {
	if p.done() {
		return token{kind: -1}
	}
	return p.toks[p.pos]
}

func (p *predParser) keyword(words ...string) bool {
	t := p.peek()
	if t.kind != tokIdent && t.kind != tokOp {
		return false
	}
	for _, w := range words {
		if strings.EqualFold(t.text, w) {
			p.pos++
			return true
		}
	}
	return false
}

func (p *predParser) or() (Predicate, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR", "||") {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		l := left
		left = func(t *Tree, n *Node) bool { return l(t, n) || right(t, n) }
	}
	return left, nil
}

func (p *predParser) and() (Predicate, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.keyword("AND", "&&") {
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		l := left
		left = func(t *Tree, n *Node) bool { return l(t, n) && right(t, n) }
	}
	return left, nil
}

func (p *predParser) unary() (Predicate, error) {
	if p.keyword("NOT", "!") {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return func(t *Tree, n *Node) bool { return !inner(t, n) }, nil
	}
	if p.peek().kind == tokLParen {
		p.pos++
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, fmt.Errorf("predicate: missing )")
		}
		p.pos++
		return inner, nil
	}
	return p.comparison()
}

func (p *predParser) comparison() (Predicate, error) {
	attr := p.peek()
	if attr.kind != tokIdent {
		return nil, fmt.Errorf("predicate: expected attribute, got %q", attr.text)
	}
	p.pos++

	opTok := p.peek()
	if opTok.kind != tokOp && opTok.kind != tokIdent {
		return nil, fmt.Errorf("predicate: expected operator after %q", attr.text)
	}
	p.pos++
	op := strings.ToUpper(opTok.text)

	fold := false
	if p.peek().kind == tokModifier {
		fold = strings.ContainsRune(strings.ToLower(p.peek().text), 'c')
		p.pos++
	}

	lit := p.peek()
	if lit.kind != tokString && lit.kind != tokIdent {
		return nil, fmt.Errorf("predicate: expected value after %s", op)
	}
	p.pos++

	match, err := stringMatcher(op, lit.text, fold)
	if err != nil {
		return nil, err
	}
	name := attr.text
	want := lit.text
	return func(t *Tree, n *Node) bool {
		v, ok := t.Attribute(n, name)
		if !ok {
			return false
		}
		if b, isBool := v.(bool); isBool {
			wb, valid := parseBool(want)
			if !valid {
				return false
			}
			switch op {
			case "==", "=":
				return b == wb
			case "!=", "<>":
				return b != wb
			}
			return false
		}
		s, _ := v.(string)
		return match(s)
	}, nil
}

func stringMatcher(op, want string, fold bool) (func(string) bool, error) {
	norm := func(s string) string { return s }
	if fold {
		norm = strings.ToLower
	}
	w := norm(want)
	switch op {
	case "==", "=":
		return func(s string) bool { return norm(s) == w }, nil
	case "!=", "<>":
		return func(s string) bool { return norm(s) != w }, nil
	case "CONTAINS":
		return func(s string) bool { return strings.Contains(norm(s), w) }, nil
	case "BEGINSWITH":
		return func(s string) bool { return strings.HasPrefix(norm(s), w) }, nil
	case "ENDSWITH":
		return func(s string) bool { return strings.HasSuffix(norm(s), w) }, nil
	case "LIKE":
		g, err := glob.Compile(w)
		if err != nil {
			return nil, fmt.Errorf("predicate: bad LIKE pattern %q: %w", want, err)
		}
		return func(s string) bool { return g.Match(norm(s)) }, nil
	case "MATCHES":
		pattern := "^(?:" + want + ")$"
		if fold {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("predicate: bad MATCHES pattern %q: %w", want, err)
		}
		return re.MatchString, nil
	}
	return nil, fmt.Errorf("predicate: unsupported operator %q", op)
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	}
	return false, false
}

// GlobMatcher returns a predicate that matches nodes whose name, label or
// value matches a glob pattern.
func GlobMatcher(pattern string) (Predicate, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	return func(_ *Tree, n *Node) bool {
		return g.Match(n.Name()) || g.Match(n.Label) || (n.Value != "" && g.Match(n.Value))
	}, nil
}
