package automation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/go-drift/e2e/pkg/semantics"
)

// Locator strategies.
const (
	ByID              = "id"
	ByAccessibilityID = "accessibility id"
	ByName            = "name"
	ByClassName       = "class name"
	ByLinkText        = "link text"
	ByPartialLinkText = "partial link text"
	ByPredicateString = "predicate string"
	ByClassChain      = "class chain"
	ByXPath           = "xpath"
)

// findElements returns the descendants of root that match the locator, in
// document order.
func findElements(tree *semantics.Tree, root *semantics.Node, using, value string) ([]*semantics.Node, error) {
	if using == ByClassChain {
		chain, err := parseClassChain(value)
		if err != nil {
			return nil, err
		}
		return chain.evaluate(tree, root), nil
	}
	match, err := compileLocator(using, value)
	if err != nil {
		return nil, err
	}
	return tree.Descendants(root, func(n *semantics.Node) bool { return match(tree, n) }), nil
}

func compileLocator(using, value string) (semantics.Predicate, error) {
	switch using {
	case ByID, ByAccessibilityID, ByName:
		return func(_ *semantics.Tree, n *semantics.Node) bool {
			return n.Identifier == value || n.Name() == value
		}, nil
	case ByClassName:
		want := semantics.ParseElementType(value)
		return func(_ *semantics.Tree, n *semantics.Node) bool { return n.Type == want }, nil
	case ByLinkText, ByPartialLinkText:
		attr, text, ok := strings.Cut(value, "=")
		if !ok {
			return nil, ErrInvalidSelector.with("%s must look like 'attribute=value', got %q", using, value)
		}
		partial := using == ByPartialLinkText
		return func(t *semantics.Tree, n *semantics.Node) bool {
			v, ok := t.Attribute(n, attr)
			if !ok || v == nil {
				return false
			}
			s := fmt.Sprint(v)
			if partial {
				return strings.Contains(s, text)
			}
			return s == text
		}, nil
	case ByPredicateString:
		pred, err := semantics.ParsePredicate(value)
		if err != nil {
			return nil, ErrInvalidSelector.with("%v", err)
		}
		return pred, nil
	case ByXPath:
		return nil, ErrInvalidSelector.with("xpath is not supported; use a class chain or predicate string")
	}
	return nil, ErrInvalidSelector.with("locator strategy %q is not supported", using)
}

// suggest returns the element name closest to value, or "" when nothing is
// close enough to be a likely typo.
func suggest(tree *semantics.Tree, value string) string {
	if value == "" {
		return ""
	}
	limit := max(2, len(value)/3)
	best, bestDist := "", limit+1
	seen := make(map[string]bool)
	tree.Walk(func(n *semantics.Node, _ int) bool {
		for _, name := range []string{n.Identifier, n.Label} {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			if d := levenshtein.ComputeDistance(value, name); d < bestDist {
				best, bestDist = name, d
			}
		}
		return true
	})
	return best
}

// notFound builds the no-such-element error for a failed lookup.
func notFound(tree *semantics.Tree, using, value string) *Error {
	msg := fmt.Sprintf("Unable to find an element using '%s', value '%s'", using, value)
	switch using {
	case ByID, ByAccessibilityID, ByName:
		if s := suggest(tree, value); s != "" {
			msg += fmt.Sprintf(". Did you mean '%s'?", s)
		}
	}
	return ErrNoSuchElement.with("%s", msg)
}

// classChain is a parsed class chain query such as
// **/XCUIElementTypeCell[`name BEGINSWITH "Row"`][2]/StaticText.
type classChain []chainStep

type chainStep struct {
	descendant bool
	anyType    bool
	typ        semantics.ElementType
	predicates []semantics.Predicate
	// index is 1-based; negative counts from the end; zero means all.
	index int
}

func parseClassChain(expr string) (classChain, error) {
	parts, err := splitChain(expr)
	if err != nil {
		return nil, err
	}
	var chain classChain
	descendant := false
	for _, part := range parts {
		if part == "**" {
			descendant = true
			continue
		}
		step, err := parseChainStep(part)
		if err != nil {
			return nil, err
		}
		step.descendant = descendant
		descendant = false
		chain = append(chain, step)
	}
	if len(chain) == 0 || descendant {
		return nil, ErrInvalidSelector.with("class chain %q must end with an element type", expr)
	}
	return chain, nil
}

// splitChain splits on '/' outside of brackets and backticks.
func splitChain(expr string) ([]string, error) {
	var parts []string
	depth, inTick, start := 0, false, 0
	for i := 0; i < len(expr); i++ {
		switch c := expr[i]; {
		case c == '`':
			inTick = !inTick
		case inTick:
		case c == '[':
			depth++
		case c == ']':
			depth--
		case c == '/' && depth == 0:
			parts = append(parts, expr[start:i])
			start = i + 1
		}
	}
	if inTick || depth != 0 {
		return nil, ErrInvalidSelector.with("unbalanced class chain %q", expr)
	}
	parts = append(parts, expr[start:])
	for _, p := range parts {
		if p == "" {
			return nil, ErrInvalidSelector.with("empty step in class chain %q", expr)
		}
	}
	return parts, nil
}

func parseChainStep(s string) (chainStep, error) {
	var step chainStep
	name := s
	if i := strings.IndexByte(s, '['); i >= 0 {
		name = s[:i]
		rest := s[i:]
		for rest != "" {
			if rest[0] != '[' {
				return step, ErrInvalidSelector.with("unexpected %q in class chain step %q", rest, s)
			}
			end := closingBracket(rest)
			if end < 0 {
				return step, ErrInvalidSelector.with("unterminated filter in %q", s)
			}
			inner := rest[1:end]
			rest = rest[end+1:]
			if strings.HasPrefix(inner, "`") && strings.HasSuffix(inner, "`") && len(inner) >= 2 {
				pred, err := semantics.ParsePredicate(inner[1 : len(inner)-1])
				if err != nil {
					return step, ErrInvalidSelector.with("%v", err)
				}
				step.predicates = append(step.predicates, pred)
				continue
			}
			idx, err := strconv.Atoi(inner)
			if err != nil || idx == 0 {
				return step, ErrInvalidSelector.with("invalid index %q in class chain", inner)
			}
			step.index = idx
		}
	}
	if name == "*" {
		step.anyType = true
	} else {
		step.typ = semantics.ParseElementType(name)
	}
	return step, nil
}

func closingBracket(s string) int {
	inTick := false
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '`':
			inTick = !inTick
		case ']':
			if !inTick {
				return i
			}
		}
	}
	return -1
}

func (c classChain) evaluate(tree *semantics.Tree, root *semantics.Node) []*semantics.Node {
	context := []*semantics.Node{root}
	for _, step := range c {
		seen := make(map[*semantics.Node]bool)
		var next []*semantics.Node
		for _, ctx := range context {
			for _, n := range step.apply(tree, ctx) {
				if !seen[n] {
					seen[n] = true
					next = append(next, n)
				}
			}
		}
		context = next
		if len(context) == 0 {
			return nil
		}
	}
	return context
}

func (s chainStep) apply(tree *semantics.Tree, ctx *semantics.Node) []*semantics.Node {
	var candidates []*semantics.Node
	match := func(n *semantics.Node) bool {
		if !s.anyType && n.Type != s.typ {
			return false
		}
		for _, p := range s.predicates {
			if !p(tree, n) {
				return false
			}
		}
		return true
	}
	if s.descendant {
		candidates = tree.Descendants(ctx, match)
	} else {
		for _, child := range ctx.Children {
			if match(child) {
				candidates = append(candidates, child)
			}
		}
	}
	switch {
	case s.index > 0:
		if s.index > len(candidates) {
			return nil
		}
		return candidates[s.index-1 : s.index]
	case s.index < 0:
		i := len(candidates) + s.index
		if i < 0 {
			return nil
		}
		return candidates[i : i+1]
	}
	return candidates
}
