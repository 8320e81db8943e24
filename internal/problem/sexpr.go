// Package problem loads planning problems: PDDL problem files for the
// satellite and blocks domains, and structured YAML satellite scenarios.
package problem

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrSyntax indicates a problem file that cannot be read.
	ErrSyntax = errors.New("problem syntax error")
	// ErrMissingSection indicates a problem without an init or goal section.
	ErrMissingSection = errors.New("problem section missing")
	// ErrUnknownDomain indicates a problem whose domain cannot be determined.
	ErrUnknownDomain = errors.New("unknown problem domain")
)

// node is one element of a parsed s-expression: either an atom or a list.
type node struct {
	atom string
	list []*node
}

func (n *node) isList() bool { return n.atom == "" }

// head returns the first atom of a list, lowercased, or "".
func (n *node) head() string {
	if !n.isList() || len(n.list) == 0 || n.list[0].isList() {
		return ""
	}
	return n.list[0].atom
}

// words returns the atoms of a flat list.
func (n *node) words() []string {
	out := make([]string, 0, len(n.list))
	for _, c := range n.list {
		if !c.isList() {
			out = append(out, c.atom)
		}
	}
	return out
}

// find returns the first list directly below n whose head is name.
func (n *node) find(name string) *node {
	for _, c := range n.list {
		if c.head() == name {
			return c
		}
	}
	return nil
}

// parseSexpr reads a whole PDDL document. Atoms are lowercased; PDDL is
// case-insensitive. ";" starts a comment running to end of line.
func parseSexpr(r io.Reader) (*node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read problem: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		lines = append(lines, line)
	}
	text := strings.Join(lines, "\n")
	text = strings.NewReplacer("(", " ( ", ")", " ) ").Replace(text)

	root := &node{}
	stack := []*node{root}
	for _, tok := range strings.Fields(text) {
		top := stack[len(stack)-1]
		switch tok {
		case "(":
			n := &node{list: []*node{}}
			top.list = append(top.list, n)
			stack = append(stack, n)
		case ")":
			if len(stack) == 1 {
				return nil, fmt.Errorf("%w: unbalanced ')'", ErrSyntax)
			}
			stack = stack[:len(stack)-1]
		default:
			top.list = append(top.list, &node{atom: strings.ToLower(tok)})
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("%w: %d unclosed '('", ErrSyntax, len(stack)-1)
	}

	if def := root.find("define"); def != nil {
		return def, nil
	}
	return root, nil
}

// sections returns the init and goal lists and the problem name.
func sections(doc *node) (name string, init, goal *node, err error) {
	if p := doc.find("problem"); p != nil {
		if w := p.words(); len(w) > 1 {
			name = w[1]
		}
	}
	init = doc.find(":init")
	if init == nil {
		return "", nil, nil, fmt.Errorf("%w: :init", ErrMissingSection)
	}
	goal = doc.find(":goal")
	if goal == nil {
		return "", nil, nil, fmt.Errorf("%w: :goal", ErrMissingSection)
	}
	return name, init, goal, nil
}

// goalAtoms flattens a goal expression's conjunctions into its atoms.
func goalAtoms(goal *node) []*node {
	var out []*node
	var walk func(n *node)
	walk = func(n *node) {
		switch n.head() {
		case ":goal", "and":
			for _, c := range n.list[1:] {
				if c.isList() {
					walk(c)
				}
			}
		default:
			out = append(out, n)
		}
	}
	walk(goal)
	return out
}

// render prints a node back as PDDL text for error messages.
func (n *node) render() string {
	if !n.isList() {
		return n.atom
	}
	parts := make([]string, 0, len(n.list))
	for _, c := range n.list {
		parts = append(parts, c.render())
	}
	return "(" + strings.Join(parts, " ") + ")"
}
