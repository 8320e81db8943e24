package problem

import (
	"fmt"
	"io"

	"github.com/signalsfoundry/tasking-planner/internal/blocks"
)

// ParseBlocks reads a blocks-world PDDL problem. Both the hyphenated
// predicates (on-table) and the IPC spelling (ontable) are accepted.
func ParseBlocks(r io.Reader, name string) (*blocks.State, *blocks.Goal, error) {
	doc, err := parseSexpr(r)
	if err != nil {
		return nil, nil, err
	}
	pname, init, goal, err := sections(doc)
	if err != nil {
		return nil, nil, err
	}
	if name == "" {
		name = pname
	}

	s := blocks.NewState(name)
	for _, fact := range init.list[1:] {
		if !fact.isList() {
			continue
		}
		w := fact.words()
		switch fact.head() {
		case "on-table", "ontable":
			if len(w) != 2 {
				return nil, nil, arity(fact)
			}
			s.SetPos(blocks.Block(w[1]), blocks.Table)
		case "on":
			if len(w) != 3 {
				return nil, nil, arity(fact)
			}
			s.SetPos(blocks.Block(w[1]), blocks.Block(w[2]))
		case "clear":
			if len(w) != 2 {
				return nil, nil, arity(fact)
			}
			s.SetClear(blocks.Block(w[1]), true)
		}
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}

	g := blocks.NewGoal(name)
	for _, atom := range goalAtoms(goal) {
		w := atom.words()
		switch atom.head() {
		case "on-table", "ontable":
			if len(w) != 2 {
				return nil, nil, arity(atom)
			}
			g.SetPos(blocks.Block(w[1]), blocks.Table)
		case "on":
			if len(w) != 3 {
				return nil, nil, arity(atom)
			}
			g.SetPos(blocks.Block(w[1]), blocks.Block(w[2]))
		}
	}
	for _, b := range g.Blocks() {
		on, _ := g.Pos(b)
		for _, x := range []blocks.Block{b, on} {
			if _, ok := s.Pos(x); !ok && x != blocks.Table {
				return nil, nil, fmt.Errorf("%w: goal mentions %q", blocks.ErrUnknownBlock, x)
			}
		}
	}
	return s, g, nil
}
