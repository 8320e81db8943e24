// Package blocks implements the blocks-world planning domain on top of the
// htn executor. It shares the repair-and-continue decomposition pattern of
// the satellite domain.
package blocks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/signalsfoundry/tasking-planner/internal/htn"
)

// Block names a block. Table and Hand are the two reserved locations.
type Block string

const (
	Table Block = "table"
	Hand  Block = "hand"
)

var (
	// ErrPrecondition indicates an action whose preconditions do not hold.
	ErrPrecondition = fmt.Errorf("%w: precondition violated", htn.ErrFailure)
	// ErrUnknownBlock indicates a goal or action naming a block the state
	// does not contain.
	ErrUnknownBlock = errors.New("unknown block")
)

// State is a blocks-world configuration.
type State struct {
	Name string

	order   []Block
	seen    map[Block]struct{}
	pos     map[Block]Block
	clear   map[Block]bool
	holding Block
}

// NewState returns an empty state with an empty hand.
func NewState(name string) *State {
	return &State{
		Name:  name,
		seen:  make(map[Block]struct{}),
		pos:   make(map[Block]Block),
		clear: make(map[Block]bool),
	}
}

func (s *State) touch(b Block) {
	if b == Table || b == Hand || b == "" {
		return
	}
	if _, ok := s.seen[b]; ok {
		return
	}
	s.seen[b] = struct{}{}
	s.order = append(s.order, b)
}

// SetPos places b on top of on (another block or Table).
func (s *State) SetPos(b, on Block) {
	s.touch(b)
	s.touch(on)
	s.pos[b] = on
}

// Pos returns what b rests on.
func (s *State) Pos(b Block) (Block, bool) {
	p, ok := s.pos[b]
	return p, ok
}

// SetClear records whether nothing rests on b.
func (s *State) SetClear(b Block, v bool) {
	s.touch(b)
	s.clear[b] = v
}

// Clear reports whether nothing rests on b; unset reads as false.
func (s *State) Clear(b Block) bool {
	return s.clear[b]
}

// Holding returns the block in the hand, or "" when the hand is empty.
func (s *State) Holding() Block {
	return s.holding
}

// Blocks returns every block in first-mention order.
func (s *State) Blocks() []Block {
	return append([]Block(nil), s.order...)
}

// Normalize marks every positioned block without a clear entry as covered.
func (s *State) Normalize() {
	for _, b := range s.order {
		if _, ok := s.clear[b]; !ok {
			s.clear[b] = false
		}
	}
}

// Validate checks that every block rests somewhere.
func (s *State) Validate() error {
	for _, b := range s.order {
		if _, ok := s.pos[b]; !ok {
			return fmt.Errorf("%w: block %q has no position", ErrUnknownBlock, b)
		}
	}
	return nil
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	out := &State{
		Name:    s.Name,
		order:   append([]Block(nil), s.order...),
		seen:    make(map[Block]struct{}, len(s.seen)),
		pos:     make(map[Block]Block, len(s.pos)),
		clear:   make(map[Block]bool, len(s.clear)),
		holding: s.holding,
	}
	for k := range s.seen {
		out.seen[k] = struct{}{}
	}
	for k, v := range s.pos {
		out.pos[k] = v
	}
	for k, v := range s.clear {
		out.clear[k] = v
	}
	return out
}

// String renders the state as one "block:support" pair per block.
func (s *State) String() string {
	parts := make([]string, 0, len(s.order))
	for _, b := range s.order {
		parts = append(parts, fmt.Sprintf("%s:%s", b, s.pos[b]))
	}
	return strings.Join(parts, " ")
}

// Goal is a partial blocks configuration: only the listed positions matter.
type Goal struct {
	Name string

	order []Block
	pos   map[Block]Block
}

// NewGoal returns an empty goal.
func NewGoal(name string) *Goal {
	return &Goal{Name: name, pos: make(map[Block]Block)}
}

// SetPos requires b to rest on on.
func (g *Goal) SetPos(b, on Block) {
	if _, ok := g.pos[b]; !ok {
		g.order = append(g.order, b)
	}
	g.pos[b] = on
}

// Pos returns the required support of b, if constrained.
func (g *Goal) Pos(b Block) (Block, bool) {
	p, ok := g.pos[b]
	return p, ok
}

// Blocks returns the constrained blocks in declaration order.
func (g *Goal) Blocks() []Block {
	return append([]Block(nil), g.order...)
}

// Len returns the number of constrained blocks.
func (g *Goal) Len() int { return len(g.order) }

// Satisfied reports whether every goal position holds in s.
func (g *Goal) Satisfied(s *State) bool {
	for _, b := range g.order {
		if p, _ := s.Pos(b); p != g.pos[b] {
			return false
		}
	}
	return true
}
