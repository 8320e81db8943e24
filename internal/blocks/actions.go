package blocks

import "fmt"

// Pickup lifts a clear block off the table.
type Pickup struct{ Block Block }

func (a Pickup) Name() string { return "pickup" }
func (a Pickup) Args() []any  { return []any{a.Block} }

func (a Pickup) Apply(s *State) error {
	if p, _ := s.Pos(a.Block); p != Table {
		return fmt.Errorf("%w: %s is not on the table", ErrPrecondition, a.Block)
	}
	if !s.Clear(a.Block) || s.holding != "" {
		return fmt.Errorf("%w: cannot pick up %s", ErrPrecondition, a.Block)
	}
	s.pos[a.Block] = Hand
	s.clear[a.Block] = false
	s.holding = a.Block
	return nil
}

// Unstack lifts a clear block off the block beneath it.
type Unstack struct{ Block, From Block }

func (a Unstack) Name() string { return "unstack" }
func (a Unstack) Args() []any  { return []any{a.Block, a.From} }

func (a Unstack) Apply(s *State) error {
	if a.From == Table {
		return fmt.Errorf("%w: use pickup for %s", ErrPrecondition, a.Block)
	}
	if p, _ := s.Pos(a.Block); p != a.From {
		return fmt.Errorf("%w: %s is not on %s", ErrPrecondition, a.Block, a.From)
	}
	if !s.Clear(a.Block) || s.holding != "" {
		return fmt.Errorf("%w: cannot unstack %s", ErrPrecondition, a.Block)
	}
	s.pos[a.Block] = Hand
	s.clear[a.Block] = false
	s.holding = a.Block
	s.clear[a.From] = true
	return nil
}

// Putdown places the held block on the table.
type Putdown struct{ Block Block }

func (a Putdown) Name() string { return "putdown" }
func (a Putdown) Args() []any  { return []any{a.Block} }

func (a Putdown) Apply(s *State) error {
	if p, _ := s.Pos(a.Block); p != Hand {
		return fmt.Errorf("%w: %s is not held", ErrPrecondition, a.Block)
	}
	s.pos[a.Block] = Table
	s.clear[a.Block] = true
	s.holding = ""
	return nil
}

// Stack places the held block on a clear block.
type Stack struct{ Block, On Block }

func (a Stack) Name() string { return "stack" }
func (a Stack) Args() []any  { return []any{a.Block, a.On} }

func (a Stack) Apply(s *State) error {
	if p, _ := s.Pos(a.Block); p != Hand {
		return fmt.Errorf("%w: %s is not held", ErrPrecondition, a.Block)
	}
	if !s.Clear(a.On) {
		return fmt.Errorf("%w: %s is not clear", ErrPrecondition, a.On)
	}
	s.pos[a.Block] = a.On
	s.clear[a.Block] = true
	s.holding = ""
	s.clear[a.On] = false
	return nil
}
