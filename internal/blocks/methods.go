package blocks

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/tasking-planner/internal/htn"
	"github.com/signalsfoundry/tasking-planner/internal/logging"
)

// Status classifies a block against the goal.
type Status int

const (
	StatusDone Status = iota
	StatusInaccessible
	StatusMoveToTable
	StatusMoveToBlock
	StatusWaiting
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusInaccessible:
		return "inaccessible"
	case StatusMoveToTable:
		return "move-to-table"
	case StatusMoveToBlock:
		return "move-to-block"
	case StatusWaiting:
		return "waiting"
	default:
		return "unknown"
	}
}

// isDone reports whether b and everything beneath it already sit where the
// goal wants them.
func isDone(b Block, s *State, g *Goal) bool {
	for b != Table {
		cur, _ := s.Pos(b)
		if want, ok := g.Pos(b); ok && want != cur {
			return false
		}
		if cur == Table || cur == "" || cur == Hand {
			return cur == Table
		}
		b = cur
	}
	return true
}

// Classify returns the status of block b.
func Classify(b Block, s *State, g *Goal) Status {
	switch {
	case isDone(b, s, g):
		return StatusDone
	case !s.Clear(b):
		return StatusInaccessible
	}
	want, ok := g.Pos(b)
	switch {
	case !ok || want == Table:
		return StatusMoveToTable
	case isDone(want, s, g) && s.Clear(want):
		return StatusMoveToBlock
	default:
		return StatusWaiting
	}
}

// MoveBlocks is the top-level blocks task. Each decomposition moves one
// block and re-queues itself.
type MoveBlocks struct {
	Goal *Goal
}

func (t MoveBlocks) Name() string { return "move_blocks" }
func (t MoveBlocks) Args() []any  { return []any{t.Goal.Name} }

func (t MoveBlocks) Decompose(s *State, run *htn.Run) ([]htn.Task, error) {
	if run.FirstInvocation() {
		s.Normalize()
		if run.Log != nil {
			run.Log.Debug(context.Background(), "blocks run started", logging.Int("blocks", len(s.order)))
		}
	}

	for _, b := range s.Blocks() {
		switch Classify(b, s, t.Goal) {
		case StatusMoveToTable:
			return []htn.Task{MoveOne{Block: b, Dest: Table}, t}, nil
		case StatusMoveToBlock:
			want, _ := t.Goal.Pos(b)
			return []htn.Task{MoveOne{Block: b, Dest: want}, t}, nil
		}
	}

	// Nothing can move straight into place: unblock a waiting block.
	for _, b := range s.Blocks() {
		if Classify(b, s, t.Goal) != StatusWaiting {
			continue
		}
		if p, _ := s.Pos(b); p != Table {
			return []htn.Task{MoveOne{Block: b, Dest: Table}, t}, nil
		}
	}

	if !t.Goal.Satisfied(s) {
		return nil, fmt.Errorf("%w: no block can move towards the goal", htn.ErrFailure)
	}
	return []htn.Task{}, nil
}

// MoveOne moves Block to Dest.
type MoveOne struct{ Block, Dest Block }

func (t MoveOne) Name() string { return "move_one" }
func (t MoveOne) Args() []any  { return []any{t.Block, t.Dest} }

func (t MoveOne) Decompose(s *State, run *htn.Run) ([]htn.Task, error) {
	run.Expand(1)
	return []htn.Task{Get{Block: t.Block}, Put{Block: t.Block, Dest: t.Dest}}, nil
}

// Get lifts a clear Block into the hand.
type Get struct{ Block Block }

func (t Get) Name() string { return "get" }
func (t Get) Args() []any  { return []any{t.Block} }

func (t Get) Decompose(s *State, run *htn.Run) ([]htn.Task, error) {
	run.Expand(1)
	if !s.Clear(t.Block) {
		return nil, fmt.Errorf("%w: %s is covered", ErrPrecondition, t.Block)
	}
	p, ok := s.Pos(t.Block)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBlock, t.Block)
	}
	run.Expand(1)
	if p == Table {
		return []htn.Task{Pickup{Block: t.Block}}, nil
	}
	return []htn.Task{Unstack{Block: t.Block, From: p}}, nil
}

// Put sets the held Block down on Dest.
type Put struct{ Block, Dest Block }

func (t Put) Name() string { return "put" }
func (t Put) Args() []any  { return []any{t.Block, t.Dest} }

func (t Put) Decompose(s *State, run *htn.Run) ([]htn.Task, error) {
	run.Expand(1)
	if s.Holding() != t.Block {
		return nil, fmt.Errorf("%w: %s is not held", ErrPrecondition, t.Block)
	}
	run.Expand(1)
	if t.Dest == Table {
		return []htn.Task{Putdown{Block: t.Block}}, nil
	}
	return []htn.Task{Stack{Block: t.Block, On: t.Dest}}, nil
}

// Tasks returns the initial task list for goal.
func Tasks(g *Goal) []htn.Task {
	return []htn.Task{MoveBlocks{Goal: g}}
}

// NewPlanner returns a planner over blocks states.
func NewPlanner(cfg htn.Config, log logging.Logger) *htn.Planner[*State] {
	return htn.NewPlanner[*State](cfg, log)
}
