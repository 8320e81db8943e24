package htn

import (
	"context"
	"errors"
	"fmt"

	"github.com/signalsfoundry/tasking-planner/internal/logging"
)

// DefaultMaxExpansions bounds a run when Config.MaxExpansions is zero.
const DefaultMaxExpansions = 100000

// Config tunes the planner.
type Config struct {
	// MaxExpansions caps the number of agenda steps per run. Zero selects
	// DefaultMaxExpansions; a negative value disables the cap.
	MaxExpansions int
}

// Result is the outcome of a planning run. When Failed is set Plan is nil:
// plans are all-or-nothing.
type Result[S any] struct {
	Plan          []Task
	Failed        bool
	Reason        error
	NodesExpanded int
	Steps         int
	// Final is the state after applying Plan, or the state at the point of
	// failure.
	Final S
}

// Planner expands a task list into a sequence of primitive tasks by
// repeatedly decomposing the leftmost pending task. It never backtracks:
// the first failure ends the run.
type Planner[S Cloner[S]] struct {
	cfg Config
	log logging.Logger
}

// NewPlanner returns a planner for states of type S.
func NewPlanner[S Cloner[S]](cfg Config, log logging.Logger) *Planner[S] {
	if log == nil {
		log = logging.Noop()
	}
	if cfg.MaxExpansions == 0 {
		cfg.MaxExpansions = DefaultMaxExpansions
	}
	return &Planner[S]{cfg: cfg, log: log}
}

// Plan finds a plan for tasks starting from initial. The caller's state is
// never mutated; planning works on a clone.
//
// A task failing with an error that wraps ErrFailure produces a Result with
// Failed set and a nil error. Any other error (configuration problems,
// unknown task kinds, context cancellation) is returned as-is.
func (p *Planner[S]) Plan(ctx context.Context, initial S, tasks []Task, run *Run) (*Result[S], error) {
	if run == nil {
		run = NewRun("", p.log)
	}
	state := initial.Clone()

	// agenda is a stack: the next task to work on is at the end.
	agenda := make([]Task, 0, len(tasks))
	for i := len(tasks) - 1; i >= 0; i-- {
		agenda = append(agenda, tasks[i])
	}

	var plan []Task
	steps := 0
	fail := func(reason error) *Result[S] {
		p.log.Debug(ctx, "planning failed",
			logging.String("run_id", run.ID),
			logging.Int("steps", steps),
			logging.Err(reason),
		)
		return &Result[S]{
			Failed:        true,
			Reason:        reason,
			NodesExpanded: run.NodesExpanded(),
			Steps:         steps,
			Final:         state,
		}
	}

	for len(agenda) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.cfg.MaxExpansions > 0 && steps >= p.cfg.MaxExpansions {
			return fail(fmt.Errorf("%w after %d steps", ErrExpansionLimit, steps)), nil
		}

		task := agenda[len(agenda)-1]
		agenda = agenda[:len(agenda)-1]
		steps++

		switch t := task.(type) {
		case Primitive[S]:
			if err := t.Apply(state); err != nil {
				if errors.Is(err, ErrFailure) {
					return fail(fmt.Errorf("%s: %w", Format(t), err)), nil
				}
				return nil, fmt.Errorf("apply %s: %w", Format(t), err)
			}
			p.log.Debug(ctx, "applied action", logging.String("run_id", run.ID), logging.String("action", Format(t)))
			plan = append(plan, t)

		case Compound[S]:
			subtasks, err := t.Decompose(state, run)
			if err != nil {
				if errors.Is(err, ErrFailure) {
					return fail(fmt.Errorf("%s: %w", Format(t), err)), nil
				}
				return nil, fmt.Errorf("decompose %s: %w", Format(t), err)
			}
			p.log.Debug(ctx, "decomposed task",
				logging.String("run_id", run.ID),
				logging.String("task", Format(t)),
				logging.Int("subtasks", len(subtasks)),
			)
			for i := len(subtasks) - 1; i >= 0; i-- {
				agenda = append(agenda, subtasks[i])
			}

		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownTask, Format(task))
		}
	}

	return &Result[S]{
		Plan:          plan,
		NodesExpanded: run.NodesExpanded(),
		Steps:         steps,
		Final:         state,
	}, nil
}
