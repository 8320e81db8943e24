package htn

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFailure marks a task that cannot be accomplished from the current
	// state. Any error wrapping it ends planning with a failed result rather
	// than an error.
	ErrFailure = errors.New("task failed")
	// ErrExpansionLimit is reported when a run exceeds Config.MaxExpansions.
	ErrExpansionLimit = fmt.Errorf("%w: expansion limit reached", ErrFailure)
	// ErrUnknownTask indicates a task that is neither primitive nor compound
	// for the state type being planned over.
	ErrUnknownTask = errors.New("unknown task kind")
)

// Task is a named unit of work with positional arguments. Arguments are only
// used for reporting; domains keep typed fields on their concrete tasks.
type Task interface {
	Name() string
	Args() []any
}

// Primitive is a task that mutates state directly. Apply must either fully
// apply its effects or leave the state untouched and return an error.
type Primitive[S any] interface {
	Task
	Apply(state S) error
}

// Compound is a task that reduces to an ordered list of subtasks. An empty
// list means the task is already accomplished. Decompose must not change
// any attribute value of state.
type Compound[S any] interface {
	Task
	Decompose(state S, run *Run) ([]Task, error)
}

// Cloner is implemented by state types that can be deep-copied.
type Cloner[S any] interface {
	Clone() S
}

// Format renders a task as "(name arg1 arg2 ...)".
func Format(t Task) string {
	if t == nil {
		return "()"
	}
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(t.Name())
	for _, a := range t.Args() {
		b.WriteByte(' ')
		fmt.Fprint(&b, a)
	}
	b.WriteByte(')')
	return b.String()
}

// FormatPlan renders every task in plan with Format.
func FormatPlan(plan []Task) []string {
	out := make([]string, 0, len(plan))
	for _, t := range plan {
		out = append(out, Format(t))
	}
	return out
}
