package htn

import "github.com/signalsfoundry/tasking-planner/internal/logging"

// Run carries the mutable bookkeeping of a single planning run. Each run
// gets its own instance; nothing here is shared between runs, so concurrent
// runs in one process never observe each other's counters.
type Run struct {
	ID  string
	Log logging.Logger

	nodesExpanded int
	initialized   bool
}

// NewRun returns a fresh run context.
func NewRun(id string, log logging.Logger) *Run {
	if log == nil {
		log = logging.Noop()
	}
	return &Run{ID: id, Log: log}
}

// Expand adds n to the run's node-expansion counter.
func (r *Run) Expand(n int) {
	if r == nil {
		return
	}
	r.nodesExpanded += n
}

// NodesExpanded returns the number of nodes expanded so far.
func (r *Run) NodesExpanded() int {
	if r == nil {
		return 0
	}
	return r.nodesExpanded
}

// FirstInvocation returns true exactly once per run: on the first call.
// Domains use it to seed lazily-initialized state attributes.
func (r *Run) FirstInvocation() bool {
	if r == nil || r.initialized {
		return false
	}
	r.initialized = true
	return true
}
