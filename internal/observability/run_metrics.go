package observability

import "time"

// Run outcomes used as the "outcome" label of planner_runs_total.
const (
	OutcomePlanned = "planned"
	OutcomeFailed  = "failed"
	OutcomeError   = "error"
)

// ObserveRun records a finished planning run. A run that aborted with an
// error counts under OutcomeError and contributes no plan length.
func (c *PlannerCollector) ObserveRun(domain, outcome string, d time.Duration, nodes, planLength int) {
	if c == nil {
		return
	}
	if c.Runs != nil {
		c.Runs.WithLabelValues(domain, outcome).Inc()
	}
	if c.RunDurations != nil {
		c.RunDurations.WithLabelValues(domain).Observe(d.Seconds())
	}
	if c.NodesExpanded != nil {
		c.NodesExpanded.WithLabelValues(domain).Observe(float64(nodes))
	}
	if outcome == OutcomePlanned && c.PlanLength != nil {
		c.PlanLength.WithLabelValues(domain).Observe(float64(planLength))
	}
}

// RunStarted increments the in-flight gauge.
func (c *PlannerCollector) RunStarted() {
	if c == nil || c.RunsInFlight == nil {
		return
	}
	c.RunsInFlight.Inc()
}

// RunFinished decrements the in-flight gauge.
func (c *PlannerCollector) RunFinished() {
	if c == nil || c.RunsInFlight == nil {
		return
	}
	c.RunsInFlight.Dec()
}
