// Package runner drives planning runs end to end: it reads a problem,
// detects its domain, plans, and records the outcome.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/tasking-planner/core"
	"github.com/signalsfoundry/tasking-planner/internal/blocks"
	"github.com/signalsfoundry/tasking-planner/internal/htn"
	"github.com/signalsfoundry/tasking-planner/internal/logging"
	"github.com/signalsfoundry/tasking-planner/internal/observability"
	"github.com/signalsfoundry/tasking-planner/internal/problem"
	"github.com/signalsfoundry/tasking-planner/internal/report"
	"github.com/signalsfoundry/tasking-planner/internal/store"
	"github.com/signalsfoundry/tasking-planner/kb"
	"github.com/signalsfoundry/tasking-planner/timectrl"
)

// Metrics receives run observations. *observability.PlannerCollector
// implements it.
type Metrics interface {
	ObserveRun(domain, outcome string, d time.Duration, nodes, planLength int)
	RunStarted()
	RunFinished()
}

// Options configures a Runner. Zero values select defaults.
type Options struct {
	Planner htn.Config
	// Workers bounds concurrent runs in RunBatch.
	Workers int
	// Pattern selects batch files whose base name contains it.
	Pattern string

	Clock   timectrl.Clock
	Metrics Metrics
	Logger  logging.Logger
	Tracer  trace.Tracer
	// NewID generates run and batch IDs.
	NewID func() string
}

// Runner plans problems. It holds no per-run state and is safe for
// concurrent use.
type Runner struct {
	cfg     htn.Config
	workers int
	pattern string
	clock   timectrl.Clock
	metrics Metrics
	log     logging.Logger
	tracer  trace.Tracer
	newID   func() string
}

// New constructs a Runner.
func New(opts Options) *Runner {
	r := &Runner{
		cfg:     opts.Planner,
		workers: opts.Workers,
		pattern: opts.Pattern,
		clock:   opts.Clock,
		metrics: opts.Metrics,
		log:     opts.Logger,
		tracer:  opts.Tracer,
		newID:   opts.NewID,
	}
	if r.workers <= 0 {
		r.workers = 1
	}
	if r.pattern == "" {
		r.pattern = "problem"
	}
	if r.clock == nil {
		r.clock = timectrl.Real()
	}
	if r.log == nil {
		r.log = logging.Noop()
	}
	if r.tracer == nil {
		r.tracer = observability.Tracer()
	}
	if r.newID == nil {
		r.newID = uuid.NewString
	}
	return r
}

// Outcome is the result of one planning run. Failed is set when no plan
// exists; Err is set when the run could not be carried out at all (bad
// input, configuration errors, cancellation).
type Outcome struct {
	RunID   string
	Problem string
	Domain  problem.Domain
	Plan    []string
	Failed  bool
	// Reason explains a failed run. It wraps htn.ErrFailure.
	Reason        error
	Duration      time.Duration
	NodesExpanded int
	Err           error
}

// OK reports whether the run produced a plan.
func (o Outcome) OK() bool { return o.Err == nil && !o.Failed }

func (o Outcome) outcomeLabel() string {
	switch {
	case o.Err != nil:
		return observability.OutcomeError
	case o.Failed:
		return observability.OutcomeFailed
	default:
		return observability.OutcomePlanned
	}
}

// Row converts the outcome into a report row. Errored runs report FAILED.
func (o Outcome) Row() report.Row {
	return report.Row{
		Name:          o.Problem,
		PlanLength:    len(o.Plan),
		Failed:        !o.OK(),
		Duration:      o.Duration,
		NodesExpanded: o.NodesExpanded,
	}
}

// Record converts the outcome into a history record for batchID.
func (o Outcome) Record(batchID string) store.Run {
	run := store.Run{
		ID:            o.RunID,
		BatchID:       batchID,
		Problem:       o.Problem,
		Domain:        string(o.Domain),
		PlanLength:    len(o.Plan),
		Failed:        !o.OK(),
		Duration:      o.Duration,
		NodesExpanded: o.NodesExpanded,
	}
	switch {
	case o.Err != nil:
		run.Error = o.Err.Error()
	case o.Failed && o.Reason != nil:
		run.Error = o.Reason.Error()
	}
	return run
}

// RunFile plans the problem stored at path.
func (r *Runner) RunFile(ctx context.Context, path string) Outcome {
	return r.RunFileAs(ctx, path, "")
}

// RunFileAs plans the problem stored at path in domain. An empty domain is
// detected.
func (r *Runner) RunFileAs(ctx context.Context, path string, domain problem.Domain) Outcome {
	f, err := os.Open(path)
	if err != nil {
		o := Outcome{RunID: r.newID(), Problem: filepath.Base(path), Domain: domain, Err: err}
		r.finish(ctx, &o)
		return o
	}
	defer f.Close()
	return r.RunAs(ctx, filepath.Base(path), domain, f)
}

// Run plans the problem read from src, detecting its domain.
func (r *Runner) Run(ctx context.Context, name string, src io.Reader) Outcome {
	return r.RunAs(ctx, name, "", src)
}

// RunAs plans the problem read from src. An empty domain is detected from
// the name and content.
func (r *Runner) RunAs(ctx context.Context, name string, domain problem.Domain, src io.Reader) Outcome {
	o := Outcome{RunID: r.newID(), Problem: name, Domain: domain}

	ctx, span := r.tracer.Start(ctx, "planner.Run", trace.WithAttributes(
		attribute.String("planner.run_id", o.RunID),
		attribute.String("planner.problem", name),
	))
	defer span.End()

	r.observer().RunStarted()
	defer r.observer().RunFinished()

	log := r.log.With(logging.String("run_id", o.RunID), logging.String("problem", name))
	start := r.clock.Now()
	r.plan(ctx, &o, src, log)
	o.Duration = r.clock.Since(start)

	span.SetAttributes(
		attribute.String("planner.domain", string(o.Domain)),
		attribute.Int("planner.nodes_expanded", o.NodesExpanded),
		attribute.Int("planner.plan_length", len(o.Plan)),
		attribute.Bool("planner.failed", o.Failed),
	)
	if o.Err != nil {
		span.RecordError(o.Err)
		span.SetStatus(codes.Error, o.Err.Error())
	}

	r.finish(ctx, &o)
	return o
}

func (r *Runner) finish(ctx context.Context, o *Outcome) {
	r.observer().ObserveRun(string(o.Domain), o.outcomeLabel(), o.Duration, o.NodesExpanded, len(o.Plan))

	fields := []logging.Field{
		logging.String("run_id", o.RunID),
		logging.String("problem", o.Problem),
		logging.String("domain", string(o.Domain)),
		logging.Int("plan_length", len(o.Plan)),
		logging.Int("nodes_expanded", o.NodesExpanded),
		logging.Duration("duration", o.Duration),
	}
	switch {
	case o.Err != nil:
		r.log.Error(ctx, "planning run errored", append(fields, logging.Err(o.Err))...)
	case o.Failed:
		r.log.Info(ctx, "planning run failed", append(fields, logging.Err(o.Reason))...)
	default:
		r.log.Info(ctx, "planning run succeeded", fields...)
	}
}

func (r *Runner) plan(ctx context.Context, o *Outcome, src io.Reader, log logging.Logger) {
	content, err := io.ReadAll(src)
	if err != nil {
		o.Err = fmt.Errorf("read problem: %w", err)
		return
	}

	scenario := problem.IsScenario(o.Problem)
	switch {
	case o.Domain != "":
	case scenario:
		o.Domain = problem.DomainSatellite
	default:
		d, err := problem.DetectDomain(content)
		if err != nil {
			o.Err = err
			return
		}
		o.Domain = d
	}

	run := htn.NewRun(o.RunID, log)
	switch o.Domain {
	case problem.DomainSatellite:
		var (
			state *kb.State
			goal  *kb.Multigoal
		)
		if scenario {
			state, goal, err = r.loadScenario(ctx, content, log)
		} else {
			state, goal, err = problem.ParseSatellite(bytes.NewReader(content), o.Problem)
		}
		if err != nil {
			o.Err = err
			return
		}
		planWith(ctx, o, core.NewPlanner(r.cfg, log), state, core.Tasks(goal), run)

	case problem.DomainBlocks:
		state, goal, err := problem.ParseBlocks(bytes.NewReader(content), o.Problem)
		if err != nil {
			o.Err = err
			return
		}
		planWith(ctx, o, blocks.NewPlanner(r.cfg, log), state, blocks.Tasks(goal), run)

	default:
		o.Err = fmt.Errorf("%w: %q", problem.ErrUnknownDomain, o.Domain)
	}
}

func (r *Runner) loadScenario(ctx context.Context, content []byte, log logging.Logger) (*kb.State, *kb.Multigoal, error) {
	sc, err := problem.LoadScenario(bytes.NewReader(content))
	if err != nil {
		return nil, nil, err
	}
	state, goal, derived, err := sc.Build()
	if err != nil {
		return nil, nil, err
	}
	if derived.Derived > 0 || len(derived.Occluded) > 0 {
		log.Debug(ctx, "derived slew times",
			logging.Int("derived", derived.Derived),
			logging.Any("occluded", derived.Occluded),
		)
	}
	return state, goal, nil
}

func planWith[S htn.Cloner[S]](ctx context.Context, o *Outcome, p *htn.Planner[S], state S, tasks []htn.Task, run *htn.Run) {
	res, err := p.Plan(ctx, state, tasks, run)
	o.NodesExpanded = run.NodesExpanded()
	if err != nil {
		o.Err = err
		return
	}
	if res.Failed {
		o.Failed = true
		o.Reason = res.Reason
		return
	}
	o.Plan = htn.FormatPlan(res.Plan)
}

type noopMetrics struct{}

func (noopMetrics) ObserveRun(string, string, time.Duration, int, int) {}
func (noopMetrics) RunStarted()                                        {}
func (noopMetrics) RunFinished()                                       {}

func (r *Runner) observer() Metrics {
	if r.metrics == nil {
		return noopMetrics{}
	}
	return r.metrics
}
