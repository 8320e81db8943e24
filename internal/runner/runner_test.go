package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/signalsfoundry/tasking-planner/core"
	"github.com/signalsfoundry/tasking-planner/internal/observability"
	"github.com/signalsfoundry/tasking-planner/internal/problem"
	"github.com/signalsfoundry/tasking-planner/timectrl"
)

const testdata = "../problem/testdata"

type recordedRun struct {
	domain, outcome string
	nodes, length   int
}

type fakeMetrics struct {
	mu       sync.Mutex
	runs     []recordedRun
	inFlight int
	peak     int
}

func (m *fakeMetrics) ObserveRun(domain, outcome string, _ time.Duration, nodes, length int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, recordedRun{domain, outcome, nodes, length})
}

func (m *fakeMetrics) RunStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight++
	if m.inFlight > m.peak {
		m.peak = m.inFlight
	}
}

func (m *fakeMetrics) RunFinished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
}

func sequentialIDs() func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestRunner(t *testing.T, opts Options) (*Runner, *fakeMetrics) {
	t.Helper()
	m := &fakeMetrics{}
	opts.Metrics = m
	if opts.NewID == nil {
		opts.NewID = sequentialIDs()
	}
	if opts.Clock == nil {
		opts.Clock = timectrl.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 250*time.Millisecond)
	}
	return New(opts), m
}

func TestRunFileSatellite(t *testing.T) {
	r, m := newTestRunner(t, Options{})

	o := r.RunFile(context.Background(), filepath.Join(testdata, "satellite-problem01.pddl"))
	if o.Err != nil {
		t.Fatalf("RunFile error: %v", o.Err)
	}
	want := []string{
		"(switchOn instrument0 satellite0)",
		"(turnTo satellite0 star1 planet3)",
		"(calibrate satellite0 instrument0 star1)",
		"(turnTo satellite0 planet3 star1)",
		"(take_image satellite0 planet3 instrument0 image1)",
	}
	if diff := cmp.Diff(want, o.Plan); diff != "" {
		t.Fatalf("plan mismatch (-want +got):\n%s", diff)
	}
	if o.NodesExpanded != 11 {
		t.Fatalf("NodesExpanded = %d, want 11", o.NodesExpanded)
	}
	if o.Duration != 250*time.Millisecond {
		t.Fatalf("Duration = %v, want 250ms", o.Duration)
	}
	if o.RunID != "id-1" || o.Problem != "satellite-problem01.pddl" || o.Domain != problem.DomainSatellite {
		t.Fatalf("outcome identity = %q %q %q", o.RunID, o.Problem, o.Domain)
	}
	if !o.OK() {
		t.Fatalf("OK() = false, want true")
	}

	want0 := recordedRun{"satellite", observability.OutcomePlanned, 11, 5}
	if len(m.runs) != 1 || m.runs[0] != want0 {
		t.Fatalf("metrics = %+v, want [%+v]", m.runs, want0)
	}
	if m.inFlight != 0 {
		t.Fatalf("in-flight after run = %d, want 0", m.inFlight)
	}
}

func TestRunFileInfeasible(t *testing.T) {
	r, m := newTestRunner(t, Options{})

	o := r.RunFile(context.Background(), filepath.Join(testdata, "satellite-problem03-infeasible.pddl"))
	if o.Err != nil {
		t.Fatalf("RunFile error: %v", o.Err)
	}
	if !o.Failed || o.Plan != nil {
		t.Fatalf("Failed = %v, Plan = %v; want failed with no plan", o.Failed, o.Plan)
	}
	if !errors.Is(o.Reason, core.ErrInfeasible) {
		t.Fatalf("Reason = %v, want ErrInfeasible", o.Reason)
	}
	if !o.Row().Failed {
		t.Fatalf("Row().Failed = false, want true")
	}
	rec := o.Record("batch")
	if !rec.Failed || rec.Error != o.Reason.Error() || rec.BatchID != "batch" {
		t.Fatalf("Record() = %+v", rec)
	}
	if len(m.runs) != 1 || m.runs[0].outcome != observability.OutcomeFailed {
		t.Fatalf("metrics = %+v, want one failed run", m.runs)
	}
}

func TestRunScenarioDerivesSlews(t *testing.T) {
	r, _ := newTestRunner(t, Options{})

	o := r.RunFile(context.Background(), filepath.Join(testdata, "scenario.yaml"))
	if o.Err != nil {
		t.Fatalf("RunFile error: %v", o.Err)
	}
	want := []string{
		"(switchOn inst0 sat0)",
		"(turnTo sat0 star1 star0)",
		"(calibrate sat0 inst0 star1)",
		"(turnTo sat0 planet3 star1)",
		"(take_image sat0 planet3 inst0 m1)",
		"(turnTo sat0 star0 planet3)",
	}
	if diff := cmp.Diff(want, o.Plan); diff != "" {
		t.Fatalf("plan mismatch (-want +got):\n%s", diff)
	}
	if o.NodesExpanded != 13 {
		t.Fatalf("NodesExpanded = %d, want 13", o.NodesExpanded)
	}
	if o.Domain != problem.DomainSatellite {
		t.Fatalf("Domain = %q, want satellite", o.Domain)
	}
}

func TestRunBlocks(t *testing.T) {
	r, _ := newTestRunner(t, Options{})

	o := r.RunFile(context.Background(), filepath.Join(testdata, "blocks-problem01.pddl"))
	if o.Err != nil {
		t.Fatalf("RunFile error: %v", o.Err)
	}
	if o.Domain != problem.DomainBlocks {
		t.Fatalf("Domain = %q, want blocks", o.Domain)
	}
	if len(o.Plan) != 6 || o.NodesExpanded != 15 {
		t.Fatalf("plan length %d nodes %d, want 6 and 15", len(o.Plan), o.NodesExpanded)
	}
}

func TestRunAsExplicitDomain(t *testing.T) {
	r, _ := newTestRunner(t, Options{})

	content, err := os.ReadFile(filepath.Join(testdata, "blocks-problem02.pddl"))
	if err != nil {
		t.Fatalf("read testdata: %v", err)
	}
	o := r.RunAs(context.Background(), "bw", problem.DomainBlocks, strings.NewReader(string(content)))
	if o.Err != nil || o.Domain != problem.DomainBlocks || len(o.Plan) != 6 {
		t.Fatalf("RunAs = %+v", o)
	}
}

func TestRunUnknownDomain(t *testing.T) {
	r, m := newTestRunner(t, Options{})

	o := r.Run(context.Background(), "mystery", strings.NewReader("(define (problem x) (:init (foo a)) (:goal (and (foo a))))"))
	if !errors.Is(o.Err, problem.ErrUnknownDomain) {
		t.Fatalf("Err = %v, want ErrUnknownDomain", o.Err)
	}
	if !o.Row().Failed {
		t.Fatalf("Row().Failed = false, want true for errored run")
	}
	if rec := o.Record(""); rec.Error == "" {
		t.Fatalf("Record().Error empty for errored run")
	}
	if len(m.runs) != 1 || m.runs[0].outcome != observability.OutcomeError {
		t.Fatalf("metrics = %+v, want one errored run", m.runs)
	}
}

func TestRunMissingSlewIsConfigurationError(t *testing.T) {
	r, _ := newTestRunner(t, Options{})

	src := `(define (problem noslew) (:domain satellite)
(:init
	(supports instrument0 image1)
	(calibration_target instrument0 star1)
	(on_board instrument0 satellite0)
	(power_avail satellite0)
	(pointing satellite0 planet3)
	(= (data_capacity satellite0) 1000)
	(= (fuel satellite0) 100)
	(= (data planet3 image1) 10))
(:goal (and (have_image planet3 image1))))`
	o := r.Run(context.Background(), "noslew", strings.NewReader(src))
	if !errors.Is(o.Err, core.ErrMissingSlewTime) {
		t.Fatalf("Err = %v, want ErrMissingSlewTime", o.Err)
	}
	if o.Failed {
		t.Fatalf("Failed = true; configuration errors are reported through Err")
	}
}

func TestRunFileMissing(t *testing.T) {
	r, m := newTestRunner(t, Options{})

	o := r.RunFile(context.Background(), filepath.Join(t.TempDir(), "absent-problem.pddl"))
	if !errors.Is(o.Err, os.ErrNotExist) {
		t.Fatalf("Err = %v, want ErrNotExist", o.Err)
	}
	if o.Problem != "absent-problem.pddl" {
		t.Fatalf("Problem = %q", o.Problem)
	}
	if len(m.runs) != 1 {
		t.Fatalf("metrics runs = %d, want 1", len(m.runs))
	}
}

func TestRunRecordsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r, _ := newTestRunner(t, Options{Tracer: tp.Tracer("test")})
	r.RunFile(context.Background(), filepath.Join(testdata, "satellite-problem01.pddl"))

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	if spans[0].Name() != "planner.Run" {
		t.Fatalf("span name = %q, want planner.Run", spans[0].Name())
	}
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["planner.domain"] != "satellite" || attrs["planner.nodes_expanded"] != "11" || attrs["planner.plan_length"] != "5" {
		t.Fatalf("span attributes = %v", attrs)
	}
}
