package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryInterceptorRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("NewPlannerCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/planner.v1.PlanningService/Plan"}

	_, err = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		time.Sleep(10 * time.Millisecond)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor handler returned error: %v", err)
	}

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("PlanningService", "Plan", "OK")); got != 1 {
		t.Fatalf("planner_rpc_requests_total = %v, want 1", got)
	}

	if count := histogramSampleCount(t, reg, "planner_rpc_duration_seconds", map[string]string{
		"service": "PlanningService",
		"method":  "Plan",
	}); count != 1 {
		t.Fatalf("planner_rpc_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestUnaryInterceptorRecordsErrorCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("NewPlannerCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/planner.v1.PlanningService/Plan"}

	_, _ = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.InvalidArgument, "boom")
	})

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("PlanningService", "Plan", "InvalidArgument")); got != 1 {
		t.Fatalf("planner_rpc_requests_total error label = %v, want 1", got)
	}
}

func TestObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("NewPlannerCollector: %v", err)
	}

	collector.ObserveRun("satellite", OutcomePlanned, 2*time.Millisecond, 11, 5)
	collector.ObserveRun("satellite", OutcomeFailed, time.Millisecond, 3, 0)
	collector.ObserveRun("blocks", OutcomePlanned, time.Millisecond, 15, 6)

	if got := testutil.ToFloat64(collector.Runs.WithLabelValues("satellite", OutcomePlanned)); got != 1 {
		t.Fatalf("planner_runs_total{satellite,planned} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Runs.WithLabelValues("satellite", OutcomeFailed)); got != 1 {
		t.Fatalf("planner_runs_total{satellite,failed} = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "planner_nodes_expanded", map[string]string{"domain": "satellite"}); count != 2 {
		t.Fatalf("planner_nodes_expanded{satellite} sample_count = %d, want 2", count)
	}
	if count := histogramSampleCount(t, reg, "planner_plan_length", map[string]string{"domain": "satellite"}); count != 1 {
		t.Fatalf("planner_plan_length{satellite} sample_count = %d, want 1", count)
	}
}

func TestRunsInFlightGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("NewPlannerCollector: %v", err)
	}
	collector.RunStarted()
	collector.RunStarted()
	collector.RunFinished()
	if got := testutil.ToFloat64(collector.RunsInFlight); got != 1 {
		t.Fatalf("planner_runs_in_flight = %v, want 1", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *PlannerCollector
	c.ObserveRun("satellite", OutcomePlanned, time.Millisecond, 1, 1)
	c.RunStarted()
	c.RunFinished()
	if c.Gatherer() != nil {
		t.Fatalf("nil collector Gatherer() should be nil")
	}
}

func TestCollectorReRegistrationReusesExisting(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("NewPlannerCollector: %v", err)
	}
	second, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("second NewPlannerCollector: %v", err)
	}
	first.ObserveRun("blocks", OutcomePlanned, time.Millisecond, 1, 1)
	if got := testutil.ToFloat64(second.Runs.WithLabelValues("blocks", OutcomePlanned)); got != 1 {
		t.Fatalf("shared planner_runs_total = %v, want 1", got)
	}
}

func TestMetricsHandlerExposesRunMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("NewPlannerCollector: %v", err)
	}
	collector.ObserveRun("satellite", OutcomePlanned, time.Millisecond, 11, 5)
	collector.RPCRequests.WithLabelValues("svc", "method", "OK").Inc()
	collector.RPCDurations.WithLabelValues("svc", "method").Observe(0.01)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"planner_rpc_requests_total",
		"planner_rpc_duration_seconds",
		"planner_runs_total",
		"planner_run_duration_seconds",
		"planner_nodes_expanded",
		"planner_plan_length",
		"planner_runs_in_flight",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestSplitMethod(t *testing.T) {
	tests := []struct {
		in              string
		service, method string
	}{
		{"/planner.v1.PlanningService/Plan", "PlanningService", "Plan"},
		{"", "unknown", "unknown"},
		{"Plan", "unknown", "unknown"},
		{"/Svc/", "Svc", "unknown"},
	}
	for _, tt := range tests {
		s, m := SplitMethod(tt.in)
		if s != tt.service || m != tt.method {
			t.Fatalf("SplitMethod(%q) = %q, %q; want %q, %q", tt.in, s, m, tt.service, tt.method)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
