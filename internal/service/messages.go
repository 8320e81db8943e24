package service

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/tasking-planner/internal/runner"
)

var validate = validator.New()

// PlanRequest is the decoded form of a Plan request struct:
//
//	{problem: string, name?: string, domain?: "satellite"|"blocks"}
//
// A name ending in .yaml or .yml marks the problem as a YAML scenario.
type PlanRequest struct {
	Problem string `validate:"required,max=4194304"`
	Name    string `validate:"omitempty,max=256"`
	Domain  string `validate:"omitempty,oneof=satellite sat blocks blocksworld bw"`
}

// ToStruct encodes r as a structpb.Struct.
func (r PlanRequest) ToStruct() (*structpb.Struct, error) {
	fields := map[string]any{"problem": r.Problem}
	if r.Name != "" {
		fields["name"] = r.Name
	}
	if r.Domain != "" {
		fields["domain"] = r.Domain
	}
	return structpb.NewStruct(fields)
}

// ParsePlanRequest decodes and validates a request struct.
func ParsePlanRequest(in *structpb.Struct) (PlanRequest, error) {
	var req PlanRequest
	if in == nil {
		return req, fmt.Errorf("%w: empty request", ErrInvalidRequest)
	}
	for key, v := range in.GetFields() {
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return req, fmt.Errorf("%w: field %q must be a string", ErrInvalidRequest, key)
		}
		switch key {
		case "problem":
			req.Problem = s.StringValue
		case "name":
			req.Name = s.StringValue
		case "domain":
			req.Domain = s.StringValue
		default:
			return req, fmt.Errorf("%w: unknown field %q", ErrInvalidRequest, key)
		}
	}
	if err := validate.Struct(req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return req, nil
}

// PlanResponse is the decoded form of a Plan response struct:
//
//	{run_id, plan: [string], failed, reason?, nodes_expanded, duration_ms}
type PlanResponse struct {
	RunID         string
	Plan          []string
	Failed        bool
	Reason        string
	NodesExpanded int
	Duration      time.Duration
}

func responseFromOutcome(o runner.Outcome) PlanResponse {
	resp := PlanResponse{
		RunID:         o.RunID,
		Plan:          o.Plan,
		Failed:        o.Failed,
		NodesExpanded: o.NodesExpanded,
		Duration:      o.Duration,
	}
	if o.Failed && o.Reason != nil {
		resp.Reason = o.Reason.Error()
	}
	return resp
}

// ToStruct encodes r as a structpb.Struct.
func (r PlanResponse) ToStruct() (*structpb.Struct, error) {
	plan := make([]any, 0, len(r.Plan))
	for _, step := range r.Plan {
		plan = append(plan, step)
	}
	fields := map[string]any{
		"run_id":         r.RunID,
		"plan":           plan,
		"failed":         r.Failed,
		"nodes_expanded": float64(r.NodesExpanded),
		"duration_ms":    float64(r.Duration) / float64(time.Millisecond),
	}
	if r.Reason != "" {
		fields["reason"] = r.Reason
	}
	return structpb.NewStruct(fields)
}

// ParsePlanResponse decodes a response struct.
func ParsePlanResponse(in *structpb.Struct) PlanResponse {
	f := in.GetFields()
	resp := PlanResponse{
		RunID:         f["run_id"].GetStringValue(),
		Failed:        f["failed"].GetBoolValue(),
		Reason:        f["reason"].GetStringValue(),
		NodesExpanded: int(f["nodes_expanded"].GetNumberValue()),
		Duration:      time.Duration(f["duration_ms"].GetNumberValue() * float64(time.Millisecond)),
	}
	for _, v := range f["plan"].GetListValue().GetValues() {
		resp.Plan = append(resp.Plan, v.GetStringValue())
	}
	return resp
}
