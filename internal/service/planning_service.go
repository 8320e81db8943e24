// Package service exposes the planner over gRPC.
package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/tasking-planner/internal/htn"
	"github.com/signalsfoundry/tasking-planner/internal/logging"
	"github.com/signalsfoundry/tasking-planner/internal/problem"
	"github.com/signalsfoundry/tasking-planner/internal/runner"
	"github.com/signalsfoundry/tasking-planner/internal/store"
)

const (
	// ServiceName is the fully-qualified gRPC service name.
	ServiceName = "planner.v1.PlanningService"
	// PlanFullMethod is the full method name of Plan.
	PlanFullMethod = "/" + ServiceName + "/Plan"
)

// PlanningServiceServer is the server API for the planning service.
type PlanningServiceServer interface {
	Plan(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Runner plans a single problem. *runner.Runner implements it.
type Runner interface {
	RunAs(ctx context.Context, name string, domain problem.Domain, src io.Reader) runner.Outcome
}

// History records finished runs. *store.SqlStore implements it.
type History interface {
	SaveRuns(ctx context.Context, runs []store.Run) error
}

// Option customises a PlanningService.
type Option func(*PlanningService)

// WithHistory records every planned request in h.
func WithHistory(h History) Option {
	return func(s *PlanningService) { s.history = h }
}

// PlanningService implements PlanningServiceServer on top of a Runner.
//
// Semantics:
//   - A request that cannot be parsed or validated returns InvalidArgument.
//   - A problem with no plan is not an RPC error: the response carries
//     failed=true and the reason. Hitting the expansion limit is the
//     exception and returns ResourceExhausted.
//   - Configuration errors in the problem return FailedPrecondition.
type PlanningService struct {
	runner  Runner
	history History
	log     logging.Logger
}

// NewPlanningService constructs a PlanningService.
func NewPlanningService(r Runner, log logging.Logger, opts ...Option) *PlanningService {
	if log == nil {
		log = logging.Noop()
	}
	s := &PlanningService{runner: r, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan runs the planner on the request's problem.
func (s *PlanningService) Plan(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	log := logging.FromContextOr(ctx, s.log)

	req, err := ParsePlanRequest(in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	var domain problem.Domain
	if req.Domain != "" {
		domain, _ = problem.ParseDomain(req.Domain)
	}
	name := req.Name
	if name == "" {
		name = "request"
	}

	o := s.runner.RunAs(ctx, name, domain, strings.NewReader(req.Problem))
	s.record(ctx, o, log)

	if o.Err != nil {
		return nil, ToStatusError(o.Err)
	}
	if o.Failed && errors.Is(o.Reason, htn.ErrExpansionLimit) {
		return nil, ToStatusError(o.Reason)
	}
	return responseFromOutcome(o).ToStruct()
}

func (s *PlanningService) record(ctx context.Context, o runner.Outcome, log logging.Logger) {
	if s.history == nil {
		return
	}
	rec := o.Record(logging.RequestIDFromContext(ctx))
	if err := s.history.SaveRuns(ctx, []store.Run{rec}); err != nil {
		log.Warn(ctx, "failed to record run", logging.String("run_id", o.RunID), logging.Err(err))
	}
}

// RegisterPlanningServiceServer registers srv on s.
func RegisterPlanningServiceServer(s grpc.ServiceRegistrar, srv PlanningServiceServer) {
	s.RegisterService(&PlanningServiceDesc, srv)
}

// PlanningServiceDesc describes the planning service. Messages are
// google.protobuf.Struct on both sides.
var PlanningServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PlanningServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Plan",
			Handler:    planHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "planner/v1/planning",
}

func planHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PlanningServiceServer).Plan(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: PlanFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PlanningServiceServer).Plan(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// PlanningClient calls the planning service.
type PlanningClient struct {
	cc grpc.ClientConnInterface
}

// NewPlanningClient returns a client bound to cc.
func NewPlanningClient(cc grpc.ClientConnInterface) *PlanningClient {
	return &PlanningClient{cc: cc}
}

// Plan calls PlanningService/Plan.
func (c *PlanningClient) Plan(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, PlanFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// PlanProblem is a typed convenience over Plan.
func (c *PlanningClient) PlanProblem(ctx context.Context, req PlanRequest, opts ...grpc.CallOption) (PlanResponse, error) {
	in, err := req.ToStruct()
	if err != nil {
		return PlanResponse{}, err
	}
	out, err := c.Plan(ctx, in, opts...)
	if err != nil {
		return PlanResponse{}, err
	}
	return ParsePlanResponse(out), nil
}
