package service

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/tasking-planner/core"
	"github.com/signalsfoundry/tasking-planner/internal/blocks"
	"github.com/signalsfoundry/tasking-planner/internal/htn"
	"github.com/signalsfoundry/tasking-planner/internal/problem"
	"github.com/signalsfoundry/tasking-planner/kb"
)

// ErrInvalidRequest is returned for requests that fail field validation.
var ErrInvalidRequest = errors.New("invalid plan request")

// ToStatusError maps planner errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, problem.ErrSyntax),
		errors.Is(err, problem.ErrMissingSection),
		errors.Is(err, problem.ErrUnknownDomain),
		errors.Is(err, problem.ErrInvalidScenario),
		errors.Is(err, blocks.ErrUnknownBlock),
		errors.Is(err, kb.ErrIncompleteState):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, core.ErrConfiguration):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, htn.ErrExpansionLimit):
		return status.Error(codes.ResourceExhausted, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
