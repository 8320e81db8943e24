package core

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/tasking-planner/internal/htn"
	"github.com/signalsfoundry/tasking-planner/kb"
	"github.com/signalsfoundry/tasking-planner/model"
)

var (
	// ErrInfeasible indicates no satellite/instrument combination can
	// service a goal under the current resource budgets.
	ErrInfeasible = fmt.Errorf("%w: goal infeasible", htn.ErrFailure)
	// ErrPrecondition indicates an action or repair whose preconditions no
	// longer hold in the current state.
	ErrPrecondition = fmt.Errorf("%w: precondition violated", htn.ErrFailure)

	// ErrConfiguration is the parent of all problem-definition errors. These
	// are fatal for a run: the domain cannot reason about the problem.
	ErrConfiguration = errors.New("domain configuration error")
	// ErrMissingSlewTime indicates a slew table entry needed for a transition.
	ErrMissingSlewTime = fmt.Errorf("%w: missing slew time", ErrConfiguration)
	// ErrMissingDataCost indicates an image with no data volume entry.
	ErrMissingDataCost = fmt.Errorf("%w: missing data cost", ErrConfiguration)
	// ErrMissingAttribute indicates an entity attribute with no default,
	// such as a satellite without a pointing or an unknown instrument.
	ErrMissingAttribute = fmt.Errorf("%w: missing attribute", ErrConfiguration)

	// ErrUnreachableStatus is returned when a goal classification falls
	// outside the statuses a decomposition step knows how to repair.
	ErrUnreachableStatus = errors.New("unreachable goal status")
)

// slewTime looks up the slew table and turns a missing entry into a
// configuration error.
func slewTime(s *kb.State, from, to model.Direction) (float64, error) {
	v, ok := s.SlewTime(from, to)
	if !ok {
		return 0, fmt.Errorf("%w: (%s, %s)", ErrMissingSlewTime, from, to)
	}
	return v, nil
}

func dataCost(s *kb.State, k model.ImageKey) (float64, error) {
	v, ok := s.DataCost(k)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingDataCost, k)
	}
	return v, nil
}

func pointingOf(s *kb.State, sat model.SatelliteID) (model.Direction, error) {
	d, ok := s.Pointing(sat)
	if !ok {
		return "", fmt.Errorf("%w: satellite %q has no pointing", ErrMissingAttribute, sat)
	}
	return d, nil
}

func instrumentOf(s *kb.State, id model.InstrumentID) (*model.Instrument, error) {
	inst, ok := s.Instrument(id)
	if !ok {
		return nil, fmt.Errorf("%w: unknown instrument %q", ErrMissingAttribute, id)
	}
	return inst, nil
}
