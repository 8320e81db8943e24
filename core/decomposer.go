package core

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/tasking-planner/internal/htn"
	"github.com/signalsfoundry/tasking-planner/internal/logging"
	"github.com/signalsfoundry/tasking-planner/kb"
	"github.com/signalsfoundry/tasking-planner/model"
)

// Phase is the outcome of one decomposition step.
type Phase int

const (
	// PhaseScanning is the initial phase while goal atoms are examined.
	PhaseScanning Phase = iota
	// PhaseEmitting means a repair for one atom was produced.
	PhaseEmitting
	// PhaseDone means no goal atom is outstanding.
	PhaseDone
	// PhaseFail means an outstanding atom has no repair.
	PhaseFail
)

func (p Phase) String() string {
	switch p {
	case PhaseScanning:
		return "Scanning"
	case PhaseEmitting:
		return "Emitting"
	case PhaseDone:
		return "Done"
	case PhaseFail:
		return "Fail"
	default:
		return "Unknown"
	}
}

// Step is the result of a single decomposition invocation.
type Step struct {
	Phase Phase
	// Status is the classification of Atom.
	Status Status
	// Atom names the goal atom the step addresses, e.g. "have_image Planet3/image1".
	Atom string
	// Repairs holds the concrete repair tasks when Phase is PhaseEmitting.
	// It does not include the continuation.
	Repairs []htn.Task
}

// Decompose inspects goal against s and returns the repair for the first
// outstanding atom. Image atoms are examined before pointing atoms, each in
// goal declaration order.
//
// The first call of a run allocates the dynamic attribute mappings the
// initial state did not supply; it changes no attribute value. Otherwise s
// is not mutated.
func Decompose(s *kb.State, goal *kb.Multigoal, run *htn.Run) (Step, error) {
	if run.FirstInvocation() {
		if created := s.InitDynamicAttributes(); len(created) > 0 && run.Log != nil {
			run.Log.Debug(context.Background(), "initialised dynamic attributes", logging.Any("attributes", created))
		}
	}

	pointingGoals, pending, err := outstandingPointing(s, goal)
	if err != nil {
		return Step{Phase: PhaseFail}, err
	}

	for _, key := range outstandingImages(s, goal) {
		atom := "have_image " + key.String()
		st, err := ClassifyImage(s, goal, key, pending)
		if err != nil {
			return Step{Phase: PhaseFail, Atom: atom}, err
		}

		cand := st.Candidate
		step := Step{Phase: PhaseEmitting, Status: st.Status, Atom: atom}
		switch st.Status {
		case StatusDone:
			continue
		case StatusFail:
			step.Phase = PhaseFail
			return step, nil
		case StatusTakeImage:
			step.Repairs = []htn.Task{
				StoreImage{Satellite: cand.Satellite, Instrument: cand.Instrument, Mode: key.Mode, Direction: key.Direction},
			}
		case StatusCalibrateAndTakeImage:
			step.Repairs = []htn.Task{
				CalibrateInstrument{Instrument: cand.Instrument, Satellite: cand.Satellite},
				StoreImage{Satellite: cand.Satellite, Instrument: cand.Instrument, Mode: key.Mode, Direction: key.Direction},
			}
		case StatusSwitchOff:
			step.Repairs = []htn.Task{
				InstrumentOff{Instrument: st.SwitchOff, Satellite: cand.Satellite},
			}
		default:
			return Step{Phase: PhaseFail, Atom: atom}, fmt.Errorf("%w: %s for %s", ErrUnreachableStatus, st.Status, atom)
		}
		return step, nil
	}

	for _, pg := range pointingGoals {
		atom := fmt.Sprintf("pointing %s %s", pg.Satellite, pg.Direction)
		st, err := ClassifyPointing(s, goal, pg.Satellite)
		if err != nil {
			return Step{Phase: PhaseFail, Atom: atom}, err
		}
		switch st {
		case StatusDone:
			continue
		case StatusChangePointing:
			cur, err := pointingOf(s, pg.Satellite)
			if err != nil {
				return Step{Phase: PhaseFail, Atom: atom}, err
			}
			return Step{
				Phase:   PhaseEmitting,
				Status:  st,
				Atom:    atom,
				Repairs: []htn.Task{ChangePointing{Satellite: pg.Satellite, New: pg.Direction, Prev: cur}},
			}, nil
		default:
			return Step{Phase: PhaseFail, Atom: atom}, fmt.Errorf("%w: %s for %s", ErrUnreachableStatus, st, atom)
		}
	}

	return Step{Phase: PhaseDone, Status: StatusDone}, nil
}

// outstandingPointing returns the pointing goals not yet met and the set of
// satellites they concern.
func outstandingPointing(s *kb.State, goal *kb.Multigoal) ([]kb.PointingGoal, SatelliteSet, error) {
	var out []kb.PointingGoal
	pending := make(SatelliteSet)
	for _, pg := range goal.PointingGoals() {
		cur, err := pointingOf(s, pg.Satellite)
		if err != nil {
			return nil, nil, err
		}
		if cur != pg.Direction {
			out = append(out, pg)
			pending[pg.Satellite] = struct{}{}
		}
	}
	return out, pending, nil
}

func outstandingImages(s *kb.State, goal *kb.Multigoal) []model.ImageKey {
	var out []model.ImageKey
	for _, key := range goal.Images() {
		if !s.HaveImage(key) {
			out = append(out, key)
		}
	}
	return out
}
