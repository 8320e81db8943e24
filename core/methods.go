package core

import (
	"fmt"

	"github.com/signalsfoundry/tasking-planner/internal/htn"
	"github.com/signalsfoundry/tasking-planner/internal/logging"
	"github.com/signalsfoundry/tasking-planner/kb"
	"github.com/signalsfoundry/tasking-planner/model"
)

// AchieveGoal is the top-level compound task. Each decomposition repairs one
// outstanding goal atom and re-queues itself until nothing is outstanding.
type AchieveGoal struct {
	Goal *kb.Multigoal
}

func (t AchieveGoal) Name() string { return "achieve_goal" }
func (t AchieveGoal) Args() []any  { return []any{t.Goal.Name} }

func (t AchieveGoal) Decompose(s *kb.State, run *htn.Run) ([]htn.Task, error) {
	step, err := Decompose(s, t.Goal, run)
	if err != nil {
		return nil, err
	}
	switch step.Phase {
	case PhaseEmitting:
		return append(step.Repairs, t), nil
	case PhaseDone:
		return []htn.Task{}, nil
	case PhaseFail:
		return nil, fmt.Errorf("%w: %s is %s", ErrInfeasible, step.Atom, step.Status)
	default:
		return nil, fmt.Errorf("%w: phase %s", ErrUnreachableStatus, step.Phase)
	}
}

// ChangePointing slews Satellite from Prev to New unless it already points
// at New.
type ChangePointing struct {
	Satellite model.SatelliteID
	New       model.Direction
	Prev      model.Direction
}

func (t ChangePointing) Name() string { return "changePointing" }
func (t ChangePointing) Args() []any  { return []any{t.Satellite, t.New, t.Prev} }

func (t ChangePointing) Decompose(s *kb.State, run *htn.Run) ([]htn.Task, error) {
	run.Expand(1)

	cur, err := pointingOf(s, t.Satellite)
	if err != nil {
		return nil, err
	}
	if cur == t.New {
		return []htn.Task{}, nil
	}
	if cur != t.Prev {
		return nil, fmt.Errorf("%w: %s points at %s, not %s", ErrPrecondition, t.Satellite, cur, t.Prev)
	}
	cost, err := slewTime(s, t.New, t.Prev)
	if err != nil {
		return nil, err
	}
	if s.Fuel(t.Satellite) < cost {
		return nil, fmt.Errorf("%w: %s cannot afford slew %s -> %s", ErrPrecondition, t.Satellite, t.Prev, t.New)
	}

	run.Expand(1)
	return []htn.Task{TurnTo{Satellite: t.Satellite, New: t.New, Prev: t.Prev}}, nil
}

// CalibrateInstrument powers Instrument and calibrates it from its cheapest
// calibration target, slewing there first when needed.
type CalibrateInstrument struct {
	Instrument model.InstrumentID
	Satellite  model.SatelliteID
}

func (t CalibrateInstrument) Name() string { return "calibrateInstrument" }
func (t CalibrateInstrument) Args() []any  { return []any{t.Instrument, t.Satellite} }

func (t CalibrateInstrument) Decompose(s *kb.State, run *htn.Run) ([]htn.Task, error) {
	run.Expand(1)

	if err := checkOnBoard(s, t.Instrument, t.Satellite); err != nil {
		return nil, err
	}
	if !s.PowerAvail(t.Satellite) {
		return nil, fmt.Errorf("%w: %s has no spare power for %s", ErrPrecondition, t.Satellite, t.Instrument)
	}
	inst, err := instrumentOf(s, t.Instrument)
	if err != nil {
		return nil, err
	}
	cur, err := pointingOf(s, t.Satellite)
	if err != nil {
		return nil, err
	}
	target, _, err := BestCalibrationTarget(s, inst, cur)
	if err != nil {
		return nil, err
	}
	if target == "" {
		return nil, fmt.Errorf("%w: %s has no calibration target", ErrPrecondition, t.Instrument)
	}

	plan := []htn.Task{SwitchOn{Instrument: t.Instrument, Satellite: t.Satellite}}
	run.Expand(1)

	if cur != target {
		plan = append(plan,
			ChangePointing{Satellite: t.Satellite, New: target, Prev: cur},
			Calibrate{Satellite: t.Satellite, Instrument: t.Instrument, Direction: target},
		)
		run.Expand(2)
	} else {
		plan = append(plan, Calibrate{Satellite: t.Satellite, Instrument: t.Instrument, Direction: cur})
		run.Expand(1)
	}
	return plan, nil
}

// StoreImage points Satellite at Direction and captures the image with
// Instrument in Mode.
type StoreImage struct {
	Satellite  model.SatelliteID
	Instrument model.InstrumentID
	Mode       model.Mode
	Direction  model.Direction
}

func (t StoreImage) Name() string { return "storeImage" }
func (t StoreImage) Args() []any  { return []any{t.Satellite, t.Instrument, t.Mode, t.Direction} }

func (t StoreImage) Decompose(s *kb.State, run *htn.Run) ([]htn.Task, error) {
	run.Expand(1)

	cur, err := pointingOf(s, t.Satellite)
	if err != nil {
		return nil, err
	}
	var plan []htn.Task
	if cur != t.Direction {
		plan = append(plan, ChangePointing{Satellite: t.Satellite, New: t.Direction, Prev: cur})
		run.Expand(1)
	}

	if err := checkOnBoard(s, t.Instrument, t.Satellite); err != nil {
		return nil, err
	}
	inst, err := instrumentOf(s, t.Instrument)
	if err != nil {
		return nil, err
	}
	if !inst.SupportsMode(t.Mode) {
		return nil, fmt.Errorf("%w: %s does not support %s", ErrPrecondition, t.Instrument, t.Mode)
	}
	if !s.PowerOn(t.Instrument) {
		return nil, fmt.Errorf("%w: %s is not powered", ErrPrecondition, t.Instrument)
	}
	key := model.ImageKey{Direction: t.Direction, Mode: t.Mode}
	need, err := dataCost(s, key)
	if err != nil {
		return nil, err
	}
	if s.DataCapacity(t.Satellite) < need {
		return nil, fmt.Errorf("%w: %s cannot store %s", ErrPrecondition, t.Satellite, key)
	}

	plan = append(plan, TakeImage{Satellite: t.Satellite, Direction: t.Direction, Instrument: t.Instrument, Mode: t.Mode})
	run.Expand(1)
	return plan, nil
}

// InstrumentOff powers Instrument down if it is on.
type InstrumentOff struct {
	Instrument model.InstrumentID
	Satellite  model.SatelliteID
}

func (t InstrumentOff) Name() string { return "instrumentOff" }
func (t InstrumentOff) Args() []any  { return []any{t.Instrument, t.Satellite} }

func (t InstrumentOff) Decompose(s *kb.State, run *htn.Run) ([]htn.Task, error) {
	run.Expand(1)

	if !s.PowerOn(t.Instrument) && s.PowerAvail(t.Satellite) {
		return []htn.Task{}, nil
	}
	if err := checkOnBoard(s, t.Instrument, t.Satellite); err != nil {
		return nil, err
	}
	if !s.PowerOn(t.Instrument) {
		return nil, fmt.Errorf("%w: %s is not powered", ErrPrecondition, t.Instrument)
	}

	run.Expand(1)
	return []htn.Task{SwitchOff{Instrument: t.Instrument, Satellite: t.Satellite}}, nil
}

// Tasks returns the initial task list for goal.
func Tasks(goal *kb.Multigoal) []htn.Task {
	return []htn.Task{AchieveGoal{Goal: goal}}
}

// NewPlanner returns a planner over satellite states.
func NewPlanner(cfg htn.Config, log logging.Logger) *htn.Planner[*kb.State] {
	return htn.NewPlanner[*kb.State](cfg, log)
}
