package core

import (
	"fmt"

	"github.com/signalsfoundry/tasking-planner/kb"
	"github.com/signalsfoundry/tasking-planner/model"
)

// Actions are the only operations that mutate a kb.State. Each one checks
// all of its preconditions before touching the state, so a failed action
// leaves the state exactly as it found it.

// TurnTo slews a satellite from Prev to New, burning fuel equal to the slew
// time.
type TurnTo struct {
	Satellite model.SatelliteID
	New       model.Direction
	Prev      model.Direction
}

func (a TurnTo) Name() string { return "turnTo" }
func (a TurnTo) Args() []any  { return []any{a.Satellite, a.New, a.Prev} }

func (a TurnTo) Apply(s *kb.State) error {
	cur, err := pointingOf(s, a.Satellite)
	if err != nil {
		return err
	}
	if cur != a.Prev {
		return fmt.Errorf("%w: %s points at %s, not %s", ErrPrecondition, a.Satellite, cur, a.Prev)
	}
	if a.New == a.Prev {
		return fmt.Errorf("%w: %s already points at %s", ErrPrecondition, a.Satellite, a.New)
	}
	cost, err := slewTime(s, a.New, a.Prev)
	if err != nil {
		return err
	}
	if s.Fuel(a.Satellite) < cost {
		return fmt.Errorf("%w: %s has %.2f fuel, slew needs %.2f", ErrPrecondition, a.Satellite, s.Fuel(a.Satellite), cost)
	}

	s.SetPointing(a.Satellite, a.New)
	s.SetFuel(a.Satellite, s.Fuel(a.Satellite)-cost)
	s.FuelUsed += cost
	return nil
}

// SwitchOn powers an instrument, consuming its satellite's spare power.
// Powering up always invalidates calibration.
type SwitchOn struct {
	Instrument model.InstrumentID
	Satellite  model.SatelliteID
}

func (a SwitchOn) Name() string { return "switchOn" }
func (a SwitchOn) Args() []any  { return []any{a.Instrument, a.Satellite} }

func (a SwitchOn) Apply(s *kb.State) error {
	if err := checkOnBoard(s, a.Instrument, a.Satellite); err != nil {
		return err
	}
	if !s.PowerAvail(a.Satellite) {
		return fmt.Errorf("%w: %s has no spare power", ErrPrecondition, a.Satellite)
	}

	s.SetPowerOn(a.Instrument, true)
	s.SetCalibrated(a.Instrument, false)
	s.SetPowerAvail(a.Satellite, false)
	return nil
}

// SwitchOff powers an instrument down and returns the power to its satellite.
type SwitchOff struct {
	Instrument model.InstrumentID
	Satellite  model.SatelliteID
}

func (a SwitchOff) Name() string { return "switchOff" }
func (a SwitchOff) Args() []any  { return []any{a.Instrument, a.Satellite} }

func (a SwitchOff) Apply(s *kb.State) error {
	if err := checkOnBoard(s, a.Instrument, a.Satellite); err != nil {
		return err
	}
	if !s.PowerOn(a.Instrument) {
		return fmt.Errorf("%w: %s is not powered", ErrPrecondition, a.Instrument)
	}

	s.SetPowerOn(a.Instrument, false)
	s.SetPowerAvail(a.Satellite, true)
	return nil
}

// Calibrate calibrates a powered instrument while its satellite points at
// one of the instrument's calibration targets.
type Calibrate struct {
	Satellite  model.SatelliteID
	Instrument model.InstrumentID
	Direction  model.Direction
}

func (a Calibrate) Name() string { return "calibrate" }
func (a Calibrate) Args() []any  { return []any{a.Satellite, a.Instrument, a.Direction} }

func (a Calibrate) Apply(s *kb.State) error {
	if err := checkOnBoard(s, a.Instrument, a.Satellite); err != nil {
		return err
	}
	inst, err := instrumentOf(s, a.Instrument)
	if err != nil {
		return err
	}
	if !inst.CanCalibrateFrom(a.Direction) {
		return fmt.Errorf("%w: %s is not a calibration target of %s", ErrPrecondition, a.Direction, a.Instrument)
	}
	cur, err := pointingOf(s, a.Satellite)
	if err != nil {
		return err
	}
	if cur != a.Direction {
		return fmt.Errorf("%w: %s points at %s, not %s", ErrPrecondition, a.Satellite, cur, a.Direction)
	}
	if !s.PowerOn(a.Instrument) {
		return fmt.Errorf("%w: %s is not powered", ErrPrecondition, a.Instrument)
	}

	s.SetCalibrated(a.Instrument, true)
	return nil
}

// TakeImage captures an image, consuming on-board storage.
type TakeImage struct {
	Satellite  model.SatelliteID
	Direction  model.Direction
	Instrument model.InstrumentID
	Mode       model.Mode
}

func (a TakeImage) Name() string { return "take_image" }
func (a TakeImage) Args() []any  { return []any{a.Satellite, a.Direction, a.Instrument, a.Mode} }

func (a TakeImage) Apply(s *kb.State) error {
	if !s.Calibrated(a.Instrument) {
		return fmt.Errorf("%w: %s is not calibrated", ErrPrecondition, a.Instrument)
	}
	if err := checkOnBoard(s, a.Instrument, a.Satellite); err != nil {
		return err
	}
	inst, err := instrumentOf(s, a.Instrument)
	if err != nil {
		return err
	}
	if !inst.SupportsMode(a.Mode) {
		return fmt.Errorf("%w: %s does not support %s", ErrPrecondition, a.Instrument, a.Mode)
	}
	if !s.PowerOn(a.Instrument) {
		return fmt.Errorf("%w: %s is not powered", ErrPrecondition, a.Instrument)
	}
	cur, err := pointingOf(s, a.Satellite)
	if err != nil {
		return err
	}
	if cur != a.Direction {
		return fmt.Errorf("%w: %s points at %s, not %s", ErrPrecondition, a.Satellite, cur, a.Direction)
	}
	key := model.ImageKey{Direction: a.Direction, Mode: a.Mode}
	cost, err := dataCost(s, key)
	if err != nil {
		return err
	}
	if s.DataCapacity(a.Satellite) < cost {
		return fmt.Errorf("%w: %s has %.2f capacity, %s needs %.2f", ErrPrecondition, a.Satellite, s.DataCapacity(a.Satellite), key, cost)
	}

	s.SetDataCapacity(a.Satellite, s.DataCapacity(a.Satellite)-cost)
	s.SetHaveImage(key, true)
	s.DataStored += cost
	return nil
}

func checkOnBoard(s *kb.State, id model.InstrumentID, sat model.SatelliteID) error {
	owner, ok := s.OnBoard(id)
	if !ok {
		return fmt.Errorf("%w: unknown instrument %q", ErrMissingAttribute, id)
	}
	if owner != sat {
		return fmt.Errorf("%w: %s is on board %s, not %s", ErrPrecondition, id, owner, sat)
	}
	return nil
}
