package core

import (
	"math"

	"github.com/signalsfoundry/tasking-planner/kb"
	"github.com/signalsfoundry/tasking-planner/model"
)

// Candidate is the instrument chosen to service an image goal, together
// with the cost estimate that selected it.
type Candidate struct {
	Instrument model.InstrumentID
	Satellite  model.SatelliteID
	// CalibrationTarget is the direction the instrument will be calibrated
	// from. It is empty when the instrument is already calibrated.
	CalibrationTarget model.Direction
	// Cost is the projected fuel spend: slews to the calibration target,
	// on to the image direction, and back to a pending pointing goal.
	Cost float64
}

// Found reports whether a feasible candidate exists.
func (c Candidate) Found() bool {
	return c.Instrument != ""
}

// NeedsCalibration reports whether the candidate must be calibrated first.
func (c Candidate) NeedsCalibration() bool {
	return c.CalibrationTarget != ""
}

// SatelliteSet is a set of satellites, used for satellites that still have
// an unsatisfied pointing goal.
type SatelliteSet map[model.SatelliteID]struct{}

// Has reports whether sat is in the set.
func (s SatelliteSet) Has(sat model.SatelliteID) bool {
	_, ok := s[sat]
	return ok
}

// SelectCandidate picks the cheapest instrument able to capture target.
//
// Instruments are considered in declaration order. A candidate is rejected
// when its satellite's fuel does not strictly exceed the projected cost, or
// when its satellite cannot store the image. Among equal-cost survivors the
// one considered last wins. A zero Candidate with a nil error means no
// instrument can service the goal.
//
// SelectCandidate never mutates s.
func SelectCandidate(s *kb.State, goal *kb.Multigoal, target model.ImageKey, pending SatelliteSet) (Candidate, error) {
	var (
		best  Candidate
		found bool
	)

	for _, inst := range s.Instruments() {
		if !inst.SupportsMode(target.Mode) {
			continue
		}
		sat := inst.OnBoard
		pointing, err := pointingOf(s, sat)
		if err != nil {
			return Candidate{}, err
		}

		cost := 0.0
		var calibTarget model.Direction
		if !s.Calibrated(inst.ID) {
			t, c, err := BestCalibrationTarget(s, inst, pointing)
			if err != nil {
				return Candidate{}, err
			}
			if t == "" {
				// needs calibration but has nowhere to calibrate from
				continue
			}
			calibTarget = t
			cost += c
		}

		if calibTarget != "" {
			c, err := slewTime(s, target.Direction, calibTarget)
			if err != nil {
				return Candidate{}, err
			}
			cost += c
		} else {
			c, err := slewTime(s, pointing, target.Direction)
			if err != nil {
				return Candidate{}, err
			}
			cost += c
		}

		if pending.Has(sat) {
			if gp, ok := goal.Pointing(sat); ok && gp != target.Direction {
				c, err := slewTime(s, gp, target.Direction)
				if err != nil {
					return Candidate{}, err
				}
				cost += c
			}
		}

		if s.Fuel(sat) <= cost {
			continue
		}
		need, err := dataCost(s, target)
		if err != nil {
			return Candidate{}, err
		}
		if s.DataCapacity(sat) < need {
			continue
		}

		if !found || cost <= best.Cost {
			best = Candidate{
				Instrument:        inst.ID,
				Satellite:         sat,
				CalibrationTarget: calibTarget,
				Cost:              cost,
			}
			found = true
		}
	}

	return best, nil
}

// BestCalibrationTarget returns the calibration target of inst cheapest to
// slew to from pointing, and that slew cost. If pointing already is a
// calibration target it is returned at zero cost. Ties keep the target
// listed first. An instrument without calibration targets yields "".
func BestCalibrationTarget(s *kb.State, inst *model.Instrument, pointing model.Direction) (model.Direction, float64, error) {
	if inst.CanCalibrateFrom(pointing) {
		return pointing, 0, nil
	}
	var best model.Direction
	bestCost := math.Inf(1)
	for _, t := range inst.CalibrationTargets {
		c, err := slewTime(s, pointing, t)
		if err != nil {
			return "", 0, err
		}
		if c < bestCost {
			bestCost = c
			best = t
		}
	}
	if best == "" {
		return "", 0, nil
	}
	return best, bestCost, nil
}
