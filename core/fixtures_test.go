package core

import (
	"github.com/signalsfoundry/tasking-planner/kb"
	"github.com/signalsfoundry/tasking-planner/model"
)

// newSingleSatState builds a one-satellite world: Sat0 carries instrument
// inst0 (mode M1, calibrated from Star1) and points at Planet3.
func newSingleSatState() *kb.State {
	s := kb.NewState("single")
	s.SetOnBoard("inst0", "Sat0")
	s.AddSupport("inst0", "M1")
	s.AddCalibrationTarget("inst0", "Star1")
	s.SetPointing("Sat0", "Planet3")
	s.SetFuel("Sat0", 100)
	s.SetDataCapacity("Sat0", 50)
	s.SetPowerAvail("Sat0", true)
	s.SetDataCost(model.ImageKey{Direction: "Planet3", Mode: "M1"}, 10)
	setSymmetricSlew(s, "Planet3", "Star1", 5)
	return s
}

func setSymmetricSlew(s *kb.State, a, b model.Direction, v float64) {
	s.SetSlewTime(a, b, v)
	s.SetSlewTime(b, a, v)
}

func imageGoal(d model.Direction, m model.Mode) *kb.Multigoal {
	g := kb.NewMultigoal("goal")
	g.RequireImage(model.ImageKey{Direction: d, Mode: m})
	return g
}
