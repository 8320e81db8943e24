package core

import (
	"testing"

	"github.com/signalsfoundry/tasking-planner/kb"
	"github.com/signalsfoundry/tasking-planner/model"
)

func TestClassifyPointing(t *testing.T) {
	s := newSingleSatState()
	goal := kb.NewMultigoal("g")

	if st, err := ClassifyPointing(s, goal, "Sat0"); err != nil || st != StatusDone {
		t.Fatalf("unconstrained satellite = %v, %v; want Done", st, err)
	}
	goal.SetPointing("Sat0", "Planet3")
	if st, _ := ClassifyPointing(s, goal, "Sat0"); st != StatusDone {
		t.Fatalf("met pointing goal = %v, want Done", st)
	}
	goal.SetPointing("Sat0", "Star1")
	if st, _ := ClassifyPointing(s, goal, "Sat0"); st != StatusChangePointing {
		t.Fatalf("unmet pointing goal = %v, want Change-Pointing", st)
	}
}

func TestClassifyImage(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*kb.State)
		want  Status
	}{
		{"done", func(s *kb.State) { s.SetHaveImage(planet3M1, true) }, StatusDone},
		{"take image", func(s *kb.State) { s.SetCalibrated("inst0", true); s.SetPowerOn("inst0", true) }, StatusTakeImage},
		{"calibrate and take image", nil, StatusCalibrateAndTakeImage},
		{"switch off", func(s *kb.State) {
			s.SetOnBoard("inst1", "Sat0")
			s.AddSupport("inst1", "M2")
			s.AddCalibrationTarget("inst1", "Star1")
			s.SetPowerOn("inst1", true)
			s.SetPowerAvail("Sat0", false)
		}, StatusSwitchOff},
		{"no power holder", func(s *kb.State) { s.SetPowerAvail("Sat0", false) }, StatusFail},
		{"no fuel", func(s *kb.State) { s.SetFuel("Sat0", 0) }, StatusFail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSingleSatState()
			if tc.setup != nil {
				tc.setup(s)
			}
			got, err := ClassifyImage(s, imageGoal("Planet3", "M1"), planet3M1, nil)
			if err != nil {
				t.Fatalf("ClassifyImage: %v", err)
			}
			if got.Status != tc.want {
				t.Fatalf("status = %v, want %v", got.Status, tc.want)
			}
		})
	}
}

func TestPowerHolderPrefersCalibrated(t *testing.T) {
	s := newSingleSatState()
	for _, id := range []string{"a", "b", "c"} {
		s.SetOnBoard(model.InstrumentID(id), "Sat0")
	}
	s.SetPowerOn("a", true)
	s.SetCalibrated("a", true)
	s.SetPowerOn("b", true)
	s.SetCalibrated("c", true) // calibrated but unpowered

	if got := powerHolder(s, "Sat0"); got != "a" {
		t.Fatalf("powerHolder = %v, want a", got)
	}

	s.SetCalibrated("a", false)
	if got := powerHolder(s, "Sat0"); got != "b" {
		t.Fatalf("powerHolder = %v, want b (last powered)", got)
	}
}

func TestStatusString(t *testing.T) {
	if got := StatusCalibrateAndTakeImage.String(); got != "Calib-and-TakeImage" {
		t.Fatalf("String() = %q", got)
	}
	if got := Status(42).String(); got != "Unknown" {
		t.Fatalf("String() = %q, want Unknown", got)
	}
}
