package core

import (
	"github.com/signalsfoundry/tasking-planner/kb"
	"github.com/signalsfoundry/tasking-planner/model"
)

// Status is the repair category of a single goal atom.
type Status int

const (
	// StatusDone means the atom already holds.
	StatusDone Status = iota
	// StatusChangePointing means a satellite must slew to its goal direction.
	StatusChangePointing
	// StatusTakeImage means a calibrated instrument can capture the image.
	StatusTakeImage
	// StatusCalibrateAndTakeImage means the chosen instrument must be
	// powered and calibrated before capturing.
	StatusCalibrateAndTakeImage
	// StatusSwitchOff means another instrument must release power first.
	StatusSwitchOff
	// StatusFail means no repair exists.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "Done"
	case StatusChangePointing:
		return "Change-Pointing"
	case StatusTakeImage:
		return "TakeImage"
	case StatusCalibrateAndTakeImage:
		return "Calib-and-TakeImage"
	case StatusSwitchOff:
		return "Switch-Off"
	case StatusFail:
		return "Fail"
	default:
		return "Unknown"
	}
}

// ImageStatus is the classification of an image goal atom.
type ImageStatus struct {
	Status    Status
	Candidate Candidate
	// SwitchOff is the instrument to power down when Status is
	// StatusSwitchOff. It is mounted on Candidate.Satellite.
	SwitchOff model.InstrumentID
}

// ClassifyPointing classifies the pointing goal of sat.
func ClassifyPointing(s *kb.State, goal *kb.Multigoal, sat model.SatelliteID) (Status, error) {
	want, ok := goal.Pointing(sat)
	if !ok {
		return StatusDone, nil
	}
	cur, err := pointingOf(s, sat)
	if err != nil {
		return StatusFail, err
	}
	if cur == want {
		return StatusDone, nil
	}
	return StatusChangePointing, nil
}

// ClassifyImage classifies image goal key. pending holds the satellites
// whose pointing goals are not yet met; their return slews are charged to
// candidates on those satellites.
func ClassifyImage(s *kb.State, goal *kb.Multigoal, key model.ImageKey, pending SatelliteSet) (ImageStatus, error) {
	if s.HaveImage(key) {
		return ImageStatus{Status: StatusDone}, nil
	}

	cand, err := SelectCandidate(s, goal, key, pending)
	if err != nil {
		return ImageStatus{Status: StatusFail}, err
	}
	if !cand.Found() {
		return ImageStatus{Status: StatusFail}, nil
	}
	if !cand.NeedsCalibration() {
		return ImageStatus{Status: StatusTakeImage, Candidate: cand}, nil
	}
	if s.PowerAvail(cand.Satellite) {
		return ImageStatus{Status: StatusCalibrateAndTakeImage, Candidate: cand}, nil
	}

	off := powerHolder(s, cand.Satellite)
	if off == "" {
		// no spare power and nothing to switch off
		return ImageStatus{Status: StatusFail, Candidate: cand}, nil
	}
	return ImageStatus{Status: StatusSwitchOff, Candidate: cand, SwitchOff: off}, nil
}

// powerHolder picks the instrument on sat to power down: the last powered
// and calibrated instrument in declaration order, else the last powered one.
func powerHolder(s *kb.State, sat model.SatelliteID) model.InstrumentID {
	var calibrated, powered model.InstrumentID
	for _, inst := range s.InstrumentsOn(sat) {
		if !s.PowerOn(inst.ID) {
			continue
		}
		powered = inst.ID
		if s.Calibrated(inst.ID) {
			calibrated = inst.ID
		}
	}
	if calibrated != "" {
		return calibrated
	}
	return powered
}
