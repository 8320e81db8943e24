package problem

import (
	"fmt"
	"io"
	"strconv"

	"github.com/signalsfoundry/tasking-planner/kb"
	"github.com/signalsfoundry/tasking-planner/model"
)

// ParseSatellite reads a satellite-domain PDDL problem. Facts the domain
// does not model are skipped. name overrides the problem's own name when
// non-empty.
func ParseSatellite(r io.Reader, name string) (*kb.State, *kb.Multigoal, error) {
	doc, err := parseSexpr(r)
	if err != nil {
		return nil, nil, err
	}
	pname, init, goal, err := sections(doc)
	if err != nil {
		return nil, nil, err
	}
	if name == "" {
		name = pname
	}

	s := kb.NewState(name)
	for _, fact := range init.list[1:] {
		if !fact.isList() {
			continue
		}
		if err := applySatelliteFact(s, fact); err != nil {
			return nil, nil, err
		}
	}
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}

	g := kb.NewMultigoal(name)
	for _, atom := range goalAtoms(goal) {
		w := atom.words()
		switch atom.head() {
		case "pointing":
			if len(w) != 3 {
				return nil, nil, arity(atom)
			}
			g.SetPointing(model.SatelliteID(w[1]), model.Direction(w[2]))
		case "have_image":
			if len(w) != 3 {
				return nil, nil, arity(atom)
			}
			g.RequireImage(model.ImageKey{Direction: model.Direction(w[1]), Mode: model.Mode(w[2])})
		}
	}
	return s, g, nil
}

func applySatelliteFact(s *kb.State, fact *node) error {
	if fact.head() == "=" {
		return applySatelliteFluent(s, fact)
	}

	w := fact.words()
	switch fact.head() {
	case "supports":
		if len(w) != 3 {
			return arity(fact)
		}
		s.AddSupport(model.InstrumentID(w[1]), model.Mode(w[2]))
	case "calibration_target":
		if len(w) != 3 {
			return arity(fact)
		}
		s.AddCalibrationTarget(model.InstrumentID(w[1]), model.Direction(w[2]))
	case "on_board":
		if len(w) != 3 {
			return arity(fact)
		}
		s.SetOnBoard(model.InstrumentID(w[1]), model.SatelliteID(w[2]))
	case "power_avail":
		if len(w) != 2 {
			return arity(fact)
		}
		s.SetPowerAvail(model.SatelliteID(w[1]), true)
	case "pointing":
		if len(w) != 3 {
			return arity(fact)
		}
		s.SetPointing(model.SatelliteID(w[1]), model.Direction(w[2]))
	case "have_image":
		if len(w) != 3 {
			return arity(fact)
		}
		s.SetHaveImage(model.ImageKey{Direction: model.Direction(w[1]), Mode: model.Mode(w[2])}, true)
	case "power_on":
		if len(w) != 2 {
			return arity(fact)
		}
		s.SetPowerOn(model.InstrumentID(w[1]), true)
	case "calibrated":
		if len(w) != 2 {
			return arity(fact)
		}
		s.SetCalibrated(model.InstrumentID(w[1]), true)
	}
	return nil
}

// applySatelliteFluent handles "(= (function args...) value)".
func applySatelliteFluent(s *kb.State, fact *node) error {
	if len(fact.list) != 3 || !fact.list[1].isList() || fact.list[2].isList() {
		return fmt.Errorf("%w: malformed fluent %s", ErrSyntax, fact.render())
	}
	fn := fact.list[1]
	w := fn.words()
	v, err := strconv.ParseFloat(fact.list[2].atom, 64)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSyntax, fact.render(), err)
	}

	switch fn.head() {
	case "data_capacity":
		if len(w) != 2 {
			return arity(fact)
		}
		s.SetDataCapacity(model.SatelliteID(w[1]), v)
	case "fuel":
		if len(w) != 2 {
			return arity(fact)
		}
		s.SetFuel(model.SatelliteID(w[1]), v)
	case "data":
		if len(w) != 3 {
			return arity(fact)
		}
		s.SetDataCost(model.ImageKey{Direction: model.Direction(w[1]), Mode: model.Mode(w[2])}, v)
	case "slew_time":
		if len(w) != 3 {
			return arity(fact)
		}
		s.SetSlewTime(model.Direction(w[1]), model.Direction(w[2]), v)
	case "data-stored":
		s.DataStored = 0
	case "fuel-used":
		s.FuelUsed = 0
	}
	return nil
}

func arity(n *node) error {
	return fmt.Errorf("%w: wrong number of arguments in %s", ErrSyntax, n.render())
}
