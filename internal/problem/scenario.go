package problem

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/tasking-planner/core"
	"github.com/signalsfoundry/tasking-planner/kb"
	"github.com/signalsfoundry/tasking-planner/model"
)

// ErrInvalidScenario wraps every validation failure of a YAML scenario.
var ErrInvalidScenario = errors.New("invalid scenario")

var validate = validator.New()

// Scenario is a structured satellite problem.
type Scenario struct {
	Name       string          `yaml:"name" validate:"required"`
	SlewModel  *SlewModelSpec  `yaml:"slew_model"`
	Satellites []SatelliteSpec `yaml:"satellites" validate:"required,min=1,dive"`
	Directions []DirectionSpec `yaml:"directions" validate:"dive"`
	DataCosts  []DataCostSpec  `yaml:"data_costs" validate:"dive"`
	SlewTimes  []SlewTimeSpec  `yaml:"slew_times" validate:"dive"`
	Goal       GoalSpec        `yaml:"goal"`
}

// SlewModelSpec configures geometric slew derivation.
type SlewModelSpec struct {
	RateDegPerSec   float64   `yaml:"rate_deg_per_sec" validate:"gt=0"`
	SettleSec       float64   `yaml:"settle_sec" validate:"gte=0"`
	MinElevationDeg float64   `yaml:"min_elevation_deg" validate:"gte=-90,lte=90"`
	TLE             []string  `yaml:"tle" validate:"omitempty,len=2"`
	Epoch           time.Time `yaml:"epoch"`
}

// SatelliteSpec describes one spacecraft and its instruments.
type SatelliteSpec struct {
	ID           string           `yaml:"id" validate:"required"`
	Pointing     string           `yaml:"pointing" validate:"required"`
	Fuel         float64          `yaml:"fuel" validate:"gte=0"`
	DataCapacity float64          `yaml:"data_capacity" validate:"gte=0"`
	PowerAvail   *bool            `yaml:"power_avail"`
	Instruments  []InstrumentSpec `yaml:"instruments" validate:"dive"`
}

// InstrumentSpec describes one instrument.
type InstrumentSpec struct {
	ID                 string   `yaml:"id" validate:"required"`
	Modes              []string `yaml:"modes" validate:"required,min=1,dive,required"`
	CalibrationTargets []string `yaml:"calibration_targets" validate:"dive,required"`
	PowerOn            bool     `yaml:"power_on"`
	Calibrated         bool     `yaml:"calibrated"`
}

// DirectionSpec gives a direction's geometry.
type DirectionSpec struct {
	ID     string  `yaml:"id" validate:"required"`
	Kind   string  `yaml:"kind" validate:"required,oneof=celestial ground"`
	RADeg  float64 `yaml:"ra_deg" validate:"gte=0,lt=360"`
	DecDeg float64 `yaml:"dec_deg" validate:"gte=-90,lte=90"`
	LatDeg float64 `yaml:"lat_deg" validate:"gte=-90,lte=90"`
	LonDeg float64 `yaml:"lon_deg" validate:"gte=-180,lte=180"`
	AltKm  float64 `yaml:"alt_km" validate:"gte=0"`
}

// DataCostSpec is the storage volume of one image.
type DataCostSpec struct {
	Direction string  `yaml:"direction" validate:"required"`
	Mode      string  `yaml:"mode" validate:"required"`
	Cost      float64 `yaml:"cost" validate:"gte=0"`
}

// SlewTimeSpec is an explicit slew table entry.
type SlewTimeSpec struct {
	From      string  `yaml:"from" validate:"required"`
	To        string  `yaml:"to" validate:"required,nefield=From"`
	Seconds   float64 `yaml:"seconds" validate:"gte=0"`
	Symmetric bool    `yaml:"symmetric"`
}

// GoalSpec lists the goal atoms.
type GoalSpec struct {
	Pointing []PointingSpec `yaml:"pointing" validate:"dive"`
	Images   []ImageSpec    `yaml:"images" validate:"dive"`
}

// PointingSpec is a pointing goal.
type PointingSpec struct {
	Satellite string `yaml:"satellite" validate:"required"`
	Direction string `yaml:"direction" validate:"required"`
}

// ImageSpec is an image goal.
type ImageSpec struct {
	Direction string `yaml:"direction" validate:"required"`
	Mode      string `yaml:"mode" validate:"required"`
}

// LoadScenario decodes and validates a YAML scenario.
func LoadScenario(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidScenario)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := validate.Struct(&sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := sc.checkReferences(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// checkReferences enforces the cross-field rules struct tags cannot express.
func (sc *Scenario) checkReferences() error {
	sats := make(map[string]struct{}, len(sc.Satellites))
	insts := make(map[string]struct{})
	for _, sat := range sc.Satellites {
		if _, dup := sats[sat.ID]; dup {
			return fmt.Errorf("%w: duplicate satellite %q", ErrInvalidScenario, sat.ID)
		}
		sats[sat.ID] = struct{}{}
		for _, inst := range sat.Instruments {
			if _, dup := insts[inst.ID]; dup {
				return fmt.Errorf("%w: duplicate instrument %q", ErrInvalidScenario, inst.ID)
			}
			insts[inst.ID] = struct{}{}
		}
	}
	for _, pg := range sc.Goal.Pointing {
		if _, ok := sats[pg.Satellite]; !ok {
			return fmt.Errorf("%w: pointing goal for unknown satellite %q", ErrInvalidScenario, pg.Satellite)
		}
	}
	dirs := make(map[string]struct{}, len(sc.Directions))
	for _, d := range sc.Directions {
		if _, dup := dirs[d.ID]; dup {
			return fmt.Errorf("%w: duplicate direction %q", ErrInvalidScenario, d.ID)
		}
		dirs[d.ID] = struct{}{}
	}
	return nil
}

// Build turns the scenario into a planning state and goal. When a slew
// model is configured, slew entries missing from slew_times are derived
// from direction geometry.
func (sc *Scenario) Build() (*kb.State, *kb.Multigoal, core.SlewDerivation, error) {
	var derived core.SlewDerivation
	s := kb.NewState(sc.Name)

	for _, sat := range sc.Satellites {
		id := model.SatelliteID(sat.ID)
		s.SetPointing(id, model.Direction(sat.Pointing))
		s.SetFuel(id, sat.Fuel)
		s.SetDataCapacity(id, sat.DataCapacity)
		if sat.PowerAvail != nil {
			s.SetPowerAvail(id, *sat.PowerAvail)
		}
		for _, inst := range sat.Instruments {
			iid := model.InstrumentID(inst.ID)
			s.SetOnBoard(iid, id)
			for _, m := range inst.Modes {
				s.AddSupport(iid, model.Mode(m))
			}
			for _, d := range inst.CalibrationTargets {
				s.AddCalibrationTarget(iid, model.Direction(d))
			}
			if inst.PowerOn {
				s.SetPowerOn(iid, true)
			}
			if inst.Calibrated {
				s.SetCalibrated(iid, true)
			}
		}
	}
	for _, dc := range sc.DataCosts {
		s.SetDataCost(model.ImageKey{Direction: model.Direction(dc.Direction), Mode: model.Mode(dc.Mode)}, dc.Cost)
	}
	for _, st := range sc.SlewTimes {
		s.SetSlewTime(model.Direction(st.From), model.Direction(st.To), st.Seconds)
		if st.Symmetric && !s.HasSlewTime(model.Direction(st.To), model.Direction(st.From)) {
			s.SetSlewTime(model.Direction(st.To), model.Direction(st.From), st.Seconds)
		}
	}

	if sc.SlewModel != nil && len(sc.Directions) > 0 {
		m := core.SlewModel{
			RateDegPerSec:   sc.SlewModel.RateDegPerSec,
			SettleSec:       sc.SlewModel.SettleSec,
			MinElevationDeg: sc.SlewModel.MinElevationDeg,
			Epoch:           sc.SlewModel.Epoch,
		}
		if len(sc.SlewModel.TLE) == 2 {
			m.TLE1, m.TLE2 = sc.SlewModel.TLE[0], sc.SlewModel.TLE[1]
		}
		geo := make(map[model.Direction]core.DirectionGeometry, len(sc.Directions))
		for _, d := range sc.Directions {
			geo[model.Direction(d.ID)] = core.DirectionGeometry{
				Kind:   core.TargetKind(d.Kind),
				RADeg:  d.RADeg,
				DecDeg: d.DecDeg,
				LatDeg: d.LatDeg,
				LonDeg: d.LonDeg,
				AltKm:  d.AltKm,
			}
		}
		var err error
		derived, err = m.Derive(s, geo)
		if err != nil {
			return nil, nil, derived, err
		}
	}

	if err := s.Validate(); err != nil {
		return nil, nil, derived, err
	}

	g := kb.NewMultigoal(sc.Name)
	for _, pg := range sc.Goal.Pointing {
		g.SetPointing(model.SatelliteID(pg.Satellite), model.Direction(pg.Direction))
	}
	for _, img := range sc.Goal.Images {
		g.RequireImage(model.ImageKey{Direction: model.Direction(img.Direction), Mode: model.Mode(img.Mode)})
	}
	return s, g, derived, nil
}
