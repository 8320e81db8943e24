package kb

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/tasking-planner/model"
)

var (
	// ErrIncompleteState indicates a state is missing attributes every
	// planning run depends on (owner satellite, initial pointing).
	ErrIncompleteState = errors.New("incomplete world state")
	// ErrInconsistentPower indicates instrument power states that disagree
	// with their satellite's power availability.
	ErrInconsistentPower = fmt.Errorf("%w: inconsistent power", ErrIncompleteState)
)

// State is the world state of a satellite tasking problem: static
// instrument capabilities plus every mutable resource attribute.
//
// A State is owned by exactly one planning run. It is not safe for
// concurrent use; concurrent runs must each work on their own Clone.
type State struct {
	Name string

	instruments     map[model.InstrumentID]*model.Instrument
	instrumentOrder []model.InstrumentID
	satelliteOrder  []model.SatelliteID
	satellites      map[model.SatelliteID]struct{}

	pointing     map[model.SatelliteID]model.Direction
	fuel         map[model.SatelliteID]float64
	dataCapacity map[model.SatelliteID]float64
	powerAvail   map[model.SatelliteID]bool

	dataCost map[model.ImageKey]float64
	slew     map[model.SlewKey]float64

	// Dynamic attributes. A nil map means the attribute was never supplied
	// for this run; lookups fall back to the documented default.
	powerOn    map[model.InstrumentID]bool
	calibrated map[model.InstrumentID]bool
	haveImage  map[model.ImageKey]bool

	DataStored float64
	FuelUsed   float64
}

// NewState returns an empty state. Dynamic attributes start unset.
func NewState(name string) *State {
	return &State{
		Name:         name,
		instruments:  make(map[model.InstrumentID]*model.Instrument),
		satellites:   make(map[model.SatelliteID]struct{}),
		pointing:     make(map[model.SatelliteID]model.Direction),
		fuel:         make(map[model.SatelliteID]float64),
		dataCapacity: make(map[model.SatelliteID]float64),
		powerAvail:   make(map[model.SatelliteID]bool),
		dataCost:     make(map[model.ImageKey]float64),
		slew:         make(map[model.SlewKey]float64),
	}
}

//
// ---------- Static structure ----------
//

func (s *State) instrument(id model.InstrumentID) *model.Instrument {
	inst, ok := s.instruments[id]
	if !ok {
		inst = &model.Instrument{ID: id}
		s.instruments[id] = inst
		s.instrumentOrder = append(s.instrumentOrder, id)
	}
	return inst
}

func (s *State) touchSatellite(sat model.SatelliteID) {
	if _, ok := s.satellites[sat]; ok {
		return
	}
	s.satellites[sat] = struct{}{}
	s.satelliteOrder = append(s.satelliteOrder, sat)
}

// AddSupport records that instrument id can capture images in mode m.
// Instruments are enumerated in the order they are first mentioned.
func (s *State) AddSupport(id model.InstrumentID, m model.Mode) {
	inst := s.instrument(id)
	if !inst.SupportsMode(m) {
		inst.Supports = append(inst.Supports, m)
	}
}

// AddCalibrationTarget appends d to the instrument's ordered calibration targets.
func (s *State) AddCalibrationTarget(id model.InstrumentID, d model.Direction) {
	inst := s.instrument(id)
	if !inst.CanCalibrateFrom(d) {
		inst.CalibrationTargets = append(inst.CalibrationTargets, d)
	}
}

// SetOnBoard mounts instrument id on sat.
func (s *State) SetOnBoard(id model.InstrumentID, sat model.SatelliteID) {
	s.instrument(id).OnBoard = sat
	s.touchSatellite(sat)
}

// Instrument returns the instrument definition, or nil, false if unknown.
func (s *State) Instrument(id model.InstrumentID) (*model.Instrument, bool) {
	inst, ok := s.instruments[id]
	return inst, ok
}

// Instruments returns all instruments in declaration order. Callers must
// treat the returned definitions as read-only.
func (s *State) Instruments() []*model.Instrument {
	out := make([]*model.Instrument, 0, len(s.instrumentOrder))
	for _, id := range s.instrumentOrder {
		out = append(out, s.instruments[id])
	}
	return out
}

// InstrumentsOn returns the instruments mounted on sat in declaration order.
func (s *State) InstrumentsOn(sat model.SatelliteID) []*model.Instrument {
	var out []*model.Instrument
	for _, id := range s.instrumentOrder {
		if inst := s.instruments[id]; inst.OnBoard == sat {
			out = append(out, inst)
		}
	}
	return out
}

// OnBoard reports the owner of instrument id.
func (s *State) OnBoard(id model.InstrumentID) (model.SatelliteID, bool) {
	inst, ok := s.instruments[id]
	if !ok || inst.OnBoard == "" {
		return "", false
	}
	return inst.OnBoard, true
}

// Satellites returns every satellite mentioned by the state, in the order
// they were first seen.
func (s *State) Satellites() []model.SatelliteID {
	return append([]model.SatelliteID(nil), s.satelliteOrder...)
}

//
// ---------- Satellite resources ----------
//

// SetPointing records the direction sat currently points at.
func (s *State) SetPointing(sat model.SatelliteID, d model.Direction) {
	s.touchSatellite(sat)
	s.pointing[sat] = d
}

// Pointing returns the current pointing of sat.
func (s *State) Pointing(sat model.SatelliteID) (model.Direction, bool) {
	d, ok := s.pointing[sat]
	return d, ok
}

// SetFuel sets the remaining fuel of sat.
func (s *State) SetFuel(sat model.SatelliteID, v float64) {
	s.touchSatellite(sat)
	s.fuel[sat] = v
}

// Fuel returns the remaining fuel of sat; an unset value reads as zero.
func (s *State) Fuel(sat model.SatelliteID) float64 {
	return s.fuel[sat]
}

// SetDataCapacity sets the remaining on-board storage of sat.
func (s *State) SetDataCapacity(sat model.SatelliteID, v float64) {
	s.touchSatellite(sat)
	s.dataCapacity[sat] = v
}

// DataCapacity returns the remaining storage of sat; unset reads as zero.
func (s *State) DataCapacity(sat model.SatelliteID) float64 {
	return s.dataCapacity[sat]
}

// SetPowerAvail records whether sat has spare power for an instrument.
func (s *State) SetPowerAvail(sat model.SatelliteID, v bool) {
	s.touchSatellite(sat)
	s.powerAvail[sat] = v
}

// PowerAvail reports whether sat can power up an instrument. A satellite
// with no recorded value has power available unless one of its instruments
// is already powered.
func (s *State) PowerAvail(sat model.SatelliteID) bool {
	v, ok := s.powerAvail[sat]
	if !ok {
		return s.poweredOn(sat) == ""
	}
	return v
}

// poweredOn returns the first powered instrument on sat, or "".
func (s *State) poweredOn(sat model.SatelliteID) model.InstrumentID {
	for _, id := range s.instrumentOrder {
		if s.instruments[id].OnBoard == sat && s.powerOn[id] {
			return id
		}
	}
	return ""
}

//
// ---------- Lookup tables ----------
//

// SetDataCost sets the storage volume consumed by capturing image k.
func (s *State) SetDataCost(k model.ImageKey, v float64) {
	s.dataCost[k] = v
}

// DataCost returns the storage volume of image k.
func (s *State) DataCost(k model.ImageKey) (float64, bool) {
	v, ok := s.dataCost[k]
	return v, ok
}

// SetSlewTime sets the cost of slewing from one direction to another. The
// table is keyed by ordered pair; callers wanting symmetry set both keys.
func (s *State) SetSlewTime(from, to model.Direction, v float64) {
	s.slew[model.SlewKey{From: from, To: to}] = v
}

// SlewTime returns the cost of slewing from one direction to another.
// Slewing to the same direction is free; any other pair must be present.
func (s *State) SlewTime(from, to model.Direction) (float64, bool) {
	if from == to {
		return 0, true
	}
	v, ok := s.slew[model.SlewKey{From: from, To: to}]
	return v, ok
}

// HasSlewTime reports whether an explicit entry exists for the pair.
func (s *State) HasSlewTime(from, to model.Direction) bool {
	_, ok := s.slew[model.SlewKey{From: from, To: to}]
	return ok
}

// Directions returns every direction referenced by pointing, calibration
// targets, data costs or slew entries. Order is unspecified.
func (s *State) Directions() []model.Direction {
	seen := make(map[model.Direction]struct{})
	add := func(d model.Direction) {
		if d != "" {
			seen[d] = struct{}{}
		}
	}
	for _, d := range s.pointing {
		add(d)
	}
	for _, inst := range s.instruments {
		for _, d := range inst.CalibrationTargets {
			add(d)
		}
	}
	for k := range s.dataCost {
		add(k.Direction)
	}
	for k := range s.slew {
		add(k.From)
		add(k.To)
	}
	out := make([]model.Direction, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	return out
}

//
// ---------- Dynamic attributes ----------
//

// SetPowerOn records the power state of instrument id.
func (s *State) SetPowerOn(id model.InstrumentID, v bool) {
	if s.powerOn == nil {
		s.powerOn = make(map[model.InstrumentID]bool)
	}
	s.powerOn[id] = v
}

// PowerOn reports whether instrument id is powered; unset reads as false.
func (s *State) PowerOn(id model.InstrumentID) bool {
	return s.powerOn[id]
}

// SetCalibrated records the calibration state of instrument id.
func (s *State) SetCalibrated(id model.InstrumentID, v bool) {
	if s.calibrated == nil {
		s.calibrated = make(map[model.InstrumentID]bool)
	}
	s.calibrated[id] = v
}

// Calibrated reports whether instrument id is calibrated; unset reads as false.
func (s *State) Calibrated(id model.InstrumentID) bool {
	return s.calibrated[id]
}

// SetHaveImage records completion of image k.
func (s *State) SetHaveImage(k model.ImageKey, v bool) {
	if s.haveImage == nil {
		s.haveImage = make(map[model.ImageKey]bool)
	}
	s.haveImage[k] = v
}

// HaveImage reports whether image k has been captured; unset reads as false.
func (s *State) HaveImage(k model.ImageKey) bool {
	return s.haveImage[k]
}

// InitDynamicAttributes allocates the dynamic attribute mappings that were
// not supplied by the initial state and returns the names of those it
// created. Supplied mappings are left untouched.
func (s *State) InitDynamicAttributes() []string {
	var created []string
	if s.powerOn == nil {
		s.powerOn = make(map[model.InstrumentID]bool)
		created = append(created, "power_on")
	}
	if s.calibrated == nil {
		s.calibrated = make(map[model.InstrumentID]bool)
		created = append(created, "calibrated")
	}
	if s.haveImage == nil {
		s.haveImage = make(map[model.ImageKey]bool)
		created = append(created, "have_image")
	}
	return created
}

// Validate checks that every instrument has an owner, every owning
// satellite has a known pointing, and power is consistent: at most one
// powered instrument per satellite, and none on a satellite recorded as
// having power available.
func (s *State) Validate() error {
	powered := make(map[model.SatelliteID]model.InstrumentID)
	for _, id := range s.instrumentOrder {
		inst := s.instruments[id]
		if inst.OnBoard == "" {
			return fmt.Errorf("%w: instrument %q has no on_board satellite", ErrIncompleteState, id)
		}
		if _, ok := s.pointing[inst.OnBoard]; !ok {
			return fmt.Errorf("%w: satellite %q has no pointing", ErrIncompleteState, inst.OnBoard)
		}
		if !s.powerOn[id] {
			continue
		}
		if other, ok := powered[inst.OnBoard]; ok {
			return fmt.Errorf("%w: satellite %q powers both %q and %q", ErrInconsistentPower, inst.OnBoard, other, id)
		}
		powered[inst.OnBoard] = id
		if v, ok := s.powerAvail[inst.OnBoard]; ok && v {
			return fmt.Errorf("%w: satellite %q has power available while %q is on", ErrInconsistentPower, inst.OnBoard, id)
		}
	}
	return nil
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	out := &State{
		Name:            s.Name,
		instruments:     make(map[model.InstrumentID]*model.Instrument, len(s.instruments)),
		instrumentOrder: append([]model.InstrumentID(nil), s.instrumentOrder...),
		satelliteOrder:  append([]model.SatelliteID(nil), s.satelliteOrder...),
		satellites:      make(map[model.SatelliteID]struct{}, len(s.satellites)),
		pointing:        cloneMap(s.pointing),
		fuel:            cloneMap(s.fuel),
		dataCapacity:    cloneMap(s.dataCapacity),
		powerAvail:      cloneMap(s.powerAvail),
		dataCost:        cloneMap(s.dataCost),
		slew:            cloneMap(s.slew),
		powerOn:         cloneMap(s.powerOn),
		calibrated:      cloneMap(s.calibrated),
		haveImage:       cloneMap(s.haveImage),
		DataStored:      s.DataStored,
		FuelUsed:        s.FuelUsed,
	}
	for id, inst := range s.instruments {
		cp := *inst
		cp.Supports = append([]model.Mode(nil), inst.Supports...)
		cp.CalibrationTargets = append([]model.Direction(nil), inst.CalibrationTargets...)
		out.instruments[id] = &cp
	}
	for sat := range s.satellites {
		out.satellites[sat] = struct{}{}
	}
	return out
}

// cloneMap copies m, preserving nil (unset) maps as nil.
func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
