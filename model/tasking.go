package model

import "fmt"

// SatelliteID identifies a spacecraft platform.
type SatelliteID string

// InstrumentID identifies an imaging instrument. Every instrument is mounted
// on exactly one satellite for its whole lifetime.
type InstrumentID string

// Direction is an opaque symbolic pointing target (star, planet, ground station).
type Direction string

// Mode is an opaque symbolic acquisition mode (e.g. "thermograph0").
type Mode string

// ImageKey identifies an image requirement by the direction it is taken
// towards and the mode it is taken in. It is comparable and used directly as
// a map key.
type ImageKey struct {
	Direction Direction
	Mode      Mode
}

func (k ImageKey) String() string {
	return fmt.Sprintf("%s/%s", k.Direction, k.Mode)
}

// SlewKey is an ordered pair of directions indexing the slew-time table.
type SlewKey struct {
	From Direction
	To   Direction
}

// Reverse returns the key with From and To swapped.
func (k SlewKey) Reverse() SlewKey {
	return SlewKey{From: k.To, To: k.From}
}

// Instrument describes the static capabilities of an instrument. Dynamic
// attributes (power, calibration) live in the world state.
type Instrument struct {
	ID                 InstrumentID
	OnBoard            SatelliteID
	Supports           []Mode
	CalibrationTargets []Direction
}

// SupportsMode reports whether the instrument can capture images in m.
func (i *Instrument) SupportsMode(m Mode) bool {
	for _, s := range i.Supports {
		if s == m {
			return true
		}
	}
	return false
}

// CanCalibrateFrom reports whether d is one of the instrument's calibration targets.
func (i *Instrument) CanCalibrateFrom(d Direction) bool {
	for _, t := range i.CalibrationTargets {
		if t == d {
			return true
		}
	}
	return false
}
