package core

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/signalsfoundry/tasking-planner/kb"
	"github.com/signalsfoundry/tasking-planner/model"
)

// ErrSlewModel indicates slew derivation parameters that cannot produce a
// table.
var ErrSlewModel = fmt.Errorf("%w: invalid slew model", ErrConfiguration)

// TargetKind says how a direction's geometry is given.
type TargetKind string

const (
	// TargetCelestial is an inertial direction (right ascension, declination).
	TargetCelestial TargetKind = "celestial"
	// TargetGround is a site on the Earth's surface (latitude, longitude).
	TargetGround TargetKind = "ground"
)

// DirectionGeometry locates a symbolic direction.
type DirectionGeometry struct {
	Kind   TargetKind
	RADeg  float64
	DecDeg float64
	LatDeg float64
	LonDeg float64
	AltKm  float64
}

// SlewModel derives slew times from direction geometry for problems that
// do not list them. A slew costs the angle between the two pointing
// vectors divided by the slew rate, plus a fixed settle time.
type SlewModel struct {
	RateDegPerSec float64
	SettleSec     float64
	// MinElevationDeg is the lowest elevation at which a ground site
	// counts as visible from the spacecraft.
	MinElevationDeg float64
	// TLE1 and TLE2 place the spacecraft. They are required only when a
	// ground direction is present.
	TLE1, TLE2 string
	Epoch      time.Time
}

// SlewDerivation summarises a Derive call.
type SlewDerivation struct {
	// Derived counts the table entries added.
	Derived int
	// Occluded lists ground directions not visible at Epoch. No entries
	// are derived for them.
	Occluded []model.Direction
}

// Derive adds a slew entry for every ordered pair of directions in geo that
// s does not already define. Derived entries are symmetric; explicit
// entries are never overwritten.
func (m SlewModel) Derive(s *kb.State, geo map[model.Direction]DirectionGeometry) (SlewDerivation, error) {
	var out SlewDerivation
	if m.RateDegPerSec <= 0 {
		return out, fmt.Errorf("%w: slew rate must be positive, got %v", ErrSlewModel, m.RateDegPerSec)
	}
	if m.SettleSec < 0 {
		return out, fmt.Errorf("%w: settle time must not be negative, got %v", ErrSlewModel, m.SettleSec)
	}

	dirs := make([]model.Direction, 0, len(geo))
	for d := range geo {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i] < dirs[j] })

	gmst := SiderealAngle(m.Epoch)
	var satPos *Vec3

	vectors := make(map[model.Direction]Vec3, len(dirs))
	var visible []model.Direction
	for _, d := range dirs {
		g := geo[d]
		switch g.Kind {
		case TargetCelestial:
			vectors[d] = CelestialECEF(g.RADeg, g.DecDeg, gmst)
		case TargetGround:
			if satPos == nil {
				orbit, err := NewOrbitFromTLE(m.TLE1, m.TLE2)
				if err != nil {
					return out, fmt.Errorf("ground direction %s: %w", d, err)
				}
				p := orbit.PositionECEF(m.Epoch)
				satPos = &p
			}
			site := GroundSiteECEF(g.LatDeg, g.LonDeg, g.AltKm)
			if !hasLineOfSight(*satPos, site) || ElevationDegrees(site, *satPos) < m.MinElevationDeg {
				out.Occluded = append(out.Occluded, d)
				continue
			}
			vectors[d] = site.Sub(*satPos).Unit()
		default:
			return out, fmt.Errorf("%w: direction %s has unknown kind %q", ErrSlewModel, d, g.Kind)
		}
		visible = append(visible, d)
	}

	for i, a := range visible {
		for _, b := range visible[i+1:] {
			v := m.slewSeconds(vectors[a], vectors[b])
			if !s.HasSlewTime(a, b) {
				s.SetSlewTime(a, b, v)
				out.Derived++
			}
			if !s.HasSlewTime(b, a) {
				s.SetSlewTime(b, a, v)
				out.Derived++
			}
		}
	}
	return out, nil
}

func (m SlewModel) slewSeconds(a, b Vec3) float64 {
	v := AngleDegrees(a, b)/m.RateDegPerSec + m.SettleSec
	return math.Round(v*1000) / 1000
}
