package core

import (
	"fmt"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// Orbit propagates a spacecraft from its two-line element set with SGP4.
type Orbit struct {
	sat satellite.Satellite
}

// NewOrbitFromTLE constructs an orbit from TLE lines.
func NewOrbitFromTLE(line1, line2 string) (*Orbit, error) {
	line1, line2 = strings.TrimSpace(line1), strings.TrimSpace(line2)
	if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") || len(line1) < 69 || len(line2) < 69 {
		return nil, fmt.Errorf("%w: malformed TLE", ErrSlewModel)
	}
	return &Orbit{sat: satellite.TLEToSat(line1, line2, satellite.GravityWGS72)}, nil
}

// PositionECEF propagates the orbit to t and returns the ECEF position in
// kilometres. go-satellite works in kilometres, matching Vec3.
func (o *Orbit) PositionECEF(t time.Time) Vec3 {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, _ := satellite.Propagate(o.sat, year, int(month), day, hour, min, sec)
	posECEF := satellite.ECIToECEF(posECI, SiderealAngle(t))
	return Vec3{X: posECEF.X, Y: posECEF.Y, Z: posECEF.Z}
}

// SiderealAngle returns the Greenwich mean sidereal angle at t in radians.
func SiderealAngle(t time.Time) float64 {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	return satellite.ThetaG_JD(satellite.JDay(year, int(month), day, hour, min, sec))
}
