package core

import "math"

// EarthRadiusKm is the mean Earth radius used for ground-site positions
// and occlusion tests (kilometres).
const EarthRadiusKm = 6371.0

// Vec3 is an ECEF-style vector in kilometres, or a unit pointing vector.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Unit returns v scaled to length one. The zero vector is returned as is.
func (v Vec3) Unit() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return Vec3{X: v.X / n, Y: v.Y / n, Z: v.Z / n}
}

// AngleDegrees returns the angle between two vectors in degrees.
func AngleDegrees(a, b Vec3) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return math.Acos(clampUnit(a.Dot(b)/(na*nb))) * 180.0 / math.Pi
}

// hasLineOfSight checks whether the straight segment between p1 and p2
// clears the Earth sphere.
//
// All positions are ECEF in kilometres.
func hasLineOfSight(p1, p2 Vec3) bool {
	v := p2.Sub(p1)
	a := v.Dot(v)
	if a == 0 {
		return p1.Dot(p1) > EarthRadiusKm*EarthRadiusKm
	}

	// closest point on the segment to the Earth's centre
	t := -p1.Dot(v) / a
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	closest := Vec3{
		X: p1.X + v.X*t,
		Y: p1.Y + v.Y*t,
		Z: p1.Z + v.Z*t,
	}
	// Ground sites sit on the sphere; allow a small tolerance so the
	// endpoint itself does not count as an intersection.
	return closest.Dot(closest) >= EarthRadiusKm*EarthRadiusKm-1e-6
}

// ElevationDegrees returns the elevation angle of the target as seen from
// the observer, in degrees. 0° = geometric horizon, 90° = overhead.
func ElevationDegrees(observer, target Vec3) float64 {
	v := target.Sub(observer)
	vNorm := v.Norm()
	if vNorm == 0 {
		return 90
	}
	if observer.Norm() == 0 {
		return 90
	}
	zenith := observer.Unit()

	gammaDeg := math.Acos(clampUnit(v.Dot(zenith)/vNorm)) * 180.0 / math.Pi
	return 90.0 - gammaDeg
}

// GroundSiteECEF returns the ECEF position of a site on a spherical Earth.
func GroundSiteECEF(latDeg, lonDeg, altKm float64) Vec3 {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0
	r := EarthRadiusKm + altKm
	return Vec3{
		X: r * math.Cos(lat) * math.Cos(lon),
		Y: r * math.Cos(lat) * math.Sin(lon),
		Z: r * math.Sin(lat),
	}
}

// CelestialECEF returns the ECEF unit vector towards an inertial direction
// given in right ascension and declination, at Greenwich sidereal angle
// gmst (radians).
func CelestialECEF(raDeg, decDeg, gmst float64) Vec3 {
	ra := raDeg * math.Pi / 180.0
	dec := decDeg * math.Pi / 180.0
	x := math.Cos(dec) * math.Cos(ra)
	y := math.Cos(dec) * math.Sin(ra)
	return Vec3{
		X: x*math.Cos(gmst) + y*math.Sin(gmst),
		Y: -x*math.Sin(gmst) + y*math.Cos(gmst),
		Z: math.Sin(dec),
	}
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
