package model

import "math"

// CelestialBody enumerates the disks a satellite can transit.
type CelestialBody int

const (
	Sun CelestialBody = iota
	Moon
)

// Mean physical radii in kilometres.
const (
	sunRadiusKm  = 696340.0
	moonRadiusKm = 1737.4
)

// String returns the body's display name.
func (b CelestialBody) String() string {
	switch b {
	case Sun:
		return "Sun"
	case Moon:
		return "Moon"
	default:
		return "unknown"
	}
}

// RadiusKm returns the body's mean physical radius.
func (b CelestialBody) RadiusKm() float64 {
	if b == Moon {
		return moonRadiusKm
	}
	return sunRadiusKm
}

// AngularRadius returns the half-angle in radians subtended by the body's
// disk as seen from a point at the given distance (km). Distance-dependent
// for both bodies; lunar libration is ignored.
func (b CelestialBody) AngularRadius(distanceKm float64) float64 {
	r := b.RadiusKm()
	if distanceKm <= r {
		return math.Pi / 2
	}
	return math.Asin(r / distanceKm)
}

// Bodies lists every body checked against each satellite pass, in the order
// tasks are generated.
func Bodies() []CelestialBody {
	return []CelestialBody{Sun, Moon}
}
