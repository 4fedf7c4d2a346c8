package model

import "fmt"

// Observer is a ground location plus the search radius around it. Immutable
// for the duration of one search request.
type Observer struct {
	LatDeg   float64 // WGS-84 geodetic latitude, degrees
	LonDeg   float64 // WGS-84 longitude, degrees
	RadiusKm float64 // search radius around the observer
}

// ValidationError describes a rejected search input. It is returned before
// any pass enumeration or task generation happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate rejects malformed coordinates and non-positive radii.
func (o Observer) Validate() error {
	if o.LatDeg < -90 || o.LatDeg > 90 {
		return &ValidationError{
			Field:  "latitude",
			Reason: fmt.Sprintf("%.4f out of range [-90, 90]", o.LatDeg),
		}
	}
	if o.LonDeg < -180 || o.LonDeg > 180 {
		return &ValidationError{
			Field:  "longitude",
			Reason: fmt.Sprintf("%.4f out of range [-180, 180]", o.LonDeg),
		}
	}
	if o.RadiusKm <= 0 {
		return &ValidationError{
			Field:  "radius_km",
			Reason: fmt.Sprintf("%.2f must be positive", o.RadiusKm),
		}
	}
	return nil
}
