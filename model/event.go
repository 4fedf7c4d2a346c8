package model

import "time"

// PassWindow is a maximal interval during which a satellite stays above the
// observer's local horizon, paired with the body it will be checked against.
// Rise strictly precedes Set. Each window is consumed by exactly one task.
type PassWindow struct {
	Satellite TrackedSatellite
	Body      CelestialBody
	Rise      time.Time
	Set       time.Time
}

// GroundPoint is one sample of a transit's ground-track centerline.
type GroundPoint struct {
	LatDeg float64 `json:"lat"`
	LonDeg float64 `json:"lon"`
}

// TransitType classifies how close the satellite comes to the body's disk at
// the refined minimum instant.
type TransitType string

const (
	// TypeTransit means the satellite crosses the visible disk: separation
	// at minimum is below the body's angular radius.
	TypeTransit TransitType = "transit"
	// TypeClosePass means the satellite skirts the disk without crossing it.
	TypeClosePass TransitType = "close_pass"
)

// TransitEvent is one confirmed transit or close pass.
type TransitEvent struct {
	Satellite     string        `json:"satellite"`
	Body          string        `json:"celestial_body"`
	Type          TransitType   `json:"transit_type"`
	Time          time.Time     `json:"time_utc"`
	DurationSec   float64       `json:"duration_sec"`
	SeparationDeg float64       `json:"separation_deg"`
	AzimuthDeg    float64       `json:"azimuth_deg"`
	ElevationDeg  float64       `json:"elevation_deg"`
	SwathWidthKm  float64       `json:"swath_width_km"`
	Track         []GroundPoint `json:"path_points"` // centerline, ordered by time
}
