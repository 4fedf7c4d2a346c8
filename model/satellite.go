package model

import (
	"fmt"
	"strings"
)

// TrackedSatellite identifies one satellite in the search catalog together
// with its two-line element set. The element set is owned by whoever supplied
// it (config file, upstream TLE feed) and is read-only to the search engine.
type TrackedSatellite struct {
	ID    string // short stable identifier, e.g. "ISS"
	Name  string // display name, e.g. "ISS (ZARYA)"
	Line1 string
	Line2 string
}

// Validate performs basic format checks on the element set. The SGP4 library
// terminates the process on malformed input, so garbage must be rejected
// before it ever reaches propagation.
func (s TrackedSatellite) Validate() error {
	if s.ID == "" {
		return &ValidationError{Field: "satellite.id", Reason: "must not be empty"}
	}
	l1 := strings.TrimSpace(s.Line1)
	l2 := strings.TrimSpace(s.Line2)
	if len(l1) != 69 {
		return &ValidationError{
			Field:  "satellite.line1",
			Reason: fmt.Sprintf("length %d, expected 69", len(l1)),
		}
	}
	if len(l2) != 69 {
		return &ValidationError{
			Field:  "satellite.line2",
			Reason: fmt.Sprintf("length %d, expected 69", len(l2)),
		}
	}
	if l1[0] != '1' {
		return &ValidationError{Field: "satellite.line1", Reason: "must start with '1'"}
	}
	if l2[0] != '2' {
		return &ValidationError{Field: "satellite.line2", Reason: "must start with '2'"}
	}
	return nil
}

// DefaultCatalog returns the fixed set of satellites searched when no catalog
// is configured: the two crewed stations and Hubble. Element sets are
// placeholders with valid framing; production deployments supply current TLEs
// via the config file.
func DefaultCatalog() []TrackedSatellite {
	return []TrackedSatellite{
		{
			ID:    "ISS",
			Name:  "ISS (ZARYA)",
			Line1: "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990",
			Line2: "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760",
		},
		{
			ID:    "CSS",
			Name:  "CSS (TIANHE)",
			Line1: "1 48274U 21035A   21275.51835648  .00021073  00000-0  24380-3 0  9993",
			Line2: "2 48274  41.4695 285.1739 0004407 307.1723 155.6996 15.60799773 24344",
		},
		{
			ID:    "HST",
			Name:  "HST",
			Line1: "1 20580U 90037B   21275.48362183  .00001124  00000-0  55678-4 0  9995",
			Line2: "2 20580  28.4695 124.0460 0002653 190.1932 235.6299 15.09748689527301",
		},
	}
}
