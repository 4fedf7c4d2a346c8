package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/signalsfoundry/transit-finder/model"
)

// ErrEphemerisUnavailable marks a satellite whose pass enumeration failed.
// The search continues for the other satellites; the failure surfaces as
// partial coverage on the result.
var ErrEphemerisUnavailable = errors.New("ephemeris unavailable")

// TaskError reports one search task that was dropped: a numeric or geometric
// failure, a panic caught at the task boundary, or a timeout. Sibling tasks
// are unaffected.
type TaskError struct {
	Satellite string
	Body      model.CelestialBody
	Rise      time.Time
	Err       error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s/%s pass %s: %v",
		e.Satellite, e.Body, e.Rise.Format(time.RFC3339), e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// SkippedSatellite records a satellite excluded from the search because its
// pass enumeration failed.
type SkippedSatellite struct {
	ID  string
	Err error
}
