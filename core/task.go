package core

import (
	"context"
	"fmt"
	"time"

	"github.com/signalsfoundry/transit-finder/ephemeris"
	"github.com/signalsfoundry/transit-finder/internal/logging"
	"github.com/signalsfoundry/transit-finder/model"
)

// Ephemeris is the position/geometry capability the search engine depends
// on. Implemented by *ephemeris.Provider; tests substitute synthetic
// geometry.
type Ephemeris interface {
	// PassWindows returns every above-horizon interval for the satellite
	// within [start, end].
	PassWindows(ctx context.Context, sat model.TrackedSatellite, obs model.Observer, start, end time.Time) ([]ephemeris.Pass, error)
	// Project returns the ground-track sample at t, or
	// ephemeris.ErrNoProjection when the geometry is undefined.
	Project(t time.Time, sat model.TrackedSatellite, body model.CelestialBody) (ephemeris.Projection, error)
	// LookAt returns the observer-relative geometry at t.
	LookAt(t time.Time, sat model.TrackedSatellite, body model.CelestialBody, obs model.Observer) (ephemeris.Look, error)
}

// Tuning pins the search resolution constants. The defaults are the
// reproducibility contract: tests assert exact sample instants against them.
type Tuning struct {
	CoarseStep          time.Duration // coarse scan sample interval
	FineHalfWindow      time.Duration // half-width of the refinement window
	FineStep            time.Duration // refinement sample interval
	PruneMarginKm       float64       // added to the radius at the coarse prune
	BodyHorizonFloorDeg float64       // reject when the body center is below this
	MaxSeparationDeg    float64       // reject when the satellite is this far off the disk
}

// DefaultTuning returns the fixed baseline constants.
func DefaultTuning() Tuning {
	return Tuning{
		CoarseStep:          2 * time.Second,
		FineHalfWindow:      10 * time.Second,
		FineStep:            100 * time.Millisecond,
		PruneMarginKm:       500,
		BodyHorizonFloorDeg: -2,
		MaxSeparationDeg:    5,
	}
}

// normalized fills zero fields with the defaults so a partially-specified
// tuning never produces a degenerate scan.
func (t Tuning) normalized() Tuning {
	def := DefaultTuning()
	if t.CoarseStep <= 0 {
		t.CoarseStep = def.CoarseStep
	}
	if t.FineHalfWindow <= 0 {
		t.FineHalfWindow = def.FineHalfWindow
	}
	if t.FineStep <= 0 {
		t.FineStep = def.FineStep
	}
	if t.PruneMarginKm <= 0 {
		t.PruneMarginKm = def.PruneMarginKm
	}
	if t.BodyHorizonFloorDeg == 0 {
		t.BodyHorizonFloorDeg = def.BodyHorizonFloorDeg
	}
	if t.MaxSeparationDeg <= 0 {
		t.MaxSeparationDeg = def.MaxSeparationDeg
	}
	return t
}

// SearchTask is the unit of parallel work: one pass window checked against
// one celestial body for one observer. Tasks share no mutable state.
type SearchTask struct {
	Window   model.PassWindow
	Observer model.Observer
	Tuning   Tuning
}

// ID identifies the task in logs and results.
func (t SearchTask) ID() string {
	return fmt.Sprintf("%s/%s/%s",
		t.Window.Satellite.ID, t.Window.Body, t.Window.Rise.Format(time.RFC3339))
}

// GenerateTasks enumerates pass windows for every satellite and crosses each
// window with both bodies. A satellite whose enumeration fails is skipped
// whole (never partially) and reported; the others proceed.
func GenerateTasks(
	ctx context.Context,
	eph Ephemeris,
	log logging.Logger,
	sats []model.TrackedSatellite,
	obs model.Observer,
	start, end time.Time,
	tuning Tuning,
) ([]SearchTask, []SkippedSatellite) {
	if log == nil {
		log = logging.Noop()
	}
	tuning = tuning.normalized()

	var tasks []SearchTask
	var skipped []SkippedSatellite

	for _, sat := range sats {
		passes, err := eph.PassWindows(ctx, sat, obs, start, end)
		if err != nil {
			skipped = append(skipped, SkippedSatellite{
				ID:  sat.ID,
				Err: fmt.Errorf("%w: %s: %w", ErrEphemerisUnavailable, sat.ID, err),
			})
			log.Warn(ctx, "pass enumeration failed; skipping satellite",
				logging.String("satellite", sat.ID),
				logging.String("error", err.Error()),
			)
			continue
		}

		for _, pass := range passes {
			if !pass.Rise.Before(pass.Set) {
				continue
			}
			for _, body := range model.Bodies() {
				tasks = append(tasks, SearchTask{
					Window: model.PassWindow{
						Satellite: sat,
						Body:      body,
						Rise:      pass.Rise,
						Set:       pass.Set,
					},
					Observer: obs,
					Tuning:   tuning,
				})
			}
		}

		log.Debug(ctx, "enumerated passes",
			logging.String("satellite", sat.ID),
			logging.Int("passes", len(passes)),
		)
	}

	return tasks, skipped
}
