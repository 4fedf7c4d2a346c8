package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/transit-finder/ephemeris"
	"github.com/signalsfoundry/transit-finder/model"
)

// transitCandidate is the running minimum of a scan: the sample whose
// ground-track point comes closest to the observer. Mutated only within one
// task's sequential scan.
type transitCandidate struct {
	t      time.Time
	ground model.GroundPoint
	proj   ephemeris.Projection
	distKm float64
}

// Searcher runs the coarse-to-fine minimum search for single tasks.
type Searcher struct {
	eph Ephemeris
}

// NewSearcher returns a Searcher backed by the given ephemeris capability.
func NewSearcher(eph Ephemeris) *Searcher {
	return &Searcher{eph: eph}
}

// Run evaluates one pass window for a transit. It returns (nil, nil) when
// the pass produces no event, an event on a confirmed transit or close pass,
// and an error only on a genuine computation failure.
func (s *Searcher) Run(ctx context.Context, task SearchTask) (*model.TransitEvent, error) {
	tun := task.Tuning.normalized()
	win := task.Window

	// Coarse scan at fixed step across the whole window. A strict less-than
	// keeps the earliest sample on ties, so results are reproducible.
	cand, err := s.scanMin(ctx, task, win.Rise, win.Set, tun.CoarseStep, nil)
	if err != nil {
		return nil, err
	}
	if cand == nil {
		// No sample had a valid projection: nothing silhouetted this pass.
		return nil, nil
	}

	// Prune: the margin covers the worst-case miss of the coarse step plus
	// any plausible swath half-width, so no true transit is discarded here.
	if cand.distKm > task.Observer.RadiusKm+tun.PruneMarginKm {
		return nil, nil
	}

	// Fine refinement around the coarse minimum, clamped to the window. A
	// pass shorter than the refinement span is re-scanned in full.
	fineStart := cand.t.Add(-tun.FineHalfWindow)
	if fineStart.Before(win.Rise) {
		fineStart = win.Rise
	}
	fineEnd := cand.t.Add(tun.FineHalfWindow)
	if fineEnd.After(win.Set) {
		fineEnd = win.Set
	}

	var track []model.GroundPoint
	refined, err := s.scanMin(ctx, task, fineStart, fineEnd, tun.FineStep, &track)
	if err != nil {
		return nil, err
	}
	if refined == nil || len(track) < 2 {
		return nil, nil
	}

	// Transit decision: inside the search radius widened by the swath
	// half-width at the refined minimum.
	if refined.distKm > task.Observer.RadiusKm+refined.proj.HalfWidthKm {
		return nil, nil
	}

	look, err := s.eph.LookAt(refined.t, win.Satellite, win.Body, task.Observer)
	if err != nil {
		return nil, fmt.Errorf("look %s/%s at %s: %w",
			win.Satellite.ID, win.Body, refined.t.Format(time.RFC3339Nano), err)
	}

	// The body has to be up (allowing slight refraction below the geometric
	// horizon), and the satellite has to actually be near the disk.
	if look.BodyElevationDeg < tun.BodyHorizonFloorDeg {
		return nil, nil
	}
	if look.SeparationDeg > tun.MaxSeparationDeg {
		return nil, nil
	}

	angRadiusDeg := win.Body.AngularRadius(look.BodyRangeKm) * 180 / math.Pi
	eventType := model.TypeClosePass
	if look.SeparationDeg <= angRadiusDeg {
		eventType = model.TypeTransit
	}

	swathWidth := 2 * refined.proj.HalfWidthKm

	return &model.TransitEvent{
		Satellite:     win.Satellite.ID,
		Body:          win.Body.String(),
		Type:          eventType,
		Time:          refined.t.UTC(),
		DurationSec:   estimateDuration(track, tun.FineStep, swathWidth),
		SeparationDeg: look.SeparationDeg,
		AzimuthDeg:    look.AzimuthDeg,
		ElevationDeg:  look.ElevationDeg,
		SwathWidthKm:  swathWidth,
		Track:         track,
	}, nil
}

// scanMin samples the ground track over [from, to] at the given step and
// returns the sample with the minimum observer distance, or nil when no
// sample has a valid projection. When collect is non-nil every valid
// sample's ground point is appended in time order.
func (s *Searcher) scanMin(
	ctx context.Context,
	task SearchTask,
	from, to time.Time,
	step time.Duration,
	collect *[]model.GroundPoint,
) (*transitCandidate, error) {
	win := task.Window
	var best *transitCandidate

	for t := from; !t.After(to); t = t.Add(step) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		proj, err := s.eph.Project(t, win.Satellite, win.Body)
		if err != nil {
			if errors.Is(err, ephemeris.ErrNoProjection) {
				continue
			}
			return nil, fmt.Errorf("project %s/%s at %s: %w",
				win.Satellite.ID, win.Body, t.Format(time.RFC3339Nano), err)
		}

		if collect != nil {
			*collect = append(*collect, proj.Ground)
		}

		dist := ephemeris.HaversineKm(
			proj.Ground.LatDeg, proj.Ground.LonDeg,
			task.Observer.LatDeg, task.Observer.LonDeg)

		if best == nil || dist < best.distKm {
			best = &transitCandidate{t: t, ground: proj.Ground, proj: proj, distKm: dist}
		}
	}

	return best, nil
}

// estimateDuration derives the disk-crossing time from the swath width and
// the ground-track speed over the refinement window. Zero when the track is
// too short or stationary to estimate.
func estimateDuration(track []model.GroundPoint, step time.Duration, swathWidthKm float64) float64 {
	if len(track) < 2 || step <= 0 {
		return 0
	}
	first := track[0]
	last := track[len(track)-1]
	span := step.Seconds() * float64(len(track)-1)
	dist := ephemeris.HaversineKm(first.LatDeg, first.LonDeg, last.LatDeg, last.LonDeg)
	if span <= 0 || dist <= 0 {
		return 0
	}
	speed := dist / span // km/s along the ground track
	return swathWidthKm / speed
}
