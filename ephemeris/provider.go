// Package ephemeris computes positions for tracked satellites and for the
// Sun and Moon, and the derived geometry the transit search engine needs:
// ground-track projections onto the WGS-84 ellipsoid, topocentric look
// angles, and horizon-crossing pass windows.
package ephemeris

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/transit-finder/model"
)

// ErrNoProjection is returned when the body-satellite line misses the Earth
// or the body sits below the local horizon at the candidate ground point.
var ErrNoProjection = errors.New("ground-track projection undefined")

// Pass is one rise/set interval of a satellite above an observer's horizon.
type Pass struct {
	Rise time.Time
	Set  time.Time
}

// Projection is the ground-track sample for one (time, satellite, body)
// triple: the point from which the satellite appears centered on the body,
// and the swath geometry around it.
type Projection struct {
	Ground      model.GroundPoint
	SlantKm     float64 // ground point → satellite distance
	HalfWidthKm float64 // lateral swath half-width on the ground
}

// Look is the observer-relative geometry at one instant.
type Look struct {
	SeparationDeg    float64 // satellite to body-center angle seen by the observer
	AzimuthDeg       float64 // satellite azimuth
	ElevationDeg     float64 // satellite elevation
	BodyElevationDeg float64 // body-center elevation
	RangeKm          float64 // observer → satellite distance
	BodyRangeKm      float64 // observer → body-center distance
}

// Sanity bounds for propagated positions, km from the geocenter. Anything
// outside is treated as a propagation failure; the library reports errors
// only through degenerate output.
const (
	minOrbitRadiusKm = 6000.0
	maxOrbitRadiusKm = 1e6
)

// Provider implements the ephemeris capability on top of SGP4 propagation
// and low-precision solar/lunar series. Safe for concurrent use: parsed
// element sets are cached once and handed out by value.
type Provider struct {
	// Pass-scan resolution. The coarse step bounds how short a pass can be
	// and still be detected; crossings are then pinned at the fine step.
	ScanStep   time.Duration
	RefineStep time.Duration

	mu   sync.RWMutex
	sats map[string]satellite.Satellite
}

// NewProvider returns a Provider with the default pass-scan resolution.
func NewProvider() *Provider {
	return &Provider{
		ScanStep:   30 * time.Second,
		RefineStep: 1 * time.Second,
		sats:       make(map[string]satellite.Satellite),
	}
}

// orbit returns the parsed SGP4 state for a satellite, parsing and caching
// it on first use. The returned value is a copy, so callers can propagate
// concurrently.
func (p *Provider) orbit(sat model.TrackedSatellite) (satellite.Satellite, error) {
	p.mu.RLock()
	s, ok := p.sats[sat.ID]
	p.mu.RUnlock()
	if ok {
		return s, nil
	}

	if err := sat.Validate(); err != nil {
		return satellite.Satellite{}, fmt.Errorf("satellite %q: %w", sat.ID, err)
	}

	s = satellite.TLEToSat(sat.Line1, sat.Line2, satellite.GravityWGS84)
	if s.Error != 0 {
		return satellite.Satellite{}, fmt.Errorf(
			"sgp4 init for %q: code=%d %s", sat.ID, s.Error, s.ErrorStr)
	}

	p.mu.Lock()
	p.sats[sat.ID] = s
	p.mu.Unlock()
	return s, nil
}

// SatelliteECEF propagates the satellite to t and returns its ECEF position
// in kilometres.
//
// The SGP4 library propagates on whole seconds only; sub-second sampling
// (the fine scan runs at 10 Hz) advances the whole-second position along the
// returned velocity, which is accurate to metres over fractions of a second.
func (p *Provider) SatelliteECEF(sat model.TrackedSatellite, t time.Time) (Vec3, error) {
	s, err := p.orbit(sat)
	if err != nil {
		return Vec3{}, err
	}

	t = t.UTC()
	floor := t.Truncate(time.Second)
	frac := t.Sub(floor).Seconds()

	year, month, day := floor.Date()
	hour, min, sec := floor.Clock()

	pos, vel := satellite.Propagate(s, year, int(month), day, hour, min, sec)
	if !positionSane(pos) {
		return Vec3{}, fmt.Errorf("propagate %q at %s: degenerate position", sat.ID, t.Format(time.RFC3339))
	}

	teme := satellite.Vector3{
		X: pos.X + vel.X*frac,
		Y: pos.Y + vel.Y*frac,
		Z: pos.Z + vel.Z*frac,
	}

	jd := satellite.JDay(year, int(month), day, hour, min, sec) + frac/86400.0
	ecef := satellite.ECIToECEF(teme, satellite.ThetaG_JD(jd))
	return Vec3{X: ecef.X, Y: ecef.Y, Z: ecef.Z}, nil
}

// BodyECEF returns the Sun's or Moon's geocentric position at t, rotated
// into the Earth-fixed frame.
func (p *Provider) BodyECEF(body model.CelestialBody, t time.Time) Vec3 {
	var eci Vec3
	if body == model.Moon {
		eci = moonECI(t)
	} else {
		eci = sunECI(t)
	}

	gmst := satellite.ThetaG_JD(julianDate(t))
	ecef := satellite.ECIToECEF(satellite.Vector3{X: eci.X, Y: eci.Y, Z: eci.Z}, gmst)
	return Vec3{X: ecef.X, Y: ecef.Y, Z: ecef.Z}
}

// Project computes where the line from the body's center through the
// satellite intersects the WGS-84 ellipsoid, plus the swath half-width there.
// Returns ErrNoProjection when the line misses the Earth or the body is
// below the local horizon at the intersection.
func (p *Provider) Project(t time.Time, sat model.TrackedSatellite, body model.CelestialBody) (Projection, error) {
	satPos, err := p.SatelliteECEF(sat, t)
	if err != nil {
		return Projection{}, err
	}
	bodyPos := p.BodyECEF(body, t)

	u := satPos.Sub(bodyPos).Normalize()

	// Intersect S + d·u with the ellipsoid x²/a² + y²/a² + z²/b² = 1,
	// taking the near-side root on the satellite's side of the Earth.
	invA2 := 1 / (wgs84A * wgs84A)
	invB2 := 1 / (wgs84B * wgs84B)

	qa := u.X*u.X*invA2 + u.Y*u.Y*invA2 + u.Z*u.Z*invB2
	qb := 2 * (satPos.X*u.X*invA2 + satPos.Y*u.Y*invA2 + satPos.Z*u.Z*invB2)
	qc := satPos.X*satPos.X*invA2 + satPos.Y*satPos.Y*invA2 + satPos.Z*satPos.Z*invB2 - 1

	disc := qb*qb - 4*qa*qc
	if disc < 0 || qa == 0 {
		return Projection{}, ErrNoProjection
	}

	d := (-qb - math.Sqrt(disc)) / (2 * qa)
	if d <= 0 {
		// The shadow line leaves the Earth behind the satellite.
		return Projection{}, ErrNoProjection
	}

	ground := satPos.Add(u.Scale(d))
	if surfaceNormal(ground).Dot(bodyPos.Sub(ground)) <= 0 {
		return Projection{}, ErrNoProjection
	}

	geo := ECEFToGeodetic(ground)

	bodyDist := bodyPos.Sub(satPos).Norm()
	halfWidth := d * math.Tan(body.AngularRadius(bodyDist))

	return Projection{
		Ground:      model.GroundPoint{LatDeg: geo.LatDeg, LonDeg: geo.LonDeg},
		SlantKm:     d,
		HalfWidthKm: halfWidth,
	}, nil
}

// LookAt computes the observer-relative geometry at t: satellite az/el and
// range, body-center elevation, and the satellite/body separation angle.
func (p *Provider) LookAt(t time.Time, sat model.TrackedSatellite, body model.CelestialBody, obs model.Observer) (Look, error) {
	satPos, err := p.SatelliteECEF(sat, t)
	if err != nil {
		return Look{}, err
	}
	bodyPos := p.BodyECEF(body, t)
	obsPos := GeodeticToECEF(obs.LatDeg, obs.LonDeg, 0)

	satLook := ECEFToLookAngles(obs.LatDeg, obs.LonDeg, obsPos, satPos)
	bodyLook := ECEFToLookAngles(obs.LatDeg, obs.LonDeg, obsPos, bodyPos)

	sep := satPos.Sub(obsPos).AngleBetween(bodyPos.Sub(obsPos))

	return Look{
		SeparationDeg:    sep * 180 / math.Pi,
		AzimuthDeg:       satLook.AzimuthDeg,
		ElevationDeg:     satLook.ElevationDeg,
		BodyElevationDeg: bodyLook.ElevationDeg,
		RangeKm:          satLook.RangeKm,
		BodyRangeKm:      bodyLook.RangeKm,
	}, nil
}

// PassWindows finds every interval within [start, end] during which the
// satellite is above the observer's geometric horizon. Crossings are located
// by a coarse elevation scan refined to RefineStep resolution, so the whole
// range is covered without per-fine-step propagation.
func (p *Provider) PassWindows(ctx context.Context, sat model.TrackedSatellite, obs model.Observer, start, end time.Time) ([]Pass, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("pass window range: start %s not before end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	if _, err := p.orbit(sat); err != nil {
		return nil, err
	}

	obsPos := GeodeticToECEF(obs.LatDeg, obs.LonDeg, 0)

	above := func(t time.Time) bool {
		pos, err := p.SatelliteECEF(sat, t)
		if err != nil {
			// Transient propagation failures are treated as below-horizon
			// samples; a satellite that never propagates is caught above.
			return false
		}
		return ECEFToLookAngles(obs.LatDeg, obs.LonDeg, obsPos, pos).ElevationDeg > 0
	}

	var passes []Pass
	var rise time.Time
	prevAbove := above(start)
	if prevAbove {
		rise = start
	}
	prev := start

	for t := start.Add(p.ScanStep); ; t = t.Add(p.ScanStep) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if t.After(end) {
			t = end
		}

		isAbove := above(t)
		if isAbove != prevAbove {
			crossing := p.refineCrossing(prev, t, prevAbove, above)
			if isAbove {
				rise = crossing
			} else if !rise.IsZero() && crossing.After(rise) {
				passes = append(passes, Pass{Rise: rise, Set: crossing})
				rise = time.Time{}
			}
			prevAbove = isAbove
		}

		prev = t
		if !t.Before(end) {
			break
		}
	}

	// Still above the horizon at range end: close the window there.
	if prevAbove && !rise.IsZero() && end.After(rise) {
		passes = append(passes, Pass{Rise: rise, Set: end})
	}

	return passes, nil
}

// refineCrossing pins the horizon crossing between lo (state wasAbove) and hi
// to RefineStep resolution with a forward scan.
func (p *Provider) refineCrossing(lo, hi time.Time, wasAbove bool, above func(time.Time) bool) time.Time {
	for t := lo.Add(p.RefineStep); t.Before(hi); t = t.Add(p.RefineStep) {
		if above(t) != wasAbove {
			return t
		}
	}
	return hi
}

func positionSane(v satellite.Vector3) bool {
	r := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return false
	}
	return r > minOrbitRadiusKm && r < maxOrbitRadiusKm
}
