package ephemeris

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/transit-finder/model"
)

// issTLE is an ISS element set; test times stay near its epoch (2021-10-02)
// so SGP4 stays well-conditioned.
func issTLE() model.TrackedSatellite {
	return model.TrackedSatellite{
		ID:    "ISS",
		Name:  "ISS (ZARYA)",
		Line1: "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990",
		Line2: "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760",
	}
}

func testObserver() model.Observer {
	return model.Observer{LatDeg: 39.90, LonDeg: 116.40, RadiusKm: 100}
}

func TestSatelliteECEF_OrbitalRadius(t *testing.T) {
	p := NewProvider()
	at := time.Date(2021, 10, 2, 12, 0, 0, 0, time.UTC)

	pos, err := p.SatelliteECEF(issTLE(), at)
	if err != nil {
		t.Fatalf("SatelliteECEF: %v", err)
	}

	r := pos.Norm()
	// ISS orbits about 420 km above a ~6371 km Earth.
	if r < 6600 || r > 7000 {
		t.Errorf("orbital radius = %.1f km, want ~6790", r)
	}
}

func TestSatelliteECEF_SubSecondSamplingIsContinuous(t *testing.T) {
	p := NewProvider()
	at := time.Date(2021, 10, 2, 12, 0, 0, 0, time.UTC)

	a, err := p.SatelliteECEF(issTLE(), at)
	if err != nil {
		t.Fatalf("SatelliteECEF: %v", err)
	}
	b, err := p.SatelliteECEF(issTLE(), at.Add(100*time.Millisecond))
	if err != nil {
		t.Fatalf("SatelliteECEF +100ms: %v", err)
	}

	// ~7.6 km/s orbital speed means ~0.76 km per 100 ms; Earth rotation
	// shifts the ECEF frame by far less.
	moved := a.Sub(b).Norm()
	if moved < 0.1 || moved > 2 {
		t.Errorf("moved %.3f km in 100ms, want a fraction of a kilometre", moved)
	}
}

func TestSatelliteECEF_BadTLERejected(t *testing.T) {
	p := NewProvider()
	bad := model.TrackedSatellite{ID: "BAD", Line1: "garbage", Line2: "garbage"}

	if _, err := p.SatelliteECEF(bad, time.Now()); err == nil {
		t.Fatal("expected error for malformed TLE")
	}
}

func TestBodyECEF_SunAndMoonDistances(t *testing.T) {
	p := NewProvider()
	at := time.Date(2021, 10, 2, 12, 0, 0, 0, time.UTC)

	sun := p.BodyECEF(model.Sun, at).Norm()
	if sun < 0.97*auKm || sun > 1.03*auKm {
		t.Errorf("sun distance = %.0f km, want ~1 AU", sun)
	}

	moon := p.BodyECEF(model.Moon, at).Norm()
	if moon < 350000 || moon > 415000 {
		t.Errorf("moon distance = %.0f km, want lunar orbit", moon)
	}
}

func TestPassWindows_FindsISSPassesOverADay(t *testing.T) {
	p := NewProvider()
	start := time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	passes, err := p.PassWindows(context.Background(), issTLE(), testObserver(), start, end)
	if err != nil {
		t.Fatalf("PassWindows: %v", err)
	}
	if len(passes) == 0 {
		t.Fatal("expected at least one ISS pass over Beijing in 24h")
	}

	for i, pass := range passes {
		if !pass.Rise.Before(pass.Set) {
			t.Errorf("pass %d: rise %s not before set %s", i, pass.Rise, pass.Set)
		}
		if pass.Rise.Before(start) || pass.Set.After(end) {
			t.Errorf("pass %d: [%s, %s] outside the search range", i, pass.Rise, pass.Set)
		}
		if i > 0 && !passes[i-1].Set.Before(pass.Rise) {
			t.Errorf("pass %d overlaps pass %d", i, i-1)
		}
	}
}

func TestPassWindows_InvertedRangeRejected(t *testing.T) {
	p := NewProvider()
	at := time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC)

	if _, err := p.PassWindows(context.Background(), issTLE(), testObserver(), at, at); err == nil {
		t.Fatal("expected error for empty range")
	}
}

func TestPassWindows_CancelledContext(t *testing.T) {
	p := NewProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC)
	_, err := p.PassWindows(ctx, issTLE(), testObserver(), start, start.Add(time.Hour))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestProject_SamplesAcrossADay(t *testing.T) {
	p := NewProvider()
	start := time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC)

	projected := 0
	for offset := time.Duration(0); offset < 24*time.Hour; offset += 10 * time.Minute {
		proj, err := p.Project(start.Add(offset), issTLE(), model.Sun)
		if err != nil {
			if errors.Is(err, ErrNoProjection) {
				continue
			}
			t.Fatalf("Project at +%s: %v", offset, err)
		}

		projected++
		if math.Abs(proj.Ground.LatDeg) > 90 || math.Abs(proj.Ground.LonDeg) > 180 {
			t.Errorf("ground point out of range: %+v", proj.Ground)
		}
		// ISS/Sun geometry: slant of hundreds of km, half-width of a few km.
		if proj.SlantKm <= 0 || proj.SlantKm > 4000 {
			t.Errorf("slant = %.1f km, implausible for ISS", proj.SlantKm)
		}
		if proj.HalfWidthKm <= 0 || proj.HalfWidthKm > 50 {
			t.Errorf("half-width = %.2f km, implausible for ISS vs Sun", proj.HalfWidthKm)
		}
	}

	if projected == 0 {
		t.Error("expected some daylight samples to project onto the ellipsoid")
	}
}

func TestLookAt_GeometryIsConsistent(t *testing.T) {
	p := NewProvider()
	at := time.Date(2021, 10, 2, 12, 0, 0, 0, time.UTC)

	look, err := p.LookAt(at, issTLE(), model.Sun, testObserver())
	if err != nil {
		t.Fatalf("LookAt: %v", err)
	}

	if look.SeparationDeg < 0 || look.SeparationDeg > 180 {
		t.Errorf("separation = %.2f, out of [0, 180]", look.SeparationDeg)
	}
	if look.AzimuthDeg < 0 || look.AzimuthDeg >= 360 {
		t.Errorf("azimuth = %.2f, out of [0, 360)", look.AzimuthDeg)
	}
	if look.RangeKm < 300 || look.RangeKm > 20000 {
		t.Errorf("range = %.1f km, implausible for ISS", look.RangeKm)
	}
	if look.BodyRangeKm < 0.97*auKm || look.BodyRangeKm > 1.03*auKm {
		t.Errorf("body range = %.0f km, want ~1 AU", look.BodyRangeKm)
	}
}
