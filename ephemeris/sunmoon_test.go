package ephemeris

import (
	"math"
	"testing"
	"time"
)

func TestJulianDate_J2000Epoch(t *testing.T) {
	jd := julianDate(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	if math.Abs(jd-j2000Epoch) > 1e-6 {
		t.Errorf("julianDate(J2000) = %.8f, want %.1f", jd, j2000Epoch)
	}
}

func TestJulianDate_FractionalDay(t *testing.T) {
	noon := julianDate(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	sixPM := julianDate(time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC))
	if math.Abs((sixPM-noon)-0.25) > 1e-9 {
		t.Errorf("six hours = %.10f days, want 0.25", sixPM-noon)
	}
}

func TestSunECI_DistanceNearOneAU(t *testing.T) {
	for month := time.January; month <= time.December; month += 3 {
		d := sunECI(time.Date(2024, month, 15, 0, 0, 0, 0, time.UTC)).Norm()
		if d < 0.97*auKm || d > 1.03*auKm {
			t.Errorf("sun distance in %s = %.0f km, want within 3%% of 1 AU", month, d)
		}
	}
}

func TestSunECI_DeclinationAtSolstices(t *testing.T) {
	// Near the June solstice the Sun sits about +23.4° above the equator;
	// near the December solstice about -23.4°.
	june := sunECI(time.Date(2024, 6, 20, 21, 0, 0, 0, time.UTC))
	decl := math.Asin(june.Z/june.Norm()) * 180 / math.Pi
	if math.Abs(decl-23.44) > 0.2 {
		t.Errorf("june solstice declination = %.3f, want ~23.44", decl)
	}

	dec := sunECI(time.Date(2024, 12, 21, 9, 0, 0, 0, time.UTC))
	decl = math.Asin(dec.Z/dec.Norm()) * 180 / math.Pi
	if math.Abs(decl+23.44) > 0.2 {
		t.Errorf("december solstice declination = %.3f, want ~-23.44", decl)
	}
}

func TestSunECI_DeclinationNearZeroAtEquinox(t *testing.T) {
	sun := sunECI(time.Date(2024, 3, 20, 3, 0, 0, 0, time.UTC))
	decl := math.Asin(sun.Z/sun.Norm()) * 180 / math.Pi
	if math.Abs(decl) > 0.3 {
		t.Errorf("equinox declination = %.3f, want ~0", decl)
	}
}

func TestMoonECI_DistanceWithinOrbitBounds(t *testing.T) {
	// Perigee ~356,500 km, apogee ~406,700 km; allow slack for the
	// truncated series.
	for day := 1; day <= 28; day += 3 {
		d := moonECI(time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC)).Norm()
		if d < 350000 || d > 415000 {
			t.Errorf("moon distance on day %d = %.0f km, out of orbital bounds", day, d)
		}
	}
}

func TestMoonECI_MovesBetweenDays(t *testing.T) {
	// The Moon covers ~13° of its orbit per day; consecutive days must not
	// produce near-identical directions.
	a := moonECI(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	b := moonECI(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	sepDeg := a.AngleBetween(b) * 180 / math.Pi
	if sepDeg < 8 || sepDeg > 18 {
		t.Errorf("daily lunar motion = %.2f°, want roughly 13°", sepDeg)
	}
}

func TestSolveKepler_CircularOrbit(t *testing.T) {
	// With zero eccentricity the eccentric anomaly equals the mean anomaly.
	for _, m := range []float64{0, 0.5, math.Pi, 5.5} {
		if e := solveKepler(m, 0); math.Abs(e-m) > 1e-9 {
			t.Errorf("solveKepler(%v, 0) = %v, want %v", m, e, m)
		}
	}
}

func TestSolveKepler_SatisfiesEquation(t *testing.T) {
	m := 1.3
	ecc := 0.0549
	e := solveKepler(m, ecc)
	if residual := e - ecc*math.Sin(e) - m; math.Abs(residual) > 1e-8 {
		t.Errorf("kepler residual = %v, want ~0", residual)
	}
}
