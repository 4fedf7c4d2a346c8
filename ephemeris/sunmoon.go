package ephemeris

import (
	"math"
	"time"
)

// Astronomical constants.
const (
	auKm       = 149597870.7 // astronomical unit, km
	j2000Epoch = 2451545.0   // Julian date of J2000.0
)

// julianDate converts a UTC time to a Julian date, including the fractional
// day. Valid for the modern era.
func julianDate(t time.Time) float64 {
	t = t.UTC()
	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	// Treat January and February as months 13/14 of the previous year.
	if m <= 2 {
		y--
		m += 12
	}

	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)

	jd := math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + b - 1524.5
	jd += (float64(t.Hour()) +
		float64(t.Minute())/60 +
		(float64(t.Second())+float64(t.Nanosecond())/1e9)/3600) / 24
	return jd
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180 }

// normalizeDegrees wraps an angle into [0, 360).
func normalizeDegrees(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	return angle
}

// obliquity returns the mean obliquity of the ecliptic in radians for the
// given Julian date.
func obliquity(jd float64) float64 {
	d := jd - j2000Epoch
	return degToRad(23.4393 - 3.563e-7*d)
}

// sunECI returns the Sun's geocentric equatorial position of date in
// kilometres. Low-precision series, good to roughly 0.01 degrees in the
// modern era, which is far below the coarse-scan safety margin.
func sunECI(t time.Time) Vec3 {
	jd := julianDate(t)
	d := jd - j2000Epoch

	g := degToRad(normalizeDegrees(357.529 + 0.98560028*d)) // mean anomaly
	q := 280.459 + 0.98564736*d                             // mean longitude

	// Ecliptic longitude with the equation of center.
	lambda := degToRad(normalizeDegrees(q + 1.915*math.Sin(g) + 0.020*math.Sin(2*g)))

	// Distance in AU.
	r := 1.00014 - 0.01671*math.Cos(g) - 0.00014*math.Cos(2*g)

	eps := obliquity(jd)
	rKm := r * auKm
	return Vec3{
		X: rKm * math.Cos(lambda),
		Y: rKm * math.Cos(eps) * math.Sin(lambda),
		Z: rKm * math.Sin(eps) * math.Sin(lambda),
	}
}

// moonECI returns the Moon's geocentric equatorial position of date in
// kilometres. Truncated lunar theory carrying the dominant perturbation
// terms (evection, variation, yearly equation), good to a few tenths of a
// degree — enough to place the disk for search geometry.
func moonECI(t time.Time) Vec3 {
	jd := julianDate(t)
	d := jd - j2000Epoch

	// Mean orbital elements of date, degrees.
	nodeLon := normalizeDegrees(125.1228 - 0.0529538083*d) // ascending node
	incl := degToRad(5.1454)                               // inclination
	argPeri := normalizeDegrees(318.0634 + 0.1643573223*d) // argument of perigee
	meanAnom := normalizeDegrees(115.3654 + 13.0649929509*d)
	ecc := 0.054900
	axisKm := 60.2666 * wgs84A // semi-major axis, Earth equatorial radii

	// Sun's mean anomaly and mean longitude feed the perturbation terms.
	sunMeanAnom := normalizeDegrees(357.529 + 0.98560028*d)
	sunMeanLon := normalizeDegrees(280.459 + 0.98564736*d)

	m := degToRad(meanAnom)
	e := solveKepler(m, ecc)

	// Position in the orbital plane.
	xv := axisKm * (math.Cos(e) - ecc)
	yv := axisKm * math.Sqrt(1-ecc*ecc) * math.Sin(e)

	trueAnom := math.Atan2(yv, xv)
	dist := math.Sqrt(xv*xv + yv*yv)

	n := degToRad(nodeLon)
	w := trueAnom + degToRad(argPeri)

	// Ecliptic coordinates.
	xe := dist * (math.Cos(n)*math.Cos(w) - math.Sin(n)*math.Sin(w)*math.Cos(incl))
	ye := dist * (math.Sin(n)*math.Cos(w) + math.Cos(n)*math.Sin(w)*math.Cos(incl))
	ze := dist * math.Sin(w) * math.Sin(incl)

	lon := math.Atan2(ye, xe)
	lat := math.Atan2(ze, math.Sqrt(xe*xe+ye*ye))

	// Perturbation arguments, radians.
	lm := degToRad(normalizeDegrees(nodeLon + argPeri + meanAnom)) // Moon mean longitude
	ls := degToRad(sunMeanLon)
	ms := degToRad(sunMeanAnom)
	dShift := lm - ls            // mean elongation
	f := lm - degToRad(nodeLon)  // argument of latitude

	// Largest longitude terms: evection, variation, yearly equation,
	// second-order anomaly, parallactic inequality.
	lonCorr := -1.274*math.Sin(m-2*dShift) +
		0.658*math.Sin(2*dShift) -
		0.186*math.Sin(ms) -
		0.059*math.Sin(2*m-2*dShift) -
		0.057*math.Sin(m-2*dShift+ms) +
		0.053*math.Sin(m+2*dShift) +
		0.046*math.Sin(2*dShift-ms) +
		0.041*math.Sin(m-ms)

	latCorr := -0.173*math.Sin(f-2*dShift) -
		0.055*math.Sin(m-f-2*dShift) -
		0.046*math.Sin(m+f-2*dShift)

	distCorr := (-0.58*math.Cos(m-2*dShift) - 0.46*math.Cos(2*dShift)) * wgs84A

	lon += degToRad(lonCorr)
	lat += degToRad(latCorr)
	dist += distCorr

	// Ecliptic → equatorial of date.
	eps := obliquity(jd)
	cosLat := math.Cos(lat)
	xec := dist * cosLat * math.Cos(lon)
	yec := dist * cosLat * math.Sin(lon)
	zec := dist * math.Sin(lat)

	return Vec3{
		X: xec,
		Y: yec*math.Cos(eps) - zec*math.Sin(eps),
		Z: yec*math.Sin(eps) + zec*math.Cos(eps),
	}
}

// solveKepler solves Kepler's equation M = E - e*sin(E) for the eccentric
// anomaly by Newton iteration. Converges quickly for near-circular orbits.
func solveKepler(m, ecc float64) float64 {
	e := m
	for i := 0; i < 10; i++ {
		delta := (e - ecc*math.Sin(e) - m) / (1 - ecc*math.Cos(e))
		e -= delta
		if math.Abs(delta) < 1e-9 {
			break
		}
	}
	return e
}
