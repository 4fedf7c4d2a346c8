package ephemeris

import "math"

// WGS-84 ellipsoid parameters, kilometres.
const (
	wgs84A  = 6378.137             // semi-major axis
	wgs84F  = 1.0 / 298.257223563  // flattening
	wgs84B  = wgs84A * (1 - wgs84F)
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// MeanEarthRadiusKm is the spherical radius used for great-circle ground
// distances.
const MeanEarthRadiusKm = 6371.0

// Vec3 is an ECEF or ECI-style vector in kilometres.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns v multiplied by k.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns the unit vector in v's direction, or the zero vector when
// v has no length.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return v.Scale(1 / n)
}

// AngleBetween returns the angle between v and other in radians.
func (v Vec3) AngleBetween(other Vec3) float64 {
	d := v.Norm() * other.Norm()
	if d == 0 {
		return 0
	}
	cos := v.Dot(other) / d
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}

// Geodetic is a WGS-84 surface-referenced position.
type Geodetic struct {
	LatDeg float64
	LonDeg float64
	AltKm  float64
}

// GeodeticToECEF converts geodetic coordinates to ECEF kilometres.
func GeodeticToECEF(latDeg, lonDeg, altKm float64) Vec3 {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	// Radius of curvature in the prime vertical.
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return Vec3{
		X: (n + altKm) * cosLat * math.Cos(lon),
		Y: (n + altKm) * cosLat * math.Sin(lon),
		Z: (n*(1-wgs84E2) + altKm) * sinLat,
	}
}

// ECEFToGeodetic converts ECEF kilometres to geodetic coordinates using the
// iterative Bowring method. Converges in a few iterations for anything from
// the surface up to GEO.
func ECEFToGeodetic(v Vec3) Geodetic {
	lon := math.Atan2(v.Y, v.X)
	p := math.Sqrt(v.X*v.X + v.Y*v.Y)

	lat := math.Atan2(v.Z, p*(1-wgs84E2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(v.Z+wgs84E2*n*sinLat, p)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - n
	} else {
		alt = math.Abs(v.Z)/math.Abs(sinLat) - n*(1-wgs84E2)
	}

	return Geodetic{
		LatDeg: lat * 180 / math.Pi,
		LonDeg: lon * 180 / math.Pi,
		AltKm:  alt,
	}
}

// surfaceNormal returns the outward ellipsoid normal at a surface point,
// i.e. the gradient of the ellipsoid equation.
func surfaceNormal(g Vec3) Vec3 {
	return Vec3{
		X: g.X / (wgs84A * wgs84A),
		Y: g.Y / (wgs84A * wgs84A),
		Z: g.Z / (wgs84B * wgs84B),
	}.Normalize()
}

// LookAngles holds azimuth, elevation, and range from an observer to a target.
type LookAngles struct {
	AzimuthDeg   float64 // 0 = North, clockwise
	ElevationDeg float64 // 0 = horizon, 90 = zenith
	RangeKm      float64
}

// ECEFToLookAngles computes azimuth, elevation, and range from a geodetic
// observer to a target in ECEF kilometres, via the SEZ (South-East-Zenith)
// topocentric rotation.
func ECEFToLookAngles(latDeg, lonDeg float64, obsECEF, target Vec3) LookAngles {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180

	r := target.Sub(obsECEF)

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	sinLon := math.Sin(lon)
	cosLon := math.Cos(lon)

	south := sinLat*cosLon*r.X + sinLat*sinLon*r.Y - cosLat*r.Z
	east := -sinLon*r.X + cosLon*r.Y
	zenith := cosLat*cosLon*r.X + cosLat*sinLon*r.Y + sinLat*r.Z

	rangeKm := math.Sqrt(south*south + east*east + zenith*zenith)
	if rangeKm == 0 {
		return LookAngles{ElevationDeg: 90}
	}

	el := math.Asin(zenith / rangeKm)

	// Azimuth measured clockwise from North; in SEZ, North = -South.
	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}

	return LookAngles{
		AzimuthDeg:   az * 180 / math.Pi,
		ElevationDeg: el * 180 / math.Pi,
		RangeKm:      rangeKm,
	}
}

// HaversineKm returns the great-circle distance between two geodetic points
// on the mean Earth sphere.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	phi1 := lat1 * rad
	phi2 := lat2 * rad
	dPhi := (lat2 - lat1) * rad
	dLam := (lon2 - lon1) * rad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLam/2)*math.Sin(dLam/2)
	return 2 * MeanEarthRadiusKm * math.Asin(math.Sqrt(a))
}
