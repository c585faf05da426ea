package geo

import (
	"math"

	"github.com/sells-group/ecobuild/internal/model"
)

// EarthRadiusKM is the mean Earth radius used for great-circle distances.
const EarthRadiusKM = 6371.0

// DistanceKM returns the haversine great-circle distance between two points
// given in decimal degrees.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Pow(math.Sin(dPhi/2), 2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(dLambda/2), 2)
	// Clamp guards asin against rounding just above 1 for antipodal points.
	c := 2 * math.Asin(math.Sqrt(math.Min(1, a)))
	return EarthRadiusKM * c
}

// IsNearAny reports whether any zone lies strictly within radiusKM of the
// point. It stops at the first match.
func IsNearAny(lat, lon float64, zones []model.SensitiveZone, radiusKM float64) bool {
	for _, z := range zones {
		if DistanceKM(lat, lon, z.Latitude, z.Longitude) < radiusKM {
			return true
		}
	}
	return false
}

// Nearest returns the zone closest to the point and its distance. Ties go to
// the zone encountered first. ok is false when zones is empty.
func Nearest(lat, lon float64, zones []model.SensitiveZone) (zone model.SensitiveZone, distanceKM float64, ok bool) {
	distanceKM = math.Inf(1)
	for _, z := range zones {
		d := DistanceKM(lat, lon, z.Latitude, z.Longitude)
		if d < distanceKM {
			zone, distanceKM, ok = z, d, true
		}
	}
	if !ok {
		return model.SensitiveZone{}, 0, false
	}
	return zone, distanceKM, true
}
