package domain

import "math"

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// FilterByDepth keeps features whose depth lies within [minKm, maxKm].
// A nil bound is open. Features without a depth are dropped.
func FilterByDepth(features []Feature, minKm, maxKm *float64) []Feature {
	return filter(features, func(f Feature) bool {
		d, ok := f.Depth()
		return ok && inRange(d, minKm, maxKm)
	})
}

// FilterByMagnitude keeps features whose magnitude lies within [minMag, maxMag].
// A nil bound is open. Features without a numeric magnitude are dropped.
func FilterByMagnitude(features []Feature, minMag, maxMag *float64) []Feature {
	return filter(features, func(f Feature) bool {
		m, ok := f.Magnitude()
		return ok && inRange(m, minMag, maxMag)
	})
}

// FilterByRadius keeps features whose epicentre is within radiusKm of
// (lat, lon).
func FilterByRadius(features []Feature, lat, lon, radiusKm float64) []Feature {
	return filter(features, func(f Feature) bool {
		fLat, okLat := f.Latitude()
		fLon, okLon := f.Longitude()
		return okLat && okLon && Haversine(lat, lon, fLat, fLon) <= radiusKm
	})
}

// Haversine returns the great-circle distance in km between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func inRange(v float64, lo, hi *float64) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}

func filter(features []Feature, keep func(Feature) bool) []Feature {
	out := make([]Feature, 0, len(features))
	for _, f := range features {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}
