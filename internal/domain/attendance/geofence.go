package attendance

import (
	"math"
	"time"
)

const earthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance in meters.
func Haversine(a, b Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// CheckGeofence accepts a location whose distance to center is at most radius meters.
// A supplied CapturedAt older than maxAge is rejected even though clients are expected to refresh first.
func CheckGeofence(center Coordinate, radiusMeters float64, loc *Location, now time.Time, maxAge time.Duration) (Coordinate, error) {
	point, ok := loc.Coordinate()
	if !ok {
		return Coordinate{}, ErrLocationMissing
	}
	if loc.CapturedAt != nil && maxAge > 0 && now.Sub(*loc.CapturedAt) > maxAge {
		return Coordinate{}, ErrLocationStale
	}
	if Haversine(center, point) > radiusMeters {
		return Coordinate{}, ErrOutsideGeofence
	}
	return point, nil
}
