// Package geo provides great-circle distance and bounding box math for
// coordinate pairs given in degrees.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// kmPerDegreeLat approximates the length of one degree of latitude.
const kmPerDegreeLat = 111.0

// DistanceKm returns the haversine great-circle distance between two points,
// rounded to two decimal places. It is symmetric in its arguments and returns
// 0 for identical points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return round2(EarthRadiusKm * c)
}

// BoundingBox is a rectangular coordinate range. Boxes produced by
// NewBoundingBox are a superset of the true circle around the center: use
// them only as a cheap pre-filter, never as the final distance test. The
// approximation degrades near the poles and at large radii.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// NewBoundingBox returns the box around (lat, lon) that contains every point
// within radiusKm. The longitude delta is widened by 1/cos(lat) to correct
// for meridian convergence.
func NewBoundingBox(lat, lon, radiusKm float64) BoundingBox {
	latDelta := radiusKm / kmPerDegreeLat
	lonDelta := radiusKm / (kmPerDegreeLat * math.Cos(lat*math.Pi/180))

	return BoundingBox{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLon: lon - lonDelta,
		MaxLon: lon + lonDelta,
	}
}

// Contains reports whether the point lies inside the box.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// WithinRadius reports whether the second point lies within radiusKm of the
// first, by exact haversine distance.
func WithinRadius(lat1, lon1, lat2, lon2, radiusKm float64) bool {
	return DistanceKm(lat1, lon1, lat2, lon2) <= radiusKm
}

// ValidCoordinates reports whether lat and lon are inside the valid ranges
// −90..90 and −180..180.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
