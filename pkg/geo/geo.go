package geo

import (
	"context"
	"math"
)

// LatLng is a latitude/longitude pair for a ZIP centroid.
type LatLng struct {
	Latitude  float64
	Longitude float64
}

// Resolver looks up the centroid for a postal code. Radius matching is a
// pluggable capability: when no resolver is configured the matcher falls back
// to exact/extra-ZIP matching only.
type Resolver interface {
	Locate(ctx context.Context, zip string) (LatLng, error)
}

const earthRadiusMiles = 3958.8

// DistanceMiles returns the great-circle distance between two points using the
// haversine formula.
func DistanceMiles(a, b LatLng) float64 {
	latA := toRadians(a.Latitude)
	latB := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLng := toRadians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLng*sinLng

	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
