// Package location contains pure geographic computation helpers.
package location

import (
	"math"

	"travellite/internal/types"
)

const earthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometres between a and b.
// It is pure and safe for concurrent use.
func Distance(a, b types.GeoCoordinate) (float64, error) {
	if err := Validate(a); err != nil {
		return 0, err
	}
	if err := Validate(b); err != nil {
		return 0, err
	}
	return haversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude), nil
}

// Validate rejects non-finite components and values outside the degree ranges.
func Validate(c types.GeoCoordinate) error {
	switch {
	case !finite(c.Latitude) || !finite(c.Longitude):
		return &types.Error{Kind: types.KindInvalidCoordinate, Msg: "coordinate components must be finite numbers"}
	case c.Latitude < -90 || c.Latitude > 90:
		return &types.Error{Kind: types.KindInvalidCoordinate, Field: "latitude", Msg: "latitude must be within [-90, 90]"}
	case c.Longitude < -180 || c.Longitude > 180:
		return &types.Error{Kind: types.KindInvalidCoordinate, Field: "longitude", Msg: "longitude must be within [-180, 180]"}
	}
	return nil
}

// RoundKm rounds a distance to two decimals for display.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

// haversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push a a hair past 1 for antipodal points
	if a > 1 {
		a = 1
	}
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SortByDistance performs an insertion sort (fine for small N) on any slice
// where each element exposes a distance via the accessor function. It is stable.
func SortByDistance[T any](items []T, dist func(T) float64) {
	for i := 1; i < len(items); i++ {
		key := items[i]
		j := i - 1
		for j >= 0 && dist(items[j]) > dist(key) {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = key
	}
}
