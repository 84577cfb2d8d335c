package route

import (
	"context"

	"github.com/example/errand-core/internal/geo"
	"github.com/example/errand-core/internal/models"
)

// Resolution is the tagged result of a route lookup. Fallback marks values
// estimated from straight-line distance because the directions provider was
// unavailable, so degraded-mode frequency stays observable.
type Resolution struct {
	DistanceKm  float64
	DurationMin float64
	Fallback    bool
}

// Resolver turns two coordinates into a road distance and duration. Resolve
// never fails: on provider errors it returns a best-effort estimate with
// Fallback set.
type Resolver interface {
	Resolve(ctx context.Context, origin, dest models.Coordinate) Resolution
}

const (
	// detourFactor approximates road distance from the great-circle
	// distance when no routing provider answers.
	detourFactor = 1.4
	// fallbackSpeedKmh is the assumed average travel speed for fallback
	// duration estimates.
	fallbackSpeedKmh = 30.0
)

// Estimate computes the haversine-based fallback for an origin/dest pair.
func Estimate(origin, dest models.Coordinate) Resolution {
	d := geo.HaversineKm(origin.Lat, origin.Lng, dest.Lat, dest.Lng) * detourFactor
	return Resolution{
		DistanceKm:  d,
		DurationMin: d / fallbackSpeedKmh * 60,
		Fallback:    true,
	}
}
