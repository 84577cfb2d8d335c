package geo

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/example/errand-core/internal/models"
)

// CourierIndex is the minimal interface the matcher and ingestion need from
// the live-location store. Nearby returns candidates within radiusKm sorted
// ascending by distance; freshness and eligibility are evaluated by the
// caller, not here.
//
// Location and eligibility are separate write paths on purpose: location
// ticks arrive every few seconds from courier devices, eligibility changes
// only when the subscription lifecycle moves, and a tick must never be able
// to clobber it.
type CourierIndex interface {
	// UpsertLocation writes the courier's coordinate, freshness timestamp,
	// and online flag. Eligibility fields on loc are ignored; stored
	// subscription state survives every tick.
	UpsertLocation(ctx context.Context, loc models.CourierLocation) error
	// SetEligibility records the courier's subscription state. Written only
	// by the platform, never from device input.
	SetEligibility(ctx context.Context, courierID string, subActive bool, trialExpiresAt time.Time) error
	Remove(ctx context.Context, courierID string) error
	Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]Candidate, error)
}

// Candidate pairs a courier's stored row with its distance from the query
// point.
type Candidate struct {
	Loc        models.CourierLocation
	DistanceKm float64
}

// Index is the in-memory CourierIndex used for local runs and tests.
type Index struct {
	mu       sync.RWMutex
	couriers map[string]models.CourierLocation
}

func NewIndex() *Index {
	return &Index{couriers: make(map[string]models.CourierLocation)}
}

func (g *Index) UpsertLocation(_ context.Context, loc models.CourierLocation) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	cur := g.couriers[loc.CourierID]
	cur.CourierID = loc.CourierID
	cur.Coord = loc.Coord
	cur.LastLocationAt = loc.LastLocationAt
	cur.Online = loc.Online
	g.couriers[loc.CourierID] = cur
	return nil
}

func (g *Index) SetEligibility(_ context.Context, courierID string, subActive bool, trialExpiresAt time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	cur := g.couriers[courierID]
	cur.CourierID = courierID
	cur.SubActive = subActive
	cur.TrialExpiresAt = trialExpiresAt
	g.couriers[courierID] = cur
	return nil
}

func (g *Index) Remove(_ context.Context, courierID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.couriers, courierID)
	return nil
}

// naive scan; fine for the in-process index, Redis GEOSEARCH covers prod
func (g *Index) Nearby(_ context.Context, lat, lng, radiusKm float64, limit int) ([]Candidate, error) {
	g.mu.RLock()
	out := make([]Candidate, 0, len(g.couriers))
	for _, c := range g.couriers {
		// eligibility may land before the first location tick; a row that
		// has never reported has no position to be near
		if c.LastLocationAt.IsZero() {
			continue
		}
		d := HaversineKm(lat, lng, c.Coord.Lat, c.Coord.Lng)
		if d <= radiusKm {
			out = append(out, Candidate{Loc: c, DistanceKm: d})
		}
	}
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// HaversineKm returns the great-circle distance in kilometres between two
// points in decimal degrees.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180.0 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
