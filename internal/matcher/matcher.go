// Package matcher serves nearby-courier and nearby-errand queries. A
// candidate matches only if it is simultaneously within the radius, fresh
// (last location inside the staleness window), and eligible (online with an
// active subscription or unexpired trial). Freshness is evaluated at query
// time: a courier drops out of matching purely by the clock advancing.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/example/errand-core/internal/geo"
	"github.com/example/errand-core/internal/models"
	"github.com/example/errand-core/internal/observability"
)

// ErrLookupFailed is the single failure surfaced for any data-layer error,
// so callers can distinguish "none nearby" from "lookup failed" without
// ever seeing a partial result set.
var ErrLookupFailed = errors.New("proximity lookup failed")

// ErrandSource lists OPEN errands within a radius, distance-sorted.
type ErrandSource interface {
	NearbyOpen(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]models.ErrandMatch, error)
}

// Config carries the matching policy. Radius and staleness window are
// configuration, not call-site constants.
type Config struct {
	RadiusKm   float64
	StaleAfter time.Duration
	Limit      int
}

type Service struct {
	Couriers geo.CourierIndex
	Errands  ErrandSource
	Cfg      Config
	Now      func() time.Time
}

func NewService(couriers geo.CourierIndex, errands ErrandSource, cfg Config) *Service {
	return &Service{Couriers: couriers, Errands: errands, Cfg: cfg, Now: time.Now}
}

// FindNearbyCouriers returns matchable couriers sorted ascending by
// distance, truncated to the configured limit. radiusKm <= 0 uses the
// configured default. An empty slice is a valid "none nearby" result.
func (s *Service) FindNearbyCouriers(ctx context.Context, lat, lng, radiusKm float64) ([]models.CourierMatch, error) {
	observability.MatchQueriesTotal.WithLabelValues("couriers").Inc()
	out, err := s.matchableCouriers(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}
	if s.Cfg.Limit > 0 && len(out) > s.Cfg.Limit {
		out = out[:s.Cfg.Limit]
	}
	return out, nil
}

// CountNearbyCouriers counts couriers through the exact same predicate as
// FindNearbyCouriers, so a nonzero count can never pair with an empty list.
func (s *Service) CountNearbyCouriers(ctx context.Context, lat, lng, radiusKm float64) (int, error) {
	observability.MatchQueriesTotal.WithLabelValues("courier_count").Inc()
	out, err := s.matchableCouriers(ctx, lat, lng, radiusKm)
	if err != nil {
		return 0, err
	}
	return len(out), nil
}

// matchableCouriers is the one shared query: radius filtering in the store,
// freshness and eligibility as application-layer filters, then the stable
// sort. Both the listing and the count are built on it.
func (s *Service) matchableCouriers(ctx context.Context, lat, lng, radiusKm float64) ([]models.CourierMatch, error) {
	if radiusKm <= 0 {
		radiusKm = s.Cfg.RadiusKm
	}
	// unbounded store query: truncating before the freshness filter could
	// let stale rows crowd out live ones
	cands, err := s.Couriers.Nearby(ctx, lat, lng, radiusKm, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	now := s.Now()
	out := make([]models.CourierMatch, 0, len(cands))
	for _, c := range cands {
		if !s.matchable(c.Loc, now) {
			continue
		}
		out = append(out, models.CourierMatch{
			CourierID:      c.Loc.CourierID,
			Coord:          c.Loc.Coord,
			DistanceKm:     c.DistanceKm,
			LastLocationAt: c.Loc.LastLocationAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		// equal distance: most recently updated first, keeping repeated
		// identical calls deterministic
		return out[i].LastLocationAt.After(out[j].LastLocationAt)
	})
	return out, nil
}

// matchable is the single liveness+eligibility predicate.
func (s *Service) matchable(loc models.CourierLocation, now time.Time) bool {
	if !loc.Online {
		return false
	}
	if loc.LastLocationAt.IsZero() || now.Sub(loc.LastLocationAt) > s.Cfg.StaleAfter {
		return false
	}
	return loc.SubActive || loc.TrialExpiresAt.After(now)
}

// FindNearbyErrands returns OPEN errands within the radius, sorted by
// distance.
func (s *Service) FindNearbyErrands(ctx context.Context, lat, lng, radiusKm float64) ([]models.ErrandMatch, error) {
	observability.MatchQueriesTotal.WithLabelValues("errands").Inc()
	if radiusKm <= 0 {
		radiusKm = s.Cfg.RadiusKm
	}
	out, err := s.Errands.NearbyOpen(ctx, lat, lng, radiusKm, s.Cfg.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	return out, nil
}
