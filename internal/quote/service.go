// Package quote orchestrates a single price quote: route resolution and
// weather lookup run concurrently, their results feed the pure pricing
// engine, and the itemized breakdown is persisted for later recomputation.
package quote

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/example/errand-core/internal/conditions"
	"github.com/example/errand-core/internal/models"
	"github.com/example/errand-core/internal/observability"
	"github.com/example/errand-core/internal/pricing"
	"github.com/example/errand-core/internal/route"
	"github.com/example/errand-core/internal/storage"
)

type Service struct {
	Routes  route.Resolver
	Weather conditions.Provider
	Store   storage.QuoteStore
	Policy  pricing.Policy
	Clock   conditions.Clock
	Logger  *slog.Logger
}

func NewService(routes route.Resolver, weather conditions.Provider, store storage.QuoteStore, policy pricing.Policy, logger *slog.Logger) *Service {
	return &Service{
		Routes:  routes,
		Weather: weather,
		Store:   store,
		Policy:  policy,
		Clock:   time.Now,
		Logger:  logger,
	}
}

// DeliveryQuote is a priced single-stop delivery with its resolved route
// context.
type DeliveryQuote struct {
	ID          string                `json:"id"`
	Breakdown   models.PriceBreakdown `json:"breakdown"`
	DistanceKm  float64               `json:"distance_km"`
	DurationMin float64               `json:"duration_min"`
	Weather     string                `json:"weather"`
	TimeCond    string                `json:"time_condition"`
	Degraded    bool                  `json:"degraded,omitempty"`
}

type MultiStopQuote struct {
	ID          string                         `json:"id"`
	Breakdown   models.MultiStopPriceBreakdown `json:"breakdown"`
	DistanceKm  float64                        `json:"distance_km"`
	DurationMin float64                        `json:"duration_min"`
	Weather     string                         `json:"weather"`
	TimeCond    string                         `json:"time_condition"`
	Degraded    bool                           `json:"degraded,omitempty"`
}

type ShoppingQuote struct {
	ID          string                        `json:"id"`
	Breakdown   models.ShoppingPriceBreakdown `json:"breakdown"`
	DistanceKm  float64                       `json:"distance_km"`
	DurationMin float64                       `json:"duration_min"`
	Weather     string                        `json:"weather"`
	TimeCond    string                        `json:"time_condition"`
	Degraded    bool                          `json:"degraded,omitempty"`
}

// environment is the joined output of the concurrent route and weather
// lookups.
type environment struct {
	res      route.Resolution
	weather  conditions.Report
	timeCond models.TimeCondition
}

// gather issues the route resolution and weather lookup concurrently and
// joins both before pricing, keeping end-to-end quote latency near the
// slower of the two providers instead of their sum.
func (s *Service) gather(ctx context.Context, origin, dest models.Coordinate) environment {
	resCh := make(chan route.Resolution, 1)
	weatherCh := make(chan conditions.Report, 1)
	go func() { resCh <- s.Routes.Resolve(ctx, origin, dest) }()
	go func() { weatherCh <- s.Weather.Current(ctx, origin) }()
	return environment{
		res:      <-resCh,
		weather:  <-weatherCh,
		timeCond: conditions.Classify(s.Clock()),
	}
}

func (s *Service) Delivery(ctx context.Context, origin, dest models.Coordinate, weight models.WeightClass) (DeliveryQuote, error) {
	env := s.gather(ctx, origin, dest)
	b := pricing.Delivery(s.Policy, env.res.DistanceKm, env.weather.Condition, env.timeCond, weight)
	q := DeliveryQuote{
		ID:          newID(),
		Breakdown:   b,
		DistanceKm:  env.res.DistanceKm,
		DurationMin: env.res.DurationMin,
		Weather:     env.weather.Condition.String(),
		TimeCond:    env.timeCond.String(),
		Degraded:    env.res.Fallback || env.weather.Simulated,
	}
	observability.QuotesTotal.WithLabelValues("delivery").Inc()
	s.persist(ctx, storage.QuoteRecord{
		ID: q.ID, Mode: "delivery", DistanceKm: q.DistanceKm,
		Weather: env.weather.Condition, TimeCond: env.timeCond,
		Breakdown: b, Total: b.Total, CreatedAt: s.Clock(),
	})
	return q, nil
}

// MultiStop prices a validated route. The baseline leg is pickup -> first
// drop; stops beyond it are charged the flat extra-stop fee. Callers
// guarantee len(stops) >= 2.
func (s *Service) MultiStop(ctx context.Context, stops []models.Stop, weight models.WeightClass) (MultiStopQuote, error) {
	env := s.gather(ctx, stops[0].Coord, stops[1].Coord)
	b := pricing.MultiStop(s.Policy, env.res.DistanceKm, env.weather.Condition, env.timeCond, weight, len(stops))
	q := MultiStopQuote{
		ID:          newID(),
		Breakdown:   b,
		DistanceKm:  env.res.DistanceKm,
		DurationMin: env.res.DurationMin,
		Weather:     env.weather.Condition.String(),
		TimeCond:    env.timeCond.String(),
		Degraded:    env.res.Fallback || env.weather.Simulated,
	}
	observability.QuotesTotal.WithLabelValues("multi_stop").Inc()
	s.persist(ctx, storage.QuoteRecord{
		ID: q.ID, Mode: "multi_stop", DistanceKm: q.DistanceKm,
		Weather: env.weather.Condition, TimeCond: env.timeCond,
		Breakdown: b, Total: b.Total, CreatedAt: s.Clock(),
	})
	return q, nil
}

// Shopping prices a shopping-proxy errand. For the nearby range no route is
// resolved; the zone fee fixes the cost shape. Callers guarantee
// len(items) >= 1.
func (s *Service) Shopping(ctx context.Context, origin, dest models.Coordinate, rng models.ShoppingRange, items []models.ShoppingItem) (ShoppingQuote, error) {
	var env environment
	if rng == models.RangeSpecific {
		env = s.gather(ctx, origin, dest)
	} else {
		env = environment{
			weather:  s.Weather.Current(ctx, origin),
			timeCond: conditions.Classify(s.Clock()),
		}
	}
	heavy := false
	for _, it := range items {
		if it.Heavy {
			heavy = true
			break
		}
	}
	b := pricing.Shopping(s.Policy, rng, len(items), env.res.DistanceKm, env.weather.Condition, env.timeCond, heavy)
	q := ShoppingQuote{
		ID:          newID(),
		Breakdown:   b,
		DistanceKm:  env.res.DistanceKm,
		DurationMin: env.res.DurationMin,
		Weather:     env.weather.Condition.String(),
		TimeCond:    env.timeCond.String(),
		Degraded:    env.res.Fallback || env.weather.Simulated,
	}
	observability.QuotesTotal.WithLabelValues("shopping").Inc()
	s.persist(ctx, storage.QuoteRecord{
		ID: q.ID, Mode: "shopping", DistanceKm: q.DistanceKm,
		Weather: env.weather.Condition, TimeCond: env.timeCond,
		Breakdown: b, Total: b.Total, CreatedAt: s.Clock(),
	})
	return q, nil
}

// persist is best-effort: a quote store outage must not block returning the
// computed quote.
func (s *Service) persist(ctx context.Context, rec storage.QuoteRecord) {
	if s.Store == nil {
		return
	}
	if err := s.Store.SaveQuote(ctx, rec); err != nil && s.Logger != nil {
		s.Logger.Error("quote persistence failed", "quote_id", rec.ID, "error", err)
	}
}

func newID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
