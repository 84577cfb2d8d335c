package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/errand-core/internal/geo"
	"github.com/example/errand-core/internal/models"
)

// QuoteRecord is a persisted quote: the inputs plus the itemized breakdown,
// stored so the exact total can be recomputed later for disputes.
type QuoteRecord struct {
	ID         string
	Mode       string // delivery, multi_stop, shopping
	DistanceKm float64
	Weather    models.WeatherCondition
	TimeCond   models.TimeCondition
	Breakdown  any
	Total      int64
	CreatedAt  time.Time
}

// QuoteStore persists computed quotes.
type QuoteStore interface {
	SaveQuote(ctx context.Context, q QuoteRecord) error
}

// ErrandStore persists errands and answers nearby queries over OPEN ones.
type ErrandStore interface {
	SaveErrand(ctx context.Context, e models.Errand) error
	NearbyOpen(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]models.ErrandMatch, error)
}

// MemoryStore backs local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	quotes  map[string]QuoteRecord
	errands map[string]models.Errand
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quotes:  make(map[string]QuoteRecord),
		errands: make(map[string]models.Errand),
	}
}

func (m *MemoryStore) SaveQuote(_ context.Context, q QuoteRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[q.ID] = q
	return nil
}

func (m *MemoryStore) GetQuote(id string) (QuoteRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quotes[id]
	return q, ok
}

func (m *MemoryStore) SaveErrand(_ context.Context, e models.Errand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errands[e.ID] = e
	return nil
}

func (m *MemoryStore) NearbyOpen(_ context.Context, lat, lng, radiusKm float64, limit int) ([]models.ErrandMatch, error) {
	m.mu.RLock()
	out := make([]models.ErrandMatch, 0, len(m.errands))
	for _, e := range m.errands {
		if e.Status != models.ErrandOpen {
			continue
		}
		d := geo.HaversineKm(lat, lng, e.Pickup.Lat, e.Pickup.Lng)
		if d <= radiusKm {
			out = append(out, models.ErrandMatch{Errand: e, DistanceKm: d})
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
