package storage

import (
	"context"
	"testing"
	"time"

	"github.com/example/errand-core/internal/models"
)

func TestMemoryStoreQuoteRoundTrip(t *testing.T) {
	m := NewMemoryStore()
	rec := QuoteRecord{
		ID: "q1", Mode: "delivery", DistanceKm: 3.2,
		Weather: models.WeatherRain, TimeCond: models.TimeDay,
		Total: 770, CreatedAt: time.Now(),
	}
	if err := m.SaveQuote(context.Background(), rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok := m.GetQuote("q1")
	if !ok || got.Total != 770 || got.Mode != "delivery" {
		t.Fatalf("unexpected record: %+v ok=%v", got, ok)
	}
}

func TestMemoryStoreNearbyOpenFiltersAndSorts(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	for _, e := range []models.Errand{
		{ID: "far-open", Pickup: models.Coordinate{Lat: 0.03, Lng: 0}, Status: models.ErrandOpen},
		{ID: "near-open", Pickup: models.Coordinate{Lat: 0.01, Lng: 0}, Status: models.ErrandOpen},
		{ID: "assigned", Pickup: models.Coordinate{Lat: 0.01, Lng: 0}, Status: models.ErrandAssigned},
		{ID: "outside", Pickup: models.Coordinate{Lat: 2, Lng: 2}, Status: models.ErrandOpen},
	} {
		if err := m.SaveErrand(ctx, e); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := m.NearbyOpen(ctx, 0, 0, 10, 0)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 open errands in radius, got %d", len(got))
	}
	if got[0].ID != "near-open" || got[1].ID != "far-open" {
		t.Fatalf("wrong order: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestMemoryStoreNearbyOpenLimit(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_ = m.SaveErrand(ctx, models.Errand{ID: id, Pickup: models.Coordinate{Lat: 0.01, Lng: 0}, Status: models.ErrandOpen})
	}
	got, _ := m.NearbyOpen(ctx, 0, 0, 10, 2)
	if len(got) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(got))
	}
}
