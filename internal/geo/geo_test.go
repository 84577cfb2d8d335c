package geo

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/example/errand-core/internal/models"
)

func TestHaversineZero(t *testing.T) {
	if d := HaversineKm(0, 0, 0, 0); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// one degree of latitude is ~111.19 km
	d := HaversineKm(0, 0, 1, 0)
	if math.Abs(d-111.19) > 0.5 {
		t.Fatalf("expected ~111.19 km, got %f", d)
	}
}

func TestIndexNearbySortsAndTruncates(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()
	now := time.Now()
	for _, c := range []models.CourierLocation{
		{CourierID: "far", Coord: models.Coordinate{Lat: 0.04, Lng: 0}, LastLocationAt: now},
		{CourierID: "near", Coord: models.Coordinate{Lat: 0.01, Lng: 0}, LastLocationAt: now},
		{CourierID: "mid", Coord: models.Coordinate{Lat: 0.02, Lng: 0}, LastLocationAt: now},
		{CourierID: "outside", Coord: models.Coordinate{Lat: 1, Lng: 1}, LastLocationAt: now},
	} {
		if err := idx.UpsertLocation(ctx, c); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	got, err := idx.Nearby(ctx, 0, 0, 10, 2)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Loc.CourierID != "near" || got[1].Loc.CourierID != "mid" {
		t.Fatalf("wrong order: %s, %s", got[0].Loc.CourierID, got[1].Loc.CourierID)
	}
}

func TestIndexUpsertIsLastWriteWins(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()
	now := time.Now()
	first := models.CourierLocation{CourierID: "c1", Coord: models.Coordinate{Lat: 0.5, Lng: 0.5}, LastLocationAt: now}
	second := models.CourierLocation{CourierID: "c1", Coord: models.Coordinate{Lat: 0.001, Lng: 0}, LastLocationAt: now}
	_ = idx.UpsertLocation(ctx, first)
	_ = idx.UpsertLocation(ctx, second)

	got, err := idx.Nearby(ctx, 0, 0, 1, 0)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(got) != 1 || got[0].Loc.Coord != second.Coord {
		t.Fatalf("expected single row with latest coord, got %+v", got)
	}
}

func TestUpsertLocationPreservesEligibility(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()
	trialEnd := time.Now().Add(24 * time.Hour)
	if err := idx.SetEligibility(ctx, "c1", true, trialEnd); err != nil {
		t.Fatalf("set eligibility: %v", err)
	}

	// location ticks carry no eligibility; the stored state must survive
	for i := 0; i < 3; i++ {
		loc := models.CourierLocation{
			CourierID:      "c1",
			Coord:          models.Coordinate{Lat: 0.01, Lng: 0},
			LastLocationAt: time.Now(),
			Online:         true,
		}
		if err := idx.UpsertLocation(ctx, loc); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	got, err := idx.Nearby(ctx, 0, 0, 5, 0)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one row, got %d", len(got))
	}
	if !got[0].Loc.SubActive || !got[0].Loc.TrialExpiresAt.Equal(trialEnd) {
		t.Fatalf("eligibility wiped by location tick: %+v", got[0].Loc)
	}
}

func TestEligibilityBeforeFirstLocationIsInvisible(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()
	_ = idx.SetEligibility(ctx, "c1", true, time.Time{})

	got, _ := idx.Nearby(ctx, 0, 0, 10000, 0)
	if len(got) != 0 {
		t.Fatalf("courier without a location must not be a candidate, got %+v", got)
	}

	_ = idx.UpsertLocation(ctx, models.CourierLocation{
		CourierID: "c1", Coord: models.Coordinate{Lat: 0.01, Lng: 0},
		LastLocationAt: time.Now(), Online: true,
	})
	got, _ = idx.Nearby(ctx, 0, 0, 5, 0)
	if len(got) != 1 || !got[0].Loc.SubActive {
		t.Fatalf("first location must surface the courier with stored eligibility, got %+v", got)
	}
}

func TestIndexRemove(t *testing.T) {
	idx := NewIndex()
	ctx := context.Background()
	_ = idx.UpsertLocation(ctx, models.CourierLocation{CourierID: "c1", Coord: models.Coordinate{Lat: 0, Lng: 0}, LastLocationAt: time.Now()})
	if err := idx.Remove(ctx, "c1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, _ := idx.Nearby(ctx, 0, 0, 10, 0)
	if len(got) != 0 {
		t.Fatalf("expected empty index, got %d", len(got))
	}
}
