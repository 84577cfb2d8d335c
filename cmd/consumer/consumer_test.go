package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/errand-core/internal/geo"
	"github.com/example/errand-core/internal/models"
)

// fakeIndex fails a configurable number of location writes before
// succeeding.
type fakeIndex struct {
	fail  int
	calls int
	last  models.CourierLocation
}

func (f *fakeIndex) UpsertLocation(_ context.Context, loc models.CourierLocation) error {
	f.calls++
	if f.calls <= f.fail {
		return errors.New("upsert fail")
	}
	f.last = loc
	return nil
}

func (f *fakeIndex) SetEligibility(context.Context, string, bool, time.Time) error { return nil }
func (f *fakeIndex) Remove(context.Context, string) error                          { return nil }
func (f *fakeIndex) Nearby(context.Context, float64, float64, float64, int) ([]geo.Candidate, error) {
	return nil, nil
}

func TestUpsertWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeIndex{fail: 2}
	loc := models.CourierLocation{CourierID: "c1", Coord: models.Coordinate{Lat: 1, Lng: 2}, Online: true}
	start := time.Now()
	if err := upsertWithRetry(context.Background(), f, loc, 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", f.calls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatal("expected at least one backoff")
	}
	if f.last.CourierID != "c1" {
		t.Fatalf("wrong row stored: %+v", f.last)
	}
}

func TestUpsertWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeIndex{fail: 5}
	loc := models.CourierLocation{CourierID: "c1", Coord: models.Coordinate{Lat: 1, Lng: 2}}
	if err := upsertWithRetry(context.Background(), f, loc, 3, 5*time.Millisecond); err == nil {
		t.Fatal("expected error after retries")
	}
}
