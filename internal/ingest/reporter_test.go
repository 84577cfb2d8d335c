package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/errand-core/internal/geo"
	"github.com/example/errand-core/internal/matcher"
	"github.com/example/errand-core/internal/models"
)

type fakeSource struct {
	mu    sync.Mutex
	coord models.Coordinate
	errs  []error // consumed one per call, then nil
	calls int
}

func (f *fakeSource) Current(context.Context) (models.Coordinate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return models.Coordinate{}, err
		}
	}
	return f.coord, nil
}

type fakeSink struct {
	mu   sync.Mutex
	locs []models.CourierLocation
	err  error
}

func (f *fakeSink) PublishLocation(_ context.Context, loc models.CourierLocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.locs = append(f.locs, loc)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.locs)
}

func TestReporterPublishesImmediatelyAndPeriodically(t *testing.T) {
	src := &fakeSource{coord: models.Coordinate{Lat: 60.17, Lng: 24.93}}
	sink := &fakeSink{}
	r := NewReporter("c1", src, sink, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	deadline := time.After(time.Second)
	for sink.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected >=3 reports, got %d", sink.count())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	for _, l := range sink.locs {
		if !l.Online || l.LastLocationAt.IsZero() {
			t.Fatalf("published row must be online with a timestamp: %+v", l)
		}
	}
}

func TestReporterStopsOnCancelWithNoStrayUpsert(t *testing.T) {
	src := &fakeSource{coord: models.Coordinate{Lat: 1, Lng: 1}}
	sink := &fakeSink{}
	r := NewReporter("c1", src, sink, 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// let the immediate report land, then toggle offline
	time.Sleep(5 * time.Millisecond)
	cancel()
	<-done

	n := sink.count()
	time.Sleep(60 * time.Millisecond)
	if sink.count() != n {
		t.Fatalf("upsert landed after cancellation: %d -> %d", n, sink.count())
	}
}

func TestReporterPermissionDeniedIsFatal(t *testing.T) {
	src := &fakeSource{errs: []error{ErrPermissionDenied}}
	sink := &fakeSink{}
	r := NewReporter("c1", src, sink, 10*time.Millisecond, nil)

	err := r.Run(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if sink.count() != 0 {
		t.Fatal("no location may be published without permission")
	}
}

func TestReporterSkipsTransientSourceErrors(t *testing.T) {
	src := &fakeSource{coord: models.Coordinate{Lat: 1, Lng: 1}, errs: []error{errors.New("gps cold start")}}
	sink := &fakeSink{}
	r := NewReporter("c1", src, sink, 10*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	_ = r.Run(ctx)

	if sink.count() == 0 {
		t.Fatal("transient source error must not end the session")
	}
}

// indexPublisher feeds reports straight into a courier index, the same
// wiring the server uses when no broker is configured.
type indexPublisher struct{ idx geo.CourierIndex }

func (p indexPublisher) PublishLocation(ctx context.Context, loc models.CourierLocation) error {
	return p.idx.UpsertLocation(ctx, loc)
}

func TestReporterTicksKeepCourierMatchable(t *testing.T) {
	ctx := context.Background()
	idx := geo.NewIndex()
	if err := idx.SetEligibility(ctx, "c1", true, time.Time{}); err != nil {
		t.Fatalf("set eligibility: %v", err)
	}

	src := &fakeSource{coord: models.Coordinate{Lat: 0.01, Lng: 0}}
	r := NewReporter("c1", src, indexPublisher{idx}, time.Minute, nil)

	m := matcher.NewService(idx, nil, matcher.Config{RadiusKm: 5, StaleAfter: 10 * time.Minute, Limit: 20})

	for i := 0; i < 3; i++ {
		if err := r.report(ctx); err != nil {
			t.Fatalf("report %d: %v", i, err)
		}
		n, err := m.CountNearbyCouriers(ctx, 0, 0, 0)
		if err != nil {
			t.Fatalf("count after report %d: %v", i, err)
		}
		if n != 1 {
			t.Fatalf("subscribed courier must stay matchable after report %d, count=%d", i, n)
		}
	}
}

func TestReporterSurvivesSinkFailures(t *testing.T) {
	src := &fakeSource{coord: models.Coordinate{Lat: 1, Lng: 1}}
	sink := &fakeSink{err: errors.New("broker unreachable")}
	r := NewReporter("c1", src, sink, 10*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := r.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("sink failures must be non-fatal, got %v", err)
	}
	if src.calls < 2 {
		t.Fatalf("expected continued ticking despite sink failures, calls=%d", src.calls)
	}
}
