package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/errand-core/internal/models"
)

// ErrPermissionDenied is returned by a CoordinateSource when location
// access has been revoked. It is fatal to the reporting session: retrying
// is an explicit user action, never a silent background loop.
var ErrPermissionDenied = errors.New("location permission denied")

// CoordinateSource yields the device's current coordinate.
type CoordinateSource interface {
	Current(ctx context.Context) (models.Coordinate, error)
}

// LocationSink receives each reported location (kafka producer in
// production, the geo index directly in local runs).
type LocationSink interface {
	PublishLocation(ctx context.Context, loc models.CourierLocation) error
}

// Reporter is the courier-side periodic location task. While the courier is
// online it ticks at Interval, reads the device coordinate, and publishes it
// with a fresh timestamp. Cancelling the context (the offline toggle) stops
// the ticker immediately so no stray upsert lands afterwards.
type Reporter struct {
	CourierID string
	Source    CoordinateSource
	Sink      LocationSink
	Interval  time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
}

func NewReporter(courierID string, source CoordinateSource, sink LocationSink, interval time.Duration, logger *slog.Logger) *Reporter {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Reporter{
		CourierID: courierID,
		Source:    source,
		Sink:      sink,
		Interval:  interval,
		Logger:    logger,
		Now:       time.Now,
	}
}

// Run reports locations until the context is cancelled or permission is
// revoked. The first report happens immediately so the courier never sits
// online without a coordinate. A permission error aborts the run and must
// put the caller into the cannot-activate state; transient sink failures
// are logged and skipped.
func (r *Reporter) Run(ctx context.Context) error {
	if err := r.report(ctx); err != nil {
		return err
	}
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.report(ctx); err != nil {
				return err
			}
		}
	}
}

func (r *Reporter) report(ctx context.Context) error {
	coord, err := r.Source.Current(ctx)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			return fmt.Errorf("courier %s cannot stay online: %w", r.CourierID, err)
		}
		// transient device error: skip this tick
		if r.Logger != nil {
			r.Logger.Warn("coordinate read failed", "courier_id", r.CourierID, "error", err)
		}
		return nil
	}
	loc := models.CourierLocation{
		CourierID:      r.CourierID,
		Coord:          coord,
		LastLocationAt: r.Now(),
		Online:         true,
	}
	if err := r.Sink.PublishLocation(ctx, loc); err != nil {
		// network failures degrade to a visible non-fatal error; the next
		// tick retries with a fresh coordinate
		if r.Logger != nil {
			r.Logger.Warn("location publish failed", "courier_id", r.CourierID, "error", err)
		}
	}
	return nil
}
