package route

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/errand-core/internal/models"
	"github.com/example/errand-core/internal/observability"
)

// OSRMResolver queries an OSRM HTTP server for road distance and duration.
// Any failure, timeout, or malformed response degrades to the haversine
// estimate instead of surfacing an error to the quote path.
type OSRMResolver struct {
	Endpoint string
	Client   *http.Client
	Logger   *slog.Logger
}

func NewOSRMResolver(endpoint string, timeout time.Duration, logger *slog.Logger) *OSRMResolver {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &OSRMResolver{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
		Logger:   logger,
	}
}

func (o *OSRMResolver) Resolve(ctx context.Context, origin, dest models.Coordinate) Resolution {
	res, err := o.query(ctx, origin, dest)
	if err != nil {
		observability.RouteFallbacksTotal.Inc()
		if o.Logger != nil {
			o.Logger.Warn("route resolver degraded, using haversine estimate", "error", err)
		}
		return Estimate(origin, dest)
	}
	return res
}

func (o *OSRMResolver) query(ctx context.Context, origin, dest models.Coordinate) (Resolution, error) {
	// OSRM route query: /route/v1/driving/{lng1},{lat1};{lng2},{lat2}?overview=false
	url := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=false",
		o.Endpoint, origin.Lng, origin.Lat, dest.Lng, dest.Lat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Resolution{}, err
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		return Resolution{}, err
	}
	defer resp.Body.Close()

	var out struct {
		Routes []struct {
			Distance float64 `json:"distance"` // meters
			Duration float64 `json:"duration"` // seconds
		} `json:"routes"`
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Resolution{}, err
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return Resolution{}, fmt.Errorf("osrm no route: %v", out.Code)
	}
	r := out.Routes[0]
	return Resolution{
		DistanceKm:  r.Distance / 1000.0,
		DurationMin: r.Duration / 60.0,
	}, nil
}
