package conditions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/example/errand-core/internal/models"
	"github.com/example/errand-core/internal/observability"
)

// Report is the tagged weather result. Simulated marks the safe default
// returned when the provider is unavailable or unconfigured, so degraded
// lookups stay visible instead of being silently swallowed.
type Report struct {
	Condition models.WeatherCondition
	Simulated bool
}

// Provider looks up near-real-time precipitation at a coordinate.
type Provider interface {
	Current(ctx context.Context, coord models.Coordinate) Report
}

// GridWeather queries a gridded weather provider. Coordinates are snapped
// to the grid before the request so nearby origins share a cell, and cell
// results are cached briefly to bound provider traffic.
type GridWeather struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
	Logger   *slog.Logger
	cache    *cellCache
}

func NewGridWeather(endpoint, apiKey string, timeout time.Duration, logger *slog.Logger) *GridWeather {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &GridWeather{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: timeout},
		Logger:   logger,
		cache:    newCellCache(5 * time.Minute),
	}
}

func (g *GridWeather) Current(ctx context.Context, coord models.Coordinate) Report {
	if g.APIKey == "" {
		return g.degraded(nil)
	}
	cell := cellKey(coord)
	if c, ok := g.cache.get(cell); ok {
		return Report{Condition: c}
	}
	cond, err := g.query(ctx, coord)
	if err != nil {
		return g.degraded(err)
	}
	g.cache.set(cell, cond)
	return Report{Condition: cond}
}

func (g *GridWeather) degraded(err error) Report {
	observability.WeatherFallbacksTotal.Inc()
	if g.Logger != nil {
		g.Logger.Warn("weather provider degraded, defaulting to clear", "error", err)
	}
	return Report{Condition: models.WeatherClear, Simulated: true}
}

func (g *GridWeather) query(ctx context.Context, coord models.Coordinate) (models.WeatherCondition, error) {
	lat, lng := snapToGrid(coord)
	url := fmt.Sprintf("%s/v1/current?lat=%.2f&lng=%.2f&appid=%s", g.Endpoint, lat, lng, g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.WeatherClear, err
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return models.WeatherClear, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.WeatherClear, fmt.Errorf("weather provider status %d", resp.StatusCode)
	}
	var out struct {
		WeatherCode int `json:"weather_code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.WeatherClear, err
	}
	return conditionFromCode(out.WeatherCode), nil
}

// conditionFromCode maps WMO weather interpretation codes to the closed
// condition enum. Anything unrecognized is clear.
func conditionFromCode(code int) models.WeatherCondition {
	switch {
	case code >= 71 && code <= 77, code == 85, code == 86:
		return models.WeatherSnow
	case code >= 51 && code <= 67, code >= 80 && code <= 82, code >= 95:
		return models.WeatherRain
	default:
		return models.WeatherClear
	}
}

// snapToGrid floors a coordinate to the provider's 0.01 degree grid. Floor,
// not truncation: truncating toward zero makes the cell straddling zero
// twice as wide and misplaces negative coordinates.
func snapToGrid(c models.Coordinate) (lat, lng float64) {
	snap := func(v float64) float64 { return math.Floor(v*100) / 100 }
	return snap(c.Lat), snap(c.Lng)
}

func cellKey(c models.Coordinate) string {
	lat, lng := snapToGrid(c)
	return fmt.Sprintf("%.2f,%.2f", lat, lng)
}
