package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "errand_core", Name: "quotes_total", Help: "Quotes computed, by mode"},
		[]string{"mode"},
	)
	RouteFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "errand_core", Name: "route_fallbacks_total",
		Help: "Route resolutions served from the haversine fallback",
	})
	WeatherFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "errand_core", Name: "weather_fallbacks_total",
		Help: "Weather lookups degraded to the simulated clear default",
	})
	MatchQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "errand_core", Name: "match_queries_total", Help: "Proximity queries served, by kind"},
		[]string{"kind"},
	)
	CouriersOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "errand_core", Name: "couriers_online", Help: "Couriers currently reporting locations",
	})
	LocationUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "errand_core", Name: "location_updates_total", Help: "Courier location upserts ingested",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "errand_core", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "errand_core",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
