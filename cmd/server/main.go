package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/example/errand-core/internal/conditions"
	"github.com/example/errand-core/internal/config"
	"github.com/example/errand-core/internal/geo"
	httpapi "github.com/example/errand-core/internal/http"
	"github.com/example/errand-core/internal/ingest"
	"github.com/example/errand-core/internal/logging"
	"github.com/example/errand-core/internal/matcher"
	"github.com/example/errand-core/internal/models"
	"github.com/example/errand-core/internal/quote"
	"github.com/example/errand-core/internal/route"
	"github.com/example/errand-core/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadServerConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewComponentLogger(cfg.LogLevel, "server")

	policy, err := cfg.PricingPolicy()
	if err != nil {
		logger.Error("invalid pricing policy", "error", err)
		os.Exit(1)
	}

	var index geo.CourierIndex
	if cfg.RedisAddr != "" {
		index = geo.NewRedisGeo(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
	} else {
		index = geo.NewIndex()
		logger.Warn("no REDIS_ADDR set, using in-memory courier index")
	}

	var quotes storage.QuoteStore
	var errands matcher.ErrandSource
	mem := storage.NewMemoryStore()
	quotes, errands = mem, mem
	if cfg.PGDSN != "" {
		if cfg.RunMigrations {
			runMigrations(cfg.PGDSN, logger)
		}
		if pg, err := storage.NewPostgresStore(cfg.PGDSN); err == nil {
			quotes, errands = pg, pg
		} else {
			logger.Error("postgres unavailable, falling back to memory store", "error", err)
		}
	}

	resolver := route.NewOSRMResolver(cfg.OSRMEndpoint, cfg.RouteTimeout, logger)
	weather := conditions.NewGridWeather(cfg.WeatherURL, cfg.WeatherAPIKey, cfg.WeatherTimeout, logger)

	quoteSvc := quote.NewService(resolver, weather, quotes, policy, logger)
	matchSvc := matcher.NewService(index, errands, matcher.Config{
		RadiusKm:   cfg.MatchRadiusKm,
		StaleAfter: cfg.StaleAfter,
		Limit:      cfg.MatchLimit,
	})

	var sink ingest.LocationSink = indexSink{index}
	if len(cfg.KafkaBrokers) > 0 {
		kp := ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		sink = kp
	}
	wsreg := ingest.NewWSRegistry(sink, logger)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewServer(quoteSvc, matchSvc, index, wsreg, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("errand-core listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// indexSink writes locations straight into the geo index when no broker is
// configured.
type indexSink struct{ idx geo.CourierIndex }

func (s indexSink) PublishLocation(ctx context.Context, loc models.CourierLocation) error {
	return s.idx.UpsertLocation(ctx, loc)
}

func runMigrations(dsn string, logger *slog.Logger) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Error("migration db open error", "error", err)
		return
	}
	defer db.Close()
	b, err := os.ReadFile(filepath.Join("migrations", "001_create_core.sql"))
	if err != nil {
		logger.Error("migration read error", "error", err)
		return
	}
	if _, err := db.Exec(string(b)); err != nil {
		logger.Error("migration exec error", "error", err)
		return
	}
	logger.Info("migration applied", "file", "001_create_core.sql")
}
