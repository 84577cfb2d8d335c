// Command reporter simulates a courier device: while "online" it publishes
// the device coordinate to the location topic at the configured interval,
// and stops cleanly when toggled offline (SIGINT/SIGTERM).
package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/example/errand-core/internal/config"
	"github.com/example/errand-core/internal/ingest"
	"github.com/example/errand-core/internal/logging"
	"github.com/example/errand-core/internal/models"
)

func main() {
	_ = godotenv.Load()

	var courierID string
	var lat, lng float64
	flag.StringVar(&courierID, "courier", "", "courier id to report as")
	flag.Float64Var(&lat, "lat", 60.1699, "starting latitude")
	flag.Float64Var(&lng, "lng", 24.9384, "starting longitude")
	flag.Parse()

	cfg, err := config.LoadServerConfig()
	if err != nil {
		logging.NewLogger("info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewComponentLogger(cfg.LogLevel, "reporter")

	if courierID == "" {
		logger.Error("-courier is required")
		os.Exit(1)
	}
	brokers := cfg.KafkaBrokers
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	producer := ingest.NewKafkaProducer(brokers, cfg.KafkaTopic)
	defer producer.Close()

	src := &driftingSource{coord: models.Coordinate{Lat: lat, Lng: lng}}
	rep := ingest.NewReporter(courierID, src, producer, cfg.ReportInterval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("reporting locations", "courier_id", courierID, "interval", cfg.ReportInterval)
	if err := rep.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, ingest.ErrPermissionDenied) {
			logger.Error("cannot activate: location permission denied", "courier_id", courierID)
			os.Exit(2)
		}
		logger.Error("reporter stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("courier offline, reporter stopped", "courier_id", courierID)
}

// driftingSource random-walks around the starting coordinate to look like a
// moving courier.
type driftingSource struct {
	coord models.Coordinate
}

func (d *driftingSource) Current(context.Context) (models.Coordinate, error) {
	d.coord.Lat += (rand.Float64() - 0.5) * 0.001
	d.coord.Lng += (rand.Float64() - 0.5) * 0.001
	return d.coord, nil
}
