package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/example/errand-core/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) SaveQuote(ctx context.Context, q QuoteRecord) error {
	breakdown, err := json.Marshal(q.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO quotes(id, mode, distance_km, weather, time_cond, breakdown, total, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		q.ID, q.Mode, q.DistanceKm, q.Weather.String(), q.TimeCond.String(), breakdown, q.Total, q.CreatedAt)
	return err
}

func (p *PostgresStore) SaveErrand(ctx context.Context, e models.Errand) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO errands(id, pickup_lat, pickup_lng, category, status, price, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, price = EXCLUDED.price`,
		e.ID, e.Pickup.Lat, e.Pickup.Lng, e.Category, e.Status, e.Price, e.CreatedAt)
	return err
}

// NearbyOpen keeps distance computation and pagination in SQL; staleness or
// eligibility policy never lives here.
func (p *PostgresStore) NearbyOpen(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]models.ErrandMatch, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, pickup_lat, pickup_lng, category, status, price, created_at, distance_km FROM (
		   SELECT *, 6371 * 2 * asin(sqrt(
		     pow(sin(radians(pickup_lat - $1) / 2), 2) +
		     cos(radians($1)) * cos(radians(pickup_lat)) *
		     pow(sin(radians(pickup_lng - $2) / 2), 2)
		   )) AS distance_km
		   FROM errands WHERE status = 'OPEN'
		 ) sub
		 WHERE distance_km <= $3
		 ORDER BY distance_km ASC
		 LIMIT $4`,
		lat, lng, radiusKm, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ErrandMatch
	for rows.Next() {
		var m models.ErrandMatch
		if err := rows.Scan(&m.ID, &m.Pickup.Lat, &m.Pickup.Lng, &m.Category, &m.Status, &m.Price, &m.CreatedAt, &m.DistanceKm); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
