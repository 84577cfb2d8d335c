package geo

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/errand-core/internal/models"
)

// RedisGeo implements CourierIndex on Redis GEO commands. Positions live in
// a geo set; the rest of the row (online flag, freshness timestamp,
// eligibility fields) lives in a per-courier metadata hash.
type RedisGeo struct {
	client *redis.Client
	key    string
}

func NewRedisGeo(addr, password, key string) *RedisGeo {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisGeo{client: c, key: key}
}

// NewRedisGeoWithClient wires an existing client, used by the consumer.
func NewRedisGeoWithClient(client *redis.Client, key string) *RedisGeo {
	return &RedisGeo{client: client, key: key}
}

func (r *RedisGeo) UpsertLocation(ctx context.Context, loc models.CourierLocation) error {
	if err := r.client.GeoAdd(ctx, r.key, &redis.GeoLocation{
		Name:      loc.CourierID,
		Longitude: loc.Coord.Lng,
		Latitude:  loc.Coord.Lat,
	}).Err(); err != nil {
		return err
	}
	// only the location fields; HSET leaves sub_active/trial_expires_at in
	// the hash untouched
	return r.client.HSet(ctx, metaKey(loc.CourierID), map[string]interface{}{
		"online":           strconv.FormatBool(loc.Online),
		"last_location_at": loc.LastLocationAt.UTC().Format(time.RFC3339Nano),
	}).Err()
}

func (r *RedisGeo) SetEligibility(ctx context.Context, courierID string, subActive bool, trialExpiresAt time.Time) error {
	return r.client.HSet(ctx, metaKey(courierID), map[string]interface{}{
		"sub_active":       strconv.FormatBool(subActive),
		"trial_expires_at": trialExpiresAt.UTC().Format(time.RFC3339Nano),
	}).Err()
}

func (r *RedisGeo) Remove(ctx context.Context, courierID string) error {
	if err := r.client.ZRem(ctx, r.key, courierID).Err(); err != nil {
		return err
	}
	return r.client.Del(ctx, metaKey(courierID)).Err()
}

func (r *RedisGeo) Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]Candidate, error) {
	q := &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  lng,
			Latitude:   lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithCoord: true,
		WithDist:  true,
	}
	if limit > 0 {
		q.Count = limit
	}
	res, err := r.client.GeoSearchLocation(ctx, r.key, q).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(res))
	for _, g := range res {
		c := Candidate{
			Loc: models.CourierLocation{
				CourierID: g.Name,
				Coord:     models.Coordinate{Lat: g.Latitude, Lng: g.Longitude},
			},
			DistanceKm: g.Dist,
		}
		m, err := r.client.HGetAll(ctx, metaKey(g.Name)).Result()
		if err != nil {
			return nil, err
		}
		if v, ok := m["online"]; ok {
			c.Loc.Online = v == "true"
		}
		if v, ok := m["last_location_at"]; ok {
			if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
				c.Loc.LastLocationAt = t
			}
		}
		if v, ok := m["sub_active"]; ok {
			c.Loc.SubActive = v == "true"
		}
		if v, ok := m["trial_expires_at"]; ok {
			if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
				c.Loc.TrialExpiresAt = t
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func metaKey(id string) string { return "courier:meta:" + id }
