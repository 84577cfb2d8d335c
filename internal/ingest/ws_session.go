package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/errand-core/internal/models"
	"github.com/example/errand-core/internal/observability"
)

// locationFrame is the wire shape couriers stream over the websocket.
type locationFrame struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// WSSession is one courier's inbound location stream.
type WSSession struct {
	courierID string
	conn      *websocket.Conn
	mu        sync.Mutex
}

// WSRegistry tracks connected courier streaming sessions and feeds each
// received coordinate into the ingestion sink.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*WSSession
	sink     LocationSink
	logger   *slog.Logger
}

func NewWSRegistry(sink LocationSink, logger *slog.Logger) *WSRegistry {
	return &WSRegistry{sessions: make(map[string]*WSSession), sink: sink, logger: logger}
}

// Serve registers the connection and pumps location frames until the
// courier disconnects. Each frame becomes a last-write-wins upsert through
// the same path as every other ingestion source.
func (r *WSRegistry) Serve(ctx context.Context, courierID string, conn *websocket.Conn) {
	s := &WSSession{courierID: courierID, conn: conn}
	r.mu.Lock()
	r.sessions[courierID] = s
	r.mu.Unlock()
	observability.CouriersOnline.Inc()

	defer func() {
		r.mu.Lock()
		delete(r.sessions, courierID)
		r.mu.Unlock()
		observability.CouriersOnline.Dec()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var f locationFrame
		if err := json.Unmarshal(data, &f); err != nil {
			if r.logger != nil {
				r.logger.Warn("invalid location frame", "courier_id", courierID, "error", err)
			}
			continue
		}
		coord := models.Coordinate{Lat: f.Lat, Lng: f.Lng}
		if !coord.Valid() {
			continue
		}
		loc := models.CourierLocation{
			CourierID:      courierID,
			Coord:          coord,
			LastLocationAt: time.Now(),
			Online:         true,
		}
		if err := r.sink.PublishLocation(ctx, loc); err != nil && r.logger != nil {
			r.logger.Warn("location publish failed", "courier_id", courierID, "error", err)
		}
	}
}

// Connected reports whether a courier currently holds a streaming session.
func (r *WSRegistry) Connected(courierID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[courierID]
	return ok
}
