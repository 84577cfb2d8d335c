package models

import "time"

// Coordinate is an immutable (lat, lng) pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate lies in the WGS84 range.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Stop is one ordered coordinate in a multi-stop route. Sequence 0 is the
// pickup; a valid route has at least one drop after it.
type Stop struct {
	Sequence int        `json:"sequence"`
	Coord    Coordinate `json:"coord"`
}

// ShoppingItem is a single line of a shopping-proxy errand.
type ShoppingItem struct {
	Name  string `json:"name"`
	Heavy bool   `json:"heavy,omitempty"`
}

// CourierLocation is the single current row for a courier. The location
// fields are written per tick by the ingestion path (last-write-wins);
// SubActive and TrialExpiresAt are written only by the subscription
// lifecycle and survive every location tick. The matcher reads the whole
// row and derives liveness from LastLocationAt at query time.
type CourierLocation struct {
	CourierID      string     `json:"courier_id"`
	Coord          Coordinate `json:"coord"`
	LastLocationAt time.Time  `json:"last_location_at"`
	Online         bool       `json:"online"`
	SubActive      bool       `json:"sub_active"`
	TrialExpiresAt time.Time  `json:"trial_expires_at"`
}

// CourierMatch is a courier candidate returned by a nearby query.
type CourierMatch struct {
	CourierID      string     `json:"courier_id"`
	Coord          Coordinate `json:"coord"`
	DistanceKm     float64    `json:"distance_km"`
	LastLocationAt time.Time  `json:"last_location_at"`
}

// Errand statuses. Only OPEN errands are matchable.
const (
	ErrandOpen      = "OPEN"
	ErrandAssigned  = "ASSIGNED"
	ErrandCompleted = "COMPLETED"
	ErrandCanceled  = "CANCELED"
)

type Errand struct {
	ID        string     `json:"id"`
	Pickup    Coordinate `json:"pickup"`
	Category  string     `json:"category"`
	Status    string     `json:"status"`
	Price     int64      `json:"price"`
	CreatedAt time.Time  `json:"created_at"`
}

// ErrandMatch is an errand candidate returned by a nearby query.
type ErrandMatch struct {
	Errand
	DistanceKm float64 `json:"distance_km"`
}
