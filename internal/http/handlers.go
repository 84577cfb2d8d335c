package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/errand-core/internal/matcher"
	"github.com/example/errand-core/internal/models"
	"github.com/example/errand-core/internal/observability"
)

// All structural validation happens here at the boundary; the pricing
// engine assumes pre-validated input and performs no re-validation.

type deliveryQuoteRequest struct {
	Origin models.Coordinate `json:"origin"`
	Dest   models.Coordinate `json:"dest"`
	Weight string            `json:"weight"`
}

func (s *Server) handleDeliveryQuote(w http.ResponseWriter, r *http.Request) {
	var req deliveryQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Origin.Valid() || !req.Dest.Valid() {
		writeError(w, http.StatusBadRequest, "origin and dest must be valid coordinates")
		return
	}
	q, err := s.Quotes.Delivery(r.Context(), req.Origin, req.Dest, models.ParseWeightClass(req.Weight))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "quote computation failed")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type multiStopQuoteRequest struct {
	Stops  []models.Stop `json:"stops"`
	Weight string        `json:"weight"`
}

func (s *Server) handleMultiStopQuote(w http.ResponseWriter, r *http.Request) {
	var req multiStopQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Stops) < 2 {
		writeError(w, http.StatusBadRequest, "a route needs a pickup and at least one drop")
		return
	}
	for _, st := range req.Stops {
		if !st.Coord.Valid() {
			writeError(w, http.StatusBadRequest, "all stops must be valid coordinates")
			return
		}
	}
	// clients may send stops in any order; Sequence is the route order
	sort.SliceStable(req.Stops, func(i, j int) bool { return req.Stops[i].Sequence < req.Stops[j].Sequence })
	q, err := s.Quotes.MultiStop(r.Context(), req.Stops, models.ParseWeightClass(req.Weight))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "quote computation failed")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type shoppingQuoteRequest struct {
	Origin models.Coordinate     `json:"origin"`
	Dest   models.Coordinate     `json:"dest"`
	Range  string                `json:"range"`
	Items  []models.ShoppingItem `json:"items"`
}

func (s *Server) handleShoppingQuote(w http.ResponseWriter, r *http.Request) {
	var req shoppingQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) < 1 {
		writeError(w, http.StatusBadRequest, "a shopping quote needs at least one item")
		return
	}
	if !req.Origin.Valid() {
		writeError(w, http.StatusBadRequest, "origin must be a valid coordinate")
		return
	}
	rng := models.ParseShoppingRange(req.Range)
	if rng == models.RangeSpecific && !req.Dest.Valid() {
		writeError(w, http.StatusBadRequest, "a specific-range quote needs a valid dest coordinate")
		return
	}
	q, err := s.Quotes.Shopping(r.Context(), req.Origin, req.Dest, rng, req.Items)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "quote computation failed")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// parseNearbyQuery pulls lat/lng and the optional radius override from the
// query string.
func parseNearbyQuery(r *http.Request) (lat, lng, radiusKm float64, err error) {
	q := r.URL.Query()
	lat, err = strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return 0, 0, 0, errors.New("lat must be a number")
	}
	lng, err = strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		return 0, 0, 0, errors.New("lng must be a number")
	}
	if !(models.Coordinate{Lat: lat, Lng: lng}).Valid() {
		return 0, 0, 0, errors.New("lat/lng out of range")
	}
	if v := q.Get("radius_km"); v != "" {
		radiusKm, err = strconv.ParseFloat(v, 64)
		if err != nil || radiusKm <= 0 {
			return 0, 0, 0, errors.New("radius_km must be a positive number")
		}
	}
	return lat, lng, radiusKm, nil
}

func (s *Server) handleNearbyCouriers(w http.ResponseWriter, r *http.Request) {
	lat, lng, radius, err := parseNearbyQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.Matcher.FindNearbyCouriers(r.Context(), lat, lng, radius)
	if err != nil {
		// lookup failure is distinct from "none nearby", which is a
		// valid empty list below
		writeError(w, http.StatusBadGateway, "courier lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"couriers": out})
}

func (s *Server) handleNearbyCourierCount(w http.ResponseWriter, r *http.Request) {
	lat, lng, radius, err := parseNearbyQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := s.Matcher.CountNearbyCouriers(r.Context(), lat, lng, radius)
	if err != nil {
		writeError(w, http.StatusBadGateway, "courier lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": n})
}

func (s *Server) handleNearbyErrands(w http.ResponseWriter, r *http.Request) {
	lat, lng, radius, err := parseNearbyQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.Matcher.FindNearbyErrands(r.Context(), lat, lng, radius)
	if err != nil {
		if errors.Is(err, matcher.ErrLookupFailed) {
			writeError(w, http.StatusBadGateway, "errand lookup failed")
			return
		}
		writeError(w, http.StatusInternalServerError, "errand lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"errands": out})
}

// courierLocationRequest carries only the fields a device may report.
// Subscription state is platform-owned and has no business on this wire.
type courierLocationRequest struct {
	CourierID      string            `json:"courier_id"`
	Coord          models.Coordinate `json:"coord"`
	LastLocationAt time.Time         `json:"last_location_at"`
}

func (s *Server) handleCourierLocation(w http.ResponseWriter, r *http.Request) {
	var req courierLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CourierID == "" || !req.Coord.Valid() {
		writeError(w, http.StatusBadRequest, "courier_id and a valid coord are required")
		return
	}
	if req.LastLocationAt.IsZero() {
		req.LastLocationAt = time.Now()
	}
	loc := models.CourierLocation{
		CourierID:      req.CourierID,
		Coord:          req.Coord,
		LastLocationAt: req.LastLocationAt,
		Online:         true,
	}
	if err := s.Index.UpsertLocation(r.Context(), loc); err != nil {
		writeError(w, http.StatusBadGateway, "location store unavailable")
		return
	}
	observability.LocationUpdatesTotal.Inc()
	w.WriteHeader(http.StatusNoContent)
}

type courierEligibilityRequest struct {
	CourierID      string    `json:"courier_id"`
	SubActive      bool      `json:"sub_active"`
	TrialExpiresAt time.Time `json:"trial_expires_at"`
}

// handleCourierEligibility is the platform-side write path for subscription
// state, driven by the billing lifecycle rather than courier devices.
func (s *Server) handleCourierEligibility(w http.ResponseWriter, r *http.Request) {
	var req courierEligibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CourierID == "" {
		writeError(w, http.StatusBadRequest, "courier_id is required")
		return
	}
	if err := s.Index.SetEligibility(r.Context(), req.CourierID, req.SubActive, req.TrialExpiresAt); err != nil {
		writeError(w, http.StatusBadGateway, "location store unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleCourierWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["courier_id"]
	if id == "" {
		writeError(w, http.StatusBadRequest, "courier_id is required")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	// the request context dies once the connection is hijacked; the session
	// lives until the courier disconnects
	s.WSReg.Serve(context.Background(), id, conn)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
