package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/errand-core/internal/geo"
	"github.com/example/errand-core/internal/ingest"
	"github.com/example/errand-core/internal/matcher"
	"github.com/example/errand-core/internal/quote"
)

// Server wires the quote, matching, and ingestion surfaces onto one router.
type Server struct {
	Quotes  *quote.Service
	Matcher *matcher.Service
	Index   geo.CourierIndex
	WSReg   *ingest.WSRegistry
	mux     *mux.Router
	logger  *slog.Logger
}

func NewServer(quotes *quote.Service, m *matcher.Service, index geo.CourierIndex, wsreg *ingest.WSRegistry, logger *slog.Logger) *Server {
	s := &Server{
		Quotes:  quotes,
		Matcher: m,
		Index:   index,
		WSReg:   wsreg,
		mux:     mux.NewRouter(),
		logger:  logger,
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/quotes/delivery", s.handleDeliveryQuote).Methods("POST")
	s.mux.HandleFunc("/api/v1/quotes/multi-stop", s.handleMultiStopQuote).Methods("POST")
	s.mux.HandleFunc("/api/v1/quotes/shopping", s.handleShoppingQuote).Methods("POST")

	s.mux.HandleFunc("/api/v1/couriers/nearby", s.handleNearbyCouriers).Methods("GET")
	s.mux.HandleFunc("/api/v1/couriers/nearby/count", s.handleNearbyCourierCount).Methods("GET")
	s.mux.HandleFunc("/api/v1/errands/nearby", s.handleNearbyErrands).Methods("GET")

	s.mux.HandleFunc("/internal/courier/locations", s.handleCourierLocation).Methods("POST")
	s.mux.HandleFunc("/internal/courier/eligibility", s.handleCourierEligibility).Methods("POST")
	s.mux.HandleFunc("/ws/courier/{courier_id}", s.handleCourierWS)

	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }
