package uiapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yashdodwani/gridflow/internal/civiltime"
	"github.com/yashdodwani/gridflow/internal/engine"
	"github.com/yashdodwani/gridflow/internal/logging"
	"github.com/yashdodwani/gridflow/internal/store"
	"github.com/yashdodwani/gridflow/internal/tariff"
)

// Options wires a Server. Resolver, Schedule and Store are required.
type Options struct {
	Resolver       *civiltime.Resolver
	Schedule       *tariff.Schedule
	Store          *store.Store
	Hub            *Hub
	Logger         *logging.Logger
	Interval       time.Duration
	Granularity    time.Duration
	EmissionFactor float64
	Currency       string
	Version        string
}

type Server struct {
	resolver       *civiltime.Resolver
	schedule       *tariff.Schedule
	store          *store.Store
	hub            *Hub
	log            *logging.Logger
	interval       time.Duration
	granularity    time.Duration
	emissionFactor float64
	currency       string
	version        string
}

func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	hub := opts.Hub
	if hub == nil {
		hub = NewHub(log)
	}

	s := &Server{
		resolver:       opts.Resolver,
		schedule:       opts.Schedule,
		store:          opts.Store,
		hub:            hub,
		log:            log.WithComponent("api"),
		interval:       opts.Interval,
		granularity:    opts.Granularity,
		emissionFactor: opts.EmissionFactor,
		currency:       opts.Currency,
		version:        opts.Version,
	}
	if s.interval <= 0 {
		s.interval = engine.DefaultInterval
	}
	if s.granularity <= 0 {
		s.granularity = engine.DefaultGranularity
	}
	if s.version == "" {
		s.version = "dev"
	}
	return s
}

// Hub returns the live meter hub readings should be broadcast on.
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS for local development
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	// Long-lived; kept out of the request timeout.
	r.Handle("/ws/meter", s.hub)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/status", s.handleStatus)
		r.Get("/tariffs", s.handleGetTariffs)
		r.Get("/tariffs/current", s.handleCurrentTariff)
		r.Get("/price", s.handleGetPrice)
		r.Get("/meter/current", s.handleMeterCurrent)
		r.Get("/meter/history", s.handleMeterHistory)
		r.Get("/dashboard/summary", s.handleDashboardSummary)
		r.Get("/appliances", s.handleGetAppliances)
		r.Post("/appliances", s.handleCreateAppliance)
		r.Get("/appliances/{id}", s.handleGetAppliance)
		r.Put("/appliances/{id}", s.handleUpdateAppliance)
		r.Delete("/appliances/{id}", s.handleDeleteAppliance)
		r.Get("/appliances/{id}/can-use-now", s.handleCanUseNow)
		r.Post("/recommendations", s.handleGetRecommendations)
		r.Post("/simulate-cost", s.handleSimulateCost)
	})

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"zone":       s.resolver.Location().String(),
		"now":        s.resolver.Now(),
		"currency":   s.currency,
		"ws_clients": s.hub.ClientCount(),
	})
}

func (s *Server) handleGetTariffs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"bands":     s.schedule.Bands(),
		"min_price": s.schedule.MinPrice(),
		"max_price": s.schedule.MaxPrice(),
		"currency":  s.currency,
	})
}

func (s *Server) handleCurrentTariff(w http.ResponseWriter, r *http.Request) {
	s.respondPrice(w, r, s.resolver.Now())
}

func (s *Server) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	at := s.resolver.Now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		var err error
		if at, err = s.resolver.Parse(raw); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	s.respondPrice(w, r, at)
}

func (s *Server) respondPrice(w http.ResponseWriter, r *http.Request, at civiltime.Instant) {
	band, err := s.schedule.BandAt(at)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"at":       at,
		"band":     band,
		"price":    band.PricePerKWh,
		"currency": s.currency,
	})
}

func (s *Server) handleMeterCurrent(w http.ResponseWriter, r *http.Request) {
	reading, err := s.store.LatestReading()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reading)
}

func (s *Server) handleMeterHistory(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	readings, err := s.store.History(limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, readings)
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	now := s.resolver.Now()
	from, to := s.resolver.DayBounds(now)

	readings, err := s.store.ReadingsBetween(from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bill, err := s.schedule.Bill(readings)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	price, err := s.schedule.PriceAt(now)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	appliances, err := s.store.ListAppliances()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	active := 0
	for _, a := range appliances {
		if a.Enabled {
			active++
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"date":              from.Format("2006-01-02"),
		"now":               now,
		"readings":          bill.Readings,
		"energy_kwh":        bill.EnergyKWh,
		"cost":              bill.Cost,
		"emissions_kg":      engine.Emissions(bill.EnergyKWh, s.emissionFactor),
		"by_band":           bill.ByBand,
		"current_price":     price,
		"active_appliances": active,
		"currency":          s.currency,
	})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, civiltime.ErrInvalidTimestamp), errors.Is(err, engine.ErrInvalidProfile):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNoFeasibleSlot):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.LogAPIError(r.Method, r.URL.Path, status, err)
	}
	respondError(w, status, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
