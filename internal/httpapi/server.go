// Package httpapi exposes the pricing engine and its stores over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/treeshoptech/treeshop-app-sub001/internal/calibrate"
	"github.com/treeshoptech/treeshop-app-sub001/internal/complexity"
	"github.com/treeshoptech/treeshop-app-sub001/internal/cost"
	"github.com/treeshoptech/treeshop-app-sub001/internal/estimate"
	"github.com/treeshoptech/treeshop-app-sub001/internal/scorer"
	"github.com/treeshoptech/treeshop-app-sub001/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server wires handlers to the store and services.
type Server struct {
	Store      store.Store
	Calculator *cost.Calculator
	Scorer     *scorer.Service
	Calibrator *calibrate.Service
	Defaults   estimate.Defaults

	// BaseCatalog holds factors used when the store has none.
	BaseCatalog complexity.Catalog

	RateLimit   rate.Limit // 0 disables limiting
	RateBurst   int
	CORSOrigins []string
}

// Router builds the chi router with middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	if s.RateLimit > 0 {
		r.Use(rateLimit(rate.NewLimiter(s.RateLimit, max(s.RateBurst, 1))))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/factors", s.handleListFactors)
		r.Post("/multiplier", s.handleMultiplier)
		r.Post("/baseline", s.handleBaseline)

		r.Post("/costs/labor", s.handleLaborCost)
		r.Post("/costs/equipment", s.handleEquipmentCost)
		r.Post("/loadouts/price", s.handlePriceLoadout)

		r.Post("/jobs", s.handleCreateJob)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Post("/jobs/{id}/complete", s.handleCompleteJob)

		r.Get("/templates", s.handleListTemplates)
		r.Get("/templates/{serviceType}", s.handleGetTemplate)
		r.Post("/templates/{serviceType}/recalculate", s.handleRecalculate)
	})

	return r
}

func (s *Server) origins() []string {
	if len(s.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return s.CORSOrigins
}

// catalog returns the stored factors, or BaseCatalog (falling back to the
// built-in defaults) when none have been seeded.
func (s *Server) catalog(ctx context.Context) (complexity.Catalog, error) {
	factors, err := s.Store.ListFactors(ctx)
	if err != nil {
		return nil, err
	}
	if len(factors) > 0 {
		return complexity.NewCatalog(factors), nil
	}
	if s.BaseCatalog != nil {
		return s.BaseCatalog, nil
	}
	return complexity.DefaultCatalog(), nil
}
