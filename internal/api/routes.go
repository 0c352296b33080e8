package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds request bodies; label photographs arrive inline.
const maxBodyBytes = 20 << 20

// RouterConfig holds the settings the router needs beyond the handlers.
type RouterConfig struct {
	// APIKey protects every route except health. Empty disables auth,
	// which config only permits in dev mode.
	APIKey      string
	CORSOrigins []string
	// AIRequestsPerMinute and AIBurst limit chat and label analysis per
	// client. Zero disables the limit.
	AIRequestsPerMinute float64
	AIBurst             int
}

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestSize(maxBodyBytes))

	aiLimiter := NewRateLimiter(cfg.AIRequestsPerMinute, cfg.AIBurst)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/health", h.Health)

		// Protected routes (auth required unless running in dev mode)
		r.Group(func(r chi.Router) {
			if cfg.APIKey != "" {
				r.Use(AuthMiddleware(cfg.APIKey))
			} else {
				slog.Warn("API authentication disabled", "component", "api")
			}

			r.Route("/wines", func(r chi.Router) {
				r.Get("/", h.ListWines)
				r.Post("/", h.AddWine)
				r.Get("/facets", h.Facets)
				r.Post("/import", h.ImportWines)

				r.Route("/{id}", func(r chi.Router) {
					r.Use(WineIDMiddleware)
					r.Get("/", h.GetWine)
					r.Patch("/", h.UpdateWine)
					r.Delete("/", h.DeleteWine)
					r.Put("/", h.WineAction)
					r.Get("/similar", h.SimilarWines)

					r.Get("/consumption", h.ConsumptionHistory)
					r.Post("/consumption", h.LogConsumption)
					r.Delete("/consumption/{consumptionID}", h.RemoveConsumption)

					r.Get("/notes", h.GetNote)
					r.Post("/notes", h.SaveNote)
					r.Get("/purchase-date", h.GetPurchaseDate)
					r.Post("/purchase-date", h.SavePurchaseDate)
				})
			})

			r.Post("/overlay/import", h.ImportOverlay)

			// Model calls are rate limited per client
			r.With(aiLimiter.Middleware).Post("/chat", h.Chat)
			r.With(aiLimiter.Middleware).Post("/analyze-label", h.AnalyzeLabel)
		})
	})

	return r
}
