package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"defi-assistant/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates and configures a Chi router with all routes
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
	r.Use(CORSMiddleware(cfg.HTTP.CORSAllowedOrigins))
	r.Use(MetricsMiddleware)

	// Metrics endpoint for Prometheus
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)

		r.Post("/chat", h.HandleChat)

		r.Post("/feedback", h.HandleSubmitFeedback)
		r.Get("/feedback", h.HandleGetFeedback)

		// Market data pass-through
		r.Get("/top-tokens", h.HandleTopTokens)
		r.Get("/market-prices", h.HandleMarketPrices)
		r.Get("/available-tokens", h.HandleAvailableTokens)
		r.Get("/search-tokens", h.HandleSearchTokens)
	})

	// Browser client
	r.Get("/*", staticHandler(cfg.HTTP.StaticDir))

	return r
}

// staticHandler serves files from dir, falling back to index.html for unknown paths
func staticHandler(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(path); err != nil || (info.IsDir() && !strings.HasSuffix(r.URL.Path, "/")) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	}
}
