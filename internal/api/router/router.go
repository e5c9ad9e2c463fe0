// Package router wires the HTTP surface: the Twilio voice webhook, a health
// probe and the Prometheus scrape endpoint.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/mikhlas911/medizap-ai/internal/http/middleware"
	"github.com/mikhlas911/medizap-ai/internal/telephony"
	"github.com/mikhlas911/medizap-ai/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	VoiceHandler   *telephony.Handler
	MetricsHandler http.Handler
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/webhooks/twilio", func(r chi.Router) {
		r.Post("/voice", cfg.VoiceHandler.VoiceWebhook)
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
