package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"rwaledger/core"
	"rwaledger/gateway/middleware"
)

// Config wires the HTTP surface to a ledger and its optional collaborators.
type Config struct {
	Ledger        *core.Ledger
	Events        EventIndex
	Hub           *Hub
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
	Logger        *slog.Logger
}

type handlers struct {
	ledger *core.Ledger
	index  EventIndex
	hub    *Hub
	logger *slog.Logger
}

// New builds the gateway router. Everything under /v1 passes through the
// authenticator; paths it lists as optional serve reads without a token, but
// mutations always need a caller.
func New(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{ledger: cfg.Ledger, index: cfg.Events, hub: cfg.Hub, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))
	obs := cfg.Observability
	if obs != nil {
		r.Use(obs.Middleware())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if obs != nil {
		r.Handle("/metrics", obs.MetricsHandler())
	}

	r.Route("/v1", func(sr chi.Router) {
		if cfg.Authenticator != nil {
			sr.Use(cfg.Authenticator.Middleware())
		}
		if cfg.RateLimiter != nil {
			sr.Use(cfg.RateLimiter.Middleware("v1"))
		}
		h.mountAdmin(sr)
		h.mountAssets(sr)
		h.mountInvestors(sr)
		h.mountDistributions(sr)
		sr.Get("/events", h.listEvents)
	})
	r.Get("/ws/events", h.streamEvents)

	return otelhttp.NewHandler(r, "rwa-gateway")
}
