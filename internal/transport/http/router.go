// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"basalt/internal/platform/metrics"
	"basalt/internal/platform/middleware"
)

// Handlers collects the domain handlers mounted under the authenticated
// API surface.
type Handlers struct {
	Assets     *AssetHandler
	Ledger     *LedgerHandler
	Identity   *IdentityHandler
	Compliance *ComplianceHandler
}

// NewRouter wires all endpoints. Health and metrics stay outside the auth
// chain; everything else requires a bearer token.
func NewRouter(h Handlers, validator middleware.JWTValidator, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.RequireAuth(validator, logger))
		h.Assets.Register(api)
		h.Ledger.Register(api)
		h.Identity.Register(api)
		h.Compliance.Register(api)
	})

	return r
}
