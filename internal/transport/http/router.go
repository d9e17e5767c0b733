// Package httptransport is the thin HTTP layer over the governance core.
// Handlers delegate to domain services without embedding business logic;
// authorization decisions live in the services, next to the state they
// guard.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dasigov/internal/platform/middleware"
)

// Registrar is anything that can attach routes to the router.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires the middleware chain and every handler's routes.
func NewRouter(logger *slog.Logger, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CallerAddress(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
