// Package api assembles the HTTP router: shared middleware, health checks, metrics
// and the CRM endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crm-gateway/internal/api/middleware"
	"crm-gateway/internal/api/response"
	"crm-gateway/internal/common/errors"
	"crm-gateway/internal/common/logger"
)

// Pinger reports whether the CRM session can be established.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouteRegistrar is implemented by every endpoint handler.
type RouteRegistrar interface {
	Routes(r chi.Router)
}

type RouterOptions struct {
	Logger             logger.Logger
	Ready              Pinger
	ReadyTimeout       time.Duration
	CORSAllowedOrigins []string
	Handlers           []RouteRegistrar
}

func NewRouter(opts RouterOptions) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	readyTimeout := opts.ReadyTimeout
	if readyTimeout <= 0 {
		readyTimeout = 5 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery(log))

	if len(opts.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.HeaderRequestID},
			ExposedHeaders: []string{middleware.HeaderRequestID},
			MaxAge:         300,
		}))
	}

	r.Get("/health", health)
	r.Get("/ready", ready(opts.Ready, readyTimeout, log))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range opts.Handlers {
		h.Routes(r)
	}

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	response.WriteJSON(w, http.StatusOK, response.Envelope{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func ready(p Pinger, timeout time.Duration, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p == nil {
			response.WriteJSON(w, http.StatusOK, response.Envelope{"status": "ready"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			stdErr := errors.Normalize(err)
			if !errors.HasCode(stdErr, errors.ErrCodeSessionUnavailable) {
				stdErr = errors.NewSessionUnavailableError(err)
			}
			response.WriteError(w, logger.FromContext(r.Context(), log), "ready", stdErr)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.Envelope{"status": "ready"})
	}
}
