package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mshadianto/wbs-bpkh-2026/internal/config"
	"github.com/mshadianto/wbs-bpkh-2026/internal/pipeline"
	"github.com/mshadianto/wbs-bpkh-2026/internal/service"
	"github.com/mshadianto/wbs-bpkh-2026/internal/store"
)

// NewRouter builds the HTTP API around the given service.
func NewRouter(svc *service.Service, cfg config.ServerConfig) http.Handler {
	h := &handlers{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)
		r.Get("/statistics", h.statistics)
		r.Get("/trends", h.trends)

		r.Route("/reports", func(r chi.Router) {
			r.Post("/", h.submit)
			r.Get("/", h.list)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.get)
				r.Patch("/status", h.updateStatus)
				r.Post("/assign", h.assign)
				r.Get("/messages", h.listMessages)
				r.Post("/messages", h.addMessage)
			})
		})
	})

	return r
}

// requestLogger records one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

// writeError maps domain sentinel errors onto HTTP statuses without
// leaking wrapped internals to the caller.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case eris.Is(err, store.ErrNotFound):
		status, msg = http.StatusNotFound, "report not found"
	case eris.Is(err, service.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "invalid PIN"
	case eris.Is(err, service.ErrBadStatus):
		status, msg = http.StatusBadRequest, "unknown status"
	case eris.Is(err, pipeline.ErrValidation):
		status, msg = http.StatusBadRequest, "field 'what' is required"
	default:
		zap.L().Error("api: request failed", zap.Error(err))
	}

	writeJSON(w, status, map[string]string{"error": msg})
}
