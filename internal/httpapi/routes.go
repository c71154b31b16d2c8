// Package httpapi exposes the token engine over HTTP under /api/v1/jwt.
package httpapi

import (
	"net/http"
	"time"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Options carries the optional collaborators of the router.
type Options struct {
	Logger zerolog.Logger
	// Metrics is mounted at GET /metrics when set.
	Metrics http.Handler
}

// Handler serves the token endpoints.
type Handler struct {
	engine *goToken.Engine
	logger zerolog.Logger
}

// NewRouter wires every route.
func NewRouter(engine *goToken.Engine, opts Options) http.Handler {
	h := &Handler{engine: engine, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", h.health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/api/v1/jwt", func(r chi.Router) {
		r.Post("/issue", h.issue)
		r.With(middleware.Guard(engine)).Get("/verify", h.verify)
		r.Post("/reissue", h.reissue)
		r.Post("/logout/{userNo}", h.logout)
	})

	return r
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			ev := logger.Debug()
			if ww.Status() >= http.StatusInternalServerError {
				ev = logger.Warn()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("took", time.Since(start)).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
