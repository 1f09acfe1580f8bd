package chi

import (
	"net/http"
	"time"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/kailas-cloud/semdex/internal/metrics"
)

// RouterConfig tunes the HTTP router.
type RouterConfig struct {
	// ReindexPerMinute caps reindex runs per client IP; zero disables the limit.
	ReindexPerMinute int
}

// Router builds the chi mux with middleware and every route mounted.
func (s *Server) Router(cfg RouterConfig) http.Handler {
	r := gochi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})

	r.Post("/search", s.Search)
	r.Post("/recommend", s.Recommend)
	r.With(reindexLimiter(cfg.ReindexPerMinute)).Post("/reindex", s.Reindex)

	r.Put("/items/{key}", s.PutItem)
	r.Get("/items/{key}", s.GetItem)

	r.Get("/usage", s.Usage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

func reindexLimiter(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusTooManyRequests, codeRateLimited, "reindex rate limit exceeded")
		}),
	)
}
