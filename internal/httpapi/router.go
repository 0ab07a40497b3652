// Package httpapi assembles the reelgen HTTP API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reelgen/internal/httpapi/handlers"
	"reelgen/internal/httpkit"
	"reelgen/internal/pkg/logger"
	"reelgen/internal/pkg/middleware"
)

type Deps struct {
	Handlers *handlers.Handler
	Log      *logger.Logger

	CORSAllowedOrigins []string
	// GenerateRateLimit is requests per minute per client IP on the
	// generation routes; zero disables it.
	GenerateRateLimit int
	// RequestTimeout bounds the JSON routes. Generation and streaming
	// routes are not bounded.
	RequestTimeout time.Duration
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	h := d.Handlers

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recovery(log))
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: d.CORSAllowedOrigins,
		ExposedHeaders: []string{"Content-Disposition", middleware.RequestIDHeader},
	}))

	wrap := func(fn middleware.ErrorHandlerFunc) http.HandlerFunc {
		return middleware.WrapHandler(h.Log(), fn)
	}

	// ---- GENERATION ----
	r.Group(func(r chi.Router) {
		r.Use(middleware.GenerateRateLimit(d.GenerateRateLimit))
		r.Get("/videos/generate", h.GenerateVideo)
		r.Post("/videos", wrap(h.CreateVideo))
	})

	// ---- STREAMING ----
	r.Get("/videos/{videoId}/content", wrap(h.StreamVideo))

	// ---- JSON ----
	r.Group(func(r chi.Router) {
		if d.RequestTimeout > 0 {
			r.Use(middleware.Timeout(d.RequestTimeout))
		}
		r.Get("/health", h.Health)
		r.Get("/videos", wrap(h.ListVideos))
		r.Get("/videos/{videoId}", wrap(h.GetVideo))
		r.Get("/videos/{videoId}/url", wrap(h.GetVideoURL))
		r.Delete("/videos/{videoId}", wrap(h.DeleteVideo))
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
