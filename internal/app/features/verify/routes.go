// internal/app/features/verify/routes.go
package verify

import (
	"github.com/dalemusser/memberhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Routes mounts the public verification endpoints (typically at "/verify").
// Any origin may call them; every request counts against the per-IP limiter.
func Routes(h *Handler, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(limiter.Middleware("verify", h.Log))

	r.Get("/", h.ServeVerify)
	r.Get("/delegates/{id}", h.ServeDelegate)
	return r
}
