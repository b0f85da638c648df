// internal/app/features/apply/routes.go
package apply

import (
	"github.com/dalemusser/memberhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the application endpoint (typically at "/apply").
func Routes(h *Handler, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Use(limiter.Middleware("apply", h.Log))
	r.Post("/", h.HandleApply)
	return r
}
