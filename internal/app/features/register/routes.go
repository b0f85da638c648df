// internal/app/features/register/routes.go
package register

import (
	"github.com/dalemusser/memberhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts delegate registration (typically at "/register").
func Routes(h *Handler, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Get("/{managerID}", h.ServeForm)
	r.With(limiter.Middleware("register", h.Log)).Post("/{managerID}", h.HandleRegister)
	return r
}
