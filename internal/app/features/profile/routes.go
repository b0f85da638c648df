// internal/app/features/profile/routes.go
package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, requireActor func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireActor)
	r.Get("/", h.ServeProfile)
	r.Post("/consent", h.HandleConsent)
	return r
}
