// internal/app/features/applications/routes.go
package applications

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts application review (typically at "/applications").
func Routes(h *Handler, requireActor func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(requireActor)

		pr.Get("/", h.ServeList)
		pr.Post("/{id}/approve", h.HandleApprove)
		pr.Post("/{id}/reject", h.HandleReject)
	})

	return r
}
