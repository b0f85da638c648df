// internal/app/features/eventmanagers/routes.go
package eventmanagers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts event manager administration (typically at "/event-managers").
func Routes(h *Handler, requireActor func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(requireActor)

		pr.Get("/", h.ServeList)
		pr.Post("/{userID}", h.HandleGrant)
		pr.Delete("/{userID}", h.HandleRevoke)
		pr.Put("/{userID}/form", h.HandleSaveForm)
		pr.Get("/{userID}/delegates", h.ServeDelegates)
	})

	return r
}
