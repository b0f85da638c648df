// internal/app/features/members/routes.go
package members

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts all member routes under the path where the caller mounts it.
// Typically: r.Mount("/members", members.Routes(handler, requireActor))
//
// requireActor must resolve the signed-in actor (actorctx.Middleware).
// Authorization happens per target inside the registry.
func Routes(h *Handler, requireActor func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(requireActor)

		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeView)
		pr.Post("/{id}/role", h.HandleRole)
		pr.Post("/{id}/transfer", h.HandleTransfer)
		pr.Post("/{id}/card", h.HandleIssueCard)
		pr.Delete("/{id}/card", h.HandleRevokeCard)
		pr.Post("/{id}/consent", h.HandleConsent)
	})

	return r
}
