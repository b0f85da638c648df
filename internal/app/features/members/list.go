// internal/app/features/members/list.go
package members

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/services/registry"
	"github.com/dalemusser/memberhub/internal/app/system/actorctx"
	"github.com/dalemusser/memberhub/internal/app/system/httperr"
	"github.com/dalemusser/memberhub/internal/app/system/paging"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
)

type listResponse struct {
	Members []registry.Member `json:"members"`
	Limit   int64             `json:"limit"`
	Offset  int64             `json:"offset"`
}

// ServeList handles GET /members?state=&district=&limit=&offset=.
// Results are narrowed to the actor's jurisdiction.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorctx.From(r)
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	list, err := h.Registry.ListMembers(ctx, actor, registry.MemberFilter{
		State:    query.Get(r, "state"),
		District: query.Get(r, "district"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		httperr.Write(w, r, h.Log, err)
		return
	}
	httperr.JSON(w, http.StatusOK, listResponse{Members: list, Limit: page.Limit, Offset: page.Offset})
}

// ServeView handles GET /members/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorctx.From(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Registry.GetMember(ctx, actor, chi.URLParam(r, "id"))
	if err != nil {
		httperr.Write(w, r, h.Log, err)
		return
	}
	httperr.JSON(w, http.StatusOK, m)
}
