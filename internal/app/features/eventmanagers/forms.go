// internal/app/features/eventmanagers/forms.go
package eventmanagers

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/actorctx"
	"github.com/dalemusser/memberhub/internal/app/system/httperr"
	"github.com/dalemusser/memberhub/internal/app/system/paging"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type formRequest struct {
	Fields   []models.FormField `json:"fields"`
	IsActive bool               `json:"is_active"`
}

// HandleSaveForm handles PUT /event-managers/{userID}/form. The manager may
// save their own form; admins may save anyone's while the grant is live.
func (h *Handler) HandleSaveForm(w http.ResponseWriter, r *http.Request) {
	var req formRequest
	if !httperr.Decode(w, r, &req) {
		return
	}
	actor, _ := actorctx.From(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	form, err := h.Delegation.SaveForm(ctx, actor, chi.URLParam(r, "userID"), req.Fields, req.IsActive)
	if err != nil {
		httperr.Write(w, r, h.Log, err)
		return
	}
	httperr.JSON(w, http.StatusOK, form)
}

// ServeDelegates handles GET /event-managers/{userID}/delegates?limit=.
func (h *Handler) ServeDelegates(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorctx.From(r)
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	list, err := h.Delegation.ListDelegates(ctx, actor, chi.URLParam(r, "userID"), page.Limit)
	if err != nil {
		httperr.Write(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []models.Delegate{}
	}
	httperr.JSON(w, http.StatusOK, map[string]any{"delegates": list})
}
