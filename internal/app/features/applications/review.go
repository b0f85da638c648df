// internal/app/features/applications/review.go
package applications

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/services/registry"
	"github.com/dalemusser/memberhub/internal/app/system/actorctx"
	"github.com/dalemusser/memberhub/internal/app/system/httperr"
	"github.com/dalemusser/memberhub/internal/app/system/paging"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type listResponse struct {
	Applications []models.Application `json:"applications"`
	Limit        int64                `json:"limit"`
	Offset       int64                `json:"offset"`
}

// ServeList handles GET /applications?status=&state=&district=&limit=&offset=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorctx.From(r)
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	list, err := h.Registry.ListApplications(ctx, actor, registry.ApplicationFilter{
		Status:   query.Get(r, "status"),
		State:    query.Get(r, "state"),
		District: query.Get(r, "district"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		httperr.Write(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []models.Application{}
	}
	httperr.JSON(w, http.StatusOK, listResponse{Applications: list, Limit: page.Limit, Offset: page.Offset})
}

type approveResponse struct {
	MembershipID string `json:"membership_id"`
}

// HandleApprove handles POST /applications/{id}/approve. A second approval
// of the same application is 409.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorctx.From(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	mid, err := h.Registry.IssueMembership(ctx, actor, id)
	if err != nil {
		httperr.Write(w, r, h.Log, err)
		return
	}
	h.Log.Info("membership issued",
		zap.String("actor_id", actor.UserID),
		zap.String("application_id", id),
		zap.String("membership_id", mid))
	httperr.JSON(w, http.StatusOK, approveResponse{MembershipID: mid})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// HandleReject handles POST /applications/{id}/reject {"reason":"..."}.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if !httperr.Decode(w, r, &req) {
		return
	}
	actor, _ := actorctx.From(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Registry.RejectApplication(ctx, actor, id, req.Reason); err != nil {
		httperr.Write(w, r, h.Log, err)
		return
	}
	h.Log.Info("application rejected", zap.String("actor_id", actor.UserID), zap.String("application_id", id))
	w.WriteHeader(http.StatusNoContent)
}
