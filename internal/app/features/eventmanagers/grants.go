// internal/app/features/eventmanagers/grants.go
package eventmanagers

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/memberhub/internal/app/system/actorctx"
	"github.com/dalemusser/memberhub/internal/app/system/httperr"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// dateLayout is the calendar date format of expires_on.
const dateLayout = "2006-01-02"

type grantRequest struct {
	EventLabel string `json:"event_label"`
	ExpiresOn  string `json:"expires_on"`
}

// ServeList handles GET /event-managers.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorctx.From(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	list, err := h.Delegation.ListManagers(ctx, actor)
	if err != nil {
		httperr.Write(w, r, h.Log, err)
		return
	}
	httperr.JSON(w, http.StatusOK, map[string]any{"managers": list})
}

// HandleGrant handles POST /event-managers/{userID}
// {"event_label":"Summit 2026","expires_on":"2026-04-01"}. The grant stays
// live through the end of expires_on in the configured time zone.
func (h *Handler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if !httperr.Decode(w, r, &req) {
		return
	}
	date, err := time.Parse(dateLayout, req.ExpiresOn)
	if err != nil {
		httperr.Write(w, r, h.Log, errs.NewValidation("expires_on", "must be a date (YYYY-MM-DD)"))
		return
	}
	actor, _ := actorctx.From(r)
	userID := chi.URLParam(r, "userID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rec, err := h.Delegation.Grant(ctx, actor, userID, req.EventLabel, date)
	if err != nil {
		httperr.Write(w, r, h.Log, err)
		return
	}
	h.Log.Info("event manager granted",
		zap.String("actor_id", actor.UserID),
		zap.String("user_id", userID),
		zap.Timep("expires_at", rec.ExpiresAt))
	httperr.JSON(w, http.StatusOK, rec)
}

// HandleRevoke handles DELETE /event-managers/{userID}.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorctx.From(r)
	userID := chi.URLParam(r, "userID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Delegation.Revoke(ctx, actor, userID); err != nil {
		httperr.Write(w, r, h.Log, err)
		return
	}
	h.Log.Info("event manager revoked", zap.String("actor_id", actor.UserID), zap.String("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}
