// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"time"

	"github.com/dalemusser/memberhub/internal/app/store/audit"
	"github.com/dalemusser/memberhub/internal/app/system/actorctx"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/httperr"
	"github.com/dalemusser/memberhub/internal/app/system/paging"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

type listResponse struct {
	Events []audit.Event `json:"events"`
	Total  int64         `json:"total"`
	Limit  int64         `json:"limit"`
	Offset int64         `json:"offset"`
}

// ServeList handles GET /audit, newest first. Filters: category,
// event_type, actor_id, target_id, start_date, end_date (YYYY-MM-DD,
// inclusive), limit, offset. Admins and super controllers only.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorctx.From(r)
	if !authz.CanAdminister(actor) {
		h.Log.Warn("audit log access denied", zap.String("actor_id", actor.UserID), zap.String("role", string(actor.Role)))
		httperr.Write(w, r, h.Log, errs.ErrForbidden)
		return
	}

	page := paging.Parse(r)
	filter := audit.QueryFilter{
		Category:  query.Get(r, "category"),
		EventType: query.Get(r, "event_type"),
		ActorID:   query.Get(r, "actor_id"),
		TargetID:  query.Get(r, "target_id"),
		Limit:     page.Limit,
		Offset:    page.Offset,
	}
	if s := query.Get(r, "start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			httperr.Write(w, r, h.Log, errs.NewValidation("start_date", "must be YYYY-MM-DD"))
			return
		}
		filter.StartTime = &t
	}
	if s := query.Get(r, "end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			httperr.Write(w, r, h.Log, errs.NewValidation("end_date", "must be YYYY-MM-DD"))
			return
		}
		// End of day
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &end
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.Log.Error("audit query failed", zap.Error(err))
		httperr.Write(w, r, h.Log, err)
		return
	}
	total, err := h.Events.Count(ctx, filter)
	if err != nil {
		h.Log.Error("audit count failed", zap.Error(err))
		httperr.Write(w, r, h.Log, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httperr.JSON(w, http.StatusOK, listResponse{Events: events, Total: total, Limit: page.Limit, Offset: page.Offset})
}

