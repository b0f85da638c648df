// internal/app/features/members/manage.go
package members

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/actorctx"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/httperr"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type roleRequest struct {
	Role string `json:"role"`
}

type transferRequest struct {
	State string `json:"state"`
}

type consentRequest struct {
	Field string `json:"field"`
	Value bool   `json:"value"`
}

// mutate runs fn with the request actor and a bounded context, then answers
// 204 or the mapped error.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, actor authz.Actor, id string) error) {
	actor, _ := actorctx.From(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := fn(ctx, actor, id); err != nil {
		httperr.Write(w, r, h.Log, err)
		return
	}
	h.Log.Info(op, zap.String("actor_id", actor.UserID), zap.String("member_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// HandleRole handles POST /members/{id}/role {"role":"district_convener"}.
func (h *Handler) HandleRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !httperr.Decode(w, r, &req) {
		return
	}
	role, ok := authz.ParseRole(req.Role)
	if !ok {
		httperr.Write(w, r, h.Log, errs.NewValidation("role", "unknown role"))
		return
	}
	h.mutate(w, r, "role assigned", func(ctx context.Context, actor authz.Actor, id string) error {
		return h.Registry.AssignRole(ctx, actor, id, role)
	})
}

// HandleTransfer handles POST /members/{id}/transfer {"state":"Goa"}.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !httperr.Decode(w, r, &req) {
		return
	}
	h.mutate(w, r, "state transferred", func(ctx context.Context, actor authz.Actor, id string) error {
		return h.Registry.TransferState(ctx, actor, id, req.State)
	})
}

// HandleIssueCard handles POST /members/{id}/card.
func (h *Handler) HandleIssueCard(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "card issued", h.Registry.IssueCard)
}

// HandleRevokeCard handles DELETE /members/{id}/card.
func (h *Handler) HandleRevokeCard(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "card revoked", h.Registry.RevokeCard)
}

// HandleConsent handles POST /members/{id}/consent
// {"field":"allow_email_sharing","value":true}.
func (h *Handler) HandleConsent(w http.ResponseWriter, r *http.Request) {
	var req consentRequest
	if !httperr.Decode(w, r, &req) {
		return
	}
	h.mutate(w, r, "consent changed", func(ctx context.Context, actor authz.Actor, id string) error {
		return h.Registry.SetConsent(ctx, actor, id, models.ConsentField(req.Field), req.Value)
	})
}
