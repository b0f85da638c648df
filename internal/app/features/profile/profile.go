// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/actorctx"
	"github.com/dalemusser/memberhub/internal/app/system/httperr"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/models"
)

// ServeProfile handles GET /profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorctx.From(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Registry.GetSelf(ctx, actor)
	if err != nil {
		httperr.Write(w, r, h.Log, err)
		return
	}
	httperr.JSON(w, http.StatusOK, m)
}

type consentRequest struct {
	AllowEmailSharing  *bool `json:"allow_email_sharing"`
	AllowMobileSharing *bool `json:"allow_mobile_sharing"`
}

// HandleConsent handles POST /profile/consent. Either flag may be omitted;
// setting a flag to its current value is a no-op.
func (h *Handler) HandleConsent(w http.ResponseWriter, r *http.Request) {
	var req consentRequest
	if !httperr.Decode(w, r, &req) {
		return
	}
	if req.AllowEmailSharing == nil && req.AllowMobileSharing == nil {
		httperr.BadRequest(w, "no consent flag given")
		return
	}
	actor, _ := actorctx.From(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	for field, v := range map[models.ConsentField]*bool{
		models.ConsentEmail:  req.AllowEmailSharing,
		models.ConsentMobile: req.AllowMobileSharing,
	} {
		if v == nil {
			continue
		}
		if err := h.Registry.SetConsent(ctx, actor, actor.UserID, field, *v); err != nil {
			httperr.Write(w, r, h.Log, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
