// internal/app/features/register/register.go
package register

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/services/delegation"
	"github.com/dalemusser/memberhub/internal/app/system/httperr"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServeForm handles GET /register/{managerID}. Inactive forms and expired
// grants are 404.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	form, err := h.Forms.GetForm(ctx, chi.URLParam(r, "managerID"))
	if err != nil {
		httperr.Write(w, r, h.Log, err)
		return
	}
	httperr.JSON(w, http.StatusOK, form)
}

type registerResponse struct {
	ID string `json:"id"`
}

// HandleRegister handles POST /register/{managerID}.
//
//	201 {"id":"..."}
//	422 {"error":"validation failed","fields":{"answers.<field id>":"required"}}
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var sub delegation.DelegateSubmission
	if !httperr.Decode(w, r, &sub) {
		return
	}
	managerID := chi.URLParam(r, "managerID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, err := h.Forms.SubmitDelegate(ctx, managerID, sub)
	if err != nil {
		httperr.Write(w, r, h.Log, err)
		return
	}
	h.Log.Info("delegate registered", zap.String("manager_id", managerID), zap.String("delegate_id", d.ID))
	httperr.JSON(w, http.StatusCreated, registerResponse{ID: d.ID})
}
