// internal/app/features/apply/handler.go
package apply

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/services/registry"
	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/app/system/httperr"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.uber.org/zap"
)

// Submitter files membership applications.
type Submitter interface {
	SubmitApplication(ctx context.Context, in registry.ApplicationInput) (models.Application, error)
}

// Handler serves the public membership application endpoint.
type Handler struct {
	Registry Submitter
	Log      *zap.Logger
}

func NewHandler(reg Submitter, logger *zap.Logger) *Handler {
	return &Handler{Registry: reg, Log: logger}
}

type applyResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// HandleApply handles POST /apply. A signed-in caller's user id is attached
// to the application; the body cannot set it.
func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	var in registry.ApplicationInput
	if !httperr.Decode(w, r, &in) {
		return
	}
	in.UserID = ""
	if u, ok := auth.CurrentUser(r); ok {
		in.UserID = u.ID
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	app, err := h.Registry.SubmitApplication(ctx, in)
	if err != nil {
		httperr.Write(w, r, h.Log, err)
		return
	}
	h.Log.Info("application submitted", zap.String("application_id", app.ID), zap.String("state", app.State))
	httperr.JSON(w, http.StatusCreated, applyResponse{ID: app.ID, Status: app.Status})
}
