// internal/app/features/register/handler.go
package register

import (
	"context"

	"github.com/dalemusser/memberhub/internal/app/services/delegation"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.uber.org/zap"
)

// Forms is the public side of the delegation service.
type Forms interface {
	GetForm(ctx context.Context, managerID string) (delegation.PublicForm, error)
	SubmitDelegate(ctx context.Context, managerID string, sub delegation.DelegateSubmission) (models.Delegate, error)
}

// Handler serves public delegate registration for an event manager's form.
type Handler struct {
	Forms Forms
	Log   *zap.Logger
}

func NewHandler(forms Forms, logger *zap.Logger) *Handler {
	return &Handler{Forms: forms, Log: logger}
}
