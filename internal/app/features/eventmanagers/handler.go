// internal/app/features/eventmanagers/handler.go
package eventmanagers

import (
	"context"
	"time"

	"github.com/dalemusser/memberhub/internal/app/services/delegation"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.uber.org/zap"
)

// Delegations is the privileged side of the delegation service.
type Delegations interface {
	Grant(ctx context.Context, actor authz.Actor, targetID, eventLabel string, expiryDate time.Time) (models.RoleRecord, error)
	Revoke(ctx context.Context, actor authz.Actor, targetID string) error
	ListManagers(ctx context.Context, actor authz.Actor) ([]delegation.Manager, error)
	SaveForm(ctx context.Context, actor authz.Actor, managerID string, fields []models.FormField, isActive bool) (models.EventForm, error)
	ListDelegates(ctx context.Context, actor authz.Actor, managerID string, limit int64) ([]models.Delegate, error)
}

// Handler serves event manager grants, their forms and delegate listings.
type Handler struct {
	Delegation Delegations
	Log        *zap.Logger
}

func NewHandler(d Delegations, logger *zap.Logger) *Handler {
	return &Handler{Delegation: d, Log: logger}
}
