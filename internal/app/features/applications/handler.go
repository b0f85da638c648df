// internal/app/features/applications/handler.go
package applications

import (
	"context"

	"github.com/dalemusser/memberhub/internal/app/services/registry"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.uber.org/zap"
)

// Reviewer is the review side of the identity registry.
type Reviewer interface {
	ListApplications(ctx context.Context, actor authz.Actor, f registry.ApplicationFilter) ([]models.Application, error)
	IssueMembership(ctx context.Context, actor authz.Actor, appID string) (string, error)
	RejectApplication(ctx context.Context, actor authz.Actor, appID, reason string) error
}

// Handler serves application review for scoped officers and admins.
type Handler struct {
	Registry Reviewer
	Log      *zap.Logger
}

func NewHandler(reg Reviewer, logger *zap.Logger) *Handler {
	return &Handler{Registry: reg, Log: logger}
}
