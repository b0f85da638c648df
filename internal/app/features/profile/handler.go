// internal/app/features/profile/handler.go
package profile

import (
	"context"

	"github.com/dalemusser/memberhub/internal/app/services/registry"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.uber.org/zap"
)

// Registry is the self-service side of the identity registry.
type Registry interface {
	GetSelf(ctx context.Context, actor authz.Actor) (registry.Member, error)
	SetConsent(ctx context.Context, actor authz.Actor, identityID string, field models.ConsentField, value bool) error
}

// Handler owns the signed-in member's own profile endpoints.
type Handler struct {
	Registry Registry
	Log      *zap.Logger
}

func NewHandler(reg Registry, logger *zap.Logger) *Handler {
	return &Handler{Registry: reg, Log: logger}
}
