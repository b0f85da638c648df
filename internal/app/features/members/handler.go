// internal/app/features/members/handler.go
package members

import (
	"context"

	"github.com/dalemusser/memberhub/internal/app/services/registry"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.uber.org/zap"
)

// Registry is the member side of the identity registry.
type Registry interface {
	ListMembers(ctx context.Context, actor authz.Actor, f registry.MemberFilter) ([]registry.Member, error)
	GetMember(ctx context.Context, actor authz.Actor, id string) (registry.Member, error)
	AssignRole(ctx context.Context, actor authz.Actor, targetID string, role authz.Role) error
	TransferState(ctx context.Context, actor authz.Actor, targetID, state string) error
	IssueCard(ctx context.Context, actor authz.Actor, identityID string) error
	RevokeCard(ctx context.Context, actor authz.Actor, identityID string) error
	SetConsent(ctx context.Context, actor authz.Actor, identityID string, field models.ConsentField, value bool) error
}

// Handler is the feature-level handler for Members.
type Handler struct {
	Registry Registry
	Log      *zap.Logger
}

func NewHandler(reg Registry, logger *zap.Logger) *Handler {
	return &Handler{
		Registry: reg,
		Log:      logger,
	}
}
