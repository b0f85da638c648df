// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"

	"github.com/dalemusser/memberhub/internal/app/store/audit"
	"go.uber.org/zap"
)

// Querier reads audit events. *audit.Store satisfies it.
type Querier interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	Count(ctx context.Context, filter audit.QueryFilter) (int64, error)
}

type Handler struct {
	Events Querier
	Log    *zap.Logger
}

// NewHandler constructs an Audit Log feature handler over the audit store.
func NewHandler(events Querier, logger *zap.Logger) *Handler {
	return &Handler{
		Events: events,
		Log:    logger,
	}
}
