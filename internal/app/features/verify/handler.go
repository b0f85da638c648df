// internal/app/features/verify/handler.go
package verify

import (
	"context"

	"github.com/dalemusser/memberhub/internal/app/services/verification"
	"go.uber.org/zap"
)

// Verifier resolves public verification tokens.
type Verifier interface {
	Verify(ctx context.Context, token string) (verification.Result, error)
	VerifyDelegate(ctx context.Context, id string) (verification.Result, error)
}

// Handler serves the public verification API. It needs no session.
type Handler struct {
	Verifier Verifier
	Log      *zap.Logger
}

// NewHandler constructs a verify Handler.
func NewHandler(v Verifier, logger *zap.Logger) *Handler {
	return &Handler{
		Verifier: v,
		Log:      logger,
	}
}
