// Package actorctx resolves the signed-in session user into an authz.Actor
// once per request and carries it on the request context.
package actorctx

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/httperr"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Loader builds the actor for a session user.
type Loader interface {
	Load(ctx context.Context, userID, email string) (authz.Actor, error)
}

type ctxKey struct{}

// With returns a copy of ctx carrying a.
func With(ctx context.Context, a authz.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// From returns the actor loaded by Middleware.
func From(r *http.Request) (authz.Actor, bool) {
	a, ok := r.Context().Value(ctxKey{}).(authz.Actor)
	return a, ok
}

// Middleware loads the actor for the session user. Requests without a
// session user get a JSON 401; a failed load is written through httperr.
// Run it after auth.SessionManager.LoadSessionUser.
func Middleware(loader Loader, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := auth.CurrentUser(r)
			if !ok {
				httperr.JSON(w, http.StatusUnauthorized, httperr.Response{Error: "sign in required"})
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
			actor, err := loader.Load(ctx, u.ID, u.Email)
			cancel()
			if err != nil {
				logger.Warn("actor load failed", zap.String("user_id", u.ID), zap.Error(err))
				httperr.Write(w, r, logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(With(r.Context(), actor)))
		})
	}
}
