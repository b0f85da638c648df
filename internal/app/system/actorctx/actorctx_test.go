package actorctx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/domain/errs"
)

type loaderFunc func(ctx context.Context, userID, email string) (authz.Actor, error)

func (f loaderFunc) Load(ctx context.Context, userID, email string) (authz.Actor, error) {
	return f(ctx, userID, email)
}

func TestMiddleware(t *testing.T) {
	loader := loaderFunc(func(_ context.Context, id, email string) (authz.Actor, error) {
		if id == "ghost" {
			return authz.Actor{}, fmt.Errorf("load: %w", errs.ErrTransient)
		}
		return authz.Actor{UserID: id, Email: email, Role: authz.RoleAdmin}, nil
	})

	var got authz.Actor
	h := Middleware(loader, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = From(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name string
		user *auth.SessionUser
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"loaded", &auth.SessionUser{ID: "u1", Email: "a@x.com"}, http.StatusNoContent},
		{"load fails", &auth.SessionUser{ID: "ghost"}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/members", nil)
			if tt.user != nil {
				req = req.WithContext(auth.WithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
	if got.UserID != "u1" || got.Role != authz.RoleAdmin {
		t.Errorf("actor = %+v", got)
	}
}
