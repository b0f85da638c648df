package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/memberhub/internal/app/services/actors"
	"github.com/dalemusser/memberhub/internal/app/services/delegation"
	"github.com/dalemusser/memberhub/internal/app/services/registry"
	"github.com/dalemusser/memberhub/internal/app/services/verification"
	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/testutil/memstore"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FixedNow is the clock used by Services.
var FixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Services wires every service over in-memory stores.
type Services struct {
	Identities   *memstore.Identities
	Roles        *memstore.Roles
	Applications *memstore.Applications
	Forms        *memstore.EventForms
	Delegates    *memstore.Delegates
	Audit        *memstore.AuditSink

	AuditLog     *auditlog.Logger
	Actors       *actors.Loader
	Registry     *registry.Service
	Delegation   *delegation.Service
	Verification *verification.Service
}

// NewServices builds a Services with prefix "MH" and the clock at FixedNow.
func NewServices(t *testing.T) *Services {
	t.Helper()
	s := &Services{
		Identities:   memstore.NewIdentities(),
		Roles:        memstore.NewRoles(),
		Applications: memstore.NewApplications(),
		Forms:        memstore.NewEventForms(),
		Delegates:    memstore.NewDelegates(),
		Audit:        memstore.NewAuditSink(),
	}
	now := func() time.Time { return FixedNow }
	log := zap.NewNop()

	s.AuditLog = auditlog.New(s.Audit, log, auditlog.Config{})
	s.Actors = actors.NewLoader(s.Identities, s.Roles, nil, s.AuditLog, log)
	s.Actors.SetClock(now)
	s.Registry = registry.New(s.Identities, s.Roles, s.Applications, memstore.NewCounters(), s.AuditLog, log,
		registry.Options{MembershipPrefix: "MH", Location: time.UTC, Now: now})
	s.Delegation = delegation.New(s.Identities, s.Roles, s.Forms, s.Delegates, s.AuditLog, log,
		delegation.Options{Location: time.UTC, Now: now})
	s.Verification = verification.New(s.Identities, s.Roles, s.Applications, s.Delegates, log, now)
	return s
}

// PutMember stores an identity with membership id "MH-2025-<ID>" (upper
// case) and, when role is not empty, its role row.
func (s *Services) PutMember(id, state, district string, role authz.Role) models.Identity {
	mid := "MH-2025-" + strings.ToUpper(id)
	u := models.Identity{
		ID:           id,
		FullName:     "Member " + id,
		Email:        id + "@example.org",
		Phone:        "98765 4321" + id[len(id)-1:],
		State:        state,
		District:     district,
		MembershipID: &mid,
		CreatedAt:    FixedNow,
		UpdatedAt:    FixedNow,
	}
	s.Identities.Put(u)
	if role != "" {
		s.Roles.Put(models.RoleRecord{UserID: id, Role: string(role), Version: 1})
	}
	return u
}

// Actor snapshots used across handler tests.
var (
	AdminActor    = authz.Actor{UserID: "admin", Email: "admin@example.org", Role: authz.RoleAdmin}
	ConvenerActor = authz.Actor{UserID: "kc", Email: "kc@example.org", Role: authz.RoleStateConvener, State: "Kerala"}
	MemberActor   = authz.Actor{UserID: "plain", Email: "plain@example.org", Role: authz.RoleMember, State: "Kerala"}
)
