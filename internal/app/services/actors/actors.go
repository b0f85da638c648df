// Package actors builds the authz snapshots every decision runs on: the
// requesting actor (from the session's user id and email) and the targets it
// acts upon. Stored roles are always read through authz.EffectiveRole here,
// so an expired event manager reaches every decision as a plain member.
package actors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/normalize"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.uber.org/zap"
)

// Identities is the profile lookup the loader needs.
type Identities interface {
	GetByID(ctx context.Context, id string) (*models.Identity, error)
}

// Roles is the role lookup the loader needs.
type Roles interface {
	Get(ctx context.Context, userID string) (models.RoleRecord, error)
}

// Loader resolves actors.
type Loader struct {
	identities Identities
	roles      Roles
	breakGlass map[string]bool
	audit      *auditlog.Logger
	log        *zap.Logger
	now        func() time.Time
}

// NewLoader creates a Loader. breakGlassEmails lists the operator accounts
// that are elevated to admin authority regardless of their stored role.
func NewLoader(ids Identities, roles Roles, breakGlassEmails []string, audit *auditlog.Logger, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	bg := make(map[string]bool, len(breakGlassEmails))
	for _, e := range breakGlassEmails {
		if e = normalize.Email(e); e != "" {
			bg[e] = true
		}
	}
	return &Loader{
		identities: ids,
		roles:      roles,
		breakGlass: bg,
		audit:      audit,
		log:        log,
		now:        time.Now,
	}
}

// SetClock overrides the loader's clock. Used by tests.
func (l *Loader) SetClock(now func() time.Time) { l.now = now }

// Load returns the actor snapshot for an authenticated user. A user without
// an identity (not yet a member) loads as an unscoped member.
//
// Break-glass: when email is on the configured list and the stored role is
// below admin, the actor is elevated to admin with BreakGlass set. Every
// elevation is written to the audit log and warned in the zap log.
func (l *Loader) Load(ctx context.Context, userID, email string) (authz.Actor, error) {
	if userID == "" {
		return authz.Actor{}, fmt.Errorf("load actor: %w", errs.ErrForbidden)
	}
	actor := authz.Actor{UserID: userID, Email: normalize.Email(email), Role: authz.RoleMember}

	u, err := l.identities.GetByID(ctx, userID)
	switch {
	case err == nil:
		actor.State = u.State
		actor.District = u.District
	case errors.Is(err, errs.ErrNotFound):
	default:
		return authz.Actor{}, fmt.Errorf("load actor identity: %w", err)
	}

	rec, err := l.roles.Get(ctx, userID)
	if err != nil {
		return authz.Actor{}, fmt.Errorf("load actor role: %w", err)
	}
	actor.Role = RoleOf(rec, l.now())

	if l.breakGlass[actor.Email] && !authz.AtLeast(actor.Role, authz.RoleAdmin) {
		l.log.Warn("break-glass elevation",
			zap.String("user_id", userID),
			zap.String("email", actor.Email),
			zap.String("stored_role", string(actor.Role)),
		)
		l.audit.BreakGlassUsed(ctx, userID, actor.Email)
		actor.Role = authz.RoleAdmin
		actor.BreakGlass = true
	}
	return actor, nil
}

// RoleOf returns the effective role of a stored role record at now. Unknown
// stored values fall back to member.
func RoleOf(rec models.RoleRecord, now time.Time) authz.Role {
	r, ok := authz.ParseRole(rec.Role)
	if !ok {
		r = authz.RoleMember
	}
	return authz.EffectiveRole(r, rec.ExpiresAt, now)
}

// TargetOf builds the target snapshot for u with its role record.
func TargetOf(u *models.Identity, rec models.RoleRecord, now time.Time) authz.Target {
	return authz.Target{
		UserID:   u.ID,
		Role:     RoleOf(rec, now),
		State:    u.State,
		District: u.District,
	}
}
