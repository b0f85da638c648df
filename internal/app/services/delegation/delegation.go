// Package delegation manages the time-bound event_manager role, the event
// registration form each manager owns, and the delegates registered
// through it.
//
// Expiry is evaluated lazily: a grant whose expires_at has passed is read
// as member by authz.EffectiveRole. No background job revokes grants; the
// stale row stays until an admin revokes it or assigns another role.
package delegation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/memberhub/internal/app/services/actors"
	"github.com/dalemusser/memberhub/internal/app/store/audit"
	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/memberhub/internal/app/system/metrics"
	"github.com/dalemusser/memberhub/internal/app/system/normalize"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.uber.org/zap"
)

// designationPrefix starts the designation shown for a live grant.
const designationPrefix = "Event Manager – "

// Designation is the designation stored on an event manager's identity.
func Designation(eventLabel string) string { return designationPrefix + eventLabel }

// IdentityStore is the profile store used by delegation.
type IdentityStore interface {
	GetByID(ctx context.Context, id string) (*models.Identity, error)
	SetDesignation(ctx context.Context, id, designation string) error
}

// RoleStore is the role store used by delegation.
type RoleStore interface {
	Get(ctx context.Context, userID string) (models.RoleRecord, error)
	ListByRole(ctx context.Context, role string) ([]models.RoleRecord, error)
	CompareAndSwap(ctx context.Context, rec models.RoleRecord) (models.RoleRecord, error)
}

// FormStore persists one registration form per manager.
type FormStore interface {
	Get(ctx context.Context, managerID string) (*models.EventForm, error)
	Save(ctx context.Context, f models.EventForm) (models.EventForm, error)
	SetActive(ctx context.Context, managerID string, active bool) error
}

// DelegateStore persists delegate registrations.
type DelegateStore interface {
	Create(ctx context.Context, d models.Delegate) (models.Delegate, error)
	ListByManager(ctx context.Context, managerID string, limit int64) ([]models.Delegate, error)
}

// Options configures a Service.
type Options struct {
	// Location decides which instant ends a grant's expiry date.
	Location *time.Location
	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
}

// Service manages event manager delegations.
type Service struct {
	identities IdentityStore
	roles      RoleStore
	forms      FormStore
	delegates  DelegateStore
	audit      *auditlog.Logger
	log        *zap.Logger

	loc *time.Location
	now func() time.Time
}

// New creates a delegation Service.
func New(ids IdentityStore, roles RoleStore, forms FormStore, delegates DelegateStore, audit *auditlog.Logger, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		identities: ids,
		roles:      roles,
		forms:      forms,
		delegates:  delegates,
		audit:      audit,
		log:        log,
		loc:        opts.Location,
		now:        opts.Now,
	}
}

func (s *Service) loadTarget(ctx context.Context, id string) (*models.Identity, models.RoleRecord, authz.Target, error) {
	u, err := s.identities.GetByID(ctx, id)
	if err != nil {
		return nil, models.RoleRecord{}, authz.Target{}, err
	}
	rec, err := s.roles.Get(ctx, id)
	if err != nil {
		return nil, models.RoleRecord{}, authz.Target{}, err
	}
	return u, rec, actors.TargetOf(u, rec, s.now()), nil
}

func (s *Service) deny(ctx context.Context, op string, actor authz.Actor, targetType, targetID string) error {
	s.audit.Denied(ctx, op, actor.UserID, targetType, targetID)
	return fmt.Errorf("%s: %w", op, errs.ErrForbidden)
}

// ExpiryFor returns the instant a grant for the given calendar date ends:
// the last nanosecond of that date in the service's location. Only the
// year, month and day of date are used.
func (s *Service) ExpiryFor(date time.Time) time.Time {
	y, m, d := date.Date()
	return authz.EndOfDay(time.Date(y, m, d, 12, 0, 0, 0, s.loc), s.loc)
}

// swapRole replaces the role row, re-reading and retrying once when a
// concurrent writer wins. check runs against every fresh read and may veto
// the write.
func (s *Service) swapRole(ctx context.Context, targetID string, check func(*models.Identity, models.RoleRecord, authz.Target) error, build func(prev models.RoleRecord) models.RoleRecord) (prev, written models.RoleRecord, err error) {
	for attempt := 0; attempt < 2; attempt++ {
		var (
			u      *models.Identity
			target authz.Target
		)
		u, prev, target, err = s.loadTarget(ctx, targetID)
		if err != nil {
			return prev, written, err
		}
		if err = check(u, prev, target); err != nil {
			return prev, written, err
		}
		written, err = s.roles.CompareAndSwap(ctx, build(prev))
		if err == nil || !errors.Is(err, errs.ErrConflict) {
			return prev, written, err
		}
		metrics.RoleConflictsTotal.Inc()
		s.log.Warn("role row conflict, retrying", zap.String("user_id", targetID), zap.Int("attempt", attempt+1))
	}
	return prev, written, err
}

// Grant makes the target an event manager for eventLabel until the end of
// expiryDate. Only admins and super controllers may grant, and only to
// identities holding a baseline role (member, designatory or an existing
// event manager grant, live or expired). Past dates are accepted and yield
// an already-expired grant.
func (s *Service) Grant(ctx context.Context, actor authz.Actor, targetID, eventLabel string, expiryDate time.Time) (models.RoleRecord, error) {
	const op = "grant event manager"
	label := normalize.Label(htmlsanitize.StripTags(eventLabel))
	ve := &errs.ValidationError{}
	if label == "" {
		ve.Add("event_label", "required")
	}
	if expiryDate.IsZero() {
		ve.Add("expires_on", "required")
	}
	if err := ve.OrNil(); err != nil {
		return models.RoleRecord{}, err
	}
	expires := s.ExpiryFor(expiryDate)

	_, written, err := s.swapRole(ctx, targetID,
		func(_ *models.Identity, _ models.RoleRecord, target authz.Target) error {
			if !authz.CanGrantEventManager(actor, target) {
				s.audit.Denied(ctx, op, actor.UserID, audit.TargetRole, targetID)
				return errs.ErrForbidden
			}
			if !authz.IsBaseline(target.Role) {
				return errs.NewValidation("user_id", "only members and designatories can be made event managers")
			}
			return nil
		},
		func(prev models.RoleRecord) models.RoleRecord {
			return models.RoleRecord{
				UserID:     targetID,
				Role:       string(authz.RoleEventManager),
				EventLabel: label,
				ExpiresAt:  &expires,
				Version:    prev.Version,
				UpdatedBy:  actor.UserID,
			}
		})
	if err != nil {
		return models.RoleRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	// The grant is live from here on, whatever happens to the designation.
	s.audit.Admin(ctx, audit.EventEventManagerGranted, actor.UserID, audit.TargetRole, targetID, map[string]string{
		"event_label": label,
		"expires_at":  expires.Format(time.RFC3339),
	})

	if err := s.identities.SetDesignation(ctx, targetID, Designation(label)); err != nil {
		return written, fmt.Errorf("%s: set designation: %w", op, err)
	}
	return written, nil
}

// Revoke ends an event manager grant, live or expired. The role row is
// replaced with a member row, the designation is cleared and the manager's
// form is deactivated. A target without a grant yields errs.ErrNotFound.
func (s *Service) Revoke(ctx context.Context, actor authz.Actor, targetID string) error {
	const op = "revoke event manager"
	_, _, err := s.swapRole(ctx, targetID,
		func(_ *models.Identity, prev models.RoleRecord, target authz.Target) error {
			if !authz.CanGrantEventManager(actor, target) {
				s.audit.Denied(ctx, op, actor.UserID, audit.TargetRole, targetID)
				return errs.ErrForbidden
			}
			if prev.Role != string(authz.RoleEventManager) {
				return fmt.Errorf("no event manager grant: %w", errs.ErrNotFound)
			}
			return nil
		},
		func(prev models.RoleRecord) models.RoleRecord {
			return models.RoleRecord{
				UserID:    targetID,
				Role:      models.BaselineRoleName,
				Version:   prev.Version,
				UpdatedBy: actor.UserID,
			}
		})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.audit.Admin(ctx, audit.EventEventManagerRevoked, actor.UserID, audit.TargetRole, targetID, nil)

	if err := s.forms.SetActive(ctx, targetID, false); err != nil {
		s.log.Warn("failed to deactivate event form", zap.String("manager_id", targetID), zap.Error(err))
	}
	if err := s.identities.SetDesignation(ctx, targetID, ""); err != nil {
		return fmt.Errorf("%s: clear designation: %w", op, err)
	}
	return nil
}

// EffectiveRole returns the user's role as every decision sees it: an
// event manager grant at or past its expiry reads as member.
func (s *Service) EffectiveRole(ctx context.Context, userID string) (authz.Role, error) {
	rec, err := s.roles.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("effective role: %w", err)
	}
	return actors.RoleOf(rec, s.now()), nil
}

// liveGrant returns the user's role row and whether it is a live event
// manager grant.
func (s *Service) liveGrant(ctx context.Context, userID string) (models.RoleRecord, bool, error) {
	rec, err := s.roles.Get(ctx, userID)
	if err != nil {
		return models.RoleRecord{}, false, err
	}
	return rec, actors.RoleOf(rec, s.now()) == authz.RoleEventManager, nil
}

// Manager is one event manager grant with its holder.
type Manager struct {
	UserID     string    `json:"user_id"`
	FullName   string    `json:"full_name"`
	State      string    `json:"state"`
	EventLabel string    `json:"event_label"`
	ExpiresAt  time.Time `json:"expires_at"`
	Live       bool      `json:"live"`
}

// ListManagers returns every stored event manager grant, expired ones
// included, for admins and super controllers.
func (s *Service) ListManagers(ctx context.Context, actor authz.Actor) ([]Manager, error) {
	if !authz.CanAdminister(actor) {
		return nil, s.deny(ctx, "list event managers", actor, audit.TargetRole, "")
	}
	rows, err := s.roles.ListByRole(ctx, string(authz.RoleEventManager))
	if err != nil {
		return nil, fmt.Errorf("list event managers: %w", err)
	}
	now := s.now()
	out := make([]Manager, 0, len(rows))
	for _, rec := range rows {
		m := Manager{
			UserID:     rec.UserID,
			EventLabel: rec.EventLabel,
			Live:       actors.RoleOf(rec, now) == authz.RoleEventManager,
		}
		if rec.ExpiresAt != nil {
			m.ExpiresAt = *rec.ExpiresAt
		}
		u, err := s.identities.GetByID(ctx, rec.UserID)
		switch {
		case err == nil:
			m.FullName = u.FullName
			m.State = u.State
		case errors.Is(err, errs.ErrNotFound):
		default:
			return nil, fmt.Errorf("list event managers: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}
