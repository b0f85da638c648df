// Package registry owns membership records: applications and their review,
// membership id issuance, id cards, consent flags, role assignment and state
// transfers.
//
// Every administrative operation loads the target, asks authz for a decision
// and returns errs.ErrForbidden before touching a store. Every mutation
// appends an audit entry.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/memberhub/internal/app/services/actors"
	applicationstore "github.com/dalemusser/memberhub/internal/app/store/applications"
	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.uber.org/zap"
)

// IdentityStore is the profile store used by the registry.
type IdentityStore interface {
	GetByID(ctx context.Context, id string) (*models.Identity, error)
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	Create(ctx context.Context, u models.Identity) (models.Identity, error)
	List(ctx context.Context, f userstore.ListFilter) ([]models.Identity, error)
	SetCardIssuedAt(ctx context.Context, id string, at *time.Time) error
	SetConsent(ctx context.Context, id string, field models.ConsentField, value bool) error
	SetState(ctx context.Context, id, state string) error
	SetDesignation(ctx context.Context, id, designation string) error
}

// RoleStore is the role store used by the registry.
type RoleStore interface {
	Get(ctx context.Context, userID string) (models.RoleRecord, error)
	GetMany(ctx context.Context, userIDs []string) (map[string]models.RoleRecord, error)
	ListByRole(ctx context.Context, role string) ([]models.RoleRecord, error)
	CompareAndSwap(ctx context.Context, rec models.RoleRecord) (models.RoleRecord, error)
}

// ApplicationStore is the application store used by the registry.
type ApplicationStore interface {
	Create(ctx context.Context, a models.Application) (models.Application, error)
	Get(ctx context.Context, id string) (*models.Application, error)
	LatestByEmail(ctx context.Context, email string) (*models.Application, error)
	Decide(ctx context.Context, id string, t applicationstore.Transition) error
	SetMembershipID(ctx context.Context, id, membershipID string) error
	Reopen(ctx context.Context, id string) error
	List(ctx context.Context, f applicationstore.ListFilter) ([]models.Application, error)
}

// Sequencer hands out membership sequence numbers.
type Sequencer interface {
	Next(ctx context.Context, name string) (int64, error)
}

// Options configures a Service.
type Options struct {
	// MembershipPrefix starts every membership id, e.g. "MH".
	MembershipPrefix string
	// Location decides the calendar year of a membership id.
	Location *time.Location
	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
}

// Service is the identity registry.
type Service struct {
	identities   IdentityStore
	roles        RoleStore
	applications ApplicationStore
	seq          Sequencer
	audit        *auditlog.Logger
	log          *zap.Logger

	prefix string
	loc    *time.Location
	now    func() time.Time
}

// New creates a registry Service.
func New(ids IdentityStore, roles RoleStore, apps ApplicationStore, seq Sequencer, audit *auditlog.Logger, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MembershipPrefix == "" {
		opts.MembershipPrefix = "MH"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		identities:   ids,
		roles:        roles,
		applications: apps,
		seq:          seq,
		audit:        audit,
		log:          log,
		prefix:       opts.MembershipPrefix,
		loc:          opts.Location,
		now:          opts.Now,
	}
}

// Member is an identity together with its effective role.
type Member struct {
	models.Identity
	Role      authz.Role `json:"role"`
	RoleLabel string     `json:"role_label"`
	// EventLabel and ExpiresAt are set for live event manager grants.
	EventLabel string     `json:"event_label,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

func (s *Service) member(u models.Identity, rec models.RoleRecord) Member {
	role := actors.RoleOf(rec, s.now())
	m := Member{Identity: u, Role: role, RoleLabel: authz.Label(role)}
	if role == authz.RoleEventManager {
		m.EventLabel = rec.EventLabel
		m.ExpiresAt = rec.ExpiresAt
	}
	return m
}

// loadTarget returns the identity, its role row and the target snapshot.
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

// deny records a denial and returns errs.ErrForbidden.
func (s *Service) deny(ctx context.Context, op string, actor authz.Actor, targetType, targetID string) error {
	s.audit.Denied(ctx, op, actor.UserID, targetType, targetID)
	return fmt.Errorf("%s: %w", op, errs.ErrForbidden)
}

// isNotFound is errors.Is(err, errs.ErrNotFound).
func isNotFound(err error) bool { return errors.Is(err, errs.ErrNotFound) }
