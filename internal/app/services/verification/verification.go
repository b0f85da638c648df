// Package verification answers public "is this person a member?" lookups.
//
// No actor is involved. A free-text token is classified as an email, a phone
// number or a membership id and resolved to an identity, or for contact
// tokens to the latest membership application. Email and phone are only
// disclosed when the identity's consent flag allows it; every other profile
// field is public once the identity is found.
package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/memberhub/internal/app/services/actors"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/metrics"
	"github.com/dalemusser/memberhub/internal/app/system/normalize"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.uber.org/zap"
)

// TokenKind is how a verification token was interpreted.
type TokenKind string

const (
	TokenEmail        TokenKind = "email"
	TokenPhone        TokenKind = "phone"
	TokenMembershipID TokenKind = "membership_id"
	TokenDelegate     TokenKind = "delegate"
)

// Kind is the outcome of a lookup.
type Kind string

const (
	KindActive   Kind = "active"
	KindPending  Kind = "pending"
	KindRejected Kind = "rejected"
	KindNotFound Kind = "not_found"
)

// minPhoneDigits is the shortest all-digit token treated as a phone number.
const minPhoneDigits = 10

// Result is returned by every lookup. Payload is nil for not_found and
// otherwise one of *IdentityPayload, *ApplicationPayload or *DelegatePayload.
type Result struct {
	Kind    Kind      `json:"kind"`
	Token   TokenKind `json:"token_kind"`
	Payload any       `json:"payload,omitempty"`
}

// IdentityPayload is the public view of a member. Email and Phone are nil
// (and omitted from JSON) unless the member consented to sharing them.
type IdentityPayload struct {
	FullName     string     `json:"full_name"`
	Role         authz.Role `json:"role"`
	RoleLabel    string     `json:"role_label"`
	State        string     `json:"state"`
	District     string     `json:"district,omitempty"`
	Designation  string     `json:"designation,omitempty"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	MembershipID *string    `json:"membership_id"`
	MemberSince  time.Time  `json:"member_since"`
	CardIssuedAt *time.Time `json:"id_card_issued_at"`
	Email        *string    `json:"email,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
}

// ApplicationPayload is the public view of an application still under
// review or rejected. Contact fields are never included.
type ApplicationPayload struct {
	FullName        string    `json:"full_name"`
	State           string    `json:"state"`
	District        string    `json:"district,omitempty"`
	Status          string    `json:"status"`
	AppliedAt       time.Time `json:"applied_at"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
}

// DelegatePayload is the public view of a delegate registration.
type DelegatePayload struct {
	ID           string            `json:"id"`
	EventName    string            `json:"event_name"`
	FullName     string            `json:"full_name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	RoleInEvent  string            `json:"role_in_event"`
	Delegation   string            `json:"delegation"`
	CustomData   map[string]string `json:"custom_data"`
	RegisteredAt time.Time         `json:"registered_at"`
}

// Identities resolves members by public key.
type Identities interface {
	GetByMembershipID(ctx context.Context, membershipID string) (*models.Identity, error)
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	GetByPhone(ctx context.Context, phone string) (*models.Identity, error)
}

// Roles reads role rows.
type Roles interface {
	Get(ctx context.Context, userID string) (models.RoleRecord, error)
}

// Applications resolves the latest application for a contact.
type Applications interface {
	LatestByEmail(ctx context.Context, email string) (*models.Application, error)
	LatestByPhone(ctx context.Context, phone string) (*models.Application, error)
}

// Delegates resolves delegate registrations by id.
type Delegates interface {
	Get(ctx context.Context, id string) (*models.Delegate, error)
}

// Service resolves verification tokens.
type Service struct {
	identities   Identities
	roles        Roles
	applications Applications
	delegates    Delegates
	log          *zap.Logger
	now          func() time.Time
}

// New creates a verification Service. now may be nil.
func New(ids Identities, roles Roles, apps Applications, delegates Delegates, log *zap.Logger, now func() time.Time) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		identities:   ids,
		roles:        roles,
		applications: apps,
		delegates:    delegates,
		log:          log,
		now:          now,
	}
}

// Classify decides how token is looked up: anything with an @ is an email,
// an all-digit token of at least ten digits (ignoring + - and spaces) is a
// phone number, and everything else is a membership id.
func Classify(token string) TokenKind {
	if strings.Contains(token, "@") {
		return TokenEmail
	}
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case '+', '-', ' ':
			return -1
		}
		return r
	}, token)
	if len(stripped) >= minPhoneDigits && allDigits(stripped) {
		return TokenPhone
	}
	return TokenMembershipID
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Verify resolves token. A token that matches nothing yields a not_found
// Result and a nil error; errors are reserved for bad input and storage
// failures.
func (s *Service) Verify(ctx context.Context, token string) (Result, error) {
	token = normalize.QueryParam(token)
	if token == "" {
		return Result{}, errs.NewValidation("q", "required")
	}
	tk := Classify(token)

	res, err := s.resolve(ctx, tk, token)
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues(string(tk), "error").Inc()
		s.log.Error("verification lookup failed", zap.String("token_kind", string(tk)), zap.Error(err))
		return Result{}, fmt.Errorf("verify: %w", err)
	}
	res.Token = tk
	metrics.VerificationsTotal.WithLabelValues(string(tk), string(res.Kind)).Inc()
	return res, nil
}

func (s *Service) resolve(ctx context.Context, tk TokenKind, token string) (Result, error) {
	var (
		u   *models.Identity
		err error
	)
	switch tk {
	case TokenEmail:
		u, err = s.identities.GetByEmail(ctx, token)
	case TokenPhone:
		u, err = s.identities.GetByPhone(ctx, token)
	default:
		u, err = s.identities.GetByMembershipID(ctx, token)
	}
	if err == nil {
		p, err := s.identityPayload(ctx, u)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: KindActive, Payload: p}, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return Result{}, err
	}

	// Membership ids are only issued to identities.
	if tk == TokenMembershipID {
		return Result{Kind: KindNotFound}, nil
	}

	var app *models.Application
	if tk == TokenEmail {
		app, err = s.applications.LatestByEmail(ctx, token)
	} else {
		app, err = s.applications.LatestByPhone(ctx, token)
	}
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return Result{Kind: KindNotFound}, nil
	case err != nil:
		return Result{}, err
	}
	return applicationResult(app), nil
}

func applicationResult(a *models.Application) Result {
	p := &ApplicationPayload{
		FullName:  a.FullName,
		State:     a.State,
		District:  a.District,
		Status:    a.Status,
		AppliedAt: a.AppliedAt,
	}
	switch a.Status {
	case models.ApplicationPending:
		return Result{Kind: KindPending, Payload: p}
	case models.ApplicationRejected:
		p.RejectionReason = a.RejectionReason
		return Result{Kind: KindRejected, Payload: p}
	default:
		// Approved but the identity is gone or not yet materialized.
		return Result{Kind: KindNotFound}
	}
}

// identityPayload builds the consent-filtered view of u.
func (s *Service) identityPayload(ctx context.Context, u *models.Identity) (*IdentityPayload, error) {
	rec, err := s.roles.Get(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	role := actors.RoleOf(rec, s.now())

	p := &IdentityPayload{
		FullName:     u.FullName,
		Role:         role,
		RoleLabel:    authz.Label(role),
		State:        u.State,
		District:     u.District,
		Designation:  u.Designation,
		AvatarURL:    u.AvatarURL,
		MembershipID: u.MembershipID,
		MemberSince:  u.CreatedAt,
		CardIssuedAt: u.IDCardIssuedAt,
	}
	// An expired event manager grant leaves its designation behind until
	// revoked; it must not be shown.
	if rec.Role == string(authz.RoleEventManager) && role != authz.RoleEventManager {
		p.Designation = ""
	}
	if u.AllowEmailSharing && u.Email != "" {
		email := u.Email
		p.Email = &email
	}
	if u.AllowMobileSharing && u.Phone != "" {
		phone := u.Phone
		p.Phone = &phone
	}
	return p, nil
}

// VerifyDelegate resolves a delegate registration by its id. Delegates carry
// no consent flags; custom answers are returned verbatim.
func (s *Service) VerifyDelegate(ctx context.Context, id string) (Result, error) {
	id = normalize.QueryParam(id)
	if id == "" {
		return Result{}, errs.NewValidation("id", "required")
	}
	d, err := s.delegates.Get(ctx, id)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		metrics.VerificationsTotal.WithLabelValues(string(TokenDelegate), string(KindNotFound)).Inc()
		return Result{Kind: KindNotFound, Token: TokenDelegate}, nil
	case err != nil:
		metrics.VerificationsTotal.WithLabelValues(string(TokenDelegate), "error").Inc()
		s.log.Error("delegate lookup failed", zap.String("delegate_id", id), zap.Error(err))
		return Result{}, fmt.Errorf("verify delegate: %w", err)
	}
	metrics.VerificationsTotal.WithLabelValues(string(TokenDelegate), string(KindActive)).Inc()
	return Result{
		Kind:  KindActive,
		Token: TokenDelegate,
		Payload: &DelegatePayload{
			ID:           d.ID,
			EventName:    d.EventName,
			FullName:     d.FullName,
			Email:        d.Email,
			Phone:        d.Phone,
			RoleInEvent:  d.RoleInEvent,
			Delegation:   d.Delegation,
			CustomData:   d.CustomData,
			RegisteredAt: d.CreatedAt,
		},
	}, nil
}
