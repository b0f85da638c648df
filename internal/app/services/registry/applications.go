package registry

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"time"

	"github.com/dalemusser/memberhub/internal/app/policy/memberpolicy"
	applicationstore "github.com/dalemusser/memberhub/internal/app/store/applications"
	"github.com/dalemusser/memberhub/internal/app/store/audit"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/memberhub/internal/app/system/normalize"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.uber.org/zap"
)

// minPhoneDigits is the shortest phone number accepted on an application.
const minPhoneDigits = 10

// ApplicationInput is a public membership application.
type ApplicationInput struct {
	UserID    string `json:"user_id,omitempty"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	AvatarURL string `json:"avatar_url,omitempty"`
	State     string `json:"state"`
	District  string `json:"district,omitempty"`
}

// SubmitApplication files a pending application. A second pending
// application for the same email yields errs.ErrConflict, as does an email
// that already belongs to a member.
func (s *Service) SubmitApplication(ctx context.Context, in ApplicationInput) (models.Application, error) {
	a := models.Application{
		UserID:    in.UserID,
		FullName:  normalize.Name(htmlsanitize.StripTags(in.FullName)),
		Email:     normalize.Email(in.Email),
		Phone:     normalize.Phone(in.Phone),
		AvatarURL: in.AvatarURL,
		State:     normalize.Region(htmlsanitize.StripTags(in.State)),
		District:  normalize.Region(htmlsanitize.StripTags(in.District)),
	}

	ve := &errs.ValidationError{}
	if a.FullName == "" {
		ve.Add("full_name", "required")
	}
	if a.Email == "" {
		ve.Add("email", "required")
	} else if _, err := mail.ParseAddress(a.Email); err != nil {
		ve.Add("email", "invalid email address")
	}
	if len(normalize.PhoneDigits(a.Phone)) < minPhoneDigits {
		ve.Add("phone", "must have at least "+strconv.Itoa(minPhoneDigits)+" digits")
	}
	if a.State == "" {
		ve.Add("state", "required")
	}
	if err := ve.OrNil(); err != nil {
		return models.Application{}, err
	}

	if _, err := s.identities.GetByEmail(ctx, a.Email); err == nil {
		return models.Application{}, fmt.Errorf("submit application: email already registered: %w", errs.ErrConflict)
	} else if !isNotFound(err) {
		return models.Application{}, fmt.Errorf("submit application: %w", err)
	}
	if prev, err := s.applications.LatestByEmail(ctx, a.Email); err == nil && prev.Status == models.ApplicationPending {
		return models.Application{}, fmt.Errorf("submit application: pending application exists: %w", errs.ErrConflict)
	} else if err != nil && !isNotFound(err) {
		return models.Application{}, fmt.Errorf("submit application: %w", err)
	}

	a.AppliedAt = s.now().UTC()
	created, err := s.applications.Create(ctx, a)
	if err != nil {
		return models.Application{}, fmt.Errorf("submit application: %w", err)
	}
	s.audit.Public(ctx, audit.EventApplicationSubmitted, audit.TargetApplication, created.ID, map[string]string{
		"state": created.State,
	})
	return created, nil
}

// reviewable loads a pending application and checks the actor may review it.
func (s *Service) reviewable(ctx context.Context, op string, actor authz.Actor, appID string) (*models.Application, error) {
	app, err := s.applications.Get(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !authz.CanReviewApplication(actor, app.State, app.District) {
		return nil, s.deny(ctx, op, actor, audit.TargetApplication, appID)
	}
	if app.Status != models.ApplicationPending {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrAlreadyProcessed)
	}
	return app, nil
}

// membershipID formats a membership id, e.g. MH-2026-00042.
func (s *Service) membershipID(year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%05d", s.prefix, year, seq)
}

// IssueMembership approves a pending application, allocates a membership id
// and materializes the identity with a baseline role row. It returns the new
// membership id.
//
// The pending->approved transition is conditional, so concurrent reviewers
// see errs.ErrAlreadyProcessed. Membership ids come from an atomic sequence
// backed by a unique index; a uniqueness conflict is retried once. If the
// identity cannot be created after approval, the application is reopened
// and the error returned.
func (s *Service) IssueMembership(ctx context.Context, actor authz.Actor, appID string) (string, error) {
	const op = "issue membership"
	app, err := s.reviewable(ctx, op, actor, appID)
	if err != nil {
		return "", err
	}

	now := s.now()
	if err := s.applications.Decide(ctx, appID, applicationstore.Transition{
		Status:     models.ApplicationApproved,
		ReviewedBy: actor.UserID,
		ReviewedAt: now.UTC(),
	}); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	identity, err := s.materialize(ctx, app, actor.UserID, now)
	if err != nil {
		if rerr := s.applications.Reopen(ctx, appID); rerr != nil {
			s.log.Error("failed to reopen application after issuance failure",
				zap.String("application_id", appID), zap.Error(rerr))
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	mid := *identity.MembershipID

	if err := s.applications.SetMembershipID(ctx, appID, mid); err != nil {
		s.log.Warn("failed to record membership id on application",
			zap.String("application_id", appID), zap.String("membership_id", mid), zap.Error(err))
	}

	s.audit.Admin(ctx, audit.EventApplicationApproved, actor.UserID, audit.TargetApplication, appID, map[string]string{
		"identity_id":   identity.ID,
		"membership_id": mid,
	})
	return mid, nil
}

// materialize creates the identity for an approved application.
func (s *Service) materialize(ctx context.Context, app *models.Application, reviewer string, now time.Time) (models.Identity, error) {
	userID := app.UserID
	if userID == "" {
		// Applicants who were not signed in are keyed by their application.
		userID = app.ID
	}
	year := now.In(s.loc).Year()

	var (
		created models.Identity
		err     error
	)
	for attempt := 0; attempt < 2; attempt++ {
		var n int64
		n, err = s.seq.Next(ctx, "membership-"+strconv.Itoa(year))
		if err != nil {
			return models.Identity{}, err
		}
		mid := s.membershipID(year, n)
		created, err = s.identities.Create(ctx, models.Identity{
			ID:                 userID,
			FullName:           app.FullName,
			Email:              app.Email,
			Phone:              app.Phone,
			AvatarURL:          app.AvatarURL,
			State:              app.State,
			District:           app.District,
			MembershipID:       &mid,
			AllowEmailSharing:  true,
			AllowMobileSharing: true,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, errs.ErrConflict) {
			return models.Identity{}, err
		}
		s.log.Warn("membership id conflict, retrying",
			zap.String("membership_id", mid), zap.Int("attempt", attempt+1))
	}
	if err != nil {
		return models.Identity{}, err
	}

	s.ensureBaselineRow(ctx, userID, reviewer)
	return created, nil
}

// ensureBaselineRow writes a member row for a user without one. An existing
// row (for example a bootstrapped super controller) is left untouched.
func (s *Service) ensureBaselineRow(ctx context.Context, userID, by string) {
	rec, err := s.roles.Get(ctx, userID)
	if err != nil {
		s.log.Warn("failed to read role row", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if rec.Version != 0 {
		return
	}
	rec.UpdatedBy = by
	if _, err := s.roles.CompareAndSwap(ctx, rec); err != nil && !errors.Is(err, errs.ErrConflict) {
		s.log.Warn("failed to write baseline role row", zap.String("user_id", userID), zap.Error(err))
	}
}

// RejectApplication rejects a pending application. The reason is required
// and the rejection is terminal.
func (s *Service) RejectApplication(ctx context.Context, actor authz.Actor, appID, reason string) error {
	const op = "reject application"
	reason = htmlsanitize.StripTags(reason)
	if reason == "" {
		return errs.NewValidation("reason", "required")
	}
	if _, err := s.reviewable(ctx, op, actor, appID); err != nil {
		return err
	}
	if err := s.applications.Decide(ctx, appID, applicationstore.Transition{
		Status:          models.ApplicationRejected,
		ReviewedBy:      actor.UserID,
		ReviewedAt:      s.now().UTC(),
		RejectionReason: reason,
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.audit.Admin(ctx, audit.EventApplicationRejected, actor.UserID, audit.TargetApplication, appID, map[string]string{
		"reason": reason,
	})
	return nil
}

// ApplicationFilter narrows ListApplications. Empty fields do not filter.
type ApplicationFilter struct {
	Status   string
	State    string
	District string
	Limit    int64
	Offset   int64
}

// ListApplications returns the applications in the actor's jurisdiction.
func (s *Service) ListApplications(ctx context.Context, actor authz.Actor, f ApplicationFilter) ([]models.Application, error) {
	scope := memberpolicy.CanListMembers(actor)
	if !scope.CanList {
		return nil, s.deny(ctx, "list applications", actor, audit.TargetApplication, "")
	}
	switch f.Status {
	case "", models.ApplicationPending, models.ApplicationApproved, models.ApplicationRejected:
	default:
		return nil, errs.NewValidation("status", "must be pending, approved or rejected")
	}
	state, district, ok := scope.Narrow(f.State, f.District)
	if !ok {
		return []models.Application{}, nil
	}
	list, err := s.applications.List(ctx, applicationstore.ListFilter{
		Status:   f.Status,
		State:    state,
		District: district,
		Limit:    f.Limit,
		Offset:   f.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	out := list[:0]
	for _, a := range list {
		if authz.CanReviewApplication(actor, a.State, a.District) {
			out = append(out, a)
		}
	}
	return out, nil
}
