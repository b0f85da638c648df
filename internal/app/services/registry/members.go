package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dalemusser/memberhub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/memberhub/internal/app/services/actors"
	"github.com/dalemusser/memberhub/internal/app/store/audit"
	userstore "github.com/dalemusser/memberhub/internal/app/store/users"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/memberhub/internal/app/system/metrics"
	"github.com/dalemusser/memberhub/internal/app/system/normalize"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/memberhub/internal/domain/models"
)

// IssueCard stamps the identity's id card as issued now. The identity must
// already hold a membership id; re-issuing refreshes the timestamp.
func (s *Service) IssueCard(ctx context.Context, actor authz.Actor, identityID string) error {
	const op = "issue card"
	u, _, target, err := s.loadTarget(ctx, identityID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !authz.CanView(actor, target) {
		return s.deny(ctx, op, actor, audit.TargetIdentity, identityID)
	}
	if u.MembershipID == nil || *u.MembershipID == "" {
		return errs.NewValidation("membership_id", "required before issuing a card")
	}
	now := s.now().UTC()
	if err := s.identities.SetCardIssuedAt(ctx, identityID, &now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.audit.Admin(ctx, audit.EventCardIssued, actor.UserID, audit.TargetIdentity, identityID, map[string]string{
		"membership_id": *u.MembershipID,
	})
	return nil
}

// RevokeCard clears the identity's id card timestamp.
func (s *Service) RevokeCard(ctx context.Context, actor authz.Actor, identityID string) error {
	const op = "revoke card"
	_, _, target, err := s.loadTarget(ctx, identityID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !authz.CanView(actor, target) {
		return s.deny(ctx, op, actor, audit.TargetIdentity, identityID)
	}
	if err := s.identities.SetCardIssuedAt(ctx, identityID, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.audit.Admin(ctx, audit.EventCardRevoked, actor.UserID, audit.TargetIdentity, identityID, nil)
	return nil
}

// SetConsent toggles one disclosure flag. The identity itself may always
// change its own flags; anyone else needs view permission on it.
func (s *Service) SetConsent(ctx context.Context, actor authz.Actor, identityID string, field models.ConsentField, value bool) error {
	const op = "set consent"
	if !field.Valid() {
		return errs.NewValidation("field", "must be allow_email_sharing or allow_mobile_sharing")
	}
	if actor.UserID != identityID {
		_, _, target, err := s.loadTarget(ctx, identityID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !authz.CanView(actor, target) {
			return s.deny(ctx, op, actor, audit.TargetIdentity, identityID)
		}
	}
	if err := s.identities.SetConsent(ctx, identityID, field, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.audit.Admin(ctx, audit.EventConsentChanged, actor.UserID, audit.TargetIdentity, identityID, map[string]string{
		"field": string(field),
		"value": strconv.FormatBool(value),
	})
	return nil
}

// AssignRole sets the target's ranked role. event_manager is granted through
// the delegation service instead. The role row is replaced with a
// compare-and-swap; a lost race is retried once with a fresh read.
func (s *Service) AssignRole(ctx context.Context, actor authz.Actor, targetID string, role authz.Role) error {
	const op = "assign role"
	if role == authz.RoleEventManager {
		return errs.NewValidation("role", "event_manager is granted through event manager delegation")
	}
	if _, ok := authz.Rank(role); !ok {
		return errs.NewValidation("role", "unknown role")
	}

	var (
		prev models.RoleRecord
		err  error
	)
	for attempt := 0; attempt < 2; attempt++ {
		var target authz.Target
		_, prev, target, err = s.loadTarget(ctx, targetID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !authz.CanMutateRole(actor, target, role) {
			return s.deny(ctx, op, actor, audit.TargetRole, targetID)
		}
		_, err = s.roles.CompareAndSwap(ctx, models.RoleRecord{
			UserID:    targetID,
			Role:      string(role),
			Version:   prev.Version,
			UpdatedBy: actor.UserID,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, errs.ErrConflict) {
			return fmt.Errorf("%s: %w", op, err)
		}
		metrics.RoleConflictsTotal.Inc()
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// The role row is committed; audit it before any follow-up write can fail.
	s.audit.Admin(ctx, audit.EventRoleAssigned, actor.UserID, audit.TargetRole, targetID, map[string]string{
		"from": prev.Role,
		"to":   string(role),
	})

	// A replaced event manager grant takes its designation with it.
	if prev.Role == string(authz.RoleEventManager) {
		if err := s.identities.SetDesignation(ctx, targetID, ""); err != nil {
			return fmt.Errorf("%s: clear designation: %w", op, err)
		}
	}
	return nil
}

// TransferState moves the target to another state and clears its district.
func (s *Service) TransferState(ctx context.Context, actor authz.Actor, targetID, state string) error {
	const op = "transfer state"
	state = normalize.Region(htmlsanitize.StripTags(state))
	if state == "" {
		return errs.NewValidation("state", "required")
	}
	u, _, target, err := s.loadTarget(ctx, targetID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !authz.CanTransferScope(actor, target) {
		return s.deny(ctx, op, actor, audit.TargetIdentity, targetID)
	}
	if err := s.identities.SetState(ctx, targetID, state); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.audit.Admin(ctx, audit.EventStateTransferred, actor.UserID, audit.TargetIdentity, targetID, map[string]string{
		"from_state":    u.State,
		"from_district": u.District,
		"to_state":      state,
	})
	return nil
}

// MemberFilter narrows ListMembers. Empty fields do not filter.
type MemberFilter struct {
	State    string
	District string
	Limit    int64
	Offset   int64
}

// ListMembers returns the members the actor may view. The store query is
// narrowed to the actor's region and excludes holders of roles the actor
// may never view, so limit and offset count visible rows only. The page is
// still filtered through authz.FilterVisible.
func (s *Service) ListMembers(ctx context.Context, actor authz.Actor, f MemberFilter) ([]Member, error) {
	scope := memberpolicy.CanListMembers(actor)
	if !scope.CanList {
		return nil, s.deny(ctx, "list members", actor, audit.TargetIdentity, "")
	}
	state, district, ok := scope.Narrow(normalize.Region(f.State), normalize.Region(f.District))
	if !ok {
		return []Member{}, nil
	}

	hidden, err := s.holdersOf(ctx, memberpolicy.HiddenRoles(actor))
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	list, err := s.identities.List(ctx, userstore.ListFilter{
		State:      state,
		District:   district,
		ExcludeIDs: hidden,
		Limit:      f.Limit,
		Offset:     f.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	ids := make([]string, len(list))
	for i, u := range list {
		ids[i] = u.ID
	}
	roles, err := s.roles.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	now := s.now()
	targets := make([]authz.Target, len(list))
	for i := range list {
		targets[i] = actors.TargetOf(&list[i], roles[list[i].ID], now)
	}
	visible := make(map[string]bool, len(list))
	for _, t := range authz.FilterVisible(actor, targets) {
		visible[t.UserID] = true
	}

	out := make([]Member, 0, len(visible))
	for _, u := range list {
		if visible[u.ID] {
			out = append(out, s.member(u, roles[u.ID]))
		}
	}
	return out, nil
}

// holdersOf returns the ids of users whose role row stores one of roles.
func (s *Service) holdersOf(ctx context.Context, roles []authz.Role) ([]string, error) {
	var ids []string
	for _, r := range roles {
		rows, err := s.roles.ListByRole(ctx, string(r))
		if err != nil {
			return nil, err
		}
		for _, rec := range rows {
			ids = append(ids, rec.UserID)
		}
	}
	return ids, nil
}

// GetMember returns one member the actor may view.
func (s *Service) GetMember(ctx context.Context, actor authz.Actor, id string) (Member, error) {
	u, rec, target, err := s.loadTarget(ctx, id)
	if err != nil {
		return Member{}, fmt.Errorf("get member: %w", err)
	}
	if !authz.CanView(actor, target) {
		return Member{}, fmt.Errorf("get member: %w", errs.ErrForbidden)
	}
	return s.member(*u, rec), nil
}

// GetSelf returns the actor's own member record. Signed-in users who are
// not members yet get errs.ErrNotFound.
func (s *Service) GetSelf(ctx context.Context, actor authz.Actor) (Member, error) {
	u, rec, _, err := s.loadTarget(ctx, actor.UserID)
	if err != nil {
		return Member{}, fmt.Errorf("get self: %w", err)
	}
	return s.member(*u, rec), nil
}
