// internal/app/system/authz/authz.go

// Package authz holds the role catalog, scope resolution and the pure
// authorization decisions used by every administrative surface.
//
// Decisions take actor and target snapshots and never perform I/O. A denial
// is a plain false; callers translate it to errs.ErrForbidden before they
// touch any store.
//
// Rules:
//   - super_controller may view and mutate anyone and assign any role
//   - admin may view and mutate anyone except super_controller targets, and
//     may never assign super_controller
//   - national tiers see every state but never admin/super targets
//   - state tiers see only their own state, never admin/super targets
//   - district tiers additionally require a matching district
//   - role mutation and scope transfer require target and new role to rank
//     strictly below the actor (super_controller excepted)
package authz

// CanView reports whether actor may read target's record.
func CanView(actor Actor, target Target) bool {
	if actor.Role == RoleSuperController {
		return true
	}
	if target.Role == RoleSuperController {
		return false
	}
	if actor.Role == RoleAdmin {
		return true
	}

	scope := ResolveScope(actor)
	switch scope.Kind {
	case ScopeNational:
		return !AtLeast(target.Role, RoleAdmin)
	case ScopeState:
		if AtLeast(target.Role, RoleAdmin) {
			return false
		}
		if scope.State == "" || target.State != scope.State {
			return false
		}
		if IsDistrictTier(actor.Role) {
			return scope.District != "" && target.District == scope.District
		}
		return true
	default:
		return false
	}
}

// CanMutateRole reports whether actor may change target's role to newRole.
// event_manager is granted through CanGrantEventManager, not here.
func CanMutateRole(actor Actor, target Target, newRole Role) bool {
	if _, ok := Rank(newRole); !ok {
		return false
	}
	if actor.Role == RoleSuperController {
		return true
	}
	if newRole == RoleSuperController {
		return false
	}
	if !CanView(actor, target) {
		return false
	}
	return outranks(actor, newRole) && outranks(actor, target.Role)
}

// CanTransferScope reports whether actor may move target to another state.
// It uses the same rank gate as role mutation.
func CanTransferScope(actor Actor, target Target) bool {
	if actor.Role == RoleSuperController {
		return true
	}
	if !CanView(actor, target) {
		return false
	}
	return outranks(actor, target.Role)
}

// CanGrantEventManager reports whether actor may grant or revoke the
// event_manager delegation on target. The delegation is treated as the
// highest grantable role, so only admins and super controllers qualify.
func CanGrantEventManager(actor Actor, target Target) bool {
	return CanAdminister(actor) && CanView(actor, target)
}

// CanReviewApplication reports whether actor may approve or reject a
// membership application filed for state/district.
func CanReviewApplication(actor Actor, state, district string) bool {
	return CanView(actor, Target{Role: RoleMember, State: state, District: district})
}

// CanAdminister reports whether actor holds admin authority: an admin, a
// super controller or a break-glass elevation.
func CanAdminister(actor Actor) bool {
	return actor.Role == RoleAdmin || actor.Role == RoleSuperController
}

// FilterVisible returns the targets actor may view, preserving order.
// Listings pass through here so admin and super targets never reach
// state-scoped actors.
func FilterVisible(actor Actor, targets []Target) []Target {
	out := make([]Target, 0, len(targets))
	for _, t := range targets {
		if CanView(actor, t) {
			out = append(out, t)
		}
	}
	return out
}

// outranks reports whether actor's authority is strictly above r.
// Unranked roles (event_manager) rank as member for this comparison.
func outranks(actor Actor, r Role) bool {
	a := rank(actor.Role)
	b, ok := Rank(r)
	if !ok {
		b = rank(RoleMember)
	}
	return b < a
}
