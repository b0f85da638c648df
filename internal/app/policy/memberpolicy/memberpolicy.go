// Package memberpolicy turns an actor's scope into the store filters used by
// member and application listings.
//
// Listing rules:
//   - national scope (national tiers, admin, super_controller): all states
//   - state scope: the actor's state only
//   - district tiers: the actor's state and district
//   - no scope: cannot list
//
// Filters only narrow the query. HiddenRoles names the roles a listing must
// leave out at query time so pages stay full; results still pass through
// authz.FilterVisible.
package memberpolicy

import (
	"github.com/dalemusser/memberhub/internal/app/system/authz"
)

// ListScope is the region an actor may list.
type ListScope struct {
	// CanList indicates whether the actor can list members at all.
	CanList bool
	// AllStates is true for national scope; State/District are then empty.
	AllStates bool
	State     string
	District  string
}

// CanListMembers determines what scope of members actor can list.
func CanListMembers(actor authz.Actor) ListScope {
	scope := authz.ResolveScope(actor)
	switch scope.Kind {
	case authz.ScopeNational:
		return ListScope{CanList: true, AllStates: true}
	case authz.ScopeState:
		if scope.State == "" {
			return ListScope{}
		}
		if authz.IsDistrictTier(actor.Role) && scope.District == "" {
			return ListScope{}
		}
		return ListScope{CanList: true, State: scope.State, District: scope.District}
	default:
		return ListScope{}
	}
}

// Narrow intersects a requested state/district with the scope. ok is false
// when the request falls outside the scope, in which case the listing is
// empty rather than widened.
func (s ListScope) Narrow(state, district string) (outState, outDistrict string, ok bool) {
	if !s.CanList {
		return "", "", false
	}
	if s.AllStates {
		return state, district, true
	}
	if state != "" && state != s.State {
		return "", "", false
	}
	if s.District != "" {
		if district != "" && district != s.District {
			return "", "", false
		}
		return s.State, s.District, true
	}
	return s.State, district, true
}

// HiddenRoles returns the roles whose holders actor may never view, whatever
// their region: super controllers for admins, admins and super controllers
// for every other tier that can list.
func HiddenRoles(actor authz.Actor) []authz.Role {
	switch {
	case actor.Role == authz.RoleSuperController:
		return nil
	case actor.Role == authz.RoleAdmin:
		return []authz.Role{authz.RoleSuperController}
	default:
		return []authz.Role{authz.RoleAdmin, authz.RoleSuperController}
	}
}
