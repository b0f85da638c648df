// internal/app/system/authz/scope.go
package authz

import "time"

// ScopeKind is the jurisdiction an actor administers.
type ScopeKind int

const (
	// ScopeNone carries no administrative authority.
	ScopeNone ScopeKind = iota
	// ScopeState is limited to one state, optionally refined to a district.
	ScopeState
	// ScopeNational covers every state.
	ScopeNational
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeNational:
		return "national"
	case ScopeState:
		return "state"
	default:
		return "none"
	}
}

// Scope is the resolved jurisdiction of an actor.
// District is only set for district-tier actors and narrows State.
type Scope struct {
	Kind     ScopeKind
	State    string
	District string
}

// Actor is a snapshot of the requesting user. Role must already be the
// effective role (see EffectiveRole).
type Actor struct {
	UserID   string
	Email    string
	Role     Role
	State    string
	District string

	// BreakGlass is set when the actor was elevated to admin through the
	// configured break-glass list rather than a stored role. Role is already
	// RoleAdmin in that case; the flag exists so the elevation is audited.
	BreakGlass bool
}

// Target is a snapshot of the identity an action applies to. Role must be
// the effective role.
type Target struct {
	UserID   string
	Role     Role
	State    string
	District string
}

// ResolveScope derives the jurisdiction of actor.
func ResolveScope(actor Actor) Scope {
	if actor.BreakGlass {
		return Scope{Kind: ScopeNational}
	}
	switch {
	case AtLeast(actor.Role, RoleNationalCoConvener):
		return Scope{Kind: ScopeNational}
	case IsStateTier(actor.Role):
		return Scope{Kind: ScopeState, State: actor.State}
	case IsDistrictTier(actor.Role):
		return Scope{Kind: ScopeState, State: actor.State, District: actor.District}
	default:
		return Scope{Kind: ScopeNone}
	}
}

// EndOfDay returns the last instant of the calendar day of t in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc).Add(-time.Nanosecond)
}

// EffectiveRole applies lazy expiry to a stored role. An event manager whose
// expiry is missing or not after now is treated as a plain member; the
// boundary instant counts as expired. Every decision reads roles through
// this function.
func EffectiveRole(stored Role, expiresAt *time.Time, now time.Time) Role {
	if stored == "" {
		return RoleMember
	}
	if stored != RoleEventManager {
		return stored
	}
	if expiresAt == nil || !now.Before(*expiresAt) {
		return RoleMember
	}
	return RoleEventManager
}
