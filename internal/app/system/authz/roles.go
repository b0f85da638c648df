// internal/app/system/authz/roles.go
package authz

import (
	"math"
	"strings"
)

// Role is one of the closed set of organizational roles.
type Role string

const (
	RoleMember             Role = "member"
	RoleDesignatory        Role = "designatory"
	RoleDistrictCoConvener Role = "district_co_convener"
	RoleDistrictConvener   Role = "district_convener"
	RoleStateCoConvener    Role = "state_co_convener"
	RoleStateConvener      Role = "state_convener"
	RoleNationalCoConvener Role = "national_co_convener"
	RoleNationalConvener   Role = "national_convener"
	RoleAdmin              Role = "admin"
	RoleSuperController    Role = "super_controller"

	// RoleEventManager is the time-bound delegation role. It has no rank.
	RoleEventManager Role = "event_manager"
)

// NoRank is the rank reported for roles outside the hierarchy.
const NoRank = math.MinInt

// ranked lists the hierarchy from lowest to highest privilege.
var ranked = []Role{
	RoleMember,
	RoleDesignatory,
	RoleDistrictCoConvener,
	RoleDistrictConvener,
	RoleStateCoConvener,
	RoleStateConvener,
	RoleNationalCoConvener,
	RoleNationalConvener,
	RoleAdmin,
	RoleSuperController,
}

var rankOf = func() map[Role]int {
	m := make(map[Role]int, len(ranked))
	for i, r := range ranked {
		m[r] = i
	}
	return m
}()

var labels = map[Role]string{
	RoleMember:             "Member",
	RoleDesignatory:        "Designatory",
	RoleDistrictCoConvener: "District Co-Convener / Incharge",
	RoleDistrictConvener:   "District Convener / Incharge",
	RoleStateCoConvener:    "State Co-Convener / Incharge",
	RoleStateConvener:      "State Convener / Incharge",
	RoleNationalCoConvener: "National Co-Convener",
	RoleNationalConvener:   "National Convener",
	RoleAdmin:              "Admin",
	RoleSuperController:    "Super Controller",
	RoleEventManager:       "Event Manager",
}

func (r Role) String() string { return string(r) }

// Rank returns the position of r in the hierarchy. Event managers and
// unknown roles return (NoRank, false) and never compare as >= a ranked role.
func Rank(r Role) (int, bool) {
	n, ok := rankOf[r]
	if !ok {
		return NoRank, false
	}
	return n, true
}

// rank is Rank without the flag.
func rank(r Role) int {
	n, _ := Rank(r)
	return n
}

// Label returns the display label for r. Unknown roles return their raw value.
func Label(r Role) string {
	if l, ok := labels[r]; ok {
		return l
	}
	return string(r)
}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := labels[r]; !ok {
		return "", false
	}
	return r, true
}

// AllRanked returns the hierarchy, lowest first.
func AllRanked() []Role {
	out := make([]Role, len(ranked))
	copy(out, ranked)
	return out
}

// IsStateTier reports whether r is one of the state convener tiers.
func IsStateTier(r Role) bool {
	return r == RoleStateCoConvener || r == RoleStateConvener
}

// IsDistrictTier reports whether r is one of the district convener tiers.
func IsDistrictTier(r Role) bool {
	return r == RoleDistrictCoConvener || r == RoleDistrictConvener
}

// IsBaseline reports whether r carries no administrative authority.
func IsBaseline(r Role) bool {
	return r == RoleMember || r == RoleDesignatory || r == RoleEventManager
}

// AtLeast reports whether r ranks at or above floor. Unranked roles never do.
func AtLeast(r, floor Role) bool {
	a, ok := Rank(r)
	if !ok {
		return false
	}
	b, ok := Rank(floor)
	if !ok {
		return false
	}
	return a >= b
}
