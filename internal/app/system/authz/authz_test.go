package authz_test

import (
	"testing"
	"time"

	"github.com/dalemusser/memberhub/internal/app/system/authz"
)

func actor(role authz.Role, state, district string) authz.Actor {
	return authz.Actor{UserID: "actor", Role: role, State: state, District: district}
}

func target(role authz.Role, state, district string) authz.Target {
	return authz.Target{UserID: "target", Role: role, State: state, District: district}
}

func TestRank_TotalOrder(t *testing.T) {
	roles := authz.AllRanked()
	for i := 1; i < len(roles); i++ {
		lo, ok1 := authz.Rank(roles[i-1])
		hi, ok2 := authz.Rank(roles[i])
		if !ok1 || !ok2 {
			t.Fatalf("expected %s and %s to be ranked", roles[i-1], roles[i])
		}
		if lo >= hi {
			t.Errorf("expected rank(%s) < rank(%s), got %d >= %d", roles[i-1], roles[i], lo, hi)
		}
	}
	if roles[0] != authz.RoleMember || roles[len(roles)-1] != authz.RoleSuperController {
		t.Errorf("unexpected hierarchy ends: %s .. %s", roles[0], roles[len(roles)-1])
	}
}

func TestRank_EventManagerIsUnranked(t *testing.T) {
	n, ok := authz.Rank(authz.RoleEventManager)
	if ok || n != authz.NoRank {
		t.Fatalf("expected event_manager to be unranked, got %d, %v", n, ok)
	}
	for _, r := range authz.AllRanked() {
		if authz.AtLeast(authz.RoleEventManager, r) {
			t.Errorf("event_manager must never compare >= %s", r)
		}
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want authz.Role
		ok   bool
	}{
		{"member", authz.RoleMember, true},
		{"  State_Convener ", authz.RoleStateConvener, true},
		{"EVENT_MANAGER", authz.RoleEventManager, true},
		{"owner", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := authz.ParseRole(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseRole(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	if got := authz.Label(authz.RoleDistrictConvener); got != "District Convener / Incharge" {
		t.Errorf("unexpected label %q", got)
	}
	if got := authz.Label(authz.Role("mystery")); got != "mystery" {
		t.Errorf("expected raw value for unknown role, got %q", got)
	}
}

func TestResolveScope(t *testing.T) {
	tests := []struct {
		name  string
		actor authz.Actor
		want  authz.Scope
	}{
		{"member", actor(authz.RoleMember, "MH", ""), authz.Scope{Kind: authz.ScopeNone}},
		{"designatory", actor(authz.RoleDesignatory, "MH", ""), authz.Scope{Kind: authz.ScopeNone}},
		{"event manager", actor(authz.RoleEventManager, "MH", ""), authz.Scope{Kind: authz.ScopeNone}},
		{"district", actor(authz.RoleDistrictConvener, "MH", "Pune"), authz.Scope{Kind: authz.ScopeState, State: "MH", District: "Pune"}},
		{"state co", actor(authz.RoleStateCoConvener, "MH", "Pune"), authz.Scope{Kind: authz.ScopeState, State: "MH"}},
		{"national co", actor(authz.RoleNationalCoConvener, "MH", ""), authz.Scope{Kind: authz.ScopeNational}},
		{"admin", actor(authz.RoleAdmin, "", ""), authz.Scope{Kind: authz.ScopeNational}},
		{"super", actor(authz.RoleSuperController, "", ""), authz.Scope{Kind: authz.ScopeNational}},
		{"break glass", authz.Actor{Role: authz.RoleMember, BreakGlass: true}, authz.Scope{Kind: authz.ScopeNational}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.ResolveScope(tt.actor); got != tt.want {
				t.Errorf("ResolveScope = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCanView_StateScopedNeverCrossesStates(t *testing.T) {
	states := []string{"MH", "GJ", ""}
	for _, r := range []authz.Role{authz.RoleStateConvener, authz.RoleStateCoConvener, authz.RoleDistrictConvener, authz.RoleDistrictCoConvener} {
		for _, s := range states {
			a := actor(r, s, "Pune")
			for _, ts := range states {
				if ts == s && s != "" {
					continue
				}
				for _, tr := range authz.AllRanked() {
					if authz.CanView(a, target(tr, ts, "Pune")) {
						t.Errorf("%s in %q must not view %s in %q", r, s, tr, ts)
					}
				}
			}
		}
	}
}

func TestCanView_StateScopedNeverSeesAdmins(t *testing.T) {
	a := actor(authz.RoleStateConvener, "MH", "")
	for _, r := range []authz.Role{authz.RoleAdmin, authz.RoleSuperController} {
		if authz.CanView(a, target(r, "MH", "")) {
			t.Errorf("state convener must not view %s in own state", r)
		}
	}
	if !authz.CanView(a, target(authz.RoleNationalConvener, "MH", "")) {
		t.Error("expected state convener to view national convener residing in own state")
	}
}

func TestCanView_DistrictRefinement(t *testing.T) {
	a := actor(authz.RoleDistrictConvener, "MH", "Pune")
	if !authz.CanView(a, target(authz.RoleMember, "MH", "Pune")) {
		t.Error("expected district convener to view member in own district")
	}
	if authz.CanView(a, target(authz.RoleMember, "MH", "Nagpur")) {
		t.Error("district convener must not view other district")
	}
	if authz.CanView(actor(authz.RoleDistrictConvener, "MH", ""), target(authz.RoleMember, "MH", "")) {
		t.Error("district convener without district must not view anyone")
	}
}

func TestCanView_AdminAndSuper(t *testing.T) {
	admin := actor(authz.RoleAdmin, "", "")
	if authz.CanView(admin, target(authz.RoleSuperController, "MH", "")) {
		t.Error("admin must not view super controller")
	}
	if !authz.CanView(admin, target(authz.RoleAdmin, "", "")) {
		t.Error("expected admin to view admin peer")
	}
	super := actor(authz.RoleSuperController, "", "")
	if !authz.CanView(super, target(authz.RoleSuperController, "", "")) {
		t.Error("expected super controller to view super controller")
	}
	national := actor(authz.RoleNationalConvener, "", "")
	if authz.CanView(national, target(authz.RoleAdmin, "MH", "")) {
		t.Error("national convener must not view admin")
	}
	if !authz.CanView(national, target(authz.RoleStateConvener, "GJ", "")) {
		t.Error("expected national convener to view any state")
	}
}

func TestCanView_UnscopedSeesNothing(t *testing.T) {
	for _, r := range []authz.Role{authz.RoleMember, authz.RoleDesignatory, authz.RoleEventManager} {
		if authz.CanView(actor(r, "MH", "Pune"), target(authz.RoleMember, "MH", "Pune")) {
			t.Errorf("%s must not view other records", r)
		}
	}
}

func TestCanMutateRole_OnlySuperAssignsSuper(t *testing.T) {
	all := append(authz.AllRanked(), authz.RoleEventManager)
	for _, r := range all {
		a := actor(r, "MH", "Pune")
		got := authz.CanMutateRole(a, target(authz.RoleMember, "MH", "Pune"), authz.RoleSuperController)
		if r == authz.RoleSuperController {
			if !got {
				t.Error("expected super controller to assign super controller")
			}
			continue
		}
		if got {
			t.Errorf("%s must not assign super controller", r)
		}
	}
	bg := authz.Actor{Role: authz.RoleAdmin, BreakGlass: true}
	if authz.CanMutateRole(bg, target(authz.RoleMember, "MH", ""), authz.RoleSuperController) {
		t.Error("break-glass actor must not assign super controller")
	}
}

func TestCanMutateRole_RankGate(t *testing.T) {
	tests := []struct {
		name    string
		actor   authz.Actor
		target  authz.Target
		newRole authz.Role
		want    bool
	}{
		{"state promotes member to district", actor(authz.RoleStateConvener, "MH", ""), target(authz.RoleMember, "MH", ""), authz.RoleDistrictConvener, true},
		{"state promotes to state co", actor(authz.RoleStateConvener, "MH", ""), target(authz.RoleMember, "MH", ""), authz.RoleStateCoConvener, true},
		{"state cannot create peer", actor(authz.RoleStateConvener, "MH", ""), target(authz.RoleMember, "MH", ""), authz.RoleStateConvener, false},
		{"state cannot demote peer", actor(authz.RoleStateConvener, "MH", ""), target(authz.RoleStateConvener, "MH", ""), authz.RoleMember, false},
		{"state cannot touch other state", actor(authz.RoleStateConvener, "MH", ""), target(authz.RoleMember, "GJ", ""), authz.RoleDesignatory, false},
		{"state cannot assign admin", actor(authz.RoleStateConvener, "MH", ""), target(authz.RoleMember, "MH", ""), authz.RoleAdmin, false},
		{"admin cannot assign admin", actor(authz.RoleAdmin, "", ""), target(authz.RoleMember, "MH", ""), authz.RoleAdmin, false},
		{"admin assigns national convener", actor(authz.RoleAdmin, "", ""), target(authz.RoleMember, "MH", ""), authz.RoleNationalConvener, true},
		{"admin cannot demote super", actor(authz.RoleAdmin, "", ""), target(authz.RoleSuperController, "", ""), authz.RoleMember, false},
		{"member cannot mutate", actor(authz.RoleMember, "MH", ""), target(authz.RoleMember, "MH", ""), authz.RoleMember, false},
		{"event manager not assignable here", actor(authz.RoleAdmin, "", ""), target(authz.RoleMember, "MH", ""), authz.RoleEventManager, false},
		{"unknown role rejected", actor(authz.RoleSuperController, "", ""), target(authz.RoleMember, "MH", ""), authz.Role("owner"), false},
		{"super unrestricted", actor(authz.RoleSuperController, "", ""), target(authz.RoleAdmin, "", ""), authz.RoleMember, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.CanMutateRole(tt.actor, tt.target, tt.newRole); got != tt.want {
				t.Errorf("CanMutateRole = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanMutateRole_ExpiredEventManagerIsMember(t *testing.T) {
	expiry := time.Date(2020, 1, 1, 23, 59, 59, 0, time.UTC)
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	eff := authz.EffectiveRole(authz.RoleEventManager, &expiry, now)
	if eff != authz.RoleMember {
		t.Fatalf("expected expired event manager to be member, got %s", eff)
	}

	// As actor: no authority.
	a := authz.Actor{UserID: "x", Role: eff, State: "MH"}
	if authz.CanMutateRole(a, target(authz.RoleMember, "MH", ""), authz.RoleDesignatory) {
		t.Error("expired event manager must not mutate roles")
	}
	// As target: treated as a member by a district convener of the same district.
	d := actor(authz.RoleDistrictConvener, "MH", "Pune")
	if !authz.CanMutateRole(d, authz.Target{UserID: "x", Role: eff, State: "MH", District: "Pune"}, authz.RoleDesignatory) {
		t.Error("expected expired event manager to be mutable like a member")
	}
}

func TestCanTransferScope(t *testing.T) {
	if !authz.CanTransferScope(actor(authz.RoleStateConvener, "MH", ""), target(authz.RoleDistrictConvener, "MH", "Pune")) {
		t.Error("expected state convener to transfer lower-ranked member of own state")
	}
	if authz.CanTransferScope(actor(authz.RoleStateConvener, "MH", ""), target(authz.RoleStateConvener, "MH", "")) {
		t.Error("state convener must not transfer a peer")
	}
	if authz.CanTransferScope(actor(authz.RoleDistrictConvener, "MH", "Pune"), target(authz.RoleMember, "GJ", "Pune")) {
		t.Error("district convener must not transfer out-of-state identity")
	}
}

func TestCanGrantEventManager(t *testing.T) {
	if !authz.CanGrantEventManager(actor(authz.RoleAdmin, "", ""), target(authz.RoleMember, "MH", "")) {
		t.Error("expected admin to grant event manager")
	}
	if authz.CanGrantEventManager(actor(authz.RoleNationalConvener, "", ""), target(authz.RoleMember, "MH", "")) {
		t.Error("national convener must not grant event manager")
	}
	if authz.CanGrantEventManager(actor(authz.RoleAdmin, "", ""), target(authz.RoleSuperController, "", "")) {
		t.Error("admin must not grant on super controller")
	}
}

func TestCanAdminister(t *testing.T) {
	tests := []struct {
		role authz.Role
		want bool
	}{
		{authz.RoleSuperController, true},
		{authz.RoleAdmin, true},
		{authz.RoleNationalConvener, false},
		{authz.RoleStateConvener, false},
		{authz.RoleEventManager, false},
		{authz.RoleMember, false},
	}
	for _, tt := range tests {
		if got := authz.CanAdminister(actor(tt.role, "MH", "")); got != tt.want {
			t.Errorf("CanAdminister(%s) = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestFilterVisible(t *testing.T) {
	a := actor(authz.RoleStateConvener, "MH", "")
	in := []authz.Target{
		{UserID: "1", Role: authz.RoleMember, State: "MH"},
		{UserID: "2", Role: authz.RoleAdmin, State: "MH"},
		{UserID: "3", Role: authz.RoleMember, State: "GJ"},
		{UserID: "4", Role: authz.RoleSuperController, State: "MH"},
		{UserID: "5", Role: authz.RoleDesignatory, State: "MH"},
	}
	got := authz.FilterVisible(a, in)
	if len(got) != 2 || got[0].UserID != "1" || got[1].UserID != "5" {
		t.Errorf("unexpected visible set: %+v", got)
	}
}

func TestEffectiveRole(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	exact := now

	tests := []struct {
		name   string
		stored authz.Role
		expiry *time.Time
		want   authz.Role
	}{
		{"no record", "", nil, authz.RoleMember},
		{"plain role", authz.RoleStateConvener, nil, authz.RoleStateConvener},
		{"live grant", authz.RoleEventManager, &future, authz.RoleEventManager},
		{"expired grant", authz.RoleEventManager, &past, authz.RoleMember},
		{"expiry equals now", authz.RoleEventManager, &exact, authz.RoleMember},
		{"grant without expiry", authz.RoleEventManager, nil, authz.RoleMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.EffectiveRole(tt.stored, tt.expiry, now); got != tt.want {
				t.Errorf("EffectiveRole = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEndOfDay(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	d := time.Date(2026, 3, 14, 9, 30, 0, 0, loc)
	got := authz.EndOfDay(d, loc)
	want := time.Date(2026, 3, 14, 23, 59, 59, 999999999, loc)
	if !got.Equal(want) {
		t.Errorf("EndOfDay = %v, want %v", got, want)
	}
}
