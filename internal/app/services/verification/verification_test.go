package verification_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/memberhub/internal/app/services/registry"
	"github.com/dalemusser/memberhub/internal/app/services/verification"
	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/testutil/memstore"
	"go.uber.org/zap"
)

var now = time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)

type env struct {
	svc       *verification.Service
	ids       *memstore.Identities
	roles     *memstore.Roles
	apps      *memstore.Applications
	delegates *memstore.Delegates
}

func newEnv() *env {
	e := &env{
		ids:       memstore.NewIdentities(),
		roles:     memstore.NewRoles(),
		apps:      memstore.NewApplications(),
		delegates: memstore.NewDelegates(),
	}
	e.svc = verification.New(e.ids, e.roles, e.apps, e.delegates, zap.NewNop(), func() time.Time { return now })
	return e
}

func strPtr(s string) *string { return &s }

func TestClassify(t *testing.T) {
	tests := []struct {
		token string
		want  verification.TokenKind
	}{
		{"a@x.com", verification.TokenEmail},
		{"@", verification.TokenEmail},
		{"9876543210", verification.TokenPhone},
		{"+91 98765-43210", verification.TokenPhone},
		{"987654321", verification.TokenMembershipID},
		{"MH-2026-00001", verification.TokenMembershipID},
		{"98765 4321x", verification.TokenMembershipID},
	}
	for _, tt := range tests {
		if got := verification.Classify(tt.token); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestVerify_EmptyToken(t *testing.T) {
	e := newEnv()
	if _, err := e.svc.Verify(context.Background(), "   "); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestVerify_ConsentIdempotence(t *testing.T) {
	e := newEnv()
	e.ids.Put(models.Identity{
		ID:                 "u1",
		FullName:           "Asha Rao",
		Email:              "asha@x.com",
		Phone:              "9876543210",
		State:              "Kerala",
		MembershipID:       strPtr("MH-2026-00007"),
		AllowEmailSharing:  false,
		AllowMobileSharing: true,
	})

	check := func(label string) {
		t.Helper()
		res, err := e.svc.Verify(context.Background(), "mh-2026-00007")
		if err != nil {
			t.Fatalf("%s: Verify failed: %v", label, err)
		}
		if res.Kind != verification.KindActive {
			t.Fatalf("%s: kind = %q, want active", label, res.Kind)
		}
		p := res.Payload.(*verification.IdentityPayload)
		if p.Email != nil {
			t.Errorf("%s: email leaked: %q", label, *p.Email)
		}
		if p.Phone == nil || *p.Phone != "9876543210" {
			t.Errorf("%s: phone should be shared, got %v", label, p.Phone)
		}
		b, _ := json.Marshal(res)
		if strings.Contains(string(b), `"email"`) || strings.Contains(string(b), "@x.com") {
			t.Errorf("%s: email present in JSON: %s", label, b)
		}
	}

	check("first")
	check("second")
	if err := e.ids.SetEmail("u1", "changed@x.com"); err != nil {
		t.Fatalf("SetEmail failed: %v", err)
	}
	check("after email change")
}

func TestVerify_PhoneOmittedWithoutConsent(t *testing.T) {
	e := newEnv()
	e.ids.Put(models.Identity{
		ID:                 "u1",
		FullName:           "Ravi",
		Email:              "ravi@x.com",
		Phone:              "9999999999",
		State:              "Goa",
		MembershipID:       strPtr("MH-2026-00001"),
		AllowEmailSharing:  true,
		AllowMobileSharing: false,
	})

	res, err := e.svc.Verify(context.Background(), "9999999999")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if res.Kind != verification.KindActive || res.Token != verification.TokenPhone {
		t.Fatalf("unexpected result: %+v", res)
	}
	p := res.Payload.(*verification.IdentityPayload)
	if p.Phone != nil {
		t.Errorf("phone should be omitted, got %q", *p.Phone)
	}
	if p.Email == nil || *p.Email != "ravi@x.com" {
		t.Errorf("email should be shared, got %v", p.Email)
	}

	var raw map[string]any
	b, _ := json.Marshal(res.Payload)
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if _, ok := raw["phone"]; ok {
		t.Errorf("phone key must be absent, got %s", b)
	}
}

func TestVerify_PendingThenActive(t *testing.T) {
	e := newEnv()
	reg := registry.New(e.ids, e.roles, e.apps, memstore.NewCounters(),
		auditlog.New(memstore.NewAuditSink(), zap.NewNop(), auditlog.Config{}), zap.NewNop(),
		registry.Options{Now: func() time.Time { return now }})
	ctx := context.Background()

	app, err := reg.SubmitApplication(ctx, registry.ApplicationInput{
		FullName: "Asha Rao", Email: "a@x.com", Phone: "9876543210", State: "Kerala",
	})
	if err != nil {
		t.Fatalf("SubmitApplication failed: %v", err)
	}

	res, err := e.svc.Verify(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if res.Kind != verification.KindPending {
		t.Fatalf("kind = %q, want pending", res.Kind)
	}
	ap := res.Payload.(*verification.ApplicationPayload)
	if ap.RejectionReason != "" {
		t.Errorf("pending payload carries reason %q", ap.RejectionReason)
	}

	if _, err := reg.IssueMembership(ctx, authz.Actor{UserID: "admin", Role: authz.RoleAdmin}, app.ID); err != nil {
		t.Fatalf("IssueMembership failed: %v", err)
	}

	res, err = e.svc.Verify(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if res.Kind != verification.KindActive {
		t.Fatalf("kind = %q, want active", res.Kind)
	}
	p := res.Payload.(*verification.IdentityPayload)
	if p.MembershipID == nil || *p.MembershipID == "" {
		t.Error("expected a membership id after issuance")
	}
	if p.RoleLabel != "Member" {
		t.Errorf("role label = %q, want Member", p.RoleLabel)
	}
}

func TestVerify_Applications(t *testing.T) {
	e := newEnv()
	reviewed := now.Add(-time.Hour)
	e.apps.Put(models.Application{
		ID: "a1", FullName: "R", Email: "rej@x.com", Phone: "9000000001", State: "Goa",
		Status: models.ApplicationRejected, RejectionReason: "duplicate", AppliedAt: now.Add(-48 * time.Hour), ReviewedAt: &reviewed,
	})
	e.apps.Put(models.Application{
		ID: "a2", FullName: "O", Email: "orphan@x.com", Phone: "9000000002", State: "Goa",
		Status: models.ApplicationApproved, AppliedAt: now.Add(-48 * time.Hour), MembershipID: "MH-2026-00099",
	})

	ctx := context.Background()
	res, err := e.svc.Verify(ctx, "9000000001")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if res.Kind != verification.KindRejected {
		t.Fatalf("kind = %q, want rejected", res.Kind)
	}
	p := res.Payload.(*verification.ApplicationPayload)
	if p.RejectionReason != "duplicate" {
		t.Errorf("reason = %q, want duplicate", p.RejectionReason)
	}
	b, _ := json.Marshal(p)
	if strings.Contains(string(b), "rej@x.com") || strings.Contains(string(b), "9000000001") {
		t.Errorf("application payload discloses contacts: %s", b)
	}

	res, _ = e.svc.Verify(ctx, "orphan@x.com")
	if res.Kind != verification.KindNotFound || res.Payload != nil {
		t.Errorf("approved application without identity: got %+v, want not_found", res)
	}

	// Membership id tokens never match applications.
	res, _ = e.svc.Verify(ctx, "MH-2026-00099")
	if res.Kind != verification.KindNotFound {
		t.Errorf("kind = %q, want not_found", res.Kind)
	}

	res, _ = e.svc.Verify(ctx, "nobody@x.com")
	if res.Kind != verification.KindNotFound {
		t.Errorf("kind = %q, want not_found", res.Kind)
	}
}

func TestVerify_ExpiredEventManager(t *testing.T) {
	e := newEnv()
	expired := time.Date(2020, 1, 1, 23, 59, 59, 0, time.UTC)
	e.ids.Put(models.Identity{
		ID: "u1", FullName: "Meera", State: "Kerala",
		Designation:  "Event Manager – Summit 2019",
		MembershipID: strPtr("MH-2019-00004"),
	})
	e.roles.Put(models.RoleRecord{UserID: "u1", Role: "event_manager", EventLabel: "Summit 2019", ExpiresAt: &expired, Version: 1})

	res, err := e.svc.Verify(context.Background(), "MH-2019-00004")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	p := res.Payload.(*verification.IdentityPayload)
	if p.Role != authz.RoleMember || p.RoleLabel != "Member" {
		t.Errorf("role = %q (%q), want member", p.Role, p.RoleLabel)
	}
	if p.Designation != "" {
		t.Errorf("expired designation shown: %q", p.Designation)
	}
}

func TestVerifyDelegate(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	if _, err := e.delegates.Create(ctx, models.Delegate{
		ID: "d-1", ManagerID: "m1", EventName: "Summit", FullName: "Kiran",
		Email: "k@x.com", Phone: "9000000000", CustomData: map[string]string{"f1": "Veg"},
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	res, err := e.svc.VerifyDelegate(ctx, "d-1")
	if err != nil {
		t.Fatalf("VerifyDelegate failed: %v", err)
	}
	p, ok := res.Payload.(*verification.DelegatePayload)
	if !ok || res.Kind != verification.KindActive {
		t.Fatalf("unexpected result: %+v", res)
	}
	if p.EventName != "Summit" || p.Email != "k@x.com" || p.CustomData["f1"] != "Veg" {
		t.Errorf("unexpected payload: %+v", p)
	}

	res, err = e.svc.VerifyDelegate(ctx, "missing")
	if err != nil || res.Kind != verification.KindNotFound {
		t.Errorf("expected not_found, got %+v, %v", res, err)
	}
}
