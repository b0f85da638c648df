package bootstrap

import (
	"context"
	"testing"

	"github.com/dalemusser/memberhub/internal/app/store/audit"
	"github.com/dalemusser/memberhub/internal/app/system/auditlog"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/testutil/memstore"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

type superEnv struct {
	ids   *memstore.Identities
	roles *memstore.Roles
	sink  *memstore.AuditSink
	al    *auditlog.Logger
}

func newSuperEnv() *superEnv {
	e := &superEnv{
		ids:   memstore.NewIdentities(),
		roles: memstore.NewRoles(),
		sink:  memstore.NewAuditSink(),
	}
	e.al = auditlog.New(e.sink, testLogger(), auditlog.Config{})
	return e
}

func TestEnsureSuperController_PromotesExisting(t *testing.T) {
	e := newSuperEnv()
	e.ids.Put(models.Identity{ID: "u1", Email: "Ops@Example.org", State: "Kerala"})
	e.roles.Put(models.RoleRecord{UserID: "u1", Role: string(authz.RoleAdmin), Version: 3})

	if err := ensureSuperController(context.Background(), e.ids, e.roles, e.al, "ops@example.org", testLogger()); err != nil {
		t.Fatalf("ensureSuperController failed: %v", err)
	}
	row, _ := e.roles.Row("u1")
	if row.Role != string(authz.RoleSuperController) {
		t.Errorf("expected role super_controller, got %q", row.Role)
	}
	if len(e.sink.OfType(audit.EventSuperControllerBoot)) != 1 {
		t.Error("expected one bootstrap audit event")
	}

	// Second run is a no-op.
	if err := ensureSuperController(context.Background(), e.ids, e.roles, e.al, "ops@example.org", testLogger()); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(e.sink.OfType(audit.EventSuperControllerBoot)) != 1 {
		t.Error("second run must not audit again")
	}
}

func TestEnsureSuperController_NoRoleRow(t *testing.T) {
	e := newSuperEnv()
	e.ids.Put(models.Identity{ID: "u2", Email: "boss@example.org"})

	if err := ensureSuperController(context.Background(), e.ids, e.roles, e.al, "boss@example.org", testLogger()); err != nil {
		t.Fatalf("ensureSuperController failed: %v", err)
	}
	if row, ok := e.roles.Row("u2"); !ok || row.Role != string(authz.RoleSuperController) {
		t.Errorf("row = %+v, %v", row, ok)
	}
}

func TestEnsureSuperController_UnknownEmailSkipped(t *testing.T) {
	e := newSuperEnv()
	if err := ensureSuperController(context.Background(), e.ids, e.roles, e.al, "ghost@example.org", testLogger()); err != nil {
		t.Fatalf("unknown email must not fail startup: %v", err)
	}
	if err := ensureSuperController(context.Background(), e.ids, e.roles, e.al, "", testLogger()); err != nil {
		t.Fatalf("empty email: %v", err)
	}
	if len(e.sink.Events()) != 0 {
		t.Error("nothing should be audited")
	}
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:            "mongodb://localhost:27017",
		MembershipPrefix:    "MH",
		Timezone:            "Asia/Kolkata",
		AuditLogAdmin:       "all",
		AuditLogPublic:      "db",
		VerifyRatePerMinute: 60,
		VerifyRateBurst:     20,
		SessionKey:          "dev-only-change-me-please-0123456789ABCDEF",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		env     string
		wantErr bool
	}{
		{"valid", func(*AppConfig) {}, "dev", false},
		{"bad uri", func(c *AppConfig) { c.MongoURI = "postgres://x" }, "dev", true},
		{"empty prefix", func(c *AppConfig) { c.MembershipPrefix = "" }, "dev", true},
		{"bad timezone", func(c *AppConfig) { c.Timezone = "Mars/Olympus" }, "dev", true},
		{"bad audit mode", func(c *AppConfig) { c.AuditLogAdmin = "loud" }, "dev", true},
		{"admin audit log only", func(c *AppConfig) { c.AuditLogAdmin = "log" }, "dev", true},
		{"admin audit off", func(c *AppConfig) { c.AuditLogAdmin = "off" }, "dev", true},
		{"admin audit db", func(c *AppConfig) { c.AuditLogAdmin = "db" }, "dev", false},
		{"public audit off", func(c *AppConfig) { c.AuditLogPublic = "off" }, "dev", false},
		{"bad public mode", func(c *AppConfig) { c.AuditLogPublic = "loud" }, "dev", true},
		{"trusted proxies", func(c *AppConfig) { c.TrustedProxies = []string{"10.0.0.0/8", "::1"} }, "dev", false},
		{"bad trusted proxy", func(c *AppConfig) { c.TrustedProxies = []string{"lb.internal"} }, "dev", true},
		{"zero rate", func(c *AppConfig) { c.VerifyRatePerMinute = 0 }, "dev", true},
		{"dev key in prod", func(*AppConfig) {}, "prod", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a@x.org, ,b@x.org ,")
	if len(got) != 2 || got[0] != "a@x.org" || got[1] != "b@x.org" {
		t.Errorf("splitList = %q", got)
	}
	if splitList("") != nil {
		t.Error("empty setting should yield nil")
	}
}
