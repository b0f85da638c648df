package auditlog_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/dalemusser/memberhub/internal/app/features/auditlog"
	"github.com/dalemusser/memberhub/internal/app/store/audit"
	"github.com/dalemusser/memberhub/internal/testutil"
	"go.uber.org/zap"
)

func passthrough(next http.Handler) http.Handler { return next }

func TestServeList(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	svc.AuditLog.Admin(ctx, audit.EventCardIssued, "admin", audit.TargetIdentity, "u1", nil)
	svc.AuditLog.Admin(ctx, audit.EventCardRevoked, "admin", audit.TargetIdentity, "u2", nil)
	router := auditlog.Routes(auditlog.NewHandler(svc.Audit, zap.NewNop()), passthrough)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithActor(testutil.NewRequest("GET", "/?target_id=u2"), testutil.AdminActor))
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Events []audit.Event `json:"events"`
		Total  int64         `json:"total"`
	}
	rec.DecodeJSON(t, &resp)
	if len(resp.Events) != 1 || resp.Events[0].EventType != audit.EventCardRevoked {
		t.Errorf("events = %+v", resp.Events)
	}
	if resp.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Total)
	}

	// Total counts past the page.
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithActor(testutil.NewRequest("GET", "/?limit=1"), testutil.AdminActor))
	rec.DecodeJSON(t, &resp)
	if len(resp.Events) != 1 || resp.Total != 2 {
		t.Errorf("limit=1: %d events, total %d; want 1 and 2", len(resp.Events), resp.Total)
	}
}

func TestServeList_AdminOnly(t *testing.T) {
	svc := testutil.NewServices(t)
	router := auditlog.Routes(auditlog.NewHandler(svc.Audit, zap.NewNop()), passthrough)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithActor(testutil.NewRequest("GET", "/"), testutil.ConvenerActor))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithActor(testutil.NewRequest("GET", "/?start_date=yesterday"), testutil.AdminActor))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
}
