package health_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dalemusser/memberhub/internal/app/features/health"
	"github.com/dalemusser/memberhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type pingFunc func() error

func (f pingFunc) Ping(context.Context, *readpref.ReadPref) error { return f() }

type probe struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func serve(t *testing.T, db health.Pinger, path string) (*testutil.ResponseRecorder, probe) {
	t.Helper()
	rec := testutil.NewRecorder()
	health.Routes(health.NewHandler(db, zap.NewNop())).ServeHTTP(rec, testutil.NewRequest("GET", path))
	var p probe
	rec.DecodeJSON(t, &p)
	return rec, p
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		ping       error
		wantStatus int
		wantDB     string
	}{
		{"up", nil, http.StatusOK, "ok"},
		{"down", errors.New("server selection timeout: secret-host:27017"), http.StatusServiceUnavailable, "unreachable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, p := serve(t, pingFunc(func() error { return tt.ping }), "/")
			rec.AssertStatus(t, tt.wantStatus)
			rec.AssertNotContains(t, "secret-host")
			if p.Checks["database"] != tt.wantDB {
				t.Errorf("database check = %q, want %q", p.Checks["database"], tt.wantDB)
			}
		})
	}
}

func TestLive_IgnoresDatabase(t *testing.T) {
	rec, p := serve(t, pingFunc(func() error { return errors.New("down") }), "/live")
	rec.AssertStatus(t, http.StatusOK)
	if p.Status != "ok" {
		t.Errorf("status = %q", p.Status)
	}
}

func TestReady_RealMongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rec, _ := serve(t, db.Client(), "/")
	rec.AssertStatus(t, http.StatusOK)
}
