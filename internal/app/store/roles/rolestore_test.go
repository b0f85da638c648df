package rolestore_test

import (
	"errors"
	"testing"
	"time"

	rolestore "github.com/dalemusser/memberhub/internal/app/store/roles"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/testutil"
)

func TestStore_Get_Baseline(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := rolestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec, err := store.Get(ctx, "nobody")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Role != models.BaselineRoleName || rec.Version != 0 || rec.UserID != "nobody" {
		t.Errorf("expected baseline record, got %+v", rec)
	}
}

func TestStore_CompareAndSwap(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := rolestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base, _ := store.Get(ctx, "u1")
	base.Role = "state_convener"
	written, err := store.CompareAndSwap(ctx, base)
	if err != nil {
		t.Fatalf("first swap failed: %v", err)
	}
	if written.Version != 1 {
		t.Errorf("Version = %d, want 1", written.Version)
	}

	// A writer still holding version 0 loses.
	stale := models.BaselineRole("u1")
	stale.Role = "admin"
	if _, err := store.CompareAndSwap(ctx, stale); !errors.Is(err, errs.ErrConflict) {
		t.Errorf("expected ErrConflict for stale write, got %v", err)
	}

	exp := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Millisecond)
	written.Role = "event_manager"
	written.EventLabel = "Summit"
	written.ExpiresAt = &exp
	written, err = store.CompareAndSwap(ctx, written)
	if err != nil {
		t.Fatalf("second swap failed: %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Role != "event_manager" || got.Version != 2 || got.EventLabel != "Summit" {
		t.Errorf("unexpected row: %+v", got)
	}

	n, err := db.Collection("user_roles").CountDocuments(ctx, map[string]any{"_id": "u1"})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected exactly one role row, got %d", n)
	}
}

func TestStore_GetMany(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := rolestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := models.BaselineRole("a")
	rec.Role = "admin"
	if _, err := store.CompareAndSwap(ctx, rec); err != nil {
		t.Fatalf("swap failed: %v", err)
	}

	m, err := store.GetMany(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	if m["a"].Role != "admin" {
		t.Errorf("a = %+v", m["a"])
	}
	if m["b"].Role != models.BaselineRoleName {
		t.Errorf("b = %+v, want baseline", m["b"])
	}
}
