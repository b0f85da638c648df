package applicationstore_test

import (
	"errors"
	"testing"
	"time"

	applicationstore "github.com/dalemusser/memberhub/internal/app/store/applications"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/testutil"
)

func TestStore_CreateAndLatest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := applicationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.Create(ctx, models.Application{
		FullName: "Asha", Email: "A@X.com", Phone: "99999 99999", State: "Kerala",
		AppliedAt: time.Now().Add(-time.Hour).UTC(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first.ID == "" || first.Status != models.ApplicationPending {
		t.Errorf("unexpected application: %+v", first)
	}
	second, err := store.Create(ctx, models.Application{FullName: "Asha", Email: "a@x.com", State: "Kerala"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.LatestByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("LatestByEmail failed: %v", err)
	}
	if got.ID != second.ID {
		t.Errorf("latest = %s, want %s", got.ID, second.ID)
	}
	if _, err := store.LatestByPhone(ctx, "9999999999"); err != nil {
		t.Errorf("LatestByPhone failed: %v", err)
	}
}

func TestStore_Decide_OnlyFromPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := applicationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, models.Application{FullName: "Asha", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	reject := applicationstore.Transition{
		Status: models.ApplicationRejected, ReviewedBy: "admin", ReviewedAt: time.Now().UTC(),
		RejectionReason: "incomplete",
	}
	if err := store.Decide(ctx, a.ID, reject); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	approve := applicationstore.Transition{Status: models.ApplicationApproved, ReviewedBy: "admin", ReviewedAt: time.Now().UTC()}
	if err := store.Decide(ctx, a.ID, approve); !errors.Is(err, errs.ErrAlreadyProcessed) {
		t.Errorf("expected ErrAlreadyProcessed, got %v", err)
	}
	if err := store.Decide(ctx, "missing", approve); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	got, _ := store.Get(ctx, a.ID)
	if got.Status != models.ApplicationRejected || got.RejectionReason != "incomplete" {
		t.Errorf("unexpected application: %+v", got)
	}
}

func TestStore_Reopen(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := applicationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := store.Create(ctx, models.Application{FullName: "Asha", Email: "a@x.com"})
	approve := applicationstore.Transition{Status: models.ApplicationApproved, ReviewedBy: "admin", ReviewedAt: time.Now().UTC()}
	if err := store.Decide(ctx, a.ID, approve); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if err := store.Reopen(ctx, a.ID); err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	got, _ := store.Get(ctx, a.ID)
	if got.Status != models.ApplicationPending || got.ReviewedBy != "" {
		t.Errorf("expected pending with no reviewer, got %+v", got)
	}
}

func TestStore_ListByStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := applicationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := store.Create(ctx, models.Application{FullName: "A", Email: "a@x.com", State: "Kerala"})
	_, _ = store.Create(ctx, models.Application{FullName: "B", Email: "b@x.com", State: "Goa"})
	_ = store.Decide(ctx, a.ID, applicationstore.Transition{Status: models.ApplicationApproved, ReviewedAt: time.Now().UTC()})

	list, err := store.List(ctx, applicationstore.ListFilter{Status: models.ApplicationPending})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].FullName != "B" {
		t.Errorf("unexpected list: %+v", list)
	}
}
