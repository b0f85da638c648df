package delegatestore_test

import (
	"errors"
	"testing"

	delegatestore "github.com/dalemusser/memberhub/internal/app/store/delegates"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/testutil"
)

func TestStore_CreateGetList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := delegatestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	d, err := store.Create(ctx, models.Delegate{
		ID: "d1", ManagerID: "m1", EventName: "Summit", FullName: "Ravi",
		CustomData: map[string]string{"College": "MIT"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if d.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := store.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.CustomData["College"] != "MIT" {
		t.Errorf("custom data = %v", got.CustomData)
	}
	if _, err := store.Get(ctx, "nope"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	list, err := store.ListByManager(ctx, "m1", 0)
	if err != nil {
		t.Fatalf("ListByManager failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 delegate, got %d", len(list))
	}
}
