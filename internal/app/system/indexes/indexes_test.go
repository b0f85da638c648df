package indexes_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dalemusser/memberhub/internal/app/system/indexes"
	"github.com/dalemusser/memberhub/internal/testutil"
)

type ensurerFunc func(ctx context.Context) error

func (f ensurerFunc) EnsureIndexes(ctx context.Context) error { return f(ctx) }

func TestEnsure_AggregatesErrors(t *testing.T) {
	calls := 0
	ok := ensurerFunc(func(context.Context) error { calls++; return nil })
	bad := ensurerFunc(func(context.Context) error { calls++; return errors.New("boom") })

	err := indexes.Ensure(context.Background(), []indexes.Collection{
		{Name: "identities", Store: bad},
		{Name: "user_roles", Store: ok},
		{Name: "delegates", Store: bad},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("every collection must be attempted, got %d calls", calls)
	}
	for _, name := range []string{"identities: boom", "delegates: boom"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q missing %q", err, name)
		}
	}
}

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// EnsureAll should succeed on a clean database
	err := indexes.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	// Second call should also succeed (idempotent)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}
