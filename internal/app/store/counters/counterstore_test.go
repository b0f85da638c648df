package counterstore_test

import (
	"sync"
	"testing"

	counterstore "github.com/dalemusser/memberhub/internal/app/store/counters"
	"github.com/dalemusser/memberhub/internal/testutil"
)

func TestStore_Next_Unique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.Next(ctx, "membership-2026")
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if first != 1 {
		t.Fatalf("first value = %d, want 1", first)
	}

	const n = 20
	var (
		mu   sync.Mutex
		seen = map[int64]bool{}
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := store.Next(ctx, "membership-2026")
			if err != nil {
				t.Errorf("Next failed: %v", err)
				return
			}
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Errorf("expected %d distinct values, got %d", n, len(seen))
	}
	for i := int64(2); i <= n+1; i++ {
		if !seen[i] {
			t.Errorf("missing sequence value %d", i)
		}
	}
}
