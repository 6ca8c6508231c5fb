package activityrepo

import (
	"context"
	"testing"

	"github.com/vitalcoach/coach-api/internal/adapters/contracttest"
	"github.com/vitalcoach/coach-api/internal/adapters/postgres/testutil"
	"github.com/vitalcoach/coach-api/internal/domain"
	activityrepoport "github.com/vitalcoach/coach-api/internal/ports/out/activityrepo"
)

func TestContract_PostgresActivitySource(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunActivitySource(t, func(t *testing.T) (activityrepoport.Source, contracttest.SeedFunc, func()) {
		t.Helper()
		r := NewRepo(pool)
		seed := func(t *testing.T, userID domain.UserID, d domain.ActivityDomain, recs ...domain.ActivityRecord) {
			t.Helper()
			if err := r.Add(context.Background(), userID, d, recs...); err != nil {
				t.Fatalf("Add err=%v", err)
			}
		}
		return r, seed, nil
	})
}

func TestRecent_UnknownDomain(t *testing.T) {
	t.Parallel()

	r := NewRepo(nil)
	if _, err := r.Recent(context.Background(), "user-1", domain.ActivityDomain("sleep"), 5); err == nil {
		t.Fatalf("expected error for nil pool")
	}
	if _, err := lookup(domain.ActivityDomain("sleep")); err == nil {
		t.Fatalf("expected unknown domain error")
	}
	for _, d := range domain.ActivityDomains {
		if _, err := lookup(d); err != nil {
			t.Fatalf("lookup(%s) err=%v", d, err)
		}
	}
}
