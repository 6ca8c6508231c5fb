package idempotency

import (
	"context"
	"testing"
	"time"

	memclock "github.com/vitalcoach/coach-api/internal/adapters/memory/clock"
	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/ports/out/idempotency"
)

func TestStore_PutThenGet(t *testing.T) {
	t.Parallel()

	s := NewStore()
	fp := idempotency.Fingerprint{
		Key:      "k1",
		UserID:   domain.UserID("user-1"),
		Method:   "POST",
		Route:    "/ai/generate-plan",
		BodyHash: "abc123",
	}
	rec := idempotency.Record{
		StatusCode:  200,
		ContentType: "application/json",
		Body:        []byte(`{"plan":"rest"}`),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}

	if err := s.Put(context.Background(), fp, rec); err != nil {
		t.Fatalf("Put() err=%v", err)
	}

	got, ok, err := s.Get(context.Background(), fp)
	if err != nil {
		t.Fatalf("Get() err=%v", err)
	}
	if !ok {
		t.Fatalf("Get() ok=false, want true")
	}
	if got.StatusCode != rec.StatusCode || got.ContentType != rec.ContentType || string(got.Body) != string(rec.Body) {
		t.Fatalf("Get()=%+v, want %+v", got, rec)
	}

	other := fp
	other.UserID = "user-2"
	if _, ok, _ := s.Get(context.Background(), other); ok {
		t.Fatalf("Get() for another user ok=true, want false")
	}
}

func TestStore_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(1_000, 0).UTC())
	s := NewStore(WithTTL(time.Hour), WithClock(clk))
	fp := idempotency.Fingerprint{Key: "k1", UserID: "user-1", Method: "POST", Route: "/ai/generate-plan"}

	if err := s.Put(context.Background(), fp, idempotency.Record{StatusCode: 200, CreatedAt: clk.Now()}); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	clk.Advance(59 * time.Minute)
	if _, ok, _ := s.Get(context.Background(), fp); !ok {
		t.Fatalf("Get() inside TTL ok=false, want true")
	}
	clk.Advance(2 * time.Minute)
	if _, ok, _ := s.Get(context.Background(), fp); ok {
		t.Fatalf("Get() after TTL ok=true, want false")
	}
}
