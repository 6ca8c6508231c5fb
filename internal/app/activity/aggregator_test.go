package activity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memactivityrepo "github.com/vitalcoach/coach-api/internal/adapters/memory/activityrepo"
	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/platform/metrics"
)

type failingSource struct {
	inner  *memactivityrepo.Repo
	fail   map[domain.ActivityDomain]error
	calls  atomic.Int32
	mu     sync.Mutex
	limits []int
}

func (s *failingSource) Recent(ctx context.Context, userID domain.UserID, d domain.ActivityDomain, limit int) ([]domain.ActivityRecord, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.limits = append(s.limits, limit)
	s.mu.Unlock()
	if err := s.fail[d]; err != nil {
		return nil, err
	}
	return s.inner.Recent(ctx, userID, d, limit)
}

func seeded(t *testing.T) *memactivityrepo.Repo {
	t.Helper()
	repo := memactivityrepo.NewRepo()
	base := time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		repo.Add("user-1", domain.DomainTraining, domain.ActivityRecord{
			ID:         string(rune('a' + i)),
			OccurredAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	repo.Add("user-1", domain.DomainNutrition, domain.ActivityRecord{ID: "meal", OccurredAt: base})
	return repo
}

func TestAggregate_CompleteSnapshot(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	agg := NewAggregator(seeded(t), nil, m)

	snap, err := agg.Aggregate(context.Background(), "user-1", Options{})
	require.NoError(t, err)

	require.Len(t, snap.TrainingSessions, DefaultLimit)
	assert.Equal(t, "h", snap.TrainingSessions[0].ID, "most recent first")
	assert.Equal(t, "d", snap.TrainingSessions[4].ID)
	assert.Len(t, snap.Meals, 1)
	for _, d := range domain.ActivityDomains {
		assert.NotNil(t, snap.Records(d), "domain %s must be an empty list, not nil", d)
	}
}

func TestAggregate_FailClosed(t *testing.T) {
	t.Parallel()

	src := &failingSource{
		inner: seeded(t),
		fail: map[domain.ActivityDomain]error{
			domain.DomainPain:     errors.New("timeout"),
			domain.DomainTraining: errors.New("connection reset"),
		},
	}
	agg := NewAggregator(src, nil, nil)

	snap, err := agg.Aggregate(context.Background(), "user-1", Options{})
	require.Error(t, err)
	assert.Equal(t, domain.ActivitySnapshot{}, snap, "no partial snapshot")
	assert.Equal(t, int32(len(domain.ActivityDomains)), src.calls.Load(), "every domain is queried")

	var aerr *AggregateError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, []domain.ActivityDomain{domain.DomainTraining, domain.DomainPain}, aerr.Domains())
	assert.Contains(t, err.Error(), "could not fetch recent activity")
	assert.True(t, errors.Is(err, src.fail[domain.DomainPain]))
}

func TestAggregate_ClampsLimit(t *testing.T) {
	t.Parallel()

	cases := map[int]int{0: 5, -3: 1, 2: 2, 50: 5}
	for in, want := range cases {
		src := &failingSource{inner: seeded(t)}
		snap, err := NewAggregator(src, nil, nil).Aggregate(context.Background(), "user-1", Options{Limit: in})
		require.NoError(t, err)
		assert.Len(t, snap.TrainingSessions, want, "limit %d", in)
		for _, got := range src.limits {
			assert.Equal(t, want, got)
		}
	}
}

type unsortedSource struct{}

func (unsortedSource) Recent(ctx context.Context, userID domain.UserID, d domain.ActivityDomain, limit int) ([]domain.ActivityRecord, error) {
	base := time.Unix(0, 0).UTC()
	var out []domain.ActivityRecord
	for i := 0; i < 7; i++ {
		out = append(out, domain.ActivityRecord{ID: string(rune('a' + i)), OccurredAt: base.Add(time.Duration(i) * time.Minute)})
	}
	return out, nil
}

func TestAggregate_EnforcesOrderAndCap(t *testing.T) {
	t.Parallel()

	snap, err := NewAggregator(unsortedSource{}, nil, nil).Aggregate(context.Background(), "u", Options{Limit: 3})
	require.NoError(t, err)
	for _, d := range domain.ActivityDomains {
		recs := snap.Records(d)
		require.Len(t, recs, 3)
		assert.Equal(t, "g", recs[0].ID)
		assert.Equal(t, "e", recs[2].ID)
	}
	assert.Equal(t, 21, snap.Total())
}
