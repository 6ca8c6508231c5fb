package activityrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/ports/out/activityrepo"
)

type key struct {
	user   domain.UserID
	domain domain.ActivityDomain
}

// Repo is an in-memory implementation of activityrepo.Source with a write side for seeding.
// It is safe for concurrent use.
type Repo struct {
	mu      sync.RWMutex
	records map[key][]domain.ActivityRecord
}

var _ activityrepo.Source = (*Repo)(nil)

func NewRepo() *Repo {
	return &Repo{records: make(map[key][]domain.ActivityRecord)}
}

// Add appends records for the user in domain d.
func (r *Repo) Add(userID domain.UserID, d domain.ActivityDomain, recs ...domain.ActivityRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{user: userID, domain: d}
	for _, rec := range recs {
		r.records[k] = append(r.records[k], cloneRecord(rec))
	}
}

func (r *Repo) Recent(ctx context.Context, userID domain.UserID, d domain.ActivityDomain, limit int) ([]domain.ActivityRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.records[key{user: userID, domain: d}]
	out := make([]domain.ActivityRecord, 0, len(src))
	for _, rec := range src {
		out = append(out, cloneRecord(rec))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneRecord(in domain.ActivityRecord) domain.ActivityRecord {
	out := in
	if in.Payload != nil {
		out.Payload = append([]byte(nil), in.Payload...)
	}
	return out
}
