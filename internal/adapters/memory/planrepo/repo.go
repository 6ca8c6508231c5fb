package planrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/ports/out/planrepo"
)

// Repo is an in-memory implementation of planrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu     sync.RWMutex
	byUser map[domain.UserID][]planrepo.Plan
}

func NewRepo() *Repo {
	return &Repo{byUser: make(map[domain.UserID][]planrepo.Plan)}
}

func (r *Repo) Save(ctx context.Context, p planrepo.Plan) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[p.UserID] = append(r.byUser[p.UserID], p)
	return nil
}

func (r *Repo) ListRecent(ctx context.Context, userID domain.UserID, limit int) ([]planrepo.Plan, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]planrepo.Plan(nil), r.byUser[userID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []planrepo.Plan{}
	}
	return out, nil
}
