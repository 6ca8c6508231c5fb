package profilerepo

import (
	"context"
	"sort"
	"sync"

	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/ports/out/profilerepo"
)

// Repo is an in-memory implementation of profilerepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byUser  map[domain.UserID]profilerepo.Record
	answers map[domain.UserID]map[string]profilerepo.Answer
}

func NewRepo() *Repo {
	return &Repo{
		byUser:  make(map[domain.UserID]profilerepo.Record),
		answers: make(map[domain.UserID]map[string]profilerepo.Answer),
	}
}

func (r *Repo) Get(ctx context.Context, userID domain.UserID) (profilerepo.Record, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byUser[userID]
	if !ok {
		return profilerepo.Record{}, profilerepo.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (r *Repo) Upsert(ctx context.Context, rec profilerepo.Record) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byUser[rec.UserID]; ok {
		// Creation time is set once.
		rec.CreatedAt = existing.CreatedAt
	}
	r.byUser[rec.UserID] = cloneRecord(rec)
	return nil
}

func (r *Repo) ListAnswers(ctx context.Context, userID domain.UserID) ([]profilerepo.Answer, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	byKey := r.answers[userID]
	out := make([]profilerepo.Answer, 0, len(byKey))
	for _, a := range byKey {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionKey < out[j].QuestionKey })
	return out, nil
}

func (r *Repo) UpsertAnswers(ctx context.Context, answers []profilerepo.Answer) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range answers {
		byKey, ok := r.answers[a.UserID]
		if !ok {
			byKey = make(map[string]profilerepo.Answer)
			r.answers[a.UserID] = byKey
		}
		byKey[a.QuestionKey] = a
	}
	return nil
}

func cloneRecord(in profilerepo.Record) profilerepo.Record {
	out := in
	out.Name = clonePtr(in.Name)
	out.Sex = clonePtr(in.Sex)
	out.Birthdate = clonePtr(in.Birthdate)
	out.HeightCm = clonePtr(in.HeightCm)
	out.WeightKg = clonePtr(in.WeightKg)
	out.Goal = clonePtr(in.Goal)
	out.Activity = clonePtr(in.Activity)
	out.Diet = clonePtr(in.Diet)
	out.Allergies = cloneList(in.Allergies)
	out.Injuries = cloneList(in.Injuries)
	out.Equipment = cloneList(in.Equipment)
	out.Advanced.KnownConditions = cloneList(in.Advanced.KnownConditions)
	out.Advanced.Supplements = cloneList(in.Advanced.Supplements)
	out.Advanced.FoodDislikes = cloneList(in.Advanced.FoodDislikes)
	if in.Targets != nil {
		t := in.Targets.Clone()
		out.Targets = &t
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneList(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
