package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vitalcoach/coach-api/internal/domain"
	activityrepoport "github.com/vitalcoach/coach-api/internal/ports/out/activityrepo"
	idempotencyport "github.com/vitalcoach/coach-api/internal/ports/out/idempotency"
	planrepoport "github.com/vitalcoach/coach-api/internal/ports/out/planrepo"
	profilerepoport "github.com/vitalcoach/coach-api/internal/ports/out/profilerepo"
)

type CleanupFunc = func()

// SeedFunc inserts activity records through whatever write path the adapter has.
type SeedFunc func(t *testing.T, userID domain.UserID, d domain.ActivityDomain, recs ...domain.ActivityRecord)

type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)
type ProfileRepoFactory func(t *testing.T) (profilerepoport.Repository, CleanupFunc)
type PlanRepoFactory func(t *testing.T) (planrepoport.Repository, CleanupFunc)
type ActivitySourceFactory func(t *testing.T) (activityrepoport.Source, SeedFunc, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	user := domain.UserID("user-" + uuid.NewString())
	meta := idempotencyport.Fingerprint{
		Key:      "k-1",
		UserID:   user,
		Method:   "POST",
		Route:    "/ai/generate-plan",
		BodyHash: "",
	}
	rec := idempotencyport.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte("hash-abc"),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Put(ctx, meta, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, meta)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != "hash-abc" || got.ContentType != "text/plain" || got.StatusCode != 0 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte("hash-def")
	if err := store.Put(ctx, meta, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, meta)
	if err != nil || !ok || string(got.Body) != "hash-def" {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	// The response record is a different fingerprint from the metadata record.
	resp := meta
	resp.BodyHash = "hash-def"
	if _, ok, err := store.Get(ctx, resp); err != nil || ok {
		t.Fatalf("expected miss for response fingerprint, got ok=%v err=%v", ok, err)
	}
}

func RunProfileRepo(t *testing.T, newRepo ProfileRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	user := domain.UserID("user-" + uuid.NewString())
	if _, err := repo.Get(ctx, user); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("Get missing: err=%v, want ErrNotFound", err)
	}

	created := time.Unix(1000, 0).UTC()
	name := "Sam Lee"
	sex := domain.SexFemale
	birth := time.Date(1990, time.April, 2, 0, 0, 0, 0, time.UTC)
	height := 165.5
	goal := domain.GoalLongevity
	resting := 61
	rec := profilerepoport.Record{
		UserID:    user,
		Name:      &name,
		Sex:       &sex,
		Birthdate: &birth,
		HeightCm:  &height,
		Goal:      &goal,
		Allergies: []string{"peanuts"},
		Advanced: domain.AdvancedProfile{
			SchemaVersion: domain.CurrentSchemaVersion,
			Chronotype:    domain.ChronotypeOwl,
			Supplements:   []string{"creatine"},
		},
		Targets: &domain.Targets{
			SchemaVersion:    domain.CurrentSchemaVersion,
			Source:           domain.TargetsOverride,
			TargetCalories:   2100,
			ProteinG:         120,
			CarbsG:           230,
			FatG:             60,
			HydrationMl:      2600,
			SleepHours:       7.5,
			RestingHeartRate: &resting,
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert create: %v", err)
	}

	got, err := repo.Get(ctx, user)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name == nil || *got.Name != name || got.Sex == nil || *got.Sex != sex {
		t.Fatalf("unexpected name/sex: %+v", got)
	}
	if got.Birthdate == nil || !got.Birthdate.Equal(birth) {
		t.Fatalf("Birthdate=%v, want %v", got.Birthdate, birth)
	}
	if got.WeightKg != nil || got.Activity != nil {
		t.Fatalf("unset fields must stay nil: %+v", got)
	}
	if len(got.Allergies) != 1 || got.Allergies[0] != "peanuts" {
		t.Fatalf("Allergies=%q", got.Allergies)
	}
	if got.Advanced.Chronotype != domain.ChronotypeOwl || len(got.Advanced.Supplements) != 1 {
		t.Fatalf("Advanced=%+v", got.Advanced)
	}
	if got.Targets == nil || got.Targets.TargetCalories != 2100 || got.Targets.Source != domain.TargetsOverride ||
		got.Targets.RestingHeartRate == nil || *got.Targets.RestingHeartRate != 61 || got.Targets.MaxHeartRate != nil {
		t.Fatalf("Targets=%+v", got.Targets)
	}

	// Upsert by user id replaces the row and keeps CreatedAt.
	updated := created.Add(time.Hour)
	weight := 58.0
	rec.WeightKg = &weight
	rec.Targets = nil
	rec.CreatedAt = updated
	rec.UpdatedAt = updated
	if err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	got, err = repo.Get(ctx, user)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got.WeightKg == nil || *got.WeightKg != weight || got.Targets != nil {
		t.Fatalf("update not applied: %+v", got)
	}
	if !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(updated) {
		t.Fatalf("CreatedAt=%v UpdatedAt=%v", got.CreatedAt, got.UpdatedAt)
	}

	// Answers upsert by (user, key) and list ordered by key.
	if err := repo.UpsertAnswers(ctx, []profilerepoport.Answer{
		{UserID: user, QuestionKey: "sleep_quality", Answer: "poor", UpdatedAt: created},
		{UserID: user, QuestionKey: "chronotype", Answer: "owl", UpdatedAt: created},
	}); err != nil {
		t.Fatalf("UpsertAnswers: %v", err)
	}
	if err := repo.UpsertAnswers(ctx, []profilerepoport.Answer{
		{UserID: user, QuestionKey: "sleep_quality", Answer: "better", UpdatedAt: updated},
	}); err != nil {
		t.Fatalf("UpsertAnswers again: %v", err)
	}
	answers, err := repo.ListAnswers(ctx, user)
	if err != nil {
		t.Fatalf("ListAnswers: %v", err)
	}
	if len(answers) != 2 || answers[0].QuestionKey != "chronotype" || answers[1].Answer != "better" {
		t.Fatalf("ListAnswers=%+v", answers)
	}

	other, err := repo.ListAnswers(ctx, domain.UserID("user-"+uuid.NewString()))
	if err != nil || len(other) != 0 {
		t.Fatalf("ListAnswers for other user: %+v err=%v", other, err)
	}
}

func RunPlanRepo(t *testing.T, newRepo PlanRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	user := domain.UserID("user-" + uuid.NewString())
	base := time.Unix(5000, 0).UTC()
	for i, kind := range []planrepoport.Kind{planrepoport.KindPlan, planrepoport.KindReply, planrepoport.KindPlan} {
		if err := repo.Save(ctx, planrepoport.Plan{
			ID:        domain.PlanID(uuid.NewString()),
			UserID:    user,
			Kind:      kind,
			Content:   "content",
			Notes:     "notes",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	got, err := repo.ListRecent(ctx, user, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListRecent len=%d, want 2", len(got))
	}
	if !got[0].CreatedAt.Equal(base.Add(2*time.Minute)) || got[1].Kind != planrepoport.KindReply {
		t.Fatalf("ListRecent order: %+v", got)
	}

	none, err := repo.ListRecent(ctx, domain.UserID("user-"+uuid.NewString()), 5)
	if err != nil || len(none) != 0 {
		t.Fatalf("ListRecent other user: %+v err=%v", none, err)
	}
}

func RunActivitySource(t *testing.T, newSource ActivitySourceFactory) {
	t.Helper()
	ctx := context.Background()

	src, seed, cleanup := newSource(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	user := domain.UserID("user-" + uuid.NewString())
	base := time.Unix(10_000, 0).UTC()
	var recs []domain.ActivityRecord
	for _, offset := range []int{3, 0, 6, 1, 5, 2, 4} {
		recs = append(recs, domain.ActivityRecord{
			ID:         uuid.NewString(),
			OccurredAt: base.Add(time.Duration(offset) * time.Hour),
			Payload:    []byte(`{"note":"x"}`),
		})
	}
	seed(t, user, domain.DomainTraining, recs...)
	seed(t, domain.UserID("user-"+uuid.NewString()), domain.DomainTraining, domain.ActivityRecord{
		ID:         uuid.NewString(),
		OccurredAt: base.Add(100 * time.Hour),
	})

	got, err := src.Recent(ctx, user, domain.DomainTraining, 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("Recent len=%d, want 5", len(got))
	}
	for i, r := range got {
		want := base.Add(time.Duration(6-i) * time.Hour)
		if !r.OccurredAt.Equal(want) {
			t.Fatalf("Recent[%d].OccurredAt=%v, want %v", i, r.OccurredAt, want)
		}
	}

	empty, err := src.Recent(ctx, user, domain.DomainPain, 5)
	if err != nil {
		t.Fatalf("Recent empty domain: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("Recent empty domain len=%d", len(empty))
	}
}
