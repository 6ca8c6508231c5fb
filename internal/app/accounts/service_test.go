package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	memclock "github.com/vitalcoach/coach-api/internal/adapters/memory/clock"
	memprofilerepo "github.com/vitalcoach/coach-api/internal/adapters/memory/profilerepo"
	"github.com/vitalcoach/coach-api/internal/app/targets"
	"github.com/vitalcoach/coach-api/internal/domain"
)

var testNow = time.Date(2024, time.October, 1, 9, 0, 0, 0, time.UTC)

func newService() (*Service, *memprofilerepo.Repo) {
	repo := memprofilerepo.NewRepo()
	return NewService(repo, memclock.NewManualClock(testNow)), repo
}

func TestService_GetProfile_NotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	_, err := svc.GetProfile(context.Background(), "user-1")
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 404 || ae.Code != "PROFILE_NOT_FOUND" {
		t.Fatalf("err=%v (type=%T), want PROFILE_NOT_FOUND 404", err, err)
	}
}

func TestService_UpsertThenGet(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.UpsertProfile(ctx, "user-1", UpsertProfileInput{
		Name:       Some("  Alice   Smith "),
		Sex:        Some(domain.SexFemale),
		WeightKg:   Some(62.5),
		Allergies:  Some([]string{"shellfish", " Shellfish "}),
		Chronotype: Some(domain.ChronotypeLark),
	})
	if err != nil {
		t.Fatalf("UpsertProfile err=%v", err)
	}

	got, err := svc.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetProfile err=%v", err)
	}
	p := got.Profile
	if p.Name == nil || *p.Name != "Alice Smith" {
		t.Fatalf("name=%v", p.Name)
	}
	if p.WeightKg == nil || *p.WeightKg != 62.5 || p.HeightCm != nil {
		t.Fatalf("weight=%v height=%v", p.WeightKg, p.HeightCm)
	}
	if len(p.Allergies) != 1 {
		t.Fatalf("allergies=%q", p.Allergies)
	}
	if p.Advanced.Chronotype != domain.ChronotypeLark {
		t.Fatalf("chronotype=%q", p.Advanced.Chronotype)
	}
	if len(got.OnboardingAnswers) != 0 {
		t.Fatalf("answers=%v", got.OnboardingAnswers)
	}
}

func TestService_UpsertProfile_UnspecifiedKeepsNullClears(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.UpsertProfile(ctx, "user-1", UpsertProfileInput{
		Name:      Some("Alice"),
		HeightCm:  Some(170.0),
		Injuries:  Some([]string{"knee"}),
		BloodType: Some("A+"),
	}); err != nil {
		t.Fatalf("UpsertProfile err=%v", err)
	}

	updated, err := svc.UpsertProfile(ctx, "user-1", UpsertProfileInput{
		Name:      Null[string](),
		Injuries:  Null[[]string](),
		BloodType: Null[string](),
	})
	if err != nil {
		t.Fatalf("UpsertProfile err=%v", err)
	}
	if updated.Name != nil || len(updated.Injuries) != 0 || updated.Advanced.BloodType != "" {
		t.Fatalf("expected cleared fields, got %+v", updated)
	}
	if updated.HeightCm == nil || *updated.HeightCm != 170 {
		t.Fatalf("unspecified height must be kept: %v", updated.HeightCm)
	}
}

func TestService_UpsertProfile_Validation(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		in    UpsertProfileInput
		field string
	}{
		"null required":    {UpsertProfileInput{WeightKg: Null[float64]()}, "weight_kg"},
		"zero height":      {UpsertProfileInput{HeightCm: Some(0.0)}, "height_cm"},
		"future birthdate": {UpsertProfileInput{Birthdate: Some(testNow.AddDate(0, 0, 1))}, "birthdate"},
		"unknown goal":     {UpsertProfileInput{Goal: Some(domain.Goal("bulk"))}, "goal"},
		"bad chronotype":   {UpsertProfileInput{Chronotype: Some(domain.Chronotype("night"))}, "chronotype"},
		"bad targets":      {UpsertProfileInput{Targets: Some(domain.Targets{TargetCalories: 0, HydrationMl: 1, SleepHours: 8})}, "targets.target_calories"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			svc, repo := newService()
			_, err := svc.UpsertProfile(context.Background(), "user-1", tc.in)
			ae := (*Error)(nil)
			if !errors.As(err, &ae) || ae.Status != 422 {
				t.Fatalf("err=%v, want 422 validation error", err)
			}
			if _, ok := ae.Details[tc.field]; !ok {
				t.Fatalf("details=%v, want key %q", ae.Details, tc.field)
			}
			if _, err := repo.Get(context.Background(), "user-1"); err == nil {
				t.Fatalf("invalid payload must not be persisted")
			}
		})
	}
}

func TestService_UpsertOnboardingAnswers(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.UpsertOnboardingAnswers(ctx, "user-1", []domain.OnboardingAnswer{
		{QuestionKey: "a", Answer: "1"},
		{QuestionKey: "a", Answer: "2"},
	}); err == nil {
		t.Fatalf("expected duplicate key rejection")
	}

	saved, err := svc.UpsertOnboardingAnswers(ctx, "user-1", []domain.OnboardingAnswer{
		{QuestionKey: " chronotype ", Answer: " owl "},
		{QuestionKey: "budget_notes", Answer: "cheap"},
	})
	if err != nil {
		t.Fatalf("UpsertOnboardingAnswers err=%v", err)
	}
	if saved[0].QuestionKey != "chronotype" || saved[0].Answer != "owl" {
		t.Fatalf("saved=%+v", saved)
	}

	if _, err := svc.UpsertProfile(ctx, "user-1", UpsertProfileInput{Sex: Some(domain.SexMale)}); err != nil {
		t.Fatalf("UpsertProfile err=%v", err)
	}
	got, err := svc.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetProfile err=%v", err)
	}
	if len(got.OnboardingAnswers) != 2 || got.OnboardingAnswers[0].QuestionKey != "budget_notes" {
		t.Fatalf("answers=%+v", got.OnboardingAnswers)
	}
}

func TestService_Snapshot(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.Snapshot(ctx, "user-1"); err == nil {
		t.Fatalf("expected not found")
	}

	birth := time.Date(1994, time.January, 15, 0, 0, 0, 0, time.UTC)
	if _, err := svc.UpsertProfile(ctx, "user-1", UpsertProfileInput{
		Sex:       Some(domain.SexMale),
		Birthdate: Some(birth),
		HeightCm:  Some(180.0),
		WeightKg:  Some(80.0),
		Goal:      Some(domain.GoalFatLoss),
	}); err != nil {
		t.Fatalf("UpsertProfile err=%v", err)
	}
	if _, err := svc.UpsertOnboardingAnswers(ctx, "user-1", []domain.OnboardingAnswer{
		{QuestionKey: domain.AnswerReproductiveStatus, Answer: "none"},
	}); err != nil {
		t.Fatalf("UpsertOnboardingAnswers err=%v", err)
	}

	b, err := svc.Snapshot(ctx, "user-1")
	if err != nil {
		t.Fatalf("Snapshot err=%v", err)
	}
	if b.Profile.Activity != domain.ActivityModerate || b.Profile.Diet != domain.DietBalanced {
		t.Fatalf("unset attributes must default: %+v", b.Profile)
	}
	if want := targets.Calculate(b.Profile, testNow); b.Targets.TargetCalories != want.TargetCalories {
		t.Fatalf("targets=%+v, want computed %+v", b.Targets, want)
	}
	if b.Advanced.ReproductiveStatus != domain.ReproductiveNone {
		t.Fatalf("advanced=%+v", b.Advanced)
	}

	override := domain.Targets{Source: domain.TargetsOverride, TargetCalories: 1800, ProteinG: 150, CarbsG: 150, FatG: 60, HydrationMl: 3000, SleepHours: 8}
	if _, err := svc.UpsertProfile(ctx, "user-1", UpsertProfileInput{Targets: Some(override)}); err != nil {
		t.Fatalf("UpsertProfile err=%v", err)
	}
	b, err = svc.Snapshot(ctx, "user-1")
	if err != nil {
		t.Fatalf("Snapshot err=%v", err)
	}
	if b.Targets.TargetCalories != 1800 || !b.Targets.IsOverride() {
		t.Fatalf("stored targets must win: %+v", b.Targets)
	}
}

func TestService_UpsertProfile_MaterialChangeDropsComputedTargets(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	ctx := context.Background()

	birth := time.Date(1994, time.January, 15, 0, 0, 0, 0, time.UTC)
	full := UpsertProfileInput{
		Sex:       Some(domain.SexMale),
		Birthdate: Some(birth),
		HeightCm:  Some(180.0),
		WeightKg:  Some(80.0),
		Goal:      Some(domain.GoalFatLoss),
		Activity:  Some(domain.ActivityModerate),
	}
	if _, err := svc.UpsertProfile(ctx, "user-1", full); err != nil {
		t.Fatalf("UpsertProfile err=%v", err)
	}
	b, err := svc.Snapshot(ctx, "user-1")
	if err != nil {
		t.Fatalf("Snapshot err=%v", err)
	}
	full.Targets = Some(b.Targets)
	if _, err := svc.UpsertProfile(ctx, "user-1", full); err != nil {
		t.Fatalf("UpsertProfile(targets) err=%v", err)
	}

	if _, err := svc.UpsertProfile(ctx, "user-1", UpsertProfileInput{WeightKg: Some(120.0)}); err != nil {
		t.Fatalf("UpsertProfile(weight) err=%v", err)
	}
	b, err = svc.Snapshot(ctx, "user-1")
	if err != nil {
		t.Fatalf("Snapshot err=%v", err)
	}
	if b.Profile.WeightKg != 120 {
		t.Fatalf("weight=%v, want 120", b.Profile.WeightKg)
	}
	want := targets.Calculate(b.Profile, testNow)
	if b.Targets.TargetCalories != want.TargetCalories || b.Targets.ProteinG != want.ProteinG || b.Targets.IsOverride() {
		t.Fatalf("targets=%+v, want recomputed %+v", b.Targets, want)
	}

	// Non-material edits keep stored targets; overrides survive material edits.
	override := domain.Targets{Source: domain.TargetsOverride, TargetCalories: 1800, ProteinG: 150, CarbsG: 150, FatG: 60, HydrationMl: 3000, SleepHours: 8}
	if _, err := svc.UpsertProfile(ctx, "user-1", UpsertProfileInput{Targets: Some(override)}); err != nil {
		t.Fatalf("UpsertProfile(override) err=%v", err)
	}
	if _, err := svc.UpsertProfile(ctx, "user-1", UpsertProfileInput{WeightKg: Some(70.0)}); err != nil {
		t.Fatalf("UpsertProfile(weight) err=%v", err)
	}
	b, err = svc.Snapshot(ctx, "user-1")
	if err != nil {
		t.Fatalf("Snapshot err=%v", err)
	}
	if !b.Targets.IsOverride() || b.Targets.TargetCalories != 1800 {
		t.Fatalf("override lost: %+v", b.Targets)
	}
}
