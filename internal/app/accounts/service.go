// Package accounts is the remote source of truth for a user's profile and onboarding answers.
package accounts

import (
	"context"
	"errors"

	"github.com/vitalcoach/coach-api/internal/app/targets"
	"github.com/vitalcoach/coach-api/internal/domain"
	clockport "github.com/vitalcoach/coach-api/internal/ports/out/clock"
	"github.com/vitalcoach/coach-api/internal/ports/out/profilerepo"
)

type Service struct {
	repo profilerepo.Repository
	clk  clockport.Clock
}

func NewService(repo profilerepo.Repository, clk clockport.Clock) *Service {
	return &Service{repo: repo, clk: clk}
}

func (s *Service) GetProfile(ctx context.Context, userID domain.UserID) (ProfileWithAnswers, error) {
	rec, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return ProfileWithAnswers{}, notFound()
		}
		return ProfileWithAnswers{}, err
	}
	answers, err := s.repo.ListAnswers(ctx, userID)
	if err != nil {
		return ProfileWithAnswers{}, err
	}
	return ProfileWithAnswers{
		Profile:           toStored(rec),
		OnboardingAnswers: toDomainAnswers(answers),
	}, nil
}

// UpsertProfile applies in to the stored record, creating it on first write.
func (s *Service) UpsertProfile(ctx context.Context, userID domain.UserID, in UpsertProfileInput) (StoredProfile, error) {
	now := s.clk.Now()
	rec, err := s.repo.Get(ctx, userID)
	switch {
	case errors.Is(err, profilerepo.ErrNotFound):
		rec = profilerepo.Record{UserID: userID, CreatedAt: now}
	case err != nil:
		return StoredProfile{}, err
	}
	prev := effectiveProfile(rec, now)

	details := map[string]any{}
	setRequired(&rec.Sex, in.Sex, "sex", details)
	setRequired(&rec.Birthdate, in.Birthdate, "birthdate", details)
	setRequired(&rec.HeightCm, in.HeightCm, "height_cm", details)
	setRequired(&rec.WeightKg, in.WeightKg, "weight_kg", details)
	setRequired(&rec.Goal, in.Goal, "goal", details)
	setRequired(&rec.Activity, in.Activity, "activity", details)
	setRequired(&rec.Diet, in.Diet, "diet", details)
	if len(details) > 0 {
		return StoredProfile{}, validation("invalid profile", details)
	}

	if in.Name.IsSpecified() {
		if in.Name.IsNull() {
			rec.Name = nil
		} else {
			name := domain.NormalizeHumanName(in.Name.Value())
			rec.Name = &name
		}
	}
	setList(&rec.Allergies, in.Allergies)
	setList(&rec.Injuries, in.Injuries)
	setList(&rec.Equipment, in.Equipment)

	adv := rec.Advanced
	setString(&adv.BloodType, in.BloodType)
	setString(&adv.BudgetNotes, in.BudgetNotes)
	if in.Chronotype.IsSpecified() {
		adv.Chronotype = in.Chronotype.Value()
	}
	if in.ReproductiveStatus.IsSpecified() {
		adv.ReproductiveStatus = in.ReproductiveStatus.Value()
	}
	setList(&adv.KnownConditions, in.KnownConditions)
	setList(&adv.Supplements, in.Supplements)
	setList(&adv.FoodDislikes, in.FoodDislikes)
	adv = adv.Normalized()
	for k, v := range adv.Problems() {
		details[snakeCase(k)] = v
	}
	rec.Advanced = adv

	if in.Targets.IsSpecified() {
		if in.Targets.IsNull() {
			rec.Targets = nil
		} else {
			t := in.Targets.Value().Clone()
			t.SchemaVersion = domain.CurrentSchemaVersion
			if t.Source == "" {
				t.Source = domain.TargetsComputed
			}
			for k, v := range t.Problems() {
				details["targets."+snakeCase(k)] = v
			}
			rec.Targets = &t
		}
	}

	eff := effectiveProfile(rec, now)
	for k, v := range eff.Problems(now) {
		details[snakeCase(k)] = v
	}
	// Stored computed targets describe the previous body; Snapshot recomputes when none are stored.
	if !in.Targets.IsSpecified() && rec.Targets != nil && !rec.Targets.IsOverride() && eff.MateriallyDiffers(prev) {
		rec.Targets = nil
	}
	if len(details) > 0 {
		return StoredProfile{}, validation("invalid profile", details)
	}

	rec.UpdatedAt = now
	if err := s.repo.Upsert(ctx, rec); err != nil {
		return StoredProfile{}, err
	}
	return toStored(rec), nil
}

// UpsertOnboardingAnswers stores answers keyed by (user, question key). The payload is
// rejected as a whole if any row is invalid.
func (s *Service) UpsertOnboardingAnswers(ctx context.Context, userID domain.UserID, answers []domain.OnboardingAnswer) ([]domain.OnboardingAnswer, error) {
	clean, problems := domain.ValidateOnboardingAnswers(answers)
	if len(problems) > 0 {
		return nil, validation("invalid onboarding answers", problems)
	}
	now := s.clk.Now()
	rows := make([]profilerepo.Answer, 0, len(clean))
	for _, a := range clean {
		rows = append(rows, profilerepo.Answer{
			UserID:      userID,
			QuestionKey: a.QuestionKey,
			Answer:      a.Answer,
			UpdatedAt:   now,
		})
	}
	if err := s.repo.UpsertAnswers(ctx, rows); err != nil {
		return nil, err
	}
	return clean, nil
}

// Snapshot assembles the bundle plan generation consumes. Unset attributes fall back to
// defaults; targets fall back to a fresh computation.
func (s *Service) Snapshot(ctx context.Context, userID domain.UserID) (domain.ProfileBundle, error) {
	rec, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return domain.ProfileBundle{}, notFound()
		}
		return domain.ProfileBundle{}, err
	}
	answers, err := s.repo.ListAnswers(ctx, userID)
	if err != nil {
		return domain.ProfileBundle{}, err
	}

	now := s.clk.Now()
	p := effectiveProfile(rec, now)
	t := targets.Calculate(p, now)
	if rec.Targets != nil {
		t = rec.Targets.Clone()
	}
	return domain.ProfileBundle{
		Profile:  p,
		Targets:  t,
		Advanced: domain.ApplyOnboardingAnswers(rec.Advanced, toDomainAnswers(answers)),
	}, nil
}
