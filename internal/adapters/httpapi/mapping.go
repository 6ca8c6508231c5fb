package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/vitalcoach/coach-api/internal/adapters/httpapi/oas"
	"github.com/vitalcoach/coach-api/internal/app/accounts"
	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/ports/out/planrepo"
)

func optional[T, U any](n nullable.Nullable[T], conv func(T) U) accounts.Optional[U] {
	if !n.IsSpecified() {
		return accounts.Unspecified[U]()
	}
	if n.IsNull() {
		return accounts.Null[U]()
	}
	v, err := n.Get()
	if err != nil {
		return accounts.Unspecified[U]()
	}
	return accounts.Some(conv(v))
}

func same[T any](v T) T { return v }

func dateToTime(d openapi_types.Date) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func updateProfileInputFromOAS(b oas.UpdateProfileRequest) accounts.UpsertProfileInput {
	return accounts.UpsertProfileInput{
		Name:      optional(b.Name, same[string]),
		Sex:       optional(b.Sex, func(s string) domain.Sex { return domain.Sex(s) }),
		Birthdate: optional(b.Birthdate, dateToTime),
		HeightCm:  optional(b.HeightCm, same[float64]),
		WeightKg:  optional(b.WeightKg, same[float64]),
		Goal:      optional(b.Goal, func(s string) domain.Goal { return domain.Goal(s) }),
		Activity:  optional(b.Activity, func(s string) domain.ActivityLevel { return domain.ActivityLevel(s) }),
		Diet:      optional(b.Diet, func(s string) domain.Diet { return domain.Diet(s) }),
		Allergies: optional(b.Allergies, same[[]string]),
		Injuries:  optional(b.Injuries, same[[]string]),
		Equipment: optional(b.Equipment, same[[]string]),

		BloodType:          optional(b.BloodType, same[string]),
		Chronotype:         optional(b.Chronotype, func(s string) domain.Chronotype { return domain.Chronotype(s) }),
		ReproductiveStatus: optional(b.ReproductiveStatus, func(s string) domain.ReproductiveStatus { return domain.ReproductiveStatus(s) }),
		KnownConditions:    optional(b.KnownConditions, same[[]string]),
		Supplements:        optional(b.Supplements, same[[]string]),
		FoodDislikes:       optional(b.FoodDislikes, same[[]string]),
		BudgetNotes:        optional(b.BudgetNotes, same[string]),

		Targets: optional(b.Targets, targetsFromOAS),
	}
}

func targetsFromOAS(t oas.Targets) domain.Targets {
	out := domain.Targets{
		Source:         domain.TargetsSource(t.Source),
		TargetCalories: t.TargetCalories,
		ProteinG:       t.ProteinG,
		CarbsG:         t.CarbsG,
		FatG:           t.FatG,
		HydrationMl:    t.HydrationMl,
		SleepHours:     t.SleepHours,
	}
	if v, err := t.RestingHeartRate.Get(); err == nil {
		out.RestingHeartRate = &v
	}
	if v, err := t.MaxHeartRate.Get(); err == nil {
		out.MaxHeartRate = &v
	}
	return out
}

func targetsToOAS(t domain.Targets) oas.Targets {
	return oas.Targets{
		Source:           string(t.Source),
		TargetCalories:   t.TargetCalories,
		ProteinG:         t.ProteinG,
		CarbsG:           t.CarbsG,
		FatG:             t.FatG,
		HydrationMl:      t.HydrationMl,
		SleepHours:       t.SleepHours,
		RestingHeartRate: nullableFrom(t.RestingHeartRate, same[int]),
		MaxHeartRate:     nullableFrom(t.MaxHeartRate, same[int]),
	}
}

// nullableFrom always yields a specified value: p's converted value, or null.
func nullableFrom[T, U any](p *T, conv func(T) U) nullable.Nullable[U] {
	if p == nil {
		return nullable.NewNullNullable[U]()
	}
	return nullable.NewNullableWithValue(conv(*p))
}

func nullableString(s string) nullable.Nullable[string] {
	if s == "" {
		return nullable.NewNullNullable[string]()
	}
	return nullable.NewNullableWithValue(s)
}

func nonNilList(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}

func profileToOAS(p accounts.StoredProfile) oas.Profile {
	out := oas.Profile{
		Name:      nullableFrom(p.Name, same[string]),
		Sex:       nullableFrom(p.Sex, func(v domain.Sex) string { return string(v) }),
		Birthdate: nullableFrom(p.Birthdate, func(t time.Time) openapi_types.Date { return openapi_types.Date{Time: t} }),
		HeightCm:  nullableFrom(p.HeightCm, same[float64]),
		WeightKg:  nullableFrom(p.WeightKg, same[float64]),
		Goal:      nullableFrom(p.Goal, func(v domain.Goal) string { return string(v) }),
		Activity:  nullableFrom(p.Activity, func(v domain.ActivityLevel) string { return string(v) }),
		Diet:      nullableFrom(p.Diet, func(v domain.Diet) string { return string(v) }),
		Allergies: nonNilList(p.Allergies),
		Injuries:  nonNilList(p.Injuries),
		Equipment: nonNilList(p.Equipment),

		BloodType:          nullableString(p.Advanced.BloodType),
		Chronotype:         nullableString(string(p.Advanced.Chronotype)),
		ReproductiveStatus: nullableString(string(p.Advanced.ReproductiveStatus)),
		KnownConditions:    nonNilList(p.Advanced.KnownConditions),
		Supplements:        nonNilList(p.Advanced.Supplements),
		FoodDislikes:       nonNilList(p.Advanced.FoodDislikes),
		BudgetNotes:        nullableString(p.Advanced.BudgetNotes),

		Targets:   nullableFrom(p.Targets, targetsToOAS),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
	return out
}

func answersToOAS(in []domain.OnboardingAnswer) []oas.OnboardingAnswer {
	out := make([]oas.OnboardingAnswer, 0, len(in))
	for _, a := range in {
		out = append(out, oas.OnboardingAnswer{QuestionKey: a.QuestionKey, Answer: a.Answer})
	}
	return out
}

func answersFromOAS(in []oas.OnboardingAnswer) []domain.OnboardingAnswer {
	out := make([]domain.OnboardingAnswer, 0, len(in))
	for _, a := range in {
		out = append(out, domain.OnboardingAnswer{QuestionKey: a.QuestionKey, Answer: a.Answer})
	}
	return out
}

func storedPlanToOAS(p planrepo.Plan) oas.StoredPlan {
	return oas.StoredPlan{
		PlanId:    string(p.ID),
		Kind:      string(p.Kind),
		Content:   p.Content,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt.UTC(),
	}
}
