// Package targets derives daily nutrition and recovery targets from a profile.
//
// Everything here is pure: no I/O, no clock reads. Callers validate the profile
// (positive height and weight, known enums) before calling Calculate.
package targets

import (
	"math"
	"time"

	"github.com/vitalcoach/coach-api/internal/domain"
)

// Mifflin-St Jeor sex constants. Other uses the midpoint of the male and female constants.
const (
	bmrConstMale   = 5.0
	bmrConstFemale = -161.0
	bmrConstOther  = (bmrConstMale + bmrConstFemale) / 2
)

// Resting heart rate estimates used until a measurement exists. These are population
// defaults, not measurements.
const (
	RestingHeartRateMale   = 70
	RestingHeartRateFemale = 75
	RestingHeartRateOther  = 72
)

const (
	fatShareOfCalories = 0.25
	kcalPerGramProtein = 4
	kcalPerGramCarb    = 4
	kcalPerGramFat     = 9
	mlPerKg            = 35
	maxHeartRateBase   = 220
)

// Calculate returns computed targets for p at time now.
func Calculate(p domain.Profile, now time.Time) domain.Targets {
	age := p.AgeAt(now)

	calories := DailyCalories(BMR(p.Sex, p.WeightKg, p.HeightCm, age), p.Activity, p.Goal)

	protein := int(math.Round(p.WeightKg * ProteinFactor(p.Goal)))
	fat := int(float64(calories) * fatShareOfCalories / kcalPerGramFat)
	carbs := (calories - protein*kcalPerGramProtein - fat*kcalPerGramFat) / kcalPerGramCarb
	if carbs < 0 {
		carbs = 0
	}

	hydration := int(math.Round(p.WeightKg*mlPerKg)) + HydrationBonus(p.Activity)
	resting := RestingHeartRate(p.Sex)
	maxHR := maxHeartRateBase - age

	return domain.Targets{
		SchemaVersion:    domain.CurrentSchemaVersion,
		Source:           domain.TargetsComputed,
		TargetCalories:   calories,
		ProteinG:         protein,
		CarbsG:           carbs,
		FatG:             fat,
		HydrationMl:      hydration,
		SleepHours:       SleepHours(age),
		RestingHeartRate: &resting,
		MaxHeartRate:     &maxHR,
	}
}

// BMR is the Mifflin-St Jeor basal metabolic rate in kcal/day.
func BMR(sex domain.Sex, weightKg, heightCm float64, age int) float64 {
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	switch sex {
	case domain.SexMale:
		return base + bmrConstMale
	case domain.SexFemale:
		return base + bmrConstFemale
	default:
		return base + bmrConstOther
	}
}

// DailyCalories scales a BMR to TDEE by activity, applies the goal factor and truncates to whole kcal.
func DailyCalories(bmr float64, a domain.ActivityLevel, g domain.Goal) int {
	return int(bmr * ActivityMultiplier(a) * GoalFactor(g))
}

func ActivityMultiplier(a domain.ActivityLevel) float64 {
	switch a {
	case domain.ActivitySedentary:
		return 1.2
	case domain.ActivityLight:
		return 1.375
	case domain.ActivityModerate:
		return 1.55
	case domain.ActivityHigh:
		return 1.725
	case domain.ActivityAthlete:
		return 1.9
	}
	return 1.55
}

// HydrationBonus is the extra daily water in ml for an activity level.
func HydrationBonus(a domain.ActivityLevel) int {
	switch a {
	case domain.ActivitySedentary:
		return 0
	case domain.ActivityLight:
		return 250
	case domain.ActivityModerate:
		return 500
	case domain.ActivityHigh:
		return 750
	case domain.ActivityAthlete:
		return 1000
	}
	return 500
}

func GoalFactor(g domain.Goal) float64 {
	switch g {
	case domain.GoalFatLoss:
		return 0.8
	case domain.GoalRecomposition:
		return 0.95
	case domain.GoalMuscleGain:
		return 1.1
	case domain.GoalPerformance:
		return 1.05
	case domain.GoalLongevity:
		return 0.9
	}
	return 1.0
}

// ProteinFactor is grams of protein per kg of body weight.
func ProteinFactor(g domain.Goal) float64 {
	switch g {
	case domain.GoalFatLoss, domain.GoalRecomposition:
		return 2.2
	case domain.GoalMuscleGain, domain.GoalPerformance:
		return 2.0
	case domain.GoalLongevity:
		return 1.6
	}
	return 1.8
}

func SleepHours(age int) float64 {
	switch {
	case age < 18:
		return 9.0
	case age < 65:
		return 8.0
	}
	return 7.5
}

func RestingHeartRate(sex domain.Sex) int {
	switch sex {
	case domain.SexMale:
		return RestingHeartRateMale
	case domain.SexFemale:
		return RestingHeartRateFemale
	}
	return RestingHeartRateOther
}
