package domain

import (
	"math"
	"time"
)

// CurrentSchemaVersion is written into every persisted profile document.
const CurrentSchemaVersion = 1

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

func (s Sex) Valid() bool {
	switch s {
	case SexMale, SexFemale, SexOther:
		return true
	}
	return false
}

type Goal string

const (
	GoalFatLoss       Goal = "fatLoss"
	GoalMaintain      Goal = "maintain"
	GoalMuscleGain    Goal = "muscleGain"
	GoalRecomposition Goal = "recomposition"
	GoalPerformance   Goal = "performance"
	GoalLongevity     Goal = "longevity"
)

// Goals lists every goal in display order.
var Goals = []Goal{GoalFatLoss, GoalMaintain, GoalMuscleGain, GoalRecomposition, GoalPerformance, GoalLongevity}

func (g Goal) Valid() bool {
	for _, v := range Goals {
		if g == v {
			return true
		}
	}
	return false
}

// Label is the human-readable form used in coach context.
func (g Goal) Label() string {
	switch g {
	case GoalFatLoss:
		return "fat loss"
	case GoalMaintain:
		return "maintain"
	case GoalMuscleGain:
		return "muscle gain"
	case GoalRecomposition:
		return "recomposition"
	case GoalPerformance:
		return "performance"
	case GoalLongevity:
		return "longevity"
	}
	return string(g)
}

type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityLight     ActivityLevel = "light"
	ActivityModerate  ActivityLevel = "moderate"
	ActivityHigh      ActivityLevel = "high"
	ActivityAthlete   ActivityLevel = "athlete"
)

// ActivityLevels lists every level from least to most active.
var ActivityLevels = []ActivityLevel{ActivitySedentary, ActivityLight, ActivityModerate, ActivityHigh, ActivityAthlete}

func (a ActivityLevel) Valid() bool {
	for _, v := range ActivityLevels {
		if a == v {
			return true
		}
	}
	return false
}

type Diet string

const (
	DietBalanced      Diet = "balanced"
	DietPlantBased    Diet = "plantBased"
	DietLowCarb       Diet = "lowCarb"
	DietHighProtein   Diet = "highProtein"
	DietMediterranean Diet = "mediterranean"
	DietVegetarian    Diet = "vegetarian"
)

func (d Diet) Valid() bool {
	switch d {
	case DietBalanced, DietPlantBased, DietLowCarb, DietHighProtein, DietMediterranean, DietVegetarian:
		return true
	}
	return false
}

func (d Diet) Label() string {
	switch d {
	case DietPlantBased:
		return "plant-based"
	case DietLowCarb:
		return "low carb"
	case DietHighProtein:
		return "high protein"
	}
	return string(d)
}

// Profile is the user's canonical personal profile.
type Profile struct {
	SchemaVersion int `json:"schemaVersion"`

	Name      string        `json:"name"`
	Sex       Sex           `json:"sex"`
	Birthdate time.Time     `json:"birthdate"`
	HeightCm  float64       `json:"heightCm"`
	WeightKg  float64       `json:"weightKg"`
	Goal      Goal          `json:"goal"`
	Activity  ActivityLevel `json:"activity"`
	Diet      Diet          `json:"diet"`

	Allergies []string `json:"allergies"`
	Injuries  []string `json:"injuries"`
	Equipment []string `json:"equipment"`
}

// DefaultProfile is substituted when no profile is stored yet or the stored one was unreadable.
func DefaultProfile(now time.Time) Profile {
	return Profile{
		SchemaVersion: CurrentSchemaVersion,
		Sex:           SexOther,
		Birthdate:     time.Date(now.Year()-30, time.January, 1, 0, 0, 0, 0, time.UTC),
		HeightCm:      170,
		WeightKg:      70,
		Goal:          GoalMaintain,
		Activity:      ActivityModerate,
		Diet:          DietBalanced,
		Allergies:     []string{},
		Injuries:      []string{},
		Equipment:     []string{},
	}
}

// Normalized returns a copy with trimmed strings, normalized lists and the current schema version.
func (p Profile) Normalized() Profile {
	out := p
	out.SchemaVersion = CurrentSchemaVersion
	out.Name = NormalizeHumanName(p.Name)
	out.Allergies = NormalizeList(p.Allergies)
	out.Injuries = NormalizeList(p.Injuries)
	out.Equipment = NormalizeList(p.Equipment)
	return out
}

// Problems reports invalid fields keyed by their JSON name. An empty map means the profile is valid.
func (p Profile) Problems(now time.Time) map[string]any {
	out := map[string]any{}
	if !(p.HeightCm > 0) || math.IsInf(p.HeightCm, 0) {
		out["heightCm"] = "must be greater than 0"
	}
	if !(p.WeightKg > 0) || math.IsInf(p.WeightKg, 0) {
		out["weightKg"] = "must be greater than 0"
	}
	if p.Birthdate.IsZero() {
		out["birthdate"] = "is required"
	} else if p.Birthdate.After(now) {
		out["birthdate"] = "must not be in the future"
	}
	if !p.Sex.Valid() {
		out["sex"] = "must be one of male, female, other"
	}
	if !p.Goal.Valid() {
		out["goal"] = "unknown goal"
	}
	if !p.Activity.Valid() {
		out["activity"] = "unknown activity level"
	}
	if !p.Diet.Valid() {
		out["diet"] = "unknown diet"
	}
	return out
}

// AgeAt returns whole years between the birthdate and now, accounting for whether the
// birthday has already occurred this year.
func (p Profile) AgeAt(now time.Time) int {
	if p.Birthdate.IsZero() {
		return 0
	}
	b := p.Birthdate.In(now.Location())
	age := now.Year() - b.Year()
	if now.Before(b.AddDate(age, 0, 0)) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// BMI is weight in kilograms divided by the square of height in meters.
func (p Profile) BMI() float64 {
	if p.HeightCm <= 0 {
		return 0
	}
	m := p.HeightCm / 100
	return p.WeightKg / (m * m)
}

// MateriallyDiffers reports whether any attribute feeding the targets calculation changed.
func (p Profile) MateriallyDiffers(q Profile) bool {
	return p.WeightKg != q.WeightKg ||
		p.HeightCm != q.HeightCm ||
		p.Sex != q.Sex ||
		p.Activity != q.Activity ||
		p.Goal != q.Goal ||
		!p.Birthdate.Equal(q.Birthdate)
}
