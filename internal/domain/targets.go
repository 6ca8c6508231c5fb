package domain

type TargetsSource string

const (
	TargetsComputed TargetsSource = "computed"
	TargetsOverride TargetsSource = "override"
)

// Targets are the numeric daily targets derived from a Profile.
// They are only hand-edited through the explicit override API.
type Targets struct {
	SchemaVersion int           `json:"schemaVersion"`
	Source        TargetsSource `json:"source"`

	TargetCalories int     `json:"targetCalories"`
	ProteinG       int     `json:"proteinG"`
	CarbsG         int     `json:"carbsG"`
	FatG           int     `json:"fatG"`
	HydrationMl    int     `json:"hydrationMl"`
	SleepHours     float64 `json:"sleepHours"`

	RestingHeartRate *int `json:"restingHeartRate,omitempty"`
	MaxHeartRate     *int `json:"maxHeartRate,omitempty"`
}

// IsOverride reports whether the targets were set through the override API.
func (t Targets) IsOverride() bool { return t.Source == TargetsOverride }

// Problems validates override input. Computed targets are consistent by construction.
func (t Targets) Problems() map[string]any {
	out := map[string]any{}
	if t.TargetCalories <= 0 {
		out["targetCalories"] = "must be greater than 0"
	}
	if t.ProteinG < 0 {
		out["proteinG"] = "must not be negative"
	}
	if t.CarbsG < 0 {
		out["carbsG"] = "must not be negative"
	}
	if t.FatG < 0 {
		out["fatG"] = "must not be negative"
	}
	if t.HydrationMl <= 0 {
		out["hydrationMl"] = "must be greater than 0"
	}
	if t.SleepHours <= 0 || t.SleepHours > 24 {
		out["sleepHours"] = "must be within (0, 24]"
	}
	if t.RestingHeartRate != nil && *t.RestingHeartRate <= 0 {
		out["restingHeartRate"] = "must be greater than 0"
	}
	if t.MaxHeartRate != nil && *t.MaxHeartRate <= 0 {
		out["maxHeartRate"] = "must be greater than 0"
	}
	return out
}

// Clone deep-copies the optional heart rate pointers.
func (t Targets) Clone() Targets {
	out := t
	out.RestingHeartRate = cloneIntPtr(t.RestingHeartRate)
	out.MaxHeartRate = cloneIntPtr(t.MaxHeartRate)
	return out
}

// ProfileBundle is the unit of profile state handed to plan generation.
type ProfileBundle struct {
	Profile  Profile
	Targets  Targets
	Advanced AdvancedProfile
}

// OnboardingAnswer is one keyed answer captured during onboarding.
type OnboardingAnswer struct {
	QuestionKey string
	Answer      string
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
