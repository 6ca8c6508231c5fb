// Package oas holds the request and response bodies of the coach HTTP API. Both the server and
// the device-side sync client encode and decode through these types.
package oas

import (
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

type ErrorResponse struct {
	Error struct {
		Code      string                            `json:"code"`
		Message   string                            `json:"message"`
		Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
		RequestId nullable.Nullable[string]         `json:"requestId,omitempty"`
	} `json:"error"`
}

type Targets struct {
	Source           string                 `json:"source"`
	TargetCalories   int                    `json:"target_calories"`
	ProteinG         int                    `json:"protein_g"`
	CarbsG           int                    `json:"carbs_g"`
	FatG             int                    `json:"fat_g"`
	HydrationMl      int                    `json:"hydration_ml"`
	SleepHours       float64                `json:"sleep_hours"`
	RestingHeartRate nullable.Nullable[int] `json:"resting_heart_rate,omitempty"`
	MaxHeartRate     nullable.Nullable[int] `json:"max_heart_rate,omitempty"`
}

// Profile is the stored profile as returned by GET /profile. Unset fields are null.
type Profile struct {
	Name      nullable.Nullable[string]             `json:"name"`
	Sex       nullable.Nullable[string]             `json:"sex"`
	Birthdate nullable.Nullable[openapi_types.Date] `json:"birthdate"`
	HeightCm  nullable.Nullable[float64]            `json:"height_cm"`
	WeightKg  nullable.Nullable[float64]            `json:"weight_kg"`
	Goal      nullable.Nullable[string]             `json:"goal"`
	Activity  nullable.Nullable[string]             `json:"activity"`
	Diet      nullable.Nullable[string]             `json:"diet"`
	Allergies []string                              `json:"allergies"`
	Injuries  []string                              `json:"injuries"`
	Equipment []string                              `json:"equipment"`

	BloodType          nullable.Nullable[string] `json:"blood_type"`
	Chronotype         nullable.Nullable[string] `json:"chronotype"`
	ReproductiveStatus nullable.Nullable[string] `json:"reproductive_status"`
	KnownConditions    []string                  `json:"known_conditions"`
	Supplements        []string                  `json:"supplements"`
	FoodDislikes       []string                  `json:"food_dislikes"`
	BudgetNotes        nullable.Nullable[string] `json:"budget_notes"`

	Targets   nullable.Nullable[Targets] `json:"targets"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

type OnboardingAnswer struct {
	QuestionKey string `json:"question_key"`
	Answer      string `json:"answer"`
}

type GetProfileResponse struct {
	Profile           Profile            `json:"profile"`
	OnboardingAnswers []OnboardingAnswer `json:"onboardingAnswers"`
}

// UpdateProfileRequest is the flat PUT /profile body. An omitted field is left unchanged and an
// explicit null clears it.
type UpdateProfileRequest struct {
	Name      nullable.Nullable[string]             `json:"name,omitempty"`
	Sex       nullable.Nullable[string]             `json:"sex,omitempty"`
	Birthdate nullable.Nullable[openapi_types.Date] `json:"birthdate,omitempty"`
	HeightCm  nullable.Nullable[float64]            `json:"height_cm,omitempty"`
	WeightKg  nullable.Nullable[float64]            `json:"weight_kg,omitempty"`
	Goal      nullable.Nullable[string]             `json:"goal,omitempty"`
	Activity  nullable.Nullable[string]             `json:"activity,omitempty"`
	Diet      nullable.Nullable[string]             `json:"diet,omitempty"`
	Allergies nullable.Nullable[[]string]           `json:"allergies,omitempty"`
	Injuries  nullable.Nullable[[]string]           `json:"injuries,omitempty"`
	Equipment nullable.Nullable[[]string]           `json:"equipment,omitempty"`

	BloodType          nullable.Nullable[string]   `json:"blood_type,omitempty"`
	Chronotype         nullable.Nullable[string]   `json:"chronotype,omitempty"`
	ReproductiveStatus nullable.Nullable[string]   `json:"reproductive_status,omitempty"`
	KnownConditions    nullable.Nullable[[]string] `json:"known_conditions,omitempty"`
	Supplements        nullable.Nullable[[]string] `json:"supplements,omitempty"`
	FoodDislikes       nullable.Nullable[[]string] `json:"food_dislikes,omitempty"`
	BudgetNotes        nullable.Nullable[string]   `json:"budget_notes,omitempty"`

	Targets nullable.Nullable[Targets] `json:"targets,omitempty"`
}

type UpdateProfileResponse struct {
	Profile Profile `json:"profile"`
}

type OnboardingRequest struct {
	Answers []OnboardingAnswer `json:"answers"`
}

type OnboardingResponse struct {
	Answers []OnboardingAnswer `json:"answers"`
}

type GeneratePlanRequest struct {
	Notes *string `json:"notes,omitempty"`
}

type StoredPlan struct {
	PlanId    string    `json:"plan_id"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

type GeneratePlanResponse struct {
	Plan       string                        `json:"plan"`
	StoredPlan nullable.Nullable[StoredPlan] `json:"storedPlan"`
}

type CoachReplyRequest struct {
	Message string  `json:"message"`
	Notes   *string `json:"notes,omitempty"`
}

type CoachReplyResponse struct {
	Reply string `json:"reply"`
}

type ListPlansResponse struct {
	Plans []StoredPlan `json:"plans"`
}
