package accounts

import (
	"time"

	"github.com/vitalcoach/coach-api/internal/domain"
)

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

// UpsertProfileInput is the flat PUT /profile payload. Required profile attributes may be
// omitted but not nulled; list and advanced fields may be nulled to clear them.
type UpsertProfileInput struct {
	Name      Optional[string]
	Sex       Optional[domain.Sex]           // cannot be null
	Birthdate Optional[time.Time]            // cannot be null
	HeightCm  Optional[float64]              // cannot be null
	WeightKg  Optional[float64]              // cannot be null
	Goal      Optional[domain.Goal]          // cannot be null
	Activity  Optional[domain.ActivityLevel] // cannot be null
	Diet      Optional[domain.Diet]          // cannot be null
	Allergies Optional[[]string]
	Injuries  Optional[[]string]
	Equipment Optional[[]string]

	BloodType          Optional[string]
	Chronotype         Optional[domain.Chronotype]
	ReproductiveStatus Optional[domain.ReproductiveStatus]
	KnownConditions    Optional[[]string]
	Supplements        Optional[[]string]
	FoodDislikes       Optional[[]string]
	BudgetNotes        Optional[string]

	// Targets replaces the stored targets as a whole; null clears them so they are computed.
	Targets Optional[domain.Targets]
}

// StoredProfile is what GET /profile returns.
type StoredProfile struct {
	UserID    domain.UserID
	Name      *string
	Sex       *domain.Sex
	Birthdate *time.Time
	HeightCm  *float64
	WeightKg  *float64
	Goal      *domain.Goal
	Activity  *domain.ActivityLevel
	Diet      *domain.Diet
	Allergies []string
	Injuries  []string
	Equipment []string
	Advanced  domain.AdvancedProfile
	Targets   *domain.Targets
	UpdatedAt time.Time
}

type ProfileWithAnswers struct {
	Profile           StoredProfile
	OnboardingAnswers []domain.OnboardingAnswer
}
