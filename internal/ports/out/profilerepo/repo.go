package profilerepo

import (
	"context"
	"time"

	"github.com/vitalcoach/coach-api/internal/domain"
)

// Record is the server-side persistence shape of an account's profile: one row per user,
// upserted by user id. Optional fields are nil when unset.
type Record struct {
	UserID domain.UserID

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

	Advanced domain.AdvancedProfile

	// Targets are the targets last pushed by the device; nil means compute on demand.
	Targets *domain.Targets

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Answer is one onboarding answer row keyed by (user, question key).
type Answer struct {
	UserID      domain.UserID
	QuestionKey string
	Answer      string
	UpdatedAt   time.Time
}

// Repository provides access to stored profiles and onboarding answers.
//
// Result ordering expectations:
// - ListAnswers returns answers ordered by QuestionKey ascending.
type Repository interface {
	Get(ctx context.Context, userID domain.UserID) (Record, error)
	Upsert(ctx context.Context, rec Record) error

	ListAnswers(ctx context.Context, userID domain.UserID) ([]Answer, error)
	// UpsertAnswers writes all answers atomically: either every row is stored or none is.
	UpsertAnswers(ctx context.Context, answers []Answer) error
}
