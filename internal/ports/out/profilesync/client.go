package profilesync

import (
	"context"
	"errors"
	"time"

	"github.com/vitalcoach/coach-api/internal/domain"
)

// ErrRejected marks a request the remote refused (4xx). Retrying it unchanged cannot succeed.
var ErrRejected = errors.New("remote rejected request")

// RemoteProfile is what the remote source of truth returned for the account.
// A nil field was either omitted or explicitly null; both mean "leave the local value alone".
type RemoteProfile struct {
	Name      *string
	Sex       *domain.Sex
	Birthdate *time.Time
	HeightCm  *float64
	WeightKg  *float64
	Goal      *domain.Goal
	Activity  *domain.ActivityLevel
	Diet      *domain.Diet
	Allergies *[]string
	Injuries  *[]string
	Equipment *[]string
}

// Pulled is the result of GET /profile.
type Pulled struct {
	// Profile is nil when the account has no stored profile yet.
	Profile           *RemoteProfile
	OnboardingAnswers []domain.OnboardingAnswer
}

// Client talks to the remote profile API on behalf of the single local user.
type Client interface {
	Pull(ctx context.Context) (Pulled, error)
	Push(ctx context.Context, bundle domain.ProfileBundle) error
	PushOnboarding(ctx context.Context, answers []domain.OnboardingAnswer) error
}
