package planrepo

import (
	"context"
	"time"

	"github.com/vitalcoach/coach-api/internal/domain"
)

type Kind string

const (
	KindPlan  Kind = "plan"
	KindReply Kind = "reply"
)

// Plan is a persisted generation result.
type Plan struct {
	ID      domain.PlanID
	UserID  domain.UserID
	Kind    Kind
	Content string
	// Notes are the (already truncated) notes that were part of the context.
	Notes     string
	CreatedAt time.Time
}

// Repository stores generated plans and replies.
//
// Result ordering expectations:
// - ListRecent returns newest first.
type Repository interface {
	Save(ctx context.Context, p Plan) error
	ListRecent(ctx context.Context, userID domain.UserID, limit int) ([]Plan, error)
}
