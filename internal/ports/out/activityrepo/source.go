package activityrepo

import (
	"context"

	"github.com/vitalcoach/coach-api/internal/domain"
)

// Source reads recent activity records for one domain.
//
// Result ordering expectations:
// - Recent returns at most limit records for the user, most recent first by the domain's own
//   timestamp column.
type Source interface {
	Recent(ctx context.Context, userID domain.UserID, d domain.ActivityDomain, limit int) ([]domain.ActivityRecord, error)
}
