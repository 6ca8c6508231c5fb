package generator

import (
	"context"

	"github.com/vitalcoach/coach-api/internal/domain"
)

type Kind string

const (
	KindPlan  Kind = "plan"
	KindReply Kind = "reply"
)

// Request is everything the external model receives for one call.
type Request struct {
	Kind Kind
	// Context is the bounded coach context text.
	Context string
	// Activity is the raw snapshot the context was built alongside.
	Activity domain.ActivitySnapshot
	// Message is the user's message for KindReply.
	Message string
}

// Generator is the external plan/reply generation collaborator.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
