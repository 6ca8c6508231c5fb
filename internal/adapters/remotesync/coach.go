package remotesync

import (
	"context"
	"net/http"

	"github.com/vitalcoach/coach-api/internal/adapters/httpapi/oas"
)

// GeneratePlan asks the remote to generate and store a plan. A non-empty idempotencyKey makes
// retries of the same request safe.
func (c *Client) GeneratePlan(ctx context.Context, notes, idempotencyKey string) (oas.GeneratePlanResponse, error) {
	var body oas.GeneratePlanRequest
	if notes != "" {
		body.Notes = &notes
	}
	if idempotencyKey != "" {
		ctx = withHeader(ctx, "Idempotency-Key", idempotencyKey)
	}
	var out oas.GeneratePlanResponse
	err := c.do(ctx, http.MethodPost, "/ai/generate-plan", body, &out)
	return out, err
}

func (c *Client) CoachReply(ctx context.Context, message, notes string) (string, error) {
	body := oas.CoachReplyRequest{Message: message}
	if notes != "" {
		body.Notes = &notes
	}
	var out oas.CoachReplyResponse
	if err := c.do(ctx, http.MethodPost, "/ai/coach-reply", body, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

type headerKey struct{}

// withHeader attaches a per-call header that do copies onto the request.
func withHeader(ctx context.Context, key, value string) context.Context {
	h, _ := ctx.Value(headerKey{}).(http.Header)
	h = h.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(key, value)
	return context.WithValue(ctx, headerKey{}, h)
}
