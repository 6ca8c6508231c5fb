package idempotency

import (
	"context"
	"time"

	"github.com/vitalcoach/coach-api/internal/domain"
)

// Key is the caller-provided idempotency key (Idempotency-Key header).
type Key string

// Fingerprint identifies a request for replay purposes: key + user + route + request body hash.
// Route is the HTTP method plus path template (e.g. "POST /ai/generate-plan").
// An empty BodyHash addresses the key's metadata record, which stores the body hash first seen.
type Fingerprint struct {
	Key      Key
	UserID   domain.UserID
	Method   string
	Route    string
	BodyHash string
}

// Record is the stored response replayed for a duplicate request.
type Record struct {
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// Store persists idempotency records. Put overwrites.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}
