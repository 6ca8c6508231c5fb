package idempotency

import (
	"context"
	"sync"
	"time"

	clockport "github.com/vitalcoach/coach-api/internal/ports/out/clock"
	"github.com/vitalcoach/coach-api/internal/ports/out/idempotency"
)

// DefaultTTL is how long a stored response can be replayed.
const DefaultTTL = 24 * time.Hour

// Store keeps idempotency records in memory. Records older than the TTL are treated as absent
// and pruned on the next Put. It is safe for concurrent use.
type Store struct {
	mu  sync.Mutex
	m   map[idempotency.Fingerprint]idempotency.Record
	ttl time.Duration
	clk clockport.Clock
}

type Option func(*Store)

// WithTTL sets the replay window. Zero or negative keeps records forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

func WithClock(clk clockport.Clock) Option {
	return func(s *Store) { s.clk = clk }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		m:   make(map[idempotency.Fingerprint]idempotency.Record),
		ttl: DefaultTTL,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.m[fp]
	if !ok || s.expired(rec) {
		return idempotency.Record{}, false, nil
	}
	rec.Body = append([]byte(nil), rec.Body...)
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.m {
		if s.expired(v) {
			delete(s.m, k)
		}
	}
	rec.Body = append([]byte(nil), rec.Body...)
	s.m[fp] = rec
	return nil
}

func (s *Store) expired(rec idempotency.Record) bool {
	if s.ttl <= 0 || s.clk == nil || rec.CreatedAt.IsZero() {
		return false
	}
	return s.clk.Now().Sub(rec.CreatedAt) > s.ttl
}
