// Package activity fans out recent-activity queries across every domain and joins them into
// one snapshot. Aggregation is fail-closed: one failed domain fails the whole call.
package activity

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/platform/logging"
	"github.com/vitalcoach/coach-api/internal/platform/metrics"
	"github.com/vitalcoach/coach-api/internal/ports/out/activityrepo"
)

// DefaultLimit is the per-domain record cap when none is configured.
const DefaultLimit = domain.MaxActivityPerDomain

// DomainError is one failed domain query.
type DomainError struct {
	Domain domain.ActivityDomain
	Err    error
}

func (e *DomainError) Error() string { return fmt.Sprintf("%s: %v", e.Domain, e.Err) }
func (e *DomainError) Unwrap() error { return e.Err }

// AggregateError reports every domain that failed, in canonical domain order.
type AggregateError struct {
	Failures []*DomainError
}

func (e *AggregateError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, string(f.Domain))
	}
	return "could not fetch recent activity: " + strings.Join(names, ", ")
}

func (e *AggregateError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f)
	}
	return out
}

// Domains lists the failed domains.
func (e *AggregateError) Domains() []domain.ActivityDomain {
	out := make([]domain.ActivityDomain, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Domain)
	}
	return out
}

type Options struct {
	// Limit caps each domain's list; zero means DefaultLimit. Clamped to [1, 5].
	Limit int
}

type Aggregator struct {
	src     activityrepo.Source
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewAggregator(src activityrepo.Source, logger *zap.Logger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{src: src, logger: logging.OrNop(logger), metrics: m}
}

// Aggregate queries all domains concurrently and returns a complete snapshot or an
// *AggregateError. It never returns a partial snapshot.
func (a *Aggregator) Aggregate(ctx context.Context, userID domain.UserID, opts Options) (domain.ActivitySnapshot, error) {
	limit := clampLimit(opts.Limit)

	results := make([][]domain.ActivityRecord, len(domain.ActivityDomains))
	slots := make([]*DomainError, len(domain.ActivityDomains))

	// A plain Group: siblings are not cancelled on failure, so every slot is filled before Wait returns.
	var g errgroup.Group
	g.SetLimit(len(domain.ActivityDomains))
	for i, d := range domain.ActivityDomains {
		g.Go(func() error {
			recs, err := a.src.Recent(ctx, userID, d, limit)
			if err != nil {
				slots[i] = &DomainError{Domain: d, Err: err}
				return slots[i]
			}
			results[i] = normalize(recs, limit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var failures []*DomainError
		names := make([]string, 0, len(slots))
		for _, f := range slots {
			if f == nil {
				continue
			}
			failures = append(failures, f)
			names = append(names, string(f.Domain))
			a.logger.Warn("activity domain query failed",
				zap.String("domain", string(f.Domain)),
				zap.String("user_id", string(userID)),
				zap.Error(f.Err),
			)
		}
		a.metrics.AggregationFailed(names)
		return domain.ActivitySnapshot{}, &AggregateError{Failures: failures}
	}

	var snap domain.ActivitySnapshot
	for i, d := range domain.ActivityDomains {
		snap.Set(d, results[i])
	}
	a.metrics.AggregationSucceeded()
	return snap, nil
}

func clampLimit(n int) int {
	switch {
	case n == 0:
		return DefaultLimit
	case n < 1:
		return 1
	case n > domain.MaxActivityPerDomain:
		return domain.MaxActivityPerDomain
	}
	return n
}

// normalize enforces most-recent-first ordering and the cap regardless of what the source did.
func normalize(recs []domain.ActivityRecord, limit int) []domain.ActivityRecord {
	out := append([]domain.ActivityRecord{}, recs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
