// Package plans coordinates one plan or coach-reply generation: profile snapshot and activity
// aggregation in parallel, context build, the external generation call and best-effort
// persistence of the result.
package plans

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vitalcoach/coach-api/internal/app/activity"
	"github.com/vitalcoach/coach-api/internal/app/coachcontext"
	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/platform/clock"
	"github.com/vitalcoach/coach-api/internal/platform/logging"
	"github.com/vitalcoach/coach-api/internal/platform/metrics"
	clockport "github.com/vitalcoach/coach-api/internal/ports/out/clock"
	"github.com/vitalcoach/coach-api/internal/ports/out/generator"
	"github.com/vitalcoach/coach-api/internal/ports/out/planrepo"
)

// ProfileSource supplies the profile bundle for a user.
type ProfileSource interface {
	Snapshot(ctx context.Context, userID domain.UserID) (domain.ProfileBundle, error)
}

// ActivitySource supplies a complete activity snapshot or an error.
type ActivitySource interface {
	Aggregate(ctx context.Context, userID domain.UserID, opts activity.Options) (domain.ActivitySnapshot, error)
}

// MaxMessageRunes bounds a coach-reply message.
const MaxMessageRunes = 4000

type Options struct {
	// Plans is optional; nil skips persistence.
	Plans   planrepo.Repository
	Clock   clockport.Clock
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// Timeout bounds one whole generation, independent of the caller. Defaults to 90s.
	Timeout time.Duration
	// ActivityLimit is the per-domain cap passed to the aggregator.
	ActivityLimit int
}

type Service struct {
	profiles  ProfileSource
	activity  ActivitySource
	generator generator.Generator
	plans     planrepo.Repository
	clk       clockport.Clock
	logger    *zap.Logger
	metrics   *metrics.Metrics
	timeout   time.Duration
	limit     int

	newPlanID func() domain.PlanID

	// inflight tracks generations that outlive their caller.
	inflight sync.WaitGroup
}

func NewService(profiles ProfileSource, act ActivitySource, gen generator.Generator, opts Options) *Service {
	s := &Service{
		profiles:  profiles,
		activity:  act,
		generator: gen,
		plans:     opts.Plans,
		clk:       opts.Clock,
		logger:    logging.OrNop(opts.Logger),
		metrics:   opts.Metrics,
		timeout:   opts.Timeout,
		limit:     opts.ActivityLimit,
		newPlanID: func() domain.PlanID {
			return domain.PlanID(uuid.NewString())
		},
	}
	if s.clk == nil {
		s.clk = clock.NewSystemClock()
	}
	if s.timeout <= 0 {
		s.timeout = 90 * time.Second
	}
	return s
}

type GeneratePlanInput struct {
	Notes string
}

type ReplyInput struct {
	Message string
	Notes   string
}

// Result is a generated plan or reply. Stored is nil when persistence failed or is disabled.
type Result struct {
	Content string
	Stored  *planrepo.Plan
}

func (s *Service) GeneratePlan(ctx context.Context, userID domain.UserID, in GeneratePlanInput) (Result, error) {
	return s.detached(ctx, request{userID: userID, kind: generator.KindPlan, notes: in.Notes})
}

func (s *Service) Reply(ctx context.Context, userID domain.UserID, in ReplyInput) (Result, error) {
	msg := strings.TrimSpace(in.Message)
	switch {
	case msg == "":
		return Result{}, validation(map[string]any{"message": "must be non-empty"})
	case len([]rune(msg)) > MaxMessageRunes:
		return Result{}, validation(map[string]any{"message": "must be at most 4000 characters"})
	}
	return s.detached(ctx, request{userID: userID, kind: generator.KindReply, notes: in.Notes, message: msg})
}

// Wait blocks until generations abandoned by their callers have finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

type request struct {
	userID  domain.UserID
	kind    generator.Kind
	notes   string
	message string
}

type generated struct {
	content string
	notes   string
}

type outcome struct {
	res Result
	err error
}

// detached runs the generation on its own context so a caller that goes away does not cancel
// in-flight calls. The result of an abandoned request is neither returned nor stored.
func (s *Service) detached(ctx context.Context, req request) (Result, error) {
	workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	done := make(chan outcome, 1)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		gen, err := s.run(workCtx, req)
		if err != nil {
			done <- outcome{err: err}
			return
		}
		if ctx.Err() != nil {
			s.logger.Info("discarding generation for abandoned request",
				zap.String("user_id", string(req.userID)),
				zap.String("kind", string(req.kind)),
			)
			done <- outcome{}
			return
		}
		done <- outcome{res: Result{Content: gen.content, Stored: s.persist(workCtx, req, gen.content, gen.notes)}}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (s *Service) run(ctx context.Context, req request) (generated, error) {
	var (
		bundle     domain.ProfileBundle
		snap       domain.ActivitySnapshot
		profileErr error
		activeErr  error
	)
	var g errgroup.Group
	g.Go(func() error {
		bundle, profileErr = s.profiles.Snapshot(ctx, req.userID)
		return profileErr
	})
	g.Go(func() error {
		snap, activeErr = s.activity.Aggregate(ctx, req.userID, activity.Options{Limit: s.limit})
		return activeErr
	})
	if err := g.Wait(); err != nil {
		// Both calls have returned; a missing profile takes precedence over activity failures.
		if profileErr != nil {
			s.metrics.Generated(string(req.kind), "profile_unavailable")
			if errors.Is(profileErr, domain.ErrProfileNotFound) {
				return generated{}, &Error{Status: 404, Code: "PROFILE_NOT_FOUND", Message: "No profile exists for the authenticated user."}
			}
			return generated{}, profileErr
		}
		s.metrics.Generated(string(req.kind), "activity_unavailable")
		return generated{}, activityUnavailable(activeErr)
	}

	notes := coachcontext.TruncateNotes(req.notes)
	text := coachcontext.Build(coachcontext.Input{
		Profile:  bundle.Profile,
		Targets:  bundle.Targets,
		Advanced: bundle.Advanced,
		Notes:    notes,
		Now:      s.clk.Now(),
	})

	content, err := s.generator.Generate(ctx, generator.Request{
		Kind:     req.kind,
		Context:  text,
		Activity: snap,
		Message:  req.message,
	})
	if err != nil {
		s.metrics.Generated(string(req.kind), "failed")
		s.logger.Warn("generation failed",
			zap.String("user_id", string(req.userID)),
			zap.String("kind", string(req.kind)),
			zap.Error(err),
		)
		return generated{}, generationFailed(err)
	}
	s.metrics.Generated(string(req.kind), "ok")

	return generated{content: content, notes: notes}, nil
}

// persist stores the result; failure is logged and tolerated.
func (s *Service) persist(ctx context.Context, req request, content, notes string) *planrepo.Plan {
	if s.plans == nil {
		return nil
	}
	p := planrepo.Plan{
		ID:        s.newPlanID(),
		UserID:    req.userID,
		Kind:      planrepo.Kind(req.kind),
		Content:   content,
		Notes:     notes,
		CreatedAt: s.clk.Now(),
	}
	if err := s.plans.Save(ctx, p); err != nil {
		s.logger.Warn("failed to persist generated plan",
			zap.String("user_id", string(req.userID)),
			zap.String("kind", string(req.kind)),
			zap.Error(err),
		)
		return nil
	}
	return &p
}

// Recent lists the user's stored plans and replies, newest first.
func (s *Service) Recent(ctx context.Context, userID domain.UserID, limit int) ([]planrepo.Plan, error) {
	if s.plans == nil {
		return []planrepo.Plan{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.plans.ListRecent(ctx, userID, limit)
}
