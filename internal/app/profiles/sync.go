package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/vitalcoach/coach-api/internal/app/targets"
	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/ports/out/profilesync"
)

// pull fetches the remote copy and merges it field by field. A pull that overlaps a local write,
// or arrives while local changes are still unpushed, is discarded so the local write wins.
func (r *Repository) pull(ctx context.Context) error {
	r.mu.Lock()
	startGen := r.gen
	r.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, r.syncTimeout)
	pulled, err := r.remote.Pull(callCtx)
	cancel()
	if err != nil {
		r.logger.Warn("remote profile pull failed", zap.Error(err))
		r.metrics.SyncFailed("pull")
		return fmt.Errorf("pull profile: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	if r.gen != startGen {
		r.logger.Debug("discarding remote profile pulled during a local write")
		return nil
	}
	if r.pendingPush {
		r.logger.Debug("discarding remote profile while local changes are unpushed")
		return nil
	}

	now := r.clk.Now()
	p := r.profile
	if pulled.Profile != nil {
		merged := mergeRemoteProfile(r.profile, pulled.Profile)
		if problems := merged.Problems(now); len(problems) > 0 {
			r.logger.Warn("ignoring invalid remote profile", zap.Any("problems", problems))
		} else {
			p = merged
		}
	}
	a := domain.ApplyOnboardingAnswers(r.advanced, pulled.OnboardingAnswers)

	var pp *domain.Profile
	var tp *domain.Targets
	var ap *domain.AdvancedProfile
	if !profilesEqual(p, r.profile) {
		pp = &p
		if p.MateriallyDiffers(r.profile) {
			t := targets.Calculate(p, now)
			tp = &t
		}
	}
	if !advancedEqual(a, r.advanced) {
		ap = &a
	}
	if pp != nil || tp != nil || ap != nil {
		if err := r.commitLocked(pp, tp, ap); err != nil {
			r.logger.Warn("failed to persist merged remote profile", zap.Error(err))
			return err
		}
	}
	for _, name := range Documents {
		r.states[name] = DocAuthoritative
	}
	return nil
}

// push sends the latest committed state and any queued onboarding answers.
func (r *Repository) push(ctx context.Context) error {
	r.pushMu.Lock()
	defer r.pushMu.Unlock()

	r.mu.Lock()
	bundle := r.bundleLocked()
	answers := append([]domain.OnboardingAnswer(nil), r.pendingAnswers...)
	sentGen := r.localGen
	r.mu.Unlock()

	err := r.retry(ctx, func(ctx context.Context) error {
		return r.remote.Push(ctx, bundle)
	})
	if err == nil && len(answers) > 0 {
		err = r.retry(ctx, func(ctx context.Context) error {
			return r.remote.PushOnboarding(ctx, answers)
		})
	}

	r.mu.Lock()
	if err == nil {
		r.pendingPush = r.localGen != sentGen
		r.pendingAnswers = dropAnswers(r.pendingAnswers, answers)
	} else {
		r.pendingPush = true
	}
	if serr := r.saveSyncStateLocked(); serr != nil {
		r.logger.Warn("failed to persist sync state", zap.Error(serr))
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("remote profile push failed; will retry on foreground", zap.Error(err))
		r.metrics.SyncFailed("push")
		return fmt.Errorf("push profile: %w", err)
	}
	return nil
}

func (r *Repository) retry(ctx context.Context, call func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.retryInterval
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, r.pushRetries), ctx)

	return backoff.Retry(func() error {
		callCtx, cancel := context.WithTimeout(ctx, r.syncTimeout)
		defer cancel()
		err := call(callCtx)
		if errors.Is(err, profilesync.ErrRejected) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

func mergeRemoteProfile(local domain.Profile, rp *profilesync.RemoteProfile) domain.Profile {
	out := cloneProfile(local)
	if rp.Name != nil {
		out.Name = *rp.Name
	}
	if rp.Sex != nil {
		out.Sex = *rp.Sex
	}
	if rp.Birthdate != nil {
		out.Birthdate = *rp.Birthdate
	}
	if rp.HeightCm != nil {
		out.HeightCm = *rp.HeightCm
	}
	if rp.WeightKg != nil {
		out.WeightKg = *rp.WeightKg
	}
	if rp.Goal != nil {
		out.Goal = *rp.Goal
	}
	if rp.Activity != nil {
		out.Activity = *rp.Activity
	}
	if rp.Diet != nil {
		out.Diet = *rp.Diet
	}
	if rp.Allergies != nil {
		out.Allergies = *rp.Allergies
	}
	if rp.Injuries != nil {
		out.Injuries = *rp.Injuries
	}
	if rp.Equipment != nil {
		out.Equipment = *rp.Equipment
	}
	return out.Normalized()
}

// mergeAnswers replaces queued answers with newer ones for the same key.
func mergeAnswers(queued, fresh []domain.OnboardingAnswer) []domain.OnboardingAnswer {
	out := make([]domain.OnboardingAnswer, 0, len(queued)+len(fresh))
	replaced := make(map[string]bool, len(fresh))
	for _, a := range fresh {
		replaced[a.QuestionKey] = true
	}
	for _, a := range queued {
		if !replaced[a.QuestionKey] {
			out = append(out, a)
		}
	}
	return append(out, fresh...)
}

// dropAnswers removes the sent answers, keeping any that were re-queued with a new value.
func dropAnswers(queued, sent []domain.OnboardingAnswer) []domain.OnboardingAnswer {
	sentSet := make(map[domain.OnboardingAnswer]bool, len(sent))
	for _, a := range sent {
		sentSet[a] = true
	}
	var out []domain.OnboardingAnswer
	for _, a := range queued {
		if !sentSet[a] {
			out = append(out, a)
		}
	}
	return out
}

func profilesEqual(a, b domain.Profile) bool {
	return a.Name == b.Name && a.Diet == b.Diet &&
		!a.MateriallyDiffers(b) &&
		listsEqual(a.Allergies, b.Allergies) &&
		listsEqual(a.Injuries, b.Injuries) &&
		listsEqual(a.Equipment, b.Equipment)
}

func advancedEqual(a, b domain.AdvancedProfile) bool {
	return a.BloodType == b.BloodType &&
		a.Chronotype == b.Chronotype &&
		a.ReproductiveStatus == b.ReproductiveStatus &&
		a.BudgetNotes == b.BudgetNotes &&
		listsEqual(a.KnownConditions, b.KnownConditions) &&
		listsEqual(a.Supplements, b.Supplements) &&
		listsEqual(a.FoodDislikes, b.FoodDislikes)
}

func listsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
