// Package profiles owns the device's canonical Profile, Targets and AdvancedProfile documents.
//
// Local writes win immediately: every mutation is persisted to disk before it returns, and the
// remote source of truth is reconciled in the background. Remote failures never fail a local
// operation; they are logged, counted and retried on the next Foreground call.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vitalcoach/coach-api/internal/app/targets"
	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/platform/clock"
	"github.com/vitalcoach/coach-api/internal/platform/logging"
	"github.com/vitalcoach/coach-api/internal/platform/metrics"
	clockport "github.com/vitalcoach/coach-api/internal/ports/out/clock"
	"github.com/vitalcoach/coach-api/internal/ports/out/docstore"
	"github.com/vitalcoach/coach-api/internal/ports/out/profilesync"
)

type Options struct {
	Store docstore.Store
	// Remote is optional; nil keeps the repository local-only.
	Remote  profilesync.Client
	Clock   clockport.Clock
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// SyncTimeout bounds each remote call. Defaults to 15s.
	SyncTimeout time.Duration
	// PushRetries is the number of retries after a failed push attempt. Defaults to 2.
	PushRetries uint64
	// RetryInterval is the initial backoff between push attempts. Defaults to 250ms.
	RetryInterval time.Duration
	// SkipInitialPull disables the background pull started by Open.
	SkipInitialPull bool
}

// Repository is the single writer for the profile documents. Construct one per process with
// Open and share it; all methods are safe for concurrent use.
type Repository struct {
	store         docstore.Store
	remote        profilesync.Client
	clk           clockport.Clock
	logger        *zap.Logger
	metrics       *metrics.Metrics
	syncTimeout   time.Duration
	pushRetries   uint64
	retryInterval time.Duration

	mu       sync.Mutex
	profile  domain.Profile
	targets  domain.Targets
	advanced domain.AdvancedProfile
	states   map[string]DocState
	notices  []Notice
	// gen increments on every committed write; a pull that started at an older gen is stale.
	gen uint64
	// localGen increments on local writes only, so a push can tell whether it sent the latest.
	localGen       uint64
	pendingPush    bool
	pendingAnswers []domain.OnboardingAnswer
	closed         bool

	// pushMu serializes pushes so each one sends the latest committed state.
	pushMu sync.Mutex

	bgCtx    context.Context
	bgCancel context.CancelFunc
	// inflight counts background sync goroutines; idle is closed whenever it is zero.
	inflight int
	idle     chan struct{}
}

// Open loads the three documents, substitutes and re-saves defaults for any that are missing or
// unreadable, and starts a background pull from the remote.
func Open(ctx context.Context, opts Options) (*Repository, error) {
	if opts.Store == nil {
		return nil, errors.New("profiles: Store is required")
	}
	r := &Repository{
		store:         opts.Store,
		remote:        opts.Remote,
		clk:           opts.Clock,
		logger:        logging.OrNop(opts.Logger),
		metrics:       opts.Metrics,
		syncTimeout:   opts.SyncTimeout,
		pushRetries:   opts.PushRetries,
		retryInterval: opts.RetryInterval,
		states:        make(map[string]DocState, len(Documents)),
		idle:          make(chan struct{}),
	}
	close(r.idle)
	if r.clk == nil {
		r.clk = clock.NewSystemClock()
	}
	if r.syncTimeout <= 0 {
		r.syncTimeout = 15 * time.Second
	}
	if opts.PushRetries == 0 {
		r.pushRetries = 2
	}
	if r.retryInterval <= 0 {
		r.retryInterval = 250 * time.Millisecond
	}
	for _, name := range Documents {
		r.states[name] = DocAbsent
	}
	r.bgCtx, r.bgCancel = context.WithCancel(context.WithoutCancel(ctx))

	if err := r.load(); err != nil {
		r.bgCancel()
		return nil, err
	}

	if r.remote != nil && !opts.SkipInitialPull {
		r.goSync(func(ctx context.Context) {
			_ = r.Foreground(ctx)
		})
	}
	return r, nil
}

func (r *Repository) load() error {
	now := r.clk.Now()
	var reset []string

	var p domain.Profile
	res, err := r.store.Load(ProfileDoc, &p)
	if err != nil {
		return fmt.Errorf("load %s: %w", ProfileDoc, err)
	}
	switch {
	case res.State != docstore.StateLoaded:
		p = domain.DefaultProfile(now)
		reset = append(reset, ProfileDoc)
	case len(p.Normalized().Problems(now)) > 0:
		r.logger.Warn("stored profile failed validation; using defaults",
			zap.String("document", ProfileDoc),
			zap.Any("problems", p.Normalized().Problems(now)),
		)
		p = domain.DefaultProfile(now)
		reset = append(reset, ProfileDoc)
		r.notices = append(r.notices, Notice{Document: ProfileDoc, At: now})
	default:
		p = p.Normalized()
	}
	r.noteRecovery(ProfileDoc, res, now)
	r.profile = p

	var t domain.Targets
	res, err = r.store.Load(TargetsDoc, &t)
	if err != nil {
		return fmt.Errorf("load %s: %w", TargetsDoc, err)
	}
	switch {
	case res.State != docstore.StateLoaded, len(t.Problems()) > 0, containsString(reset, ProfileDoc):
		t = targets.Calculate(p, now)
		reset = append(reset, TargetsDoc)
	default:
		t.SchemaVersion = domain.CurrentSchemaVersion
		if t.Source == "" {
			t.Source = domain.TargetsComputed
		}
	}
	r.noteRecovery(TargetsDoc, res, now)
	r.targets = t

	var a domain.AdvancedProfile
	res, err = r.store.Load(AdvancedDoc, &a)
	if err != nil {
		return fmt.Errorf("load %s: %w", AdvancedDoc, err)
	}
	switch {
	case res.State != docstore.StateLoaded:
		a = domain.DefaultAdvancedProfile()
		reset = append(reset, AdvancedDoc)
	case len(a.Problems()) > 0:
		a = domain.DefaultAdvancedProfile()
		reset = append(reset, AdvancedDoc)
		r.notices = append(r.notices, Notice{Document: AdvancedDoc, At: now})
	default:
		a = a.Normalized()
	}
	r.noteRecovery(AdvancedDoc, res, now)
	r.advanced = a

	var st syncState
	res, err = r.store.Load(SyncStateDoc, &st)
	if err != nil {
		return fmt.Errorf("load %s: %w", SyncStateDoc, err)
	}
	switch res.State {
	case docstore.StateLoaded:
		r.pendingPush = st.PendingPush
		r.pendingAnswers = st.PendingAnswers
	case docstore.StateRecovered:
		// Unknown sync position: push before trusting the remote again.
		r.logger.Warn("sync state unreadable; scheduling a full push", zap.String("backup", res.BackupPath))
		r.pendingPush = true
	}

	// Defaults are written straight back so a corrupted document heals on first read.
	if len(reset) > 0 {
		if err := r.persistLocked(reset...); err != nil {
			return err
		}
	}
	for _, name := range Documents {
		r.states[name] = DocLoadedFromDisk
	}
	return nil
}

func (r *Repository) noteRecovery(name string, res docstore.Result, now time.Time) {
	if res.State != docstore.StateRecovered {
		return
	}
	r.notices = append(r.notices, Notice{Document: name, BackupPath: res.BackupPath, At: now})
}

// Profile returns a copy of the current profile.
func (r *Repository) Profile() domain.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneProfile(r.profile)
}

// Targets returns a copy of the current targets.
func (r *Repository) Targets() domain.Targets {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.targets.Clone()
}

// Advanced returns a copy of the current advanced profile.
func (r *Repository) Advanced() domain.AdvancedProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneAdvanced(r.advanced)
}

// Snapshot returns the full bundle. The device holds a single local user, so userID is ignored.
func (r *Repository) Snapshot(ctx context.Context, userID domain.UserID) (domain.ProfileBundle, error) {
	_ = ctx
	_ = userID
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bundleLocked(), nil
}

// States reports the per-document state machine position.
func (r *Repository) States() map[string]DocState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]DocState, len(r.states))
	for k, v := range r.states {
		out[k] = v
	}
	return out
}

// Notices returns and clears pending recovery notices.
func (r *Repository) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}

// PendingPush reports whether the last push failed and is waiting for Foreground.
func (r *Repository) PendingPush() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingPush || len(r.pendingAnswers) > 0
}

// Save replaces the profile and targets as given. The write is on disk when Save returns; the
// remote push happens in the background.
func (r *Repository) Save(ctx context.Context, p domain.Profile, t domain.Targets) error {
	_ = ctx
	now := r.clk.Now()
	p = p.Normalized()
	if problems := p.Problems(now); len(problems) > 0 {
		return validationError("invalid profile", problems)
	}
	t = t.Clone()
	t.SchemaVersion = domain.CurrentSchemaVersion
	if t.Source == "" {
		t.Source = domain.TargetsComputed
	}
	if problems := t.Problems(); len(problems) > 0 {
		return validationError("invalid targets", problems)
	}

	if err := r.commit(&p, &t, nil, nil); err != nil {
		return err
	}
	r.schedulePush()
	return nil
}

// UpdateProfile replaces the profile and recomputes targets when the change is material or the
// targets were never overridden.
func (r *Repository) UpdateProfile(ctx context.Context, p domain.Profile) (domain.Targets, error) {
	_ = ctx
	now := r.clk.Now()
	p = p.Normalized()
	if problems := p.Problems(now); len(problems) > 0 {
		return domain.Targets{}, validationError("invalid profile", problems)
	}

	r.mu.Lock()
	t := r.targets.Clone()
	if p.MateriallyDiffers(r.profile) || !t.IsOverride() {
		t = targets.Calculate(p, now)
	}
	err := r.commitLocalLocked(&p, &t, nil, nil)
	r.mu.Unlock()
	if err != nil {
		return domain.Targets{}, err
	}
	r.schedulePush()
	return t, nil
}

// OverrideTargets stores hand-set targets. They survive non-material profile edits.
func (r *Repository) OverrideTargets(ctx context.Context, t domain.Targets) error {
	_ = ctx
	t = t.Clone()
	t.SchemaVersion = domain.CurrentSchemaVersion
	t.Source = domain.TargetsOverride
	if problems := t.Problems(); len(problems) > 0 {
		return validationError("invalid targets", problems)
	}
	if err := r.commit(nil, &t, nil, nil); err != nil {
		return err
	}
	r.schedulePush()
	return nil
}

// ResetTargets discards an override and recomputes from the current profile.
func (r *Repository) ResetTargets(ctx context.Context) (domain.Targets, error) {
	_ = ctx
	r.mu.Lock()
	t := targets.Calculate(r.profile, r.clk.Now())
	err := r.commitLocalLocked(nil, &t, nil, nil)
	r.mu.Unlock()
	if err != nil {
		return domain.Targets{}, err
	}
	r.schedulePush()
	return t, nil
}

// SaveAdvanced replaces the advanced profile.
func (r *Repository) SaveAdvanced(ctx context.Context, a domain.AdvancedProfile) error {
	_ = ctx
	a = a.Normalized()
	if problems := a.Problems(); len(problems) > 0 {
		return validationError("invalid advanced profile", problems)
	}
	if err := r.commit(nil, nil, &a, nil); err != nil {
		return err
	}
	r.schedulePush()
	return nil
}

// SubmitOnboarding applies advanced-profile answers locally and queues every answer for the
// remote. The whole payload is rejected if any row is invalid.
func (r *Repository) SubmitOnboarding(ctx context.Context, answers []domain.OnboardingAnswer) error {
	_ = ctx
	clean, problems := domain.ValidateOnboardingAnswers(answers)
	if len(problems) > 0 {
		return validationError("invalid onboarding answers", problems)
	}

	r.mu.Lock()
	a := domain.ApplyOnboardingAnswers(r.advanced, clean)
	err := r.commitLocalLocked(nil, nil, &a, clean)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.schedulePush()
	return nil
}

// Foreground retries a pending push and then pulls. It is meant to be called when the app
// returns to the foreground or when the user asks for a sync. While local changes remain
// unpushed the pulled copy is discarded.
func (r *Repository) Foreground(ctx context.Context) error {
	if r.remote == nil {
		return nil
	}
	var errs []error
	if r.PendingPush() {
		if err := r.push(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.pull(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Flush waits until no background push or pull is running, or for ctx to be done.
// Short-lived processes call it before Close so a scheduled push is not cancelled.
func (r *Repository) Flush(ctx context.Context) error {
	for {
		r.mu.Lock()
		idle, n := r.idle, r.inflight
		r.mu.Unlock()
		if n == 0 {
			return nil
		}
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops background sync and waits for in-flight calls to return.
func (r *Repository) Close() {
	r.mu.Lock()
	r.closed = true
	idle := r.idle
	r.mu.Unlock()
	r.bgCancel()
	<-idle
}

func (r *Repository) commit(p *domain.Profile, t *domain.Targets, a *domain.AdvancedProfile, answers []domain.OnboardingAnswer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commitLocalLocked(p, t, a, answers)
}

// commitLocalLocked records a local write: the sync state is marked pending on disk before the
// documents change, so a process that exits before pushing still pushes on its next run.
func (r *Repository) commitLocalLocked(p *domain.Profile, t *domain.Targets, a *domain.AdvancedProfile, answers []domain.OnboardingAnswer) error {
	prevPending, prevAnswers := r.pendingPush, r.pendingAnswers
	r.pendingPush = true
	if len(answers) > 0 {
		r.pendingAnswers = mergeAnswers(r.pendingAnswers, answers)
	}
	if err := r.saveSyncStateLocked(); err != nil {
		r.pendingPush, r.pendingAnswers = prevPending, prevAnswers
		return err
	}
	if err := r.commitLocked(p, t, a); err != nil {
		// pendingPush stays set.
		r.pendingAnswers = prevAnswers
		if serr := r.saveSyncStateLocked(); serr != nil {
			r.logger.Warn("failed to restore sync state", zap.Error(serr))
		}
		return err
	}
	r.localGen++
	return nil
}

func (r *Repository) saveSyncStateLocked() error {
	st := syncState{PendingPush: r.pendingPush, PendingAnswers: r.pendingAnswers}
	if err := r.store.Save(SyncStateDoc, st); err != nil {
		return fmt.Errorf("save %s: %w", SyncStateDoc, err)
	}
	return nil
}

// commitLocked swaps in the non-nil documents and persists them. On a persistence failure the
// previous values are restored in memory and rewritten for any document already saved.
func (r *Repository) commitLocked(p *domain.Profile, t *domain.Targets, a *domain.AdvancedProfile) error {
	prevP, prevT, prevA := r.profile, r.targets, r.advanced
	var names []string
	if p != nil {
		r.profile = *p
		names = append(names, ProfileDoc)
	}
	if t != nil {
		r.targets = *t
		names = append(names, TargetsDoc)
	}
	if a != nil {
		r.advanced = *a
		names = append(names, AdvancedDoc)
	}
	for i, name := range names {
		if err := r.persistLocked(name); err != nil {
			r.profile, r.targets, r.advanced = prevP, prevT, prevA
			if rerr := r.persistLocked(names[:i]...); rerr != nil {
				r.logger.Warn("failed to roll back partially saved documents", zap.Error(rerr))
			}
			return err
		}
	}
	r.gen++
	for _, n := range names {
		r.states[n] = DocAuthoritative
	}
	return nil
}

func (r *Repository) persistLocked(names ...string) error {
	for _, name := range names {
		var doc any
		switch name {
		case ProfileDoc:
			doc = r.profile
		case TargetsDoc:
			doc = r.targets
		case AdvancedDoc:
			doc = r.advanced
		default:
			return fmt.Errorf("unknown document %q", name)
		}
		if err := r.store.Save(name, doc); err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
	}
	return nil
}

func (r *Repository) bundleLocked() domain.ProfileBundle {
	return domain.ProfileBundle{
		Profile:  cloneProfile(r.profile),
		Targets:  r.targets.Clone(),
		Advanced: cloneAdvanced(r.advanced),
	}
}

// goSync runs fn on a tracked goroutine unless the repository is closed.
func (r *Repository) goSync(fn func(ctx context.Context)) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if r.inflight == 0 {
		r.idle = make(chan struct{})
	}
	r.inflight++
	r.mu.Unlock()

	go func() {
		defer r.syncDone()
		fn(r.bgCtx)
	}()
}

func (r *Repository) syncDone() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight--
	if r.inflight == 0 {
		close(r.idle)
	}
}

func (r *Repository) schedulePush() {
	if r.remote == nil {
		return
	}
	r.goSync(func(ctx context.Context) {
		_ = r.push(ctx)
	})
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func cloneProfile(p domain.Profile) domain.Profile {
	out := p
	out.Allergies = append([]string{}, p.Allergies...)
	out.Injuries = append([]string{}, p.Injuries...)
	out.Equipment = append([]string{}, p.Equipment...)
	return out
}

func cloneAdvanced(a domain.AdvancedProfile) domain.AdvancedProfile {
	out := a
	out.KnownConditions = cloneList(a.KnownConditions)
	out.Supplements = cloneList(a.Supplements)
	out.FoodDislikes = cloneList(a.FoodDislikes)
	return out
}

func cloneList(xs []string) []string {
	if xs == nil {
		return nil
	}
	return append([]string{}, xs...)
}
