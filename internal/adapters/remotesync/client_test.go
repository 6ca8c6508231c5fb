package remotesync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalcoach/coach-api/internal/adapters/httpapi"
	memactivityrepo "github.com/vitalcoach/coach-api/internal/adapters/memory/activityrepo"
	memclock "github.com/vitalcoach/coach-api/internal/adapters/memory/clock"
	memgenerator "github.com/vitalcoach/coach-api/internal/adapters/memory/generator"
	memidempotency "github.com/vitalcoach/coach-api/internal/adapters/memory/idempotency"
	memplanrepo "github.com/vitalcoach/coach-api/internal/adapters/memory/planrepo"
	memprofilerepo "github.com/vitalcoach/coach-api/internal/adapters/memory/profilerepo"
	"github.com/vitalcoach/coach-api/internal/app/accounts"
	"github.com/vitalcoach/coach-api/internal/app/activity"
	"github.com/vitalcoach/coach-api/internal/app/plans"
	"github.com/vitalcoach/coach-api/internal/app/targets"
	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/ports/out/profilesync"
)

var testNow = time.Date(2024, time.October, 1, 9, 0, 0, 0, time.UTC)

func newRemote(t *testing.T) (*Client, *accounts.Service) {
	t.Helper()
	clk := memclock.NewManualClock(testNow)
	acc := accounts.NewService(memprofilerepo.NewRepo(), clk)
	pl := plans.NewService(acc, activity.NewAggregator(memactivityrepo.NewRepo(), nil, nil), memgenerator.NewCanned(), plans.Options{
		Plans: memplanrepo.NewRepo(),
		Clock: clk,
	})
	srv := httpapi.NewServer(acc, pl, memidempotency.NewStore(), clk, nil)
	ts := httptest.NewServer(httpapi.NewRouter(srv, httpapi.RouterOptions{
		AuthMiddleware: httpapi.NewHeaderAuthMiddleware("X-User-Id"),
	}))
	t.Cleanup(ts.Close)
	return New(ts.URL, "", WithHeader("X-User-Id", "device-user")), acc
}

func sampleBundle() domain.ProfileBundle {
	p := domain.Profile{
		SchemaVersion: domain.CurrentSchemaVersion,
		Name:          "Alex Doe",
		Sex:           domain.SexFemale,
		Birthdate:     time.Date(1990, time.March, 4, 0, 0, 0, 0, time.UTC),
		HeightCm:      168,
		WeightKg:      61,
		Goal:          domain.GoalFatLoss,
		Activity:      domain.ActivityModerate,
		Diet:          domain.DietBalanced,
		Allergies:     []string{"peanuts"},
	}
	return domain.ProfileBundle{
		Profile:  p,
		Targets:  targets.Calculate(p, testNow),
		Advanced: domain.AdvancedProfile{SchemaVersion: domain.CurrentSchemaVersion, Chronotype: domain.ChronotypeOwl},
	}
}

func TestPull_NoProfile(t *testing.T) {
	t.Parallel()

	c, _ := newRemote(t)
	got, err := c.Pull(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got.Profile)
	assert.Empty(t, got.OnboardingAnswers)
}

func TestPushThenPull(t *testing.T) {
	t.Parallel()

	c, acc := newRemote(t)
	ctx := context.Background()
	b := sampleBundle()

	require.NoError(t, c.Push(ctx, b))
	require.NoError(t, c.PushOnboarding(ctx, []domain.OnboardingAnswer{{QuestionKey: "sleep_quality", Answer: "poor"}}))

	stored, err := acc.GetProfile(ctx, "device-user")
	require.NoError(t, err)
	require.NotNil(t, stored.Profile.Targets)
	assert.Equal(t, b.Targets.TargetCalories, stored.Profile.Targets.TargetCalories)
	assert.Equal(t, domain.ChronotypeOwl, stored.Profile.Advanced.Chronotype)

	got, err := c.Pull(ctx)
	require.NoError(t, err)
	require.NotNil(t, got.Profile)
	rp := got.Profile
	require.NotNil(t, rp.Name)
	assert.Equal(t, "Alex Doe", *rp.Name)
	require.NotNil(t, rp.Birthdate)
	assert.True(t, rp.Birthdate.Equal(b.Profile.Birthdate))
	require.NotNil(t, rp.WeightKg)
	assert.InDelta(t, 61.0, *rp.WeightKg, 0.001)
	require.NotNil(t, rp.Allergies)
	assert.Equal(t, []string{"peanuts"}, *rp.Allergies)
	assert.Nil(t, rp.Injuries, "empty remote lists are reported as absent")
	assert.Equal(t, []domain.OnboardingAnswer{{QuestionKey: "sleep_quality", Answer: "poor"}}, got.OnboardingAnswers)
}

func TestPush_ValidationIsRejected(t *testing.T) {
	t.Parallel()

	c, _ := newRemote(t)
	b := sampleBundle()
	b.Profile.HeightCm = 0

	err := c.Push(context.Background(), b)
	require.ErrorIs(t, err, profilesync.ErrRejected)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", se.Code)
}

func TestPushOnboarding_EmptyIsNoop(t *testing.T) {
	t.Parallel()

	c := New("http://127.0.0.1:0", "")
	require.NoError(t, c.PushOnboarding(context.Background(), nil))
}

func TestDo_ServerErrorIsRetryable(t *testing.T) {
	t.Parallel()

	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(ts.Close)

	c := New(ts.URL+"/", "tok-1", WithHTTPClient(ts.Client()))
	_, err := c.Pull(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.False(t, errors.Is(err, profilesync.ErrRejected))
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestGeneratePlanAndReply(t *testing.T) {
	t.Parallel()

	c, _ := newRemote(t)
	ctx := context.Background()

	_, err := c.GeneratePlan(ctx, "", "")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "PROFILE_NOT_FOUND", se.Code)

	require.NoError(t, c.Push(ctx, sampleBundle()))

	first, err := c.GeneratePlan(ctx, "short week", "plan-1")
	require.NoError(t, err)
	assert.Contains(t, first.Plan, "# Your plan")
	stored, err := first.StoredPlan.Get()
	require.NoError(t, err)
	assert.Equal(t, "short week", stored.Notes)

	again, err := c.GeneratePlan(ctx, "short week", "plan-1")
	require.NoError(t, err)
	replayed, err := again.StoredPlan.Get()
	require.NoError(t, err)
	assert.Equal(t, stored.PlanId, replayed.PlanId)

	reply, err := c.CoachReply(ctx, "tired today", "")
	require.NoError(t, err)
	assert.Contains(t, reply, `"tired today"`)
}
