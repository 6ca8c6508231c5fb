package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	memactivityrepo "github.com/vitalcoach/coach-api/internal/adapters/memory/activityrepo"
	memclock "github.com/vitalcoach/coach-api/internal/adapters/memory/clock"
	memgenerator "github.com/vitalcoach/coach-api/internal/adapters/memory/generator"
	memidempotency "github.com/vitalcoach/coach-api/internal/adapters/memory/idempotency"
	memplanrepo "github.com/vitalcoach/coach-api/internal/adapters/memory/planrepo"
	memprofilerepo "github.com/vitalcoach/coach-api/internal/adapters/memory/profilerepo"
	"github.com/vitalcoach/coach-api/internal/app/accounts"
	"github.com/vitalcoach/coach-api/internal/app/activity"
	"github.com/vitalcoach/coach-api/internal/app/plans"
	"github.com/vitalcoach/coach-api/internal/domain"
	"github.com/vitalcoach/coach-api/internal/platform/metrics"
	"github.com/vitalcoach/coach-api/internal/ports/out/activityrepo"
)

var testNow = time.Date(2024, time.October, 1, 9, 0, 0, 0, time.UTC)

type testAPI struct {
	handler  http.Handler
	activity *memactivityrepo.Repo
	sources  *breakableSource
	plans    *memplanrepo.Repo
	gen      *memgenerator.Canned
}

// breakableSource wraps a Source and fails the domains passed to breakDomains.
type breakableSource struct {
	activityrepo.Source
	mu     sync.Mutex
	broken map[domain.ActivityDomain]bool
}

func (s *breakableSource) breakDomains(ds ...domain.ActivityDomain) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range ds {
		s.broken[d] = true
	}
}

func (s *breakableSource) Recent(ctx context.Context, userID domain.UserID, d domain.ActivityDomain, limit int) ([]domain.ActivityRecord, error) {
	s.mu.Lock()
	broken := s.broken[d]
	s.mu.Unlock()
	if broken {
		return nil, fmt.Errorf("query %s: connection reset", d)
	}
	return s.Source.Recent(ctx, userID, d, limit)
}

func newTestAPI(t *testing.T, auth func(http.Handler) http.Handler) testAPI {
	t.Helper()
	if auth == nil {
		auth = NewHeaderAuthMiddleware("X-User-Id")
	}
	clk := memclock.NewManualClock(testNow)
	m := metrics.New()
	act := memactivityrepo.NewRepo()
	src := &breakableSource{Source: act, broken: map[domain.ActivityDomain]bool{}}
	planRepo := memplanrepo.NewRepo()
	gen := memgenerator.NewCanned()

	acc := accounts.NewService(memprofilerepo.NewRepo(), clk)
	pl := plans.NewService(acc, activity.NewAggregator(src, nil, m), gen, plans.Options{
		Plans:   planRepo,
		Clock:   clk,
		Metrics: m,
	})
	srv := NewServer(acc, pl, memidempotency.NewStore(memidempotency.WithClock(clk)), clk, nil)
	h := NewRouter(srv, RouterOptions{
		AuthMiddleware: auth,
		CORSOrigins:    []string{"https://app.example"},
		Metrics:        m,
	})
	return testAPI{handler: h, activity: act, sources: src, plans: planRepo, gen: gen}
}

func (a testAPI) do(t *testing.T, method, path, user string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatalf("encode body: %v", err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-Id", user)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v body=%s", v, err, rec.Body.String())
	}
	return v
}
