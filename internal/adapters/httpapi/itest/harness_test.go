package itest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/vitalcoach/coach-api/internal/adapters/httpapi"
	memactivityrepo "github.com/vitalcoach/coach-api/internal/adapters/memory/activityrepo"
	memclock "github.com/vitalcoach/coach-api/internal/adapters/memory/clock"
	memgenerator "github.com/vitalcoach/coach-api/internal/adapters/memory/generator"
	memidempotency "github.com/vitalcoach/coach-api/internal/adapters/memory/idempotency"
	memplanrepo "github.com/vitalcoach/coach-api/internal/adapters/memory/planrepo"
	memprofilerepo "github.com/vitalcoach/coach-api/internal/adapters/memory/profilerepo"
	pgactivityrepo "github.com/vitalcoach/coach-api/internal/adapters/postgres/activityrepo"
	pgidempotency "github.com/vitalcoach/coach-api/internal/adapters/postgres/idempotency"
	pgplanrepo "github.com/vitalcoach/coach-api/internal/adapters/postgres/planrepo"
	pgprofilerepo "github.com/vitalcoach/coach-api/internal/adapters/postgres/profilerepo"
	postgres_testutil "github.com/vitalcoach/coach-api/internal/adapters/postgres/testutil"
	"github.com/vitalcoach/coach-api/internal/app/accounts"
	"github.com/vitalcoach/coach-api/internal/app/activity"
	"github.com/vitalcoach/coach-api/internal/app/plans"
	"github.com/vitalcoach/coach-api/internal/domain"
	activityrepoport "github.com/vitalcoach/coach-api/internal/ports/out/activityrepo"
	idempotencyport "github.com/vitalcoach/coach-api/internal/ports/out/idempotency"
	planrepoport "github.com/vitalcoach/coach-api/internal/ports/out/planrepo"
	profilerepoport "github.com/vitalcoach/coach-api/internal/ports/out/profilerepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

type seedFunc func(t *testing.T, userID domain.UserID, d domain.ActivityDomain, recs ...domain.ActivityRecord)

type testServer struct {
	baseURL string
	client  *http.Client
	now     time.Time
	gen     *memgenerator.Canned
	seed    seedFunc
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	now := time.Date(2024, time.October, 1, 9, 0, 0, 0, time.UTC)
	clk := memclock.NewManualClock(now)

	var (
		profileRepo profilerepoport.Repository
		activitySrc activityrepoport.Source
		planRepo    planrepoport.Repository
		idemStore   idempotencyport.Store
		seed        seedFunc
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		acts := pgactivityrepo.NewRepo(pool)
		profileRepo = pgprofilerepo.NewRepo(pool)
		activitySrc = acts
		planRepo = pgplanrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool, 24*time.Hour)
		seed = func(t *testing.T, userID domain.UserID, d domain.ActivityDomain, recs ...domain.ActivityRecord) {
			t.Helper()
			if err := acts.Add(context.Background(), userID, d, recs...); err != nil {
				t.Fatalf("seed activity: %v", err)
			}
		}
	case backendMemory:
		acts := memactivityrepo.NewRepo()
		profileRepo = memprofilerepo.NewRepo()
		activitySrc = acts
		planRepo = memplanrepo.NewRepo()
		idemStore = memidempotency.NewStore(memidempotency.WithClock(clk))
		seed = func(t *testing.T, userID domain.UserID, d domain.ActivityDomain, recs ...domain.ActivityRecord) {
			acts.Add(userID, d, recs...)
		}
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	gen := memgenerator.NewCanned()
	acc := accounts.NewService(profileRepo, clk)
	pl := plans.NewService(acc, activity.NewAggregator(activitySrc, nil, nil), gen, plans.Options{
		Plans: planRepo,
		Clock: clk,
	})
	t.Cleanup(pl.Wait)
	api := httpapi.NewServer(acc, pl, idemStore, clk, nil)

	// An empty default subject makes X-Debug-Subject mandatory, which keeps 401 coverage.
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{AuthMiddleware: httpapi.NewDevAuthMiddleware("")})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
		now:     now,
		gen:     gen,
		seed:    seed,
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, subject string, body any, headers ...string) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		Details   map[string]any `json:"details"`
		RequestID string         `json:"requestId"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) errorResponse {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
	return got
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}
