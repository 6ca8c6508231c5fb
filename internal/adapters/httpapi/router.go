package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/vitalcoach/coach-api/internal/platform/logging"
	"github.com/vitalcoach/coach-api/internal/platform/metrics"
)

type RouterOptions struct {
	// AuthMiddleware resolves the caller's user id. Required.
	AuthMiddleware func(http.Handler) http.Handler
	// CORSOrigins enables CORS for the listed browser origins.
	CORSOrigins []string
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// NewRouter constructs the API HTTP router.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(echoRequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logging.OrNop(opts.Logger)))
	r.Use(middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Debug-Subject"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         600,
		}).Handler)
	}
	if opts.AuthMiddleware != nil {
		r.Use(opts.AuthMiddleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())

	r.Get("/profile", s.GetProfile)
	r.Put("/profile", s.UpdateProfile)
	r.Post("/profile/onboarding", s.UpsertOnboarding)
	r.Post("/ai/generate-plan", s.GeneratePlan)
	r.Post("/ai/coach-reply", s.CoachReply)
	r.Get("/ai/plans", s.ListPlans)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeOASError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeOASError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})
	return r
}

// echoRequestID returns the request id to the caller.
func echoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(middleware.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
