package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vitalcoach/coach-api/internal/platform/auth/jwkstest"
	"github.com/vitalcoach/coach-api/internal/platform/logging"
)

// Tiny dev-only JWT issuer and JWKS server.
//
// This is NOT a full OIDC provider. It exists so the API can run locally with AUTH_MODE=jwt
// against real RS256 verification (iss/aud/exp and JWKS rotation by kid).

func main() {
	logger, err := logging.New(getenv("LOG_LEVEL", "info"), getenv("LOG_FORMAT", "console"))
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	port := getenv("PORT", "5556")
	issuer := getenv("ISSUER", "http://devjwt:5556")
	audience := getenv("AUDIENCE", "coach-api")
	kid := getenv("KID", "dev-kid-1")
	ttl := getenvDuration("TTL", 30*time.Minute)

	kp, err := jwkstest.GenerateRSAKeypair(kid)
	if err != nil {
		logger.Fatal("generate key", zap.Error(err))
	}
	jwksJSON, err := jwkstest.KeySetJSON(kp)
	if err != nil {
		logger.Fatal("marshal jwks", zap.Error(err))
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	// Common JWKS path used by many providers.
	r.Get("/.well-known/jwks.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jwksJSON)
	})

	// Mint a JWT:
	//   GET /token?sub=user-123
	r.Get("/token", func(w http.ResponseWriter, r *http.Request) {
		sub := strings.TrimSpace(r.URL.Query().Get("sub"))
		if sub == "" {
			http.Error(w, "missing sub", http.StatusBadRequest)
			return
		}

		now := time.Now().UTC()
		// Backdate nbf slightly for local clock skew.
		nbf := now.Add(-5 * time.Second)
		token, err := jwkstest.Mint(kp, issuer, audience, sub, now, ttl, &nbf)
		if err != nil {
			logger.Error("mint token", zap.Error(err))
			http.Error(w, "failed to mint token", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": token,
			"sub":   sub,
			"iss":   issuer,
			"aud":   audience,
			"exp":   now.Add(ttl).Unix(),
		})
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("devjwt listening",
		zap.String("port", port),
		zap.String("iss", issuer),
		zap.String("aud", audience),
		zap.String("kid", kid),
		zap.Duration("ttl", ttl),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("listen", zap.Error(err))
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
