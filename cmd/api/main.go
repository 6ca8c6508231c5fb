package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vitalcoach/coach-api/internal/adapters/gemini"
	"github.com/vitalcoach/coach-api/internal/adapters/httpapi"
	memactivityrepo "github.com/vitalcoach/coach-api/internal/adapters/memory/activityrepo"
	memgenerator "github.com/vitalcoach/coach-api/internal/adapters/memory/generator"
	memidempotency "github.com/vitalcoach/coach-api/internal/adapters/memory/idempotency"
	memplanrepo "github.com/vitalcoach/coach-api/internal/adapters/memory/planrepo"
	memprofilerepo "github.com/vitalcoach/coach-api/internal/adapters/memory/profilerepo"
	postgres "github.com/vitalcoach/coach-api/internal/adapters/postgres"
	pgactivityrepo "github.com/vitalcoach/coach-api/internal/adapters/postgres/activityrepo"
	pgidempotency "github.com/vitalcoach/coach-api/internal/adapters/postgres/idempotency"
	pgplanrepo "github.com/vitalcoach/coach-api/internal/adapters/postgres/planrepo"
	pgprofilerepo "github.com/vitalcoach/coach-api/internal/adapters/postgres/profilerepo"
	"github.com/vitalcoach/coach-api/internal/app/accounts"
	"github.com/vitalcoach/coach-api/internal/app/activity"
	"github.com/vitalcoach/coach-api/internal/app/plans"
	"github.com/vitalcoach/coach-api/internal/platform/auth/jwtverifier"
	platformclock "github.com/vitalcoach/coach-api/internal/platform/clock"
	"github.com/vitalcoach/coach-api/internal/platform/config"
	"github.com/vitalcoach/coach-api/internal/platform/logging"
	"github.com/vitalcoach/coach-api/internal/platform/metrics"
	activityrepoport "github.com/vitalcoach/coach-api/internal/ports/out/activityrepo"
	generatorport "github.com/vitalcoach/coach-api/internal/ports/out/generator"
	idempotencyport "github.com/vitalcoach/coach-api/internal/ports/out/idempotency"
	planrepoport "github.com/vitalcoach/coach-api/internal/ports/out/planrepo"
	profilerepoport "github.com/vitalcoach/coach-api/internal/ports/out/profilerepo"
)

const idempotencyTTL = 24 * time.Hour

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api exited", zap.Error(err))
	}
}

type storage struct {
	profiles profilerepoport.Repository
	activity activityrepoport.Source
	plans    planrepoport.Repository
	idem     idempotencyport.Store
	close    func()
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (storage, error) {
	switch cfg.Backend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{MaxConns: cfg.MaxConns})
		if err != nil {
			return storage{}, fmt.Errorf("invalid postgres config: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return storage{}, err
		}
		return storage{
			profiles: pgprofilerepo.NewRepo(pool),
			activity: pgactivityrepo.NewRepo(pool),
			plans:    pgplanrepo.NewRepo(pool),
			idem:     pgidempotency.NewStore(pool, idempotencyTTL),
			close:    pool.Close,
		}, nil
	default:
		return storage{
			profiles: memprofilerepo.NewRepo(),
			activity: memactivityrepo.NewRepo(),
			plans:    memplanrepo.NewRepo(),
			idem:     memidempotency.NewStore(),
			close:    func() {},
		}, nil
	}
}

func authMiddleware(cfg config.AuthConfig) func(http.Handler) http.Handler {
	switch cfg.Mode {
	case "jwt":
		return httpapi.NewJWTAuthMiddleware(jwtverifier.New(cfg.JWT))
	case "dev":
		return httpapi.NewDevAuthMiddleware(cfg.DevSubject)
	default:
		return httpapi.NewHeaderAuthMiddleware(cfg.UserHeader)
	}
}

func newGenerator(ctx context.Context, cfg config.LLMConfig) (generatorport.Generator, error) {
	if cfg.Provider == "genai" {
		return gemini.New(ctx, cfg.APIKey, cfg.Model)
	}
	return memgenerator.NewCanned(), nil
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.close()

	gen, err := newGenerator(ctx, cfg.LLM)
	if err != nil {
		return err
	}

	clk := platformclock.NewSystemClock()
	m := metrics.New()

	acc := accounts.NewService(store.profiles, clk)
	pl := plans.NewService(acc, activity.NewAggregator(store.activity, logger, m), gen, plans.Options{
		Plans:         store.plans,
		Clock:         clk,
		Logger:        logger,
		Metrics:       m,
		Timeout:       cfg.LLM.Timeout,
		ActivityLimit: cfg.Activity.PerDomainLimit,
	})

	api := httpapi.NewServer(acc, pl, store.idem, clk, logger)
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		AuthMiddleware: authMiddleware(cfg.Auth),
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		Metrics:        m,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("api listening",
			zap.String("port", cfg.HTTP.Port),
			zap.String("storage", cfg.Storage.Backend),
			zap.String("auth", cfg.Auth.Mode),
			zap.String("llm", cfg.LLM.Provider),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	// Generations detached from their requests still persist into storage.
	pl.Wait()
	return nil
}
