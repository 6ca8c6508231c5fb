package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/vitalcoach/coach-api/internal/adapters/remotesync"
	"github.com/vitalcoach/coach-api/internal/adapters/safefile"
	"github.com/vitalcoach/coach-api/internal/app/profiles"
	platformclock "github.com/vitalcoach/coach-api/internal/platform/clock"
	"github.com/vitalcoach/coach-api/internal/platform/config"
	"github.com/vitalcoach/coach-api/internal/platform/logging"
	clockport "github.com/vitalcoach/coach-api/internal/ports/out/clock"
)

// app holds what every subcommand shares. It is populated by open in the root PersistentPreRunE.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	dataDir    string
	remoteURL  string
	offline    bool
	verbose    bool
	raw        bool

	cfg    config.Config
	clk    clockport.Clock
	logger *zap.Logger
	repo   *profiles.Repository
	remote *remotesync.Client
}

var noticeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(lipgloss.Color("214")).
	Padding(0, 1)

func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.Device.DataDir = a.dataDir
	}
	if a.remoteURL != "" {
		cfg.Device.RemoteBaseURL = a.remoteURL
	}
	a.cfg = cfg

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	if a.logger, err = logging.New(level, "console"); err != nil {
		return err
	}
	if a.clk == nil {
		a.clk = platformclock.NewSystemClock()
	}

	opts := profiles.Options{
		Store:       safefile.New(cfg.Device.DataDir, safefile.WithClock(a.clk), safefile.WithLogger(a.logger)),
		Clock:       a.clk,
		Logger:      a.logger,
		SyncTimeout: cfg.Device.SyncTimeout,
		// Commands that need fresh remote state call Foreground explicitly.
		SkipInitialPull: true,
	}
	if !a.offline && cfg.Device.RemoteBaseURL != "" {
		a.remote = remotesync.New(cfg.Device.RemoteBaseURL, cfg.Device.RemoteToken,
			remotesync.WithHTTPClient(&http.Client{Timeout: cfg.Device.SyncTimeout}))
		opts.Remote = a.remote
	}

	if a.repo, err = profiles.Open(ctx, opts); err != nil {
		return err
	}
	for _, n := range a.repo.Notices() {
		fmt.Fprintln(a.errOut, noticeStyle.Render(n.Message()))
	}
	return nil
}

// close waits for scheduled pushes, bounded by the sync timeout, and releases the repository.
func (a *app) close() {
	if a.repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Device.SyncTimeout)
		if err := a.repo.Flush(ctx); err != nil {
			a.logger.Warn("profile sync did not finish", zap.Error(err))
		}
		cancel()
		a.repo.Close()
		a.repo = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
