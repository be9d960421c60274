// Package runner wires configuration, storage, and the pipeline into a
// runnable process.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"feedrelay/internal/config"
	"feedrelay/internal/cookies"
	"feedrelay/internal/deps"
	"feedrelay/internal/extract"
	"feedrelay/internal/logging"
	"feedrelay/internal/notifications"
	"feedrelay/internal/pipeline"
	"feedrelay/internal/sched"
	"feedrelay/internal/store"
	"feedrelay/internal/upload"
)

// Options configures process runtime behavior.
type Options struct {
	LogLevel string
	Once     bool
}

// Run executes the relay process: a single pass by default, or a
// long-running scheduled loop when a cron expression is configured.
// Startup failures (missing tools, unopenable store) are returned;
// per-item failures inside a pass are logged and absorbed.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	runID := time.Now().UTC().Format("20060102T150405Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("feedrelay-%s.log", runID))
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String("run_id", uuid.NewString()))

	lock := flock.New(filepath.Join(cfg.Paths.DataDir, ".feedrelay.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another feedrelay instance holds the data directory")
	}
	defer lock.Unlock()

	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	for _, status := range statuses {
		logger.Info("external tool",
			logging.String("name", status.Name),
			logging.String("binary", status.Command),
			logging.Bool("available", status.Available))
	}
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		for _, status := range missing {
			logger.Error("required tool unavailable",
				logging.String("name", status.Name),
				logging.String("detail", status.Detail))
		}
		return fmt.Errorf("%d required external tool(s) unavailable", len(missing))
	}

	uploader := upload.NewCLI(upload.WithBinary(cfg.Upload.Binary))
	if cfg.Upload.BDUSS != "" {
		if err := uploader.EnsureLogin(signalCtx, cfg.Upload.BDUSS); err != nil {
			logger.Warn("uploader login failed, transfers may fail", logging.Error(err))
		}
	}

	notifier, err := notifications.New(cfg.Notify, logger)
	if err != nil {
		return fmt.Errorf("configure notifications: %w", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Info("store opened", logging.String("path", st.Path()))

	var cookieSource pipeline.CookieSource
	if cfg.CookieCloud.URL != "" {
		cookieSource = cookies.NewCloudClient(cfg.CookieCloud.URL, cfg.CookieCloud.UUID, cfg.CookieCloud.Password)
	}

	p, err := pipeline.New(pipeline.Params{
		Config:    cfg,
		Store:     st,
		Extractor: extract.NewCLI(extract.WithBinary(cfg.Extract.Binary)),
		Uploader:  uploader,
		Notifier:  notifier,
		Cookies:   cookieSource,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	if cfg.Pipeline.Cron == "" || opts.Once {
		logger.Info("starting single pass",
			logging.Int("feeds", len(cfg.Feeds.Sources)))
		if err := p.Run(signalCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info("interrupted")
				return nil
			}
			return fmt.Errorf("pipeline run: %w", err)
		}
		logger.Info("single pass complete")
		return nil
	}

	return runScheduled(signalCtx, cfg, p, logger)
}

func runScheduled(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) error {
	scheduler, err := sched.New(cfg.Pipeline.Cron, p.Run, logger)
	if err != nil {
		return err
	}
	logger.Info("scheduled mode",
		logging.String("cron", cfg.Pipeline.Cron),
		logging.Int("feeds", len(cfg.Feeds.Sources)))
	err = scheduler.Run(ctx)
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		logger.Info("shutting down")
		return nil
	}
	return err
}
