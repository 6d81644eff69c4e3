package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	coreconfig "github.com/m3rciful/lnmubot/core/config"
	"github.com/m3rciful/lnmubot/core/logger"
	"github.com/m3rciful/lnmubot/core/metrics"
	"github.com/m3rciful/lnmubot/core/worker"
	"github.com/m3rciful/lnmubot/internal/documents"
	"github.com/m3rciful/lnmubot/internal/files"
	"github.com/m3rciful/lnmubot/internal/portal"
	"github.com/m3rciful/lnmubot/internal/render"
)

// Options control the bootstrap pipeline. Nil hooks use the real implementations.
type Options struct {
	Config *coreconfig.Config

	LoggerInit  func(*coreconfig.Config) error
	NewRenderer func(coreconfig.RendererConfig) (render.Renderer, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Metrics   *metrics.Metrics
	Files     *files.Store
	Documents *documents.Service
	Pool      *worker.Pool
}

// Close stops the worker pool, waiting for queued jobs.
func (r *Result) Close() {
	if r != nil && r.Pool != nil {
		r.Pool.Close()
	}
}

// Run initializes the logger, prepares the working directory, locates the
// PDF engine and builds the document service.
func Run(opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	store := files.New(cfg.Files.Dir, cfg.Files.MaxAge)
	if err := store.Prepare(); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	newRenderer := opts.NewRenderer
	if newRenderer == nil {
		newRenderer = render.New
	}
	renderer, err := newRenderer(cfg.Renderer)
	if err != nil {
		if errors.Is(err, render.ErrNoBrowser) {
			return nil, fmt.Errorf("bootstrap: %w (set renderer.path, or renderer.auto_download for chrome)", err)
		}
		return nil, fmt.Errorf("bootstrap: renderer: %w", err)
	}

	client, err := portal.New(portal.Options{
		ResultURL:    cfg.Portal.ResultURL,
		AdmitCardURL: cfg.Portal.AdmitCardURL,
		Timeout:      cfg.Portal.Timeout,
		UserAgent:    cfg.Portal.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	m := metrics.New()
	pool := worker.New(worker.Options{
		Workers:    cfg.Workers.Count,
		QueueSize:  cfg.Workers.QueueSize,
		JobTimeout: cfg.Workers.JobTimeout,
		OnInline:   m.IncInline,
	})

	logger.L.LogAttrs(logger.Background(), slog.LevelInfo, "bootstrap",
		slog.String("component", "app"),
		slog.String("event", "bootstrap"),
		slog.String("status", "ok"),
		slog.String("kind", cfg.Renderer.Backend),
		slog.String("path", store.Dir),
		slog.Int("workers", cfg.Workers.Count),
	)

	return &Result{
		Metrics: m,
		Files:   store,
		Documents: &documents.Service{
			Portal:   client,
			Renderer: renderer,
			Files:    store,
			Metrics:  m,
		},
		Pool: pool,
	}, nil
}
