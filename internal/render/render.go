// Package render turns portal pages into PDF files.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/lnmubot/core/config"
	"github.com/m3rciful/lnmubot/core/logger"
)

var (
	// ErrNoBrowser means no rendering engine executable could be located.
	ErrNoBrowser = errors.New("render: no rendering engine found")
	// ErrNotPDF means the engine produced something other than a PDF.
	ErrNotPDF = errors.New("render: output is not a PDF")
)

// Request describes one page to print.
type Request struct {
	URL  string
	Path string
	// Cookies are sent with the page request so session-bound pages render.
	Cookies []*http.Cookie
}

func (r Request) validate() error {
	if !strings.HasPrefix(r.URL, "http://") && !strings.HasPrefix(r.URL, "https://") {
		return fmt.Errorf("render: invalid url %q", r.URL)
	}
	if strings.TrimSpace(r.Path) == "" {
		return errors.New("render: empty output path")
	}
	return nil
}

// Renderer prints a URL to a PDF file at Request.Path.
type Renderer interface {
	Render(ctx context.Context, req Request) error
}

// New builds the renderer selected by cfg.Backend.
func New(cfg coreconfig.RendererConfig) (Renderer, error) {
	switch cfg.Backend {
	case coreconfig.BackendWkhtmltopdf:
		return NewWkhtmltopdf(cfg)
	case coreconfig.BackendChrome, "":
		return NewChrome(cfg)
	default:
		return nil, fmt.Errorf("render: unknown backend %q", cfg.Backend)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func logRender(ctx context.Context, engine string, req Request, start time.Time, err error) {
	if err != nil {
		logger.LogEvent(ctx, logger.Render, slog.LevelWarn, "render.fail",
			slog.String("status", "fail"),
			slog.String("kind", engine),
			slog.String("url", req.URL),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return
	}
	logger.LogEvent(ctx, logger.Render, slog.LevelInfo, "render.done",
		slog.String("status", "ok"),
		slog.String("kind", engine),
		slog.String("url", req.URL),
		slog.String("path", req.Path),
		slog.Duration("duration", logger.Took(start)),
	)
}
