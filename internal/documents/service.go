// Package documents produces the PDFs a user asks for: it looks up the
// result page or builds the admit card link, renders it and checks the file.
package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/lnmubot/core/logger"
	"github.com/m3rciful/lnmubot/core/metrics"
	"github.com/m3rciful/lnmubot/core/netutil"
	"github.com/m3rciful/lnmubot/internal/files"
	"github.com/m3rciful/lnmubot/internal/portal"
	"github.com/m3rciful/lnmubot/internal/render"
)

var (
	// ErrNoResult means the portal answered but had no result for the roll number.
	ErrNoResult = errors.New("documents: no result found")
	// ErrRender wraps renderer and inspection failures. These never count as
	// connectivity errors, even when the engine hit its deadline.
	ErrRender = errors.New("documents: render failed")
)

// Document kinds, used as metric and log labels.
const (
	KindResult    = "result"
	KindAdmitCard = "admit_card"
)

// Outcome groups lookup errors the way users are told about them.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeNotFound Outcome = "not_found"
	OutcomeNetwork  Outcome = "network"
	OutcomeError    Outcome = "error"
)

// Classify maps err to its user-facing outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNoResult):
		return OutcomeNotFound
	case errors.Is(err, ErrRender):
		return OutcomeError
	case netutil.IsNetworkError(err):
		return OutcomeNetwork
	default:
		return OutcomeError
	}
}

// Portal is the part of the portal client the service needs.
type Portal interface {
	LookupResult(ctx context.Context, roll string) (portal.Submission, error)
	AdmitCardURL(roll, mobile string) string
}

// Document is a rendered PDF ready for upload.
type Document struct {
	Path    string
	Caption string
	Pages   int
}

// Service wires the portal, the renderer and the working directory.
type Service struct {
	Portal   Portal
	Renderer render.Renderer
	Files    *files.Store
	Metrics  *metrics.Metrics

	// Inspect validates a rendered file; defaults to render.Inspect.
	Inspect func(path string) (int, error)
	// Now defaults to time.Now.
	Now func() time.Time
}

// Result looks up roll and renders the page the portal redirected to.
// caption names the document in the upload.
func (s *Service) Result(ctx context.Context, roll, caption string) (doc Document, err error) {
	roll = strings.TrimSpace(roll)
	defer func() { s.observe(ctx, KindResult, err) }()

	start := time.Now()
	sub, err := s.Portal.LookupResult(ctx, roll)
	s.Metrics.ObserveFetch(time.Since(start))
	if err != nil {
		return Document{}, err
	}
	if sub.NoResult {
		return Document{}, ErrNoResult
	}

	doc = Document{Path: s.Files.ResultPath(), Caption: caption + " PDF generated"}
	req := render.Request{URL: sub.FinalURL, Path: doc.Path, Cookies: sub.Cookies}
	if doc.Pages, err = s.render(ctx, KindResult, req); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// AdmitCard renders the admit card for roll and mobile.
func (s *Service) AdmitCard(ctx context.Context, roll, mobile string) (doc Document, err error) {
	roll, mobile = strings.TrimSpace(roll), strings.TrimSpace(mobile)
	defer func() { s.observe(ctx, KindAdmitCard, err) }()

	doc = Document{Path: s.Files.AdmitCardPath(roll), Caption: "Admit Card PDF generated."}
	req := render.Request{URL: s.Portal.AdmitCardURL(roll, mobile), Path: doc.Path}
	if doc.Pages, err = s.render(ctx, KindAdmitCard, req); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Sweep removes expired files from the working directory.
func (s *Service) Sweep(ctx context.Context) int {
	removed, err := s.Files.Sweep(s.now())
	if err != nil {
		logger.LogEvent(ctx, logger.Files, slog.LevelWarn, "files.sweep",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
			slog.Int("removed", len(removed)),
		)
	}
	s.Metrics.AddSwept(len(removed))
	return len(removed)
}

func (s *Service) render(ctx context.Context, kind string, req render.Request) (int, error) {
	start := time.Now()
	err := s.Renderer.Render(ctx, req)
	s.Metrics.ObserveRender(kind, time.Since(start))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrRender, kind, err)
	}
	inspect := s.Inspect
	if inspect == nil {
		inspect = render.Inspect
	}
	pages, err := inspect(req.Path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrRender, kind, err)
	}
	return pages, nil
}

func (s *Service) observe(ctx context.Context, kind string, err error) {
	outcome := Classify(err)
	s.Metrics.ObserveLookup(kind, string(outcome))
	if err == nil || outcome == OutcomeNotFound {
		return
	}
	logger.LogEvent(ctx, logger.Portal, slog.LevelWarn, "document.fail",
		slog.String("status", "fail"),
		slog.String("kind", kind),
		slog.String("outcome", string(outcome)),
		slog.String("err", err.Error()),
		slog.String("err_kind", netutil.Classify(err)),
	)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
