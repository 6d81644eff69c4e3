package render

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/rod/lib/launcher"

	coreconfig "github.com/m3rciful/lnmubot/core/config"
	"github.com/m3rciful/lnmubot/core/logger"
)

// ChromeRenderer prints pages with headless Chrome. Every Render starts a
// fresh browser so no state leaks between lookups.
type ChromeRenderer struct {
	execPath  string
	noSandbox bool
	timeout   time.Duration
}

// NewChrome locates a Chrome executable: the configured path first, then
// the usual install locations, then a downloaded Chromium when allowed.
func NewChrome(cfg coreconfig.RendererConfig) (*ChromeRenderer, error) {
	path, err := resolveBrowser(cfg)
	if err != nil {
		return nil, err
	}
	return &ChromeRenderer{execPath: path, noSandbox: cfg.NoSandbox, timeout: cfg.Timeout}, nil
}

func resolveBrowser(cfg coreconfig.RendererConfig) (string, error) {
	if p := strings.TrimSpace(cfg.Path); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%w: %v", ErrNoBrowser, err)
		}
		return p, nil
	}
	if p, ok := launcher.LookPath(); ok {
		return p, nil
	}
	if !cfg.AutoDownload {
		return "", ErrNoBrowser
	}
	logger.Info(logger.Background(), "render", "browser.download")
	p, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("render: downloading browser: %w", err)
	}
	return p, nil
}

// ExecPath is the browser executable in use.
func (r *ChromeRenderer) ExecPath() string { return r.execPath }

// Render navigates to req.URL with req.Cookies set and prints the page.
func (r *ChromeRenderer) Render(ctx context.Context, req Request) (err error) {
	start := time.Now()
	defer func() { logRender(ctx, "chrome", req, start, err) }()
	if err := req.validate(); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(r.execPath),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-first-run", true),
	)
	if r.noSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	var buf []byte
	if err := chromedp.Run(tabCtx,
		setCookies(req),
		chromedp.Navigate(req.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			return err
		}),
	); err != nil {
		return fmt.Errorf("render: chrome: %w", err)
	}
	if err := os.WriteFile(req.Path, buf, 0o644); err != nil {
		return fmt.Errorf("render: write pdf: %w", err)
	}
	return nil
}

func setCookies(req Request) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if len(req.Cookies) == 0 {
			return nil
		}
		params := make([]*network.CookieParam, 0, len(req.Cookies))
		for _, c := range req.Cookies {
			params = append(params, &network.CookieParam{Name: c.Name, Value: c.Value, URL: req.URL})
		}
		return network.SetCookies(params).Do(ctx)
	})
}
