package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/lnmubot/core/config"
)

// WkhtmltopdfRenderer shells out to the wkhtmltopdf binary.
type WkhtmltopdfRenderer struct {
	bin     string
	timeout time.Duration
}

// NewWkhtmltopdf uses cfg.Path, or wkhtmltopdf from PATH.
func NewWkhtmltopdf(cfg coreconfig.RendererConfig) (*WkhtmltopdfRenderer, error) {
	bin := strings.TrimSpace(cfg.Path)
	if bin == "" {
		bin = "wkhtmltopdf"
	}
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoBrowser, err)
	}
	return &WkhtmltopdfRenderer{bin: resolved, timeout: cfg.Timeout}, nil
}

// Render runs wkhtmltopdf for req under ctx.
func (r *WkhtmltopdfRenderer) Render(ctx context.Context, req Request) (err error) {
	start := time.Now()
	defer func() { logRender(ctx, "wkhtmltopdf", req, start, err) }()
	if err := req.validate(); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.bin, wkhtmltopdfArgs(req)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("render: wkhtmltopdf: %w", ctx.Err())
		}
		return fmt.Errorf("render: wkhtmltopdf: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func wkhtmltopdfArgs(req Request) []string {
	args := []string{"--quiet"}
	for _, c := range req.Cookies {
		args = append(args, "--cookie", c.Name, c.Value)
	}
	return append(args, req.URL, req.Path)
}
