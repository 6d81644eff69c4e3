package render

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	coreconfig "github.com/m3rciful/lnmubot/core/config"
)

func TestRequestValidate(t *testing.T) {
	cases := []struct {
		req Request
		ok  bool
	}{
		{Request{URL: "https://example.com/a", Path: "/tmp/a.pdf"}, true},
		{Request{URL: "ftp://example.com/a", Path: "/tmp/a.pdf"}, false},
		{Request{URL: "not a url", Path: "/tmp/a.pdf"}, false},
		{Request{URL: "http://example.com", Path: " "}, false},
	}
	for _, tc := range cases {
		if err := tc.req.validate(); (err == nil) != tc.ok {
			t.Fatalf("validate(%+v) = %v, want ok=%v", tc.req, err, tc.ok)
		}
	}
}

func TestWkhtmltopdfArgs(t *testing.T) {
	args := wkhtmltopdfArgs(Request{
		URL:     "https://portal/result",
		Path:    "/out/x.pdf",
		Cookies: []*http.Cookie{{Name: "ASP.NET_SessionId", Value: "abc"}},
	})
	want := "--quiet --cookie ASP.NET_SessionId abc https://portal/result /out/x.pdf"
	if got := strings.Join(args, " "); got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func fakeWkhtmltopdf(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script engine stub needs a POSIX shell")
	}
	bin := filepath.Join(t.TempDir(), "wkhtmltopdf")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return bin
}

func TestWkhtmltopdfRendererRunsBinary(t *testing.T) {
	// The stub writes its arguments into the output file, the last argument.
	bin := fakeWkhtmltopdf(t, `for a; do last=$a; done; printf '%s\n' "$@" > "$last"`)
	r, err := NewWkhtmltopdf(coreconfig.RendererConfig{Path: bin, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out := filepath.Join(t.TempDir(), "res.pdf")
	err = r.Render(context.Background(), Request{
		URL:     "https://portal/result?id=1",
		Path:    out,
		Cookies: []*http.Cookie{{Name: "sid", Value: "v"}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := strings.Fields(string(data)); strings.Join(got, " ") != "--quiet --cookie sid v https://portal/result?id=1 "+out {
		t.Fatalf("engine saw %v", got)
	}
}

func TestWkhtmltopdfRendererFailure(t *testing.T) {
	bin := fakeWkhtmltopdf(t, "echo 'Exit with code 1 due to network error: HostNotFoundError' >&2\nexit 1\n")
	r, err := NewWkhtmltopdf(coreconfig.RendererConfig{Path: bin})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	err = r.Render(context.Background(), Request{URL: "https://nowhere.invalid/", Path: filepath.Join(t.TempDir(), "x.pdf")})
	if err == nil || !strings.Contains(err.Error(), "HostNotFoundError") {
		t.Fatalf("err = %v, want engine stderr", err)
	}
}

func TestWkhtmltopdfRendererTimeout(t *testing.T) {
	bin := fakeWkhtmltopdf(t, "exec sleep 5\n")
	r, err := NewWkhtmltopdf(coreconfig.RendererConfig{Path: bin, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	err = r.Render(context.Background(), Request{URL: "https://portal/", Path: filepath.Join(t.TempDir(), "x.pdf")})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestNewWkhtmltopdfMissingBinary(t *testing.T) {
	_, err := NewWkhtmltopdf(coreconfig.RendererConfig{Path: filepath.Join(t.TempDir(), "nope")})
	if !errors.Is(err, ErrNoBrowser) {
		t.Fatalf("err = %v, want ErrNoBrowser", err)
	}
}

func TestNewChromeMissingPath(t *testing.T) {
	_, err := NewChrome(coreconfig.RendererConfig{Path: filepath.Join(t.TempDir(), "chrome")})
	if !errors.Is(err, ErrNoBrowser) {
		t.Fatalf("err = %v, want ErrNoBrowser", err)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New(coreconfig.RendererConfig{Backend: "phantomjs"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestChromeRendererPrintsPage(t *testing.T) {
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no chrome installed")
	}
	srv := newCookiePage(t)
	defer srv.Close()

	r, err := NewChrome(coreconfig.RendererConfig{Path: bin, NoSandbox: true, Timeout: 30 * time.Second})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out := filepath.Join(t.TempDir(), "page.pdf")
	err = r.Render(context.Background(), Request{
		URL:     srv.URL + "/result",
		Path:    out,
		Cookies: []*http.Cookie{{Name: "sid", Value: "ok"}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if pages, err := Inspect(out); err != nil || pages < 1 {
		t.Fatalf("inspect = %d, %v", pages, err)
	}
	if !srv.sawCookie() {
		t.Fatal("session cookie was not forwarded to the page request")
	}
}
