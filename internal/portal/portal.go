// Package portal talks to the university result portal: it scrapes the
// ASP.NET search form, posts a roll number and builds admit card links.
package portal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"

	"github.com/m3rciful/lnmubot/core/logger"
	"github.com/m3rciful/lnmubot/core/netutil"
)

// Form field names and fixed values expected by the search page.
const (
	fieldViewState          = "__VIEWSTATE"
	fieldViewStateGenerator = "__VIEWSTATEGENERATOR"
	fieldEventValidation    = "__EVENTVALIDATION"
	fieldRollNo             = "txtRollNo"
	fieldSearch             = "btnSearch"

	viewStateGenerator = "38A17705"
	searchValue        = "Search"

	noResultMarker = "no result found"
	maxBodyBytes   = 8 << 20
)

// ErrMissingField means the search page lacked a hidden form field.
var ErrMissingField = errors.New("portal: hidden form field missing")

// Options configures a Client.
type Options struct {
	ResultURL    string
	AdmitCardURL string
	Timeout      time.Duration
	UserAgent    string
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Client holds the portal endpoints. It is safe for concurrent use; each
// lookup gets its own cookie jar.
type Client struct {
	resultURL    string
	admitCardURL string
	timeout      time.Duration
	userAgent    string
	transport    http.RoundTripper
}

// New validates the endpoints and returns a Client.
func New(opts Options) (*Client, error) {
	for name, raw := range map[string]string{"result": opts.ResultURL, "admit card": opts.AdmitCardURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("portal: invalid %s url %q", name, raw)
		}
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		resultURL:    opts.ResultURL,
		admitCardURL: opts.AdmitCardURL,
		timeout:      opts.Timeout,
		userAgent:    strings.TrimSpace(opts.UserAgent),
		transport:    transport,
	}, nil
}

// Form carries the anti-forgery fields scraped from the search page.
type Form struct {
	ViewState       string
	EventValidation string
}

// Submission is the outcome of posting a roll number.
type Submission struct {
	// FinalURL is the URL of the page after redirects; this is what gets rendered.
	FinalURL string
	// NoResult is set when the page says no result was found.
	NoResult bool
	// Cookies are the session cookies valid for FinalURL.
	Cookies []*http.Cookie
}

// Session is one cookie-carrying conversation with the portal.
type Session struct {
	client *Client
	http   *http.Client
	jar    http.CookieJar
}

// NewSession starts a session with an empty cookie jar.
func (c *Client) NewSession() (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("portal: cookie jar: %w", err)
	}
	return &Session{
		client: c,
		http:   &http.Client{Jar: jar, Timeout: c.timeout, Transport: c.transport},
		jar:    jar,
	}, nil
}

// FetchForm loads the search page and extracts __VIEWSTATE and
// __EVENTVALIDATION by element id.
func (s *Session) FetchForm(ctx context.Context) (Form, error) {
	req, err := s.newRequest(ctx, http.MethodGet, s.client.resultURL, nil)
	if err != nil {
		return Form{}, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return Form{}, fmt.Errorf("portal: fetch form: %w", err)
	}
	defer resp.Body.Close()
	if err := netutil.CheckStatus(http.MethodGet, s.client.resultURL, resp.StatusCode); err != nil {
		return Form{}, fmt.Errorf("portal: fetch form: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Form{}, fmt.Errorf("portal: parse form: %w", err)
	}
	var form Form
	if form.ViewState, err = inputValue(doc, fieldViewState); err != nil {
		return Form{}, err
	}
	if form.EventValidation, err = inputValue(doc, fieldEventValidation); err != nil {
		return Form{}, err
	}
	return form, nil
}

// SubmitRoll posts the search form for roll and follows redirects.
func (s *Session) SubmitRoll(ctx context.Context, form Form, roll string) (Submission, error) {
	body := SearchValues(form, roll).Encode()
	req, err := s.newRequest(ctx, http.MethodPost, s.client.resultURL, strings.NewReader(body))
	if err != nil {
		return Submission{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return Submission{}, fmt.Errorf("portal: submit roll: %w", err)
	}
	defer resp.Body.Close()
	if err := netutil.CheckStatus(http.MethodPost, s.client.resultURL, resp.StatusCode); err != nil {
		return Submission{}, fmt.Errorf("portal: submit roll: %w", err)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Submission{}, fmt.Errorf("portal: read result page: %w", err)
	}
	final := resp.Request.URL
	return Submission{
		FinalURL: final.String(),
		NoResult: IsNoResult(string(page)),
		Cookies:  s.jar.Cookies(final),
	}, nil
}

// LookupResult runs the GET then POST exchange for roll in a fresh session.
func (c *Client) LookupResult(ctx context.Context, roll string) (Submission, error) {
	start := time.Now()
	s, err := c.NewSession()
	if err != nil {
		return Submission{}, err
	}
	form, err := s.FetchForm(ctx)
	if err != nil {
		logLookup(ctx, start, Submission{}, err)
		return Submission{}, err
	}
	sub, err := s.SubmitRoll(ctx, form, roll)
	logLookup(ctx, start, sub, err)
	return sub, err
}

// AdmitCardURL builds the admit card link on the configured base URL.
func (c *Client) AdmitCardURL(roll, mobile string) string {
	return AdmitCardURL(c.admitCardURL, roll, mobile)
}

// SearchValues is the exact POST body for a roll number search.
func SearchValues(form Form, roll string) url.Values {
	return url.Values{
		fieldViewState:          {form.ViewState},
		fieldViewStateGenerator: {viewStateGenerator},
		fieldEventValidation:    {form.EventValidation},
		fieldRollNo:             {roll},
		fieldSearch:             {searchValue},
	}
}

// IsNoResult reports whether page contains "no result found", ignoring case.
func IsNoResult(page string) bool {
	return strings.Contains(strings.ToLower(page), noResultMarker)
}

// AdmitCardURL appends ?p1=<roll>&p2=<mobile> to base. Values are
// query-escaped, so plain digits pass through unchanged.
func AdmitCardURL(base, roll, mobile string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "p1=" + url.QueryEscape(roll) + "&p2=" + url.QueryEscape(mobile)
}

func (s *Session) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("portal: build request: %w", err)
	}
	if s.client.userAgent != "" {
		req.Header.Set("User-Agent", s.client.userAgent)
	}
	return req, nil
}

func inputValue(doc *goquery.Document, id string) (string, error) {
	value, ok := doc.Find("input#" + id).First().Attr("value")
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingField, id)
	}
	return value, nil
}

func logLookup(ctx context.Context, start time.Time, sub Submission, err error) {
	if err != nil {
		logger.LogEvent(ctx, logger.Portal, slog.LevelWarn, "lookup.fail",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
			slog.String("err_kind", netutil.Classify(err)),
			slog.Duration("duration", logger.Took(start)),
		)
		return
	}
	outcome := "ok"
	if sub.NoResult {
		outcome = "not_found"
	}
	logger.LogEvent(ctx, logger.Portal, slog.LevelInfo, "lookup.done",
		slog.String("status", "ok"),
		slog.String("outcome", outcome),
		slog.String("final_url", sub.FinalURL),
		slog.Duration("duration", logger.Took(start)),
	)
}
