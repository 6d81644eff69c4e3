package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/lnmubot/core/netutil"
)

const formPage = `<html><body><form method="post" action="./SearchResultFirstPart_22_25.aspx">
<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="vs+/=abc" />
<input type="hidden" name="__VIEWSTATEGENERATOR" id="__VIEWSTATEGENERATOR" value="38A17705" />
<input type="hidden" name="__EVENTVALIDATION" id="__EVENTVALIDATION" value="ev&123" />
<input name="txtRollNo" type="text" id="txtRollNo" />
<input type="submit" name="btnSearch" value="Search" id="btnSearch" />
</form></body></html>`

type portalStub struct {
	t         *testing.T
	formHTML  string
	resultTxt string
	gotForm   map[string][]string
	gotCookie bool
}

func (p *portalStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/LNMU_ERP/Search.aspx", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			http.SetCookie(w, &http.Cookie{Name: "ASP.NET_SessionId", Value: "sess-1", Path: "/"})
			fmt.Fprint(w, p.formHTML)
		case http.MethodPost:
			if c, err := r.Cookie("ASP.NET_SessionId"); err == nil && c.Value == "sess-1" {
				p.gotCookie = true
			}
			if err := r.ParseForm(); err != nil {
				p.t.Errorf("parse form: %v", err)
			}
			p.gotForm = r.PostForm
			http.Redirect(w, r, "/LNMU_ERP/ResultPage.aspx?id=42", http.StatusFound)
		}
	})
	mux.HandleFunc("/LNMU_ERP/ResultPage.aspx", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, p.resultTxt)
	})
	return mux
}

func newTestClient(t *testing.T, srv *httptest.Server, timeout time.Duration) *Client {
	t.Helper()
	c, err := New(Options{
		ResultURL:    srv.URL + "/LNMU_ERP/Search.aspx",
		AdmitCardURL: srv.URL + "/UG2225/PrintAdmit_II_2225.aspx",
		Timeout:      timeout,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestLookupResultPostsExactFormAndFollowsRedirect(t *testing.T) {
	stub := &portalStub{t: t, formHTML: formPage, resultTxt: "<html>Marks: 420</html>"}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	sub, err := newTestClient(t, srv, 5*time.Second).LookupResult(context.Background(), "22103010001")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	want := map[string]string{
		"__VIEWSTATE":          "vs+/=abc",
		"__VIEWSTATEGENERATOR": "38A17705",
		"__EVENTVALIDATION":    "ev&123",
		"txtRollNo":            "22103010001",
		"btnSearch":            "Search",
	}
	var keys []string
	for k, v := range stub.gotForm {
		keys = append(keys, k)
		if len(v) != 1 || v[0] != want[k] {
			t.Fatalf("field %s = %v, want %q", k, v, want[k])
		}
	}
	if len(keys) != len(want) {
		sort.Strings(keys)
		t.Fatalf("posted fields %v, want exactly %d", keys, len(want))
	}
	if !stub.gotCookie {
		t.Fatal("session cookie from GET was not sent with POST")
	}
	if sub.FinalURL != srv.URL+"/LNMU_ERP/ResultPage.aspx?id=42" {
		t.Fatalf("final url = %s", sub.FinalURL)
	}
	if sub.NoResult {
		t.Fatal("unexpected no-result flag")
	}
	if len(sub.Cookies) != 1 || sub.Cookies[0].Name != "ASP.NET_SessionId" {
		t.Fatalf("cookies = %v", sub.Cookies)
	}
}

func TestLookupResultNoResult(t *testing.T) {
	stub := &portalStub{t: t, formHTML: formPage, resultTxt: "<span>NO RESULT FOUND !!</span>"}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	sub, err := newTestClient(t, srv, 5*time.Second).LookupResult(context.Background(), "1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !sub.NoResult {
		t.Fatal("expected no-result flag")
	}
}

func TestFetchFormMissingField(t *testing.T) {
	page := strings.Replace(formPage, `id="__EVENTVALIDATION"`, `id="other"`, 1)
	stub := &portalStub{t: t, formHTML: page}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	_, err := newTestClient(t, srv, 5*time.Second).LookupResult(context.Background(), "1")
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("err = %v, want ErrMissingField", err)
	}
	if netutil.IsNetworkError(err) {
		t.Fatal("missing field must not be a network error")
	}
	if stub.gotForm != nil {
		t.Fatal("form must not be posted when fields are missing")
	}
}

func TestLookupResultNon2xxIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 5*time.Second).LookupResult(context.Background(), "1")
	var se *netutil.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want status 503", err)
	}
	if !netutil.IsNetworkError(err) {
		t.Fatal("non-2xx must be a network error")
	}
}

func TestLookupResultTimeoutIsNetwork(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newTestClient(t, srv, 50*time.Millisecond).LookupResult(context.Background(), "1")
	if err == nil || !netutil.IsNetworkError(err) {
		t.Fatalf("err = %v, want network timeout", err)
	}
	if !netutil.IsTimeout(err) {
		t.Fatalf("err = %v, want timeout", err)
	}
}

func TestIsNoResult(t *testing.T) {
	for page, want := range map[string]bool{
		"No Result Found":        true,
		"<b>no result found</b>": true,
		"nO rEsUlT fOuNd.":       true,
		"Result found":           false,
		"":                       false,
	} {
		if got := IsNoResult(page); got != want {
			t.Fatalf("IsNoResult(%q) = %v, want %v", page, got, want)
		}
	}
}

func TestAdmitCardURL(t *testing.T) {
	base := "https://lnmuniversity.com/UG2225/PrintAdmit_II_2225.aspx"
	got := AdmitCardURL(base, "12345", "9999999999")
	if got != base+"?p1=12345&p2=9999999999" {
		t.Fatalf("AdmitCardURL = %s", got)
	}
	if got := AdmitCardURL(base, "1 2", "a&b"); got != base+"?p1=1+2&p2=a%26b" {
		t.Fatalf("escaped AdmitCardURL = %s", got)
	}
}

func TestNewRejectsRelativeURL(t *testing.T) {
	if _, err := New(Options{ResultURL: "/x", AdmitCardURL: "https://a/b"}); err == nil {
		t.Fatal("expected error for relative result url")
	}
}
