package render

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

type cookiePage struct {
	*httptest.Server
	cookie atomic.Bool
}

func (p *cookiePage) sawCookie() bool { return p.cookie.Load() }

func newCookiePage(t *testing.T) *cookiePage {
	t.Helper()
	p := &cookiePage{}
	p.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sid"); err == nil && c.Value == "ok" {
			p.cookie.Store(true)
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Marks Statement</h1></body></html>")
	}))
	return p
}
