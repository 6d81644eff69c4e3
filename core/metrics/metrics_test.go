package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLookupCounters(t *testing.T) {
	m := New()
	m.ObserveLookup("result", "ok")
	m.ObserveLookup("result", "ok")
	m.ObserveLookup("admit_card", "network")

	if got := testutil.ToFloat64(m.lookups.WithLabelValues("result", "ok")); got != 2 {
		t.Fatalf("result/ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.lookups.WithLabelValues("admit_card", "network")); got != 1 {
		t.Fatalf("admit_card/network = %v, want 1", got)
	}
}

func TestSweptAndMessages(t *testing.T) {
	m := New()
	m.AddSwept(3)
	m.AddSwept(0)
	m.AddMessages(2)
	if got := testutil.ToFloat64(m.filesSwept); got != 3 {
		t.Fatalf("swept = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.messages); got != 2 {
		t.Fatalf("messages = %v, want 2", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveLookup("result", "ok")
	m.ObserveUpdate("start", "ok")
	m.ObserveFetch(time.Second)
	m.ObserveRender("result", time.Second)
	m.AddSwept(1)
	m.IncInline()
	if m.Registry() != nil {
		t.Fatal("nil metrics must have nil registry")
	}
}

func TestHandlerExposesFamilies(t *testing.T) {
	m := New()
	m.ObserveUpdate("start", "ok")
	m.ObserveRender("result", 1500*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{"lnmubot_updates_total", "lnmubot_render_duration_seconds"} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("%s missing from exposition", name)
		}
	}
}
