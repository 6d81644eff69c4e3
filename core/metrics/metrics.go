// Package metrics exposes Prometheus counters for the bot.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/lnmubot/core/logger"
)

const namespace = "lnmubot"

// Metrics owns a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	updates        *prometheus.CounterVec
	messages       prometheus.Counter
	lookups        *prometheus.CounterVec
	fetchLatency   prometheus.Histogram
	renderLatency  *prometheus.HistogramVec
	filesSwept     prometheus.Counter
	workerRejected prometheus.Counter
}

// New builds and registers every collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "updates_total",
				Help:      "Telegram updates handled by handler and status",
			},
			[]string{"handler", "status"},
		),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages and documents sent to chats",
		}),
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookups_total",
				Help:      "Document lookups by kind (result, admit_card) and outcome",
			},
			[]string{"kind", "outcome"},
		),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "portal_fetch_duration_seconds",
			Help:      "Duration of the result portal GET+POST round trip",
			Buckets:   prometheus.DefBuckets,
		}),
		renderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "render_duration_seconds",
				Help:      "Duration of PDF rendering by kind",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"kind"},
		),
		filesSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_swept_total",
			Help:      "Expired files removed from the working directory",
		}),
		workerRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_inline_total",
			Help:      "Jobs executed inline because the worker queue was full or closed",
		}),
	}
	m.registry.MustRegister(
		m.updates, m.messages, m.lookups, m.fetchLatency,
		m.renderLatency, m.filesSwept, m.workerRejected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveUpdate counts one handled update.
func (m *Metrics) ObserveUpdate(handler, status string) {
	if m == nil {
		return
	}
	if handler == "" {
		handler = "unknown"
	}
	m.updates.WithLabelValues(handler, status).Inc()
}

// AddMessages counts n outbound messages.
func (m *Metrics) AddMessages(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.messages.Add(float64(n))
}

// ObserveLookup counts one finished lookup.
func (m *Metrics) ObserveLookup(kind, outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(kind, outcome).Inc()
}

// ObserveFetch records a portal round trip.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.fetchLatency.Observe(d.Seconds())
}

// ObserveRender records a render of the given kind.
func (m *Metrics) ObserveRender(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.renderLatency.WithLabelValues(kind).Observe(d.Seconds())
}

// AddSwept counts removed files.
func (m *Metrics) AddSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.filesSwept.Add(float64(n))
}

// IncInline counts a job that bypassed the worker queue.
func (m *Metrics) IncInline() {
	if m == nil {
		return
	}
	m.workerRejected.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.LogEvent(ctx, logger.Metrics, slog.LevelInfo, "metrics.listen", slog.String("listen", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.LogEvent(ctx, logger.Metrics, slog.LevelError, "metrics.fail", slog.String("err", err.Error()))
		return err
	}
}
