package telegram

import (
	"github.com/m3rciful/lnmubot/core/metrics"
	"github.com/m3rciful/lnmubot/core/telegram/middleware"
)

// DefaultMiddlewares builds the global chain: recover, update logger, metrics.
func DefaultMiddlewares(m *metrics.Metrics) []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
		{Name: "metrics", Use: middleware.MessageMetricsMiddleware(m)},
	}
}
