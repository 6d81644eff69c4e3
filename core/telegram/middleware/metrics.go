package middleware

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/lnmubot/core/logger"
	"github.com/m3rciful/lnmubot/core/metrics"
	tghelpers "github.com/m3rciful/lnmubot/core/telegram/helpers"
)

const (
	keyMessages = "messages"
	keyKeyboard = "kb"
)

// metricsContext counts messages sent through the wrapped context.
type metricsContext struct{ tele.Context }

func (m metricsContext) incMessages(hasKB bool) {
	n, _ := m.Get(keyMessages).(int)
	m.Set(keyMessages, n+1)
	if hasKB {
		m.Set(keyKeyboard, true)
	}
}

func hasKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// Send proxies tele.Context.Send and counts successful sends.
func (m metricsContext) Send(what interface{}, opts ...interface{}) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		m.incMessages(hasKeyboard(opts))
	}
	return err
}

// Reply proxies tele.Context.Reply and counts successful replies.
func (m metricsContext) Reply(what interface{}, opts ...interface{}) error {
	err := m.Context.Reply(what, opts...)
	if err == nil {
		m.incMessages(hasKeyboard(opts))
	}
	return err
}

// MessageMetricsMiddleware counts messages per update and feeds the
// Prometheus update and message counters. m may be nil.
func MessageMetricsMiddleware(m *metrics.Metrics) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(keyMessages, 0)
			c.Set(keyKeyboard, false)
			err := next(metricsContext{Context: c})

			msgs, _ := GetCounters(c)
			m.AddMessages(msgs)
			m.ObserveUpdate(logger.HandlerFrom(tghelpers.BuildContext(c)), logger.Status(err))
			return err
		}
	}
}

// GetCounters reads the message count and keyboard flag for this update.
func GetCounters(c tele.Context) (int, bool) {
	msgs, _ := c.Get(keyMessages).(int)
	kb, _ := c.Get(keyKeyboard).(bool)
	return msgs, kb
}
