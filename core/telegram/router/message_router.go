package router

import (
	"time"

	tg "github.com/m3rciful/lnmubot/core/telegram"
	tghelpers "github.com/m3rciful/lnmubot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// FSM is the part of the conversation state the text router needs.
type FSM interface {
	InProgress(chatID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextRoutes routes plain text: a pending conversation step first, then an
// exact registered text such as a menu button. Anything else is dropped
// without a reply.
func TextRoutes(fsm FSM, reg *tg.Registry) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		chatID, _ := tghelpers.ChatIDs(c)

		if fsm != nil && fsm.InProgress(chatID) {
			return handleWithSummary(c, "fsm", start, func() error {
				return fsm.ManagerHandler(c)
			})
		}

		if reg != nil {
			text := c.Text()
			if h, ok := reg.LookupText(text); ok {
				return handleWithSummary(c, "text."+normalizeHandlerName(text), start, func() error {
					return h(c)
				})
			}
		}

		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}
	return []tg.Route{{Endpoint: tele.OnText, Handler: handler}}
}
