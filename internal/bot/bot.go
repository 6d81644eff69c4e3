// Package bot holds the conversation: the menu, the roll and mobile
// prompts and the delivery of rendered documents.
package bot

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/lnmubot/core/config"
	tg "github.com/m3rciful/lnmubot/core/telegram"
	"github.com/m3rciful/lnmubot/core/telegram/commands"
	"github.com/m3rciful/lnmubot/core/telegram/keyboard"
	"github.com/m3rciful/lnmubot/core/telegram/state"
	"github.com/m3rciful/lnmubot/core/worker"
	"github.com/m3rciful/lnmubot/internal/documents"
)

// Documents produces the PDFs.
type Documents interface {
	Result(ctx context.Context, roll, caption string) (documents.Document, error)
	AdmitCard(ctx context.Context, roll, mobile string) (documents.Document, error)
	Sweep(ctx context.Context) int
}

// Jobs runs slow work off the update goroutine.
type Jobs interface {
	Submit(ctx context.Context, name string, run worker.Job)
}

// Options wires a Bot.
type Options struct {
	Documents Documents
	Sessions  state.Manager
	Jobs      Jobs
	Share     coreconfig.ShareConfig
}

// Bot answers updates for every chat.
type Bot struct {
	docs     Documents
	sessions state.Manager
	jobs     Jobs
	share    coreconfig.ShareConfig
}

// New returns a Bot. A nil Sessions gets an in-memory manager.
func New(opts Options) *Bot {
	sessions := opts.Sessions
	if sessions == nil {
		sessions = state.NewMemoryManager()
	}
	return &Bot{docs: opts.Documents, sessions: sessions, jobs: opts.Jobs, share: opts.Share}
}

// Sessions exposes the conversation state for the text router.
func (b *Bot) Sessions() state.Manager { return b.sessions }

// Register adds commands, menu texts, callbacks and step handlers.
func (b *Bot) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     func(c tele.Context) error { return b.Start(Adapt(c)) },
		Description: "Show the menu",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     func(c tele.Context) error { return b.Help(Adapt(c)) },
		Description: "How to use the bot",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     func(c tele.Context) error { return b.Cancel(Adapt(c)) },
		Description: "Start over",
	})

	for _, choice := range []string{ChoiceResult, ChoiceAdmitCard} {
		if err := reg.RegisterText(choice, func(c tele.Context) error {
			return b.Choose(Adapt(c), choice)
		}); err != nil {
			return fmt.Errorf("bot: register %q: %w", choice, err)
		}
	}
	if err := reg.RegisterCallback(CallbackCheckAnother, func(c tele.Context) error {
		if err := c.Respond(); err != nil {
			return err
		}
		return b.Menu(Adapt(c))
	}); err != nil {
		return fmt.Errorf("bot: register callback: %w", err)
	}

	step := func(c tele.Context, s state.Session) error {
		return b.Step(Adapt(c), s, c.Text())
	}
	b.sessions.On(state.PhaseAwaitingRoll, step)
	b.sessions.On(state.PhaseAwaitingMobile, step)
	return nil
}

// MenuMarkup is the two-choice reply keyboard.
func MenuMarkup() *tele.ReplyMarkup {
	return keyboard.OneTimeMenu(ChoiceResult, ChoiceAdmitCard)
}

func (b *Bot) shareMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtons(
		keyboard.InlineBtn{Text: b.share.Text, URL: b.share.URL},
		keyboard.InlineBtn{Text: btnCheckAnother, Data: CallbackCheckAnother},
	)
}
