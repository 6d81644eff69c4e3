package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/lnmubot/core/logger"
	"github.com/m3rciful/lnmubot/core/telegram/state"
	"github.com/m3rciful/lnmubot/internal/documents"
)

// Start greets the user and shows the menu. Any pending step is dropped.
func (b *Bot) Start(conv Conversation) error {
	b.sessions.Reset(conv.ChatID())
	if err := conv.SendText(fmt.Sprintf(msgGreeting, conv.FirstName()), nil); err != nil {
		return err
	}
	return b.Menu(conv)
}

// Menu shows the two choices.
func (b *Bot) Menu(conv Conversation) error {
	return conv.SendText(msgChoose, MenuMarkup())
}

// Help explains the flow.
func (b *Bot) Help(conv Conversation) error {
	return conv.SendText(msgHelp, nil)
}

// Cancel forgets the pending step and shows the menu again.
func (b *Bot) Cancel(conv Conversation) error {
	b.sessions.Reset(conv.ChatID())
	return b.Menu(conv)
}

// Choose asks for a roll number; the next text from the chat is that number.
func (b *Bot) Choose(conv Conversation, choice string) error {
	b.sessions.Begin(conv.ChatID(), choice)
	return conv.SendText(fmt.Sprintf(msgEnterRoll, choice), nil)
}

// Step consumes text sent while a step is pending. s must come from
// Sessions().Take, which already returned the chat to idle.
func (b *Bot) Step(conv Conversation, s state.Session, text string) error {
	input := strings.TrimSpace(text)
	switch s.Phase {
	case state.PhaseAwaitingRoll:
		return b.onRoll(conv, s.Choice, input)
	case state.PhaseAwaitingMobile:
		return b.onMobile(conv, s.Roll, input)
	default:
		return nil
	}
}

func (b *Bot) onRoll(conv Conversation, choice, roll string) error {
	if choice != ChoiceResult {
		if err := b.sessions.AwaitMobile(conv.ChatID(), choice, roll); err != nil {
			// A newer step owns the chat.
			return nil
		}
		return conv.SendText(msgEnterMobile, nil)
	}

	if err := conv.SendText(msgResultWait, nil); err != nil {
		return err
	}
	b.jobs.Submit(conv.Context(), "result", func(ctx context.Context) error {
		return b.deliverResult(ctx, conv, choice, roll)
	})
	return nil
}

func (b *Bot) onMobile(conv Conversation, roll, mobile string) error {
	if err := conv.SendText(msgAdmitWait, nil); err != nil {
		return err
	}
	b.jobs.Submit(conv.Context(), "admit_card", func(ctx context.Context) error {
		return b.deliverAdmitCard(ctx, conv, roll, mobile)
	})
	return nil
}

func logDelivery(ctx context.Context, choice string, outcome documents.Outcome) {
	status := "ok"
	if outcome == documents.OutcomeNetwork || outcome == documents.OutcomeError {
		status = "fail"
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "delivery",
		slog.String("status", status),
		slog.String("choice", choice),
		slog.String("outcome", string(outcome)),
	)
}
