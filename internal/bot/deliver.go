package bot

import (
	"context"
	"log/slog"

	"github.com/m3rciful/lnmubot/core/logger"
	"github.com/m3rciful/lnmubot/core/netutil"
	"github.com/m3rciful/lnmubot/internal/documents"
)

func (b *Bot) deliverResult(ctx context.Context, conv Conversation, choice, roll string) error {
	defer b.docs.Sweep(ctx)

	doc, err := b.docs.Result(ctx, roll, choice)
	outcome := documents.Classify(err)
	logDelivery(ctx, choice, outcome)
	switch outcome {
	case documents.OutcomeOK:
	case documents.OutcomeNotFound:
		b.replyWithMenu(conv, msgInvalidRoll)
		return nil
	case documents.OutcomeNetwork:
		_ = conv.SendText(msgConnectivity, nil)
		return err
	default:
		b.replyWithMenu(conv, msgTryAgain)
		return err
	}

	if err := b.send(ctx, conv, doc); err != nil {
		b.replyWithMenu(conv, msgTryAgain)
		return err
	}
	return nil
}

func (b *Bot) deliverAdmitCard(ctx context.Context, conv Conversation, roll, mobile string) error {
	defer b.docs.Sweep(ctx)

	doc, err := b.docs.AdmitCard(ctx, roll, mobile)
	if err == nil {
		err = b.send(ctx, conv, doc)
	}
	logDelivery(ctx, ChoiceAdmitCard, documents.Classify(err))
	if err == nil {
		return nil
	}
	if netutil.IsTimeout(err) {
		_ = conv.SendText(msgConnectivity, nil)
		return err
	}
	b.replyWithMenu(conv, msgInvalidAdmit)
	return err
}

// send uploads doc and offers the share and check-another buttons. Only
// the upload decides whether delivery failed.
func (b *Bot) send(ctx context.Context, conv Conversation, doc documents.Document) error {
	if err := conv.SendDocument(doc); err != nil {
		return err
	}
	if err := conv.SendText(msgShare, b.shareMarkup()); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "share.fail",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
			slog.String("err_kind", netutil.Classify(err)),
		)
	}
	return nil
}

func (b *Bot) replyWithMenu(conv Conversation, text string) {
	if err := conv.SendText(text, nil); err != nil {
		return
	}
	_ = b.Menu(conv)
}
