package helpers

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/m3rciful/lnmubot/core/logger"
	"github.com/m3rciful/lnmubot/core/netutil"

	tele "gopkg.in/telebot.v4"
)

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// SanitizeError renders err with any bot token redacted.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}

// SendText sends plain text with optional reply markup. Failures are logged
// and returned.
func SendText(ctx context.Context, c tele.Context, text string, markup *tele.ReplyMarkup) error {
	start := time.Now()
	var err error
	if markup != nil {
		err = c.Send(text, markup)
	} else {
		err = c.Send(text)
	}
	logSend(ctx, "send.text", start, err)
	return err
}

// SendDocument uploads the file at path with a caption.
func SendDocument(ctx context.Context, c tele.Context, doc *tele.Document) error {
	start := time.Now()
	err := c.Send(doc)
	logSend(ctx, "send.document", start, err, slog.String("path", doc.FileName))
	return err
}

func logSend(ctx context.Context, action string, start time.Time, err error, extra ...slog.Attr) {
	if err == nil {
		if logger.ShouldSampleDebug() {
			attrs := append([]slog.Attr{
				slog.String("status", "ok"),
				slog.Duration("duration", logger.Took(start)),
			}, extra...)
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, action, attrs...)
		}
		return
	}
	attrs := append([]slog.Attr{
		slog.String("status", "fail"),
		slog.String("err", SanitizeError(err)),
		slog.String("err_kind", netutil.Classify(err)),
		slog.Duration("duration", logger.Took(start)),
	}, extra...)
	logger.LogEvent(ctx, logger.TG, slog.LevelError, action, attrs...)
}
