package bot

import (
	"context"
	"path/filepath"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/lnmubot/core/telegram/helpers"
	"github.com/m3rciful/lnmubot/internal/documents"
)

// Conversation is the chat a handler answers. It stays usable after the
// update handler returns, so delivery jobs can reply later.
type Conversation interface {
	Context() context.Context
	ChatID() int64
	FirstName() string
	SendText(text string, markup *tele.ReplyMarkup) error
	SendDocument(doc documents.Document) error
}

type teleConversation struct {
	c   tele.Context
	ctx context.Context
}

// Adapt wraps a telebot context.
func Adapt(c tele.Context) Conversation {
	return &teleConversation{c: c, ctx: tghelpers.BuildContext(c)}
}

func (t *teleConversation) Context() context.Context { return t.ctx }

func (t *teleConversation) ChatID() int64 {
	chatID, _ := tghelpers.ChatIDs(t.c)
	return chatID
}

func (t *teleConversation) FirstName() string {
	if chat := t.c.Chat(); chat != nil && chat.FirstName != "" {
		return chat.FirstName
	}
	if user := t.c.Sender(); user != nil {
		return user.FirstName
	}
	return ""
}

func (t *teleConversation) SendText(text string, markup *tele.ReplyMarkup) error {
	return tghelpers.SendText(t.ctx, t.c, text, markup)
}

func (t *teleConversation) SendDocument(doc documents.Document) error {
	return tghelpers.SendDocument(t.ctx, t.c, &tele.Document{
		File:     tele.FromDisk(doc.Path),
		FileName: filepath.Base(doc.Path),
		Caption:  doc.Caption,
	})
}
