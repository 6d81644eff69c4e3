package state

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

// Phase identifies a conversation step.
type Phase string

const (
	// PhaseIdle means no input is expected from the chat.
	PhaseIdle Phase = "idle"
	// PhaseAwaitingRoll means the next text is a roll number for Session.Choice.
	PhaseAwaitingRoll Phase = "awaiting_roll"
	// PhaseAwaitingMobile means the next text is the mobile number for Session.Roll.
	PhaseAwaitingMobile Phase = "awaiting_mobile"
)

// Session is a snapshot of one chat's step.
type Session struct {
	Phase   Phase
	Choice  string
	Roll    string
	Updated time.Time
}

// StepHandler consumes the text that arrives while a chat is in a phase.
// The session has already been taken, so the chat is idle when it runs.
type StepHandler func(c tele.Context, s Session) error

// Manager tracks sessions by chat id.
type Manager interface {
	Get(chatID int64) Session
	Begin(chatID int64, choice string)
	AwaitMobile(chatID int64, choice, roll string) error
	Take(chatID int64) (Session, bool)
	Reset(chatID int64)

	InProgress(chatID int64) bool
	On(phase Phase, h StepHandler)
	ManagerHandler(c tele.Context) error
}
