package state

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/lnmubot/core/logger"
	tghelpers "github.com/m3rciful/lnmubot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]Session
	handlers map[Phase]StepHandler
	now      func() time.Time
}

// NewMemoryManager returns an in-process Manager. Sessions are lost on restart.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]Session),
		handlers: make(map[Phase]StepHandler),
		now:      time.Now,
	}
}

// Get returns a copy of the chat's session, idle if unknown.
func (m *memoryManager) Get(chatID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[chatID]; ok {
		return s
	}
	return Session{Phase: PhaseIdle}
}

// Begin waits for a roll number for choice. Any earlier step is discarded.
func (m *memoryManager) Begin(chatID int64, choice string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[chatID] = Session{Phase: PhaseAwaitingRoll, Choice: choice, Updated: m.now()}
}

// AwaitMobile waits for a mobile number for roll. The awaited roll step
// must already be taken; it fails if a newer step started meanwhile.
func (m *memoryManager) AwaitMobile(chatID int64, choice, roll string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[chatID]; ok {
		return fmt.Errorf("state: chat %d moved on to %s", chatID, s.Phase)
	}
	m.sessions[chatID] = Session{Phase: PhaseAwaitingMobile, Choice: choice, Roll: roll, Updated: m.now()}
	return nil
}

// Take returns the chat's pending step and resets the chat to idle in one
// move, so concurrent texts cannot both consume it.
func (m *memoryManager) Take(chatID int64) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return Session{Phase: PhaseIdle}, false
	}
	delete(m.sessions, chatID)
	return s, true
}

// Reset returns the chat to idle.
func (m *memoryManager) Reset(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}

// InProgress reports whether the chat is in a non-idle phase.
func (m *memoryManager) InProgress(chatID int64) bool {
	return m.Get(chatID).Phase != PhaseIdle
}

// On registers the handler for phase.
func (m *memoryManager) On(phase Phase, h StepHandler) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[phase] = h
}

// ManagerHandler takes the chat's pending step and runs the handler
// registered for its phase. A text racing another one for the same step
// finds the chat idle and is dropped.
func (m *memoryManager) ManagerHandler(c tele.Context) error {
	chatID, _ := tghelpers.ChatIDs(c)
	s, taken := m.Take(chatID)
	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "tg", "fsm.manager",
		slog.String("status", "ok"),
		slog.String("state", string(s.Phase)),
		slog.String("choice", s.Choice),
	)

	if !taken {
		return nil
	}
	m.mu.RLock()
	h, ok := m.handlers[s.Phase]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return h(c, s)
}
