package state

import (
	"sync"
	"testing"
)

func TestTransitions(t *testing.T) {
	m := NewMemoryManager()
	const chat = int64(42)

	if s := m.Get(chat); s.Phase != PhaseIdle || m.InProgress(chat) {
		t.Fatalf("new chat not idle: %+v", s)
	}

	m.Begin(chat, "Admit Card(22-25)")
	s := m.Get(chat)
	if s.Phase != PhaseAwaitingRoll || s.Choice != "Admit Card(22-25)" {
		t.Fatalf("after Begin: %+v", s)
	}
	if err := m.AwaitMobile(chat, s.Choice, "12345"); err == nil {
		t.Fatal("AwaitMobile must fail while the roll step is still pending")
	}

	taken, ok := m.Take(chat)
	if !ok || taken != s {
		t.Fatalf("Take = %+v, %v", taken, ok)
	}
	if m.InProgress(chat) {
		t.Fatal("Take must leave the chat idle")
	}

	if err := m.AwaitMobile(chat, taken.Choice, "12345"); err != nil {
		t.Fatalf("AwaitMobile: %v", err)
	}
	s = m.Get(chat)
	if s.Phase != PhaseAwaitingMobile || s.Roll != "12345" || s.Choice != "Admit Card(22-25)" {
		t.Fatalf("after AwaitMobile: %+v", s)
	}

	m.Reset(chat)
	if m.InProgress(chat) {
		t.Fatal("Reset must return to idle")
	}
}

func TestBeginDiscardsPendingStep(t *testing.T) {
	m := NewMemoryManager()
	_ = m.AwaitMobile(1, "Admit Card(22-25)", "999")
	m.Begin(1, "Result(22-25)")
	s := m.Get(1)
	if s.Phase != PhaseAwaitingRoll || s.Roll != "" || s.Choice != "Result(22-25)" {
		t.Fatalf("Begin did not restart: %+v", s)
	}
}

func TestTakeHandsStepToOneCaller(t *testing.T) {
	m := NewMemoryManager()
	m.Begin(7, "Result(22-25)")

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		takes int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := m.Take(7); ok {
				mu.Lock()
				takes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if takes != 1 {
		t.Fatalf("step taken %d times, want 1", takes)
	}
	if s, ok := m.Take(7); ok || s.Phase != PhaseIdle {
		t.Fatalf("idle chat Take = %+v, %v", s, ok)
	}
}

func TestChatsAreIsolated(t *testing.T) {
	m := NewMemoryManager()
	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.Begin(id, "Result(22-25)")
			if id%2 == 0 {
				m.Reset(id)
			}
		}(i)
	}
	wg.Wait()
	for i := int64(1); i <= 50; i++ {
		if got, want := m.InProgress(i), i%2 == 1; got != want {
			t.Fatalf("chat %d in progress = %v, want %v", i, got, want)
		}
	}
}
