package keyboard

import "testing"

func TestOneTimeMenu(t *testing.T) {
	m := OneTimeMenu("Result(22-25)", "Admit Card(22-25)")
	if !m.OneTimeKeyboard || !m.ResizeKeyboard {
		t.Fatalf("menu flags = one_time:%v resize:%v", m.OneTimeKeyboard, m.ResizeKeyboard)
	}
	if len(m.ReplyKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.ReplyKeyboard))
	}
	if m.ReplyKeyboard[0][0].Text != "Result(22-25)" || m.ReplyKeyboard[1][0].Text != "Admit Card(22-25)" {
		t.Fatalf("unexpected labels: %+v", m.ReplyKeyboard)
	}
}

func TestInlineButtons(t *testing.T) {
	m := InlineButtons(
		InlineBtn{Text: "Share this bot", URL: "https://example.org/share"},
		InlineBtn{Text: "Check another", Data: "check_another"},
	)
	if len(m.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.InlineKeyboard))
	}
	share, again := m.InlineKeyboard[0][0], m.InlineKeyboard[1][0]
	if share.URL != "https://example.org/share" || share.Data != "" {
		t.Fatalf("share button = %+v", share)
	}
	if again.Data != "check_another" || again.URL != "" {
		t.Fatalf("check another button = %+v", again)
	}
}
