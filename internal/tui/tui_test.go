package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return nm
}

func TestEditor_SubmitWithText(t *testing.T) {
	m := newModel(Config{Initial: "  line one\nline two  "})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	if !m.submitted {
		t.Fatal("expected submit")
	}
	if m.value() != "line one\nline two" {
		t.Fatalf("unexpected value %q", m.value())
	}
	if m.View() != "" {
		t.Fatal("view should be empty after submit")
	}
}

func TestEditor_SubmitEmptyIsRefused(t *testing.T) {
	m := newModel(Config{})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	if m.submitted {
		t.Fatal("empty input must not be submitted")
	}
	if m.notice == "" {
		t.Fatal("expected a notice")
	}
}

func TestEditor_Cancel(t *testing.T) {
	for _, k := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		m := update(t, newModel(Config{Initial: "draft"}), tea.KeyMsg{Type: k})
		if !m.cancelled || m.submitted {
			t.Fatalf("key %v: expected cancel", k)
		}
	}
}

func TestEditor_TypingAppendsText(t *testing.T) {
	m := newModel(Config{})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	if m.value() != "hi" {
		t.Fatalf("expected typed text, got %q", m.value())
	}
}

func TestEditor_Resize(t *testing.T) {
	m := update(t, newModel(Config{}), tea.WindowSizeMsg{Width: 100, Height: 40})
	if m.width != 100 || m.height != 40 {
		t.Fatalf("unexpected size %dx%d", m.width, m.height)
	}
}
