package tui

import (
	"strings"
	"testing"

	"staticcms/internal/auth"

	tea "github.com/charmbracelet/bubbletea"
)

func TestSignIn_EnterStartsFlow(t *testing.T) {
	m := NewSignInModel(newTestContext(t))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected start command")
	}
	if _, ok := cmd().(startSignInMsg); !ok {
		t.Fatalf("expected startSignInMsg, got %T", cmd())
	}
	if !m.busy {
		t.Error("expected busy after starting sign-in")
	}
}

func TestSignIn_EnterIgnoredWhileBusy(t *testing.T) {
	m := NewSignInModel(newTestContext(t))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("a second Enter must not start another flow")
	}
}

func TestSignIn_ErrorStateAllowsRetry(t *testing.T) {
	m := NewSignInModel(newTestContext(t))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	updated, _ := m.Update(authStateMsg(auth.State{
		Phase: auth.PhaseError,
		Err:   "authorization was denied",
	}))
	m = updated.(*SignInModel)

	if m.busy {
		t.Error("busy should clear on error")
	}
	if m.layout.GetError() == nil {
		t.Error("error should be surfaced on the layout")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Error("retry should be possible after an error")
	}
}

func TestSignIn_ViewTracksPhase(t *testing.T) {
	m := NewSignInModel(newTestContext(t))
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	if view := m.View(); !strings.Contains(view, "Press Enter to sign in") {
		t.Errorf("idle view missing prompt:\n%s", view)
	}

	m.Update(authStateMsg(auth.State{Phase: auth.PhaseWaitingForUser}))
	if view := m.View(); !strings.Contains(view, "Waiting for authorization") {
		t.Errorf("waiting view missing browser hint:\n%s", view)
	}
}
