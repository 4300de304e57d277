package tui

import (
	"errors"
	"strings"

	"staticcms/internal/auth"
	"staticcms/internal/tui/components"
	"staticcms/internal/tui/helpers"
	"staticcms/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// SignInModel is the GitHub sign-in screen. It mirrors the coordinator's
// state feed: idle prompts for Enter, the in-flight phases show a spinner,
// and a failed flow offers a retry.
type SignInModel struct {
	ctx     helpers.UIContext
	layout  components.LayoutModel
	spinner spinner.Model
	state   auth.State
	busy    bool
}

func NewSignInModel(ctx helpers.UIContext) *SignInModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	layout := components.NewLayout(components.LayoutConfig{
		Title:    "📝 staticcms",
		Subtitle: "Sign in with GitHub to manage your site content",
	})

	return &SignInModel{
		ctx:     ctx,
		layout:  layout,
		spinner: sp,
		state:   ctx.Auth.State(),
	}
}

func (m *SignInModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *SignInModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout, _ = m.layout.Update(msg)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			if !m.busy {
				return m, tea.Quit
			}
		case "enter":
			if !m.busy {
				m.busy = true
				m.layout = m.layout.ClearError()
				return m, func() tea.Msg { return startSignInMsg{} }
			}
		case "esc":
			// A stuck browser flow can be abandoned by starting over.
			if m.busy {
				m.busy = false
			}
		}
		return m, nil

	case authStateMsg:
		m.state = auth.State(msg)
		switch m.state.Phase {
		case auth.PhaseIdle, auth.PhaseError:
			m.busy = false
		}
		if m.state.Phase == auth.PhaseError && m.state.Err != "" {
			m.layout = m.layout.SetError(errors.New(m.state.Err))
		} else {
			m.layout = m.layout.ClearError()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *SignInModel) View() string {
	var content strings.Builder

	switch m.state.Phase {
	case auth.PhaseStarting:
		content.WriteString(m.spinner.View() + " Starting sign-in…")
	case auth.PhaseWaitingForUser:
		content.WriteString(m.spinner.View() + " Waiting for authorization in your browser…\n\n")
		content.WriteString(styles.FaintStyle.Render("Complete the GitHub prompt, then return here."))
	case auth.PhaseProcessing:
		content.WriteString(m.spinner.View() + " Completing sign-in…")
	case auth.PhaseError:
		content.WriteString("Sign-in failed. Press Enter to try again.")
	default:
		content.WriteString("Press Enter to sign in with GitHub.\n\n")
		content.WriteString(styles.FaintStyle.Render("A browser window will open for authorization."))
	}

	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "📝 staticcms",
		Subtitle: "Sign in with GitHub to manage your site content",
		HelpText: m.helpText(),
	})
	return m.layout.Render(content.String())
}

func (m *SignInModel) helpText() string {
	if m.busy {
		return "Esc to abandon • Ctrl+C to quit"
	}
	return "Enter to sign in • q to quit"
}
