package tui

import (
	"fmt"
	"strings"

	"staticcms/internal/gitsync"
	"staticcms/internal/githubapi"
	"staticcms/internal/tui/components"
	"staticcms/internal/tui/helpers"
	"staticcms/internal/tui/styles"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// PublishModel commits the workspace and pushes it to GitHub. The user
// supplies the commit message; progress comes from the engine feed.
type PublishModel struct {
	ctx       helpers.UIContext
	layout    components.LayoutModel
	repo      githubapi.Repository
	workspace *gitsync.Workspace

	input textinput.Model
	bar   progress.Model
	op    gitsync.OperationState

	busy      bool
	published bool
	failed    error
}

func NewPublishModel(ctx helpers.UIContext, repo githubapi.Repository, ws *gitsync.Workspace) *PublishModel {
	input := textinput.New()
	input.Placeholder = "Update site content"
	input.CharLimit = 200
	input.Focus()

	layout := components.NewLayout(components.LayoutConfig{
		Title:    fmt.Sprintf("🚀 Publish %s", repo.FullName),
		Subtitle: "Commit your changes and push them to GitHub",
	})

	return &PublishModel{
		ctx:       ctx,
		layout:    layout,
		repo:      repo,
		workspace: ws,
		input:     input,
		bar:       progress.New(progress.WithDefaultGradient()),
	}
}

func (m *PublishModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *PublishModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout, _ = m.layout.Update(msg)
		width := msg.Width - 12
		if width > 60 {
			width = 60
		}
		if width > 0 {
			m.bar.Width = width
		}
		return m, nil

	case opStateMsg:
		if m.busy {
			m.op = gitsync.OperationState(msg)
		}
		return m, nil

	case publishDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.failed = msg.err
			m.layout = m.layout.SetError(msg.err)
			return m, nil
		}
		m.published = true
		m.layout = m.layout.ClearError()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.busy {
				return m, nil
			}
			return m, func() tea.Msg { return backToContentMsg{published: m.published} }
		case "enter":
			if m.busy || m.published {
				return m, nil
			}
			message := strings.TrimSpace(m.input.Value())
			if message == "" {
				message = m.input.Placeholder
			}
			m.busy = true
			m.failed = nil
			m.layout = m.layout.ClearError()
			m.ctx.Logger.Info("Publish requested", "repo", m.repo.FullName)
			return m, func() tea.Msg { return publishSubmitMsg{message: message} }
		default:
			if !m.busy && !m.published {
				m.input, cmd = m.input.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	}

	if !m.busy && !m.published {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *PublishModel) View() string {
	help := "Enter to publish • Esc to go back"
	var content strings.Builder

	switch {
	case m.busy:
		help = "Publishing — please wait • Ctrl+C to quit"
		content.WriteString(m.bar.ViewAs(m.op.Progress))
		content.WriteString(fmt.Sprintf("  %3.0f%%\n\n", m.op.Progress*100))
		if m.op.Message != "" {
			content.WriteString(styles.FaintStyle.Render(m.op.Message))
		}
	case m.published:
		help = "Esc to go back"
		content.WriteString(styles.SuccessStyle.Render("✓ Published to " + m.repo.FullName))
	case m.failed != nil:
		help = "Enter to retry • Esc to go back"
		content.WriteString("Commit message:\n\n")
		content.WriteString(m.input.View())
	default:
		content.WriteString("Commit message:\n\n")
		content.WriteString(m.input.View())
		content.WriteString("\n\n")
		content.WriteString(styles.FaintStyle.Render("All modified files will be committed and pushed."))
	}

	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    fmt.Sprintf("🚀 Publish %s", m.repo.FullName),
		Subtitle: "Commit your changes and push them to GitHub",
		HelpText: help,
	})
	return m.layout.Render(content.String())
}
