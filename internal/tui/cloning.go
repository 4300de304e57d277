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
	tea "github.com/charmbracelet/bubbletea"
)

// CloneModel shows clone progress for the selected repository. The bar is
// driven by the engine's state feed, which the root model forwards here.
type CloneModel struct {
	ctx    helpers.UIContext
	layout components.LayoutModel
	bar    progress.Model
	repo   githubapi.Repository
	op     gitsync.OperationState
	failed error
}

func NewCloneModel(ctx helpers.UIContext, repo githubapi.Repository) *CloneModel {
	bar := progress.New(progress.WithDefaultGradient())

	layout := components.NewLayout(components.LayoutConfig{
		Title:    fmt.Sprintf("⬇️  Cloning %s", repo.FullName),
		Subtitle: "Fetching a local working copy",
	})

	return &CloneModel{
		ctx:    ctx,
		layout: layout,
		bar:    bar,
		repo:   repo,
	}
}

func (m *CloneModel) Init() tea.Cmd {
	return nil
}

func (m *CloneModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		m.op = gitsync.OperationState(msg)
		return m, nil

	case cloneDoneMsg:
		if msg.err != nil {
			m.failed = msg.err
			m.layout = m.layout.SetError(msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if m.failed != nil {
				return m, func() tea.Msg { return backToRepoSelectMsg{} }
			}
		case "q":
			if m.failed != nil {
				return m, tea.Quit
			}
		}
		return m, nil
	}

	return m, nil
}

func (m *CloneModel) View() string {
	help := "Cloning — please wait • Ctrl+C to quit"
	if m.failed != nil {
		help = "Esc to pick another repository • q to quit"
	}
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    fmt.Sprintf("⬇️  Cloning %s", m.repo.FullName),
		Subtitle: "Fetching a local working copy",
		HelpText: help,
	})

	var content strings.Builder
	content.WriteString(m.bar.ViewAs(m.op.Progress))
	content.WriteString(fmt.Sprintf("  %3.0f%%\n\n", m.op.Progress*100))
	if m.op.Message != "" && m.failed == nil {
		content.WriteString(styles.FaintStyle.Render(m.op.Message))
	}

	return m.layout.Render(content.String())
}
