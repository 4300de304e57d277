package tui

import (
	"context"
	"fmt"
	"time"

	"staticcms/internal/apperr"
	"staticcms/internal/githubapi"
	"staticcms/internal/tui/components"
	"staticcms/internal/tui/helpers"
	"staticcms/internal/tui/styles"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// repoItem adapts a GitHub repository for the bubbles list.
type repoItem struct {
	repo githubapi.Repository
}

func (i repoItem) Title() string {
	title := i.repo.FullName
	if i.repo.Private {
		title += " 🔒"
	}
	if !i.repo.HasWritePermission() {
		title += " " + styles.ReadOnlyStyle.Render("(read-only)")
	}
	return title
}

func (i repoItem) Description() string {
	return fmt.Sprintf("default branch: %s • updated %s",
		i.repo.DefaultBranch, i.repo.UpdatedAt.Format("2006-01-02"))
}

func (i repoItem) FilterValue() string { return i.repo.FullName }

// RepoSelectModel lists the signed-in user's repositories and lets them pick
// the site to work on. Read-only repositories are shown but cannot be chosen.
type RepoSelectModel struct {
	ctx     helpers.UIContext
	layout  components.LayoutModel
	list    list.Model
	spinner spinner.Model
	loading bool
}

func NewRepoSelectModel(ctx helpers.UIContext) *RepoSelectModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	repoList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	repoList.SetShowTitle(false)
	repoList.SetShowStatusBar(false)
	repoList.SetFilteringEnabled(true)
	repoList.SetShowHelp(false)

	layout := components.NewLayout(components.LayoutConfig{
		Title:    "📚 Select a repository",
		Subtitle: "Pick the site repository to clone and edit",
	})

	return &RepoSelectModel{
		ctx:     ctx,
		layout:  layout,
		list:    repoList,
		spinner: sp,
		loading: true,
	}
}

func (m *RepoSelectModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadRepositories())
}

func (m *RepoSelectModel) loadRepositories() tea.Cmd {
	api := m.ctx.API
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		repos, err := api.ListRepositories(ctx)
		return reposLoadedMsg{repos: repos, err: err}
	}
}

func (m *RepoSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout, _ = m.layout.Update(msg)
		m.list.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case reposLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.ctx.Logger.Error("Failed to list repositories", "error", msg.err)
			m.layout = m.layout.SetError(msg.err)
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.repos))
		for _, repo := range msg.repos {
			items = append(items, repoItem{repo: repo})
		}
		m.list.SetItems(items)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			m.list, cmd = m.list.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			m.layout = m.layout.ClearError()
			return m, tea.Batch(m.spinner.Tick, m.loadRepositories())
		case "s":
			return m, func() tea.Msg { return signOutMsg{} }
		case "enter":
			item, ok := m.list.SelectedItem().(repoItem)
			if !ok {
				return m, nil
			}
			if !item.repo.HasWritePermission() {
				m.layout = m.layout.SetError(apperr.New(apperr.KindValidation,
					"you need push access to %s to edit it", item.repo.FullName))
				return m, nil
			}
			m.ctx.Logger.Info("Repository selected", "repo", item.repo.FullName)
			repo := item.repo
			return m, func() tea.Msg { return repoChosenMsg{repo: repo} }
		default:
			m.list, cmd = m.list.Update(msg)
			return m, cmd
		}

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *RepoSelectModel) View() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "📚 Select a repository",
		Subtitle: "Pick the site repository to clone and edit",
		HelpText: "↑/↓ navigate • Enter select • / filter • r reload • s sign out • q quit",
	})

	if m.loading {
		return m.layout.Render(m.spinner.View() + " Loading repositories…")
	}
	return m.layout.Render(m.list.View())
}
