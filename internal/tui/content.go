package tui

import (
	"fmt"
	"strings"

	"staticcms/internal/content"
	"staticcms/internal/gitsync"
	"staticcms/internal/githubapi"
	"staticcms/internal/tui/components"
	"staticcms/internal/tui/helpers"
	"staticcms/internal/tui/styles"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// contentMode is the sub-state of the content screen.
type contentMode int

const (
	modeDirs contentMode = iota
	modeRows
	modeArticle
	modeEdit
)

type dirItem struct {
	dir content.Directory
}

func (i dirItem) Title() string {
	icon := "📋"
	if i.dir.Type == content.TypeArticle {
		icon = "📝"
	}
	return fmt.Sprintf("%s %s", icon, i.dir.Name)
}

func (i dirItem) Description() string {
	return fmt.Sprintf("%s • %d entries", i.dir.Type, len(i.dir.Rows))
}

func (i dirItem) FilterValue() string { return i.dir.Name }

type rowItem struct {
	row content.Row
}

func (i rowItem) Title() string {
	name := i.row.NameEn
	if name == "" {
		name = i.row.NameJa
	}
	return fmt.Sprintf("%s — %s", i.row.ID, name)
}

func (i rowItem) Description() string {
	if i.row.NameJa != "" && i.row.NameEn != "" {
		return i.row.NameJa
	}
	return ""
}

func (i rowItem) FilterValue() string { return i.row.ID + " " + i.row.NameEn + " " + i.row.NameJa }

// ContentModel is the browsing and editing screen for a cloned workspace.
// It drills from content directories into rows, renders article markdown
// with glamour, and edits article bodies in a textarea.
type ContentModel struct {
	ctx       helpers.UIContext
	layout    components.LayoutModel
	repo      githubapi.Repository
	workspace *gitsync.Workspace
	store     *content.Store

	mode contentMode
	dirs []content.Directory

	dirList list.Model
	rowList list.Model

	current *content.Directory
	article content.Article
	view    viewport.Model
	editor  textarea.Model

	status string
}

func NewContentModel(ctx helpers.UIContext, repo githubapi.Repository, ws *gitsync.Workspace) (*ContentModel, error) {
	store := content.NewStore(ctx.Logger, ws.Path)
	dirs, err := store.Scan()
	if err != nil {
		return nil, err
	}

	dirList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	dirList.SetShowTitle(false)
	dirList.SetShowStatusBar(false)
	dirList.SetShowHelp(false)
	dirList.SetFilteringEnabled(false)

	rowList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	rowList.SetShowTitle(false)
	rowList.SetShowStatusBar(false)
	rowList.SetShowHelp(false)
	rowList.SetFilteringEnabled(true)

	editor := textarea.New()
	editor.CharLimit = 0

	m := &ContentModel{
		ctx:       ctx,
		repo:      repo,
		workspace: ws,
		store:     store,
		dirs:      dirs,
		dirList:   dirList,
		rowList:   rowList,
		view:      viewport.New(0, 0),
		editor:    editor,
		layout: components.NewLayout(components.LayoutConfig{
			MarginX: 2,
			MarginY: 1,
		}),
	}
	m.setDirItems()
	return m, nil
}

// Refreshed rescans the workspace and returns the model positioned back at
// the directory listing. Used after a publish so counts reflect disk state.
func (m *ContentModel) Refreshed() *ContentModel {
	dirs, err := m.store.Scan()
	if err != nil {
		m.ctx.Logger.Warn("Rescan after publish failed", "error", err)
		return m
	}
	m.dirs = dirs
	m.mode = modeDirs
	m.current = nil
	m.setDirItems()
	m.status = "Published."
	return m
}

func (m *ContentModel) setDirItems() {
	items := make([]list.Item, 0, len(m.dirs))
	for _, dir := range m.dirs {
		items = append(items, dirItem{dir: dir})
	}
	m.dirList.SetItems(items)
}

func (m *ContentModel) setRowItems() {
	if m.current == nil {
		return
	}
	items := make([]list.Item, 0, len(m.current.Rows))
	for _, row := range m.current.Rows {
		items = append(items, rowItem{row: row})
	}
	m.rowList.SetItems(items)
}

func (m *ContentModel) Init() tea.Cmd {
	return nil
}

func (m *ContentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout, _ = m.layout.Update(msg)
		width, height := msg.Width-4, msg.Height-10
		if width < 20 {
			width = 20
		}
		if height < 5 {
			height = 5
		}
		m.dirList.SetSize(width, height)
		m.rowList.SetSize(width, height)
		m.view.Width = width
		m.view.Height = height
		m.editor.SetWidth(width)
		m.editor.SetHeight(height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *ContentModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.mode {
	case modeDirs:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "b":
			return m, func() tea.Msg { return backToRepoSelectMsg{} }
		case "p":
			return m, func() tea.Msg { return openPublishMsg{} }
		case "enter":
			if item, ok := m.dirList.SelectedItem().(dirItem); ok {
				dir := item.dir
				m.current = &dir
				m.mode = modeRows
				m.setRowItems()
			}
			return m, nil
		default:
			m.dirList, cmd = m.dirList.Update(msg)
			return m, cmd
		}

	case modeRows:
		if m.rowList.FilterState() == list.Filtering {
			m.rowList, cmd = m.rowList.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "esc":
			m.mode = modeDirs
			m.current = nil
			return m, nil
		case "p":
			return m, func() tea.Msg { return openPublishMsg{} }
		case "enter":
			item, ok := m.rowList.SelectedItem().(rowItem)
			if !ok || m.current.Type != content.TypeArticle {
				return m, nil
			}
			return m.openArticle(item.row.ID)
		default:
			m.rowList, cmd = m.rowList.Update(msg)
			return m, cmd
		}

	case modeArticle:
		switch msg.String() {
		case "esc":
			m.mode = modeRows
			return m, nil
		case "e":
			m.editor.SetValue(m.article.Body)
			m.editor.Focus()
			m.mode = modeEdit
			return m, textarea.Blink
		default:
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}

	case modeEdit:
		switch msg.String() {
		case "esc":
			m.mode = modeArticle
			return m, nil
		case "ctrl+s":
			return m.saveArticle()
		default:
			m.editor, cmd = m.editor.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m *ContentModel) openArticle(id string) (tea.Model, tea.Cmd) {
	article, err := m.store.ReadArticle(m.current, id)
	if err != nil {
		m.layout = m.layout.SetError(err)
		return m, nil
	}
	m.article = article
	m.layout = m.layout.ClearError()
	m.renderArticle()
	m.mode = modeArticle
	return m, nil
}

func (m *ContentModel) renderArticle() {
	source := m.article.Body
	if source == "" {
		source = "_This article is empty. Press e to write it._"
	}
	rendered, err := glamour.Render(source, "dark")
	if err != nil {
		m.ctx.Logger.Warn("Markdown render failed, showing raw text", "error", err)
		rendered = source
	}
	m.view.SetContent(rendered)
	m.view.GotoTop()
}

func (m *ContentModel) saveArticle() (tea.Model, tea.Cmd) {
	m.article.Body = m.editor.Value()
	if err := m.store.WriteArticle(m.current, m.article); err != nil {
		m.layout = m.layout.SetError(err)
		return m, nil
	}
	m.layout = m.layout.ClearError()
	m.status = "Saved. Press p to publish when ready."
	m.renderArticle()
	m.mode = modeArticle
	return m, nil
}

func (m *ContentModel) View() string {
	title := fmt.Sprintf("📂 %s", m.repo.FullName)
	subtitle := "Browse site content"
	help := "↑/↓ navigate • Enter open • p publish • b repositories • q quit"
	body := m.dirList.View()

	switch m.mode {
	case modeRows:
		subtitle = fmt.Sprintf("%s (%s)", m.current.Name, m.current.Type)
		help = "↑/↓ navigate • Enter open article • / filter • p publish • Esc back"
		body = m.rowList.View()
	case modeArticle:
		subtitle = fmt.Sprintf("%s / %s", m.current.Name, m.article.ID)
		help = "↑/↓ scroll • e edit • Esc back"
		body = m.view.View()
	case modeEdit:
		subtitle = fmt.Sprintf("Editing %s / %s", m.current.Name, m.article.ID)
		help = "Ctrl+S save • Esc discard"
		body = m.editor.View()
	}

	if m.mode == modeDirs && m.ctx.Engine.HasUnpushedChanges(m.workspace) {
		subtitle += " " + styles.StatusBadgeStyle.Render("● unpushed changes")
	}

	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    title,
		Subtitle: subtitle,
		HelpText: help,
	})

	var out strings.Builder
	out.WriteString(body)
	if m.status != "" && (m.mode == modeDirs || m.mode == modeArticle) {
		out.WriteString("\n\n")
		out.WriteString(styles.SuccessStyle.Render(m.status))
	}
	return m.layout.Render(out.String())
}
