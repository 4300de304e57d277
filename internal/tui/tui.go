// Package tui implements the terminal interface for staticcms.
//
// The interface walks the user through the full publishing flow: GitHub
// sign-in, repository selection, clone with progress, content browsing and
// editing, and finally commit-and-push. Screens are separate models that
// implement tea.Model; the RootModel owns navigation between them and
// bridges the auth and git state feeds into Bubble Tea messages.
package tui

import (
	"context"

	"staticcms/internal/apperr"
	"staticcms/internal/auth"
	"staticcms/internal/gitsync"
	"staticcms/internal/githubapi"
	"staticcms/internal/tui/components"
	"staticcms/internal/tui/helpers"

	tea "github.com/charmbracelet/bubbletea"
)

// Screen identifies the active view of the application.
type Screen int

const (
	ScreenSignIn Screen = iota
	ScreenRepoSelect
	ScreenCloning
	ScreenContent
	ScreenPublish
	ScreenError
	ScreenQuitting
)

// Messages exchanged between the root model and screen models.
type (
	// authStateMsg and opStateMsg are feed updates bridged from the
	// coordinator and engine watch channels.
	authStateMsg auth.State
	opStateMsg   gitsync.OperationState

	startSignInMsg  struct{}
	signOutMsg      struct{}
	authFlowDoneMsg struct{ err error }
	restoreDoneMsg  struct{ restored bool }

	reposLoadedMsg struct {
		repos []githubapi.Repository
		err   error
	}
	repoChosenMsg struct{ repo githubapi.Repository }

	cloneDoneMsg struct {
		workspace *gitsync.Workspace
		err       error
	}

	backToRepoSelectMsg struct{}

	openPublishMsg   struct{}
	publishSubmitMsg struct{ message string }
	publishDoneMsg   struct{ err error }
	backToContentMsg struct{ published bool }

	errorMsg struct{ err error }
)

// RootModel coordinates the screen models and owns the feed subscriptions.
type RootModel struct {
	ctx    helpers.UIContext
	appCtx context.Context
	stop   context.CancelFunc

	screen     Screen
	prevScreen Screen
	active     tea.Model
	content    *ContentModel // retained across publish round trips

	layout components.LayoutModel
	err    error

	authCh     <-chan auth.State
	authCancel func()
	opCh       <-chan gitsync.OperationState
	opCancel   func()

	repo      githubapi.Repository
	workspace *gitsync.Workspace
}

func NewRootModel(ctx helpers.UIContext) *RootModel {
	appCtx, stop := context.WithCancel(context.Background())

	layout := components.NewLayout(components.LayoutConfig{
		MarginX:  2,
		MarginY:  1,
		MaxWidth: 100,
	})

	m := &RootModel{
		ctx:    ctx,
		appCtx: appCtx,
		stop:   stop,
		screen: ScreenSignIn,
		layout: layout,
	}
	m.active = NewSignInModel(ctx)
	return m
}

func (m *RootModel) Init() tea.Cmd {
	m.ctx.Logger.Info("RootModel initialized")

	m.authCh, m.authCancel = m.ctx.Auth.Watch()
	m.opCh, m.opCancel = m.ctx.Engine.Watch()

	return tea.Batch(
		m.active.Init(),
		waitForAuthState(m.authCh),
		waitForOpState(m.opCh),
		m.restoreSession(),
	)
}

func (m *RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	m.layout, _ = m.layout.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ctx.Width = msg.Width
		m.ctx.Height = msg.Height
		return m, m.forward(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.screen == ScreenError && msg.String() == "esc" {
			m.ctx.Logger.LogStateTransition("RootModel", "ScreenError", "previous")
			m.screen = m.prevScreen
			m.err = nil
			return m, nil
		}
		return m, m.forward(msg)

	case authStateMsg:
		cmds = append(cmds, waitForAuthState(m.authCh), m.forward(msg))
		if auth.State(msg).Phase == auth.PhaseSuccess && m.screen == ScreenSignIn {
			cmds = append(cmds, m.showRepoSelect())
		}
		return m, tea.Batch(cmds...)

	case opStateMsg:
		return m, tea.Batch(waitForOpState(m.opCh), m.forward(msg))

	case startSignInMsg:
		return m, m.authenticate()

	case signOutMsg:
		if err := m.ctx.Auth.SignOut(); err != nil {
			m.ctx.Logger.Warn("Sign out reported an error", "error", err)
		}
		m.workspace = nil
		m.content = nil
		return m, m.transition(ScreenSignIn, NewSignInModel(m.ctx))

	case restoreDoneMsg:
		if msg.restored && m.screen == ScreenSignIn {
			return m, m.showRepoSelect()
		}
		return m, m.forward(msg)

	case authFlowDoneMsg:
		// Terminal states already arrive via the feed; cancellation
		// needs no error screen.
		if msg.err != nil && !apperr.IsKind(msg.err, apperr.KindCanceled) {
			m.ctx.Logger.Error("Sign-in flow failed", "error", msg.err)
		}
		return m, nil

	case repoChosenMsg:
		m.repo = msg.repo
		return m, tea.Batch(
			m.transition(ScreenCloning, NewCloneModel(m.ctx, msg.repo)),
			m.startClone(msg.repo),
		)

	case cloneDoneMsg:
		if msg.err != nil {
			if apperr.IsKind(msg.err, apperr.KindCanceled) {
				return m, m.showRepoSelect()
			}
			return m, m.forward(msg)
		}
		m.workspace = msg.workspace
		content, err := NewContentModel(m.ctx, m.repo, msg.workspace)
		if err != nil {
			return m.showError(err)
		}
		m.content = content
		return m, m.transition(ScreenContent, content)

	case backToRepoSelectMsg:
		return m, m.showRepoSelect()

	case openPublishMsg:
		return m, m.transition(ScreenPublish, NewPublishModel(m.ctx, m.repo, m.workspace))

	case publishSubmitMsg:
		return m, m.startPublish(msg.message)

	case backToContentMsg:
		if m.content == nil {
			return m, m.showRepoSelect()
		}
		if msg.published {
			m.content = m.content.Refreshed()
		}
		return m, m.transition(ScreenContent, m.content)

	case errorMsg:
		return m.showError(msg.err)

	default:
		return m, m.forward(msg)
	}
}

func (m *RootModel) View() string {
	switch m.screen {
	case ScreenQuitting:
		m.layout = m.layout.SetConfig(components.LayoutConfig{Title: "👋 Goodbye!"})
		return m.layout.Render("Thanks for using staticcms.")
	case ScreenError:
		return m.viewError()
	default:
		if m.active != nil {
			return m.active.View()
		}
		return ""
	}
}

func (m *RootModel) viewError() string {
	m.layout = m.layout.SetConfig(components.LayoutConfig{
		Title:    "❌ Error",
		Subtitle: "Something went wrong",
		HelpText: "Esc to go back • Ctrl+C to quit",
	})
	content := ""
	if m.err != nil {
		content = m.err.Error()
	}
	return m.layout.Render(content)
}

// forward delegates a message to the active screen model.
func (m *RootModel) forward(msg tea.Msg) tea.Cmd {
	if m.active == nil {
		return nil
	}
	updated, cmd := m.active.Update(msg)
	m.active = updated
	return cmd
}

// transition swaps the active screen model and runs its Init, replaying the
// current window size so the new screen lays itself out immediately.
func (m *RootModel) transition(screen Screen, model tea.Model) tea.Cmd {
	m.ctx.Logger.LogStateTransition("RootModel", m.screen.String(), screen.String())
	m.prevScreen = m.screen
	m.screen = screen
	m.active = model

	cmds := []tea.Cmd{model.Init()}
	if m.ctx.HasValidDimensions() {
		cmds = append(cmds, m.forward(tea.WindowSizeMsg{Width: m.ctx.Width, Height: m.ctx.Height}))
	}
	return tea.Batch(cmds...)
}

func (m *RootModel) showRepoSelect() tea.Cmd {
	return m.transition(ScreenRepoSelect, NewRepoSelectModel(m.ctx))
}

func (m *RootModel) showError(err error) (tea.Model, tea.Cmd) {
	m.ctx.Logger.Error("Application error", "error", err)
	m.err = err
	m.prevScreen = m.screen
	m.screen = ScreenError
	return m, nil
}

func (m *RootModel) quit() (tea.Model, tea.Cmd) {
	m.screen = ScreenQuitting
	m.stop()
	if m.authCancel != nil {
		m.authCancel()
	}
	if m.opCancel != nil {
		m.opCancel()
	}
	return m, tea.Quit
}

// Commands

func (m *RootModel) authenticate() tea.Cmd {
	ctx := m.appCtx
	coordinator := m.ctx.Auth
	return func() tea.Msg {
		return authFlowDoneMsg{err: coordinator.Authenticate(ctx)}
	}
}

func (m *RootModel) restoreSession() tea.Cmd {
	ctx := m.appCtx
	coordinator := m.ctx.Auth
	logger := m.ctx.Logger
	return func() tea.Msg {
		if err := coordinator.Restore(ctx); err != nil {
			logger.Debug("No session to restore", "error", err)
			return restoreDoneMsg{restored: false}
		}
		_, ok := coordinator.Credential()
		return restoreDoneMsg{restored: ok}
	}
}

func (m *RootModel) startClone(repo githubapi.Repository) tea.Cmd {
	ctx := m.appCtx
	engine := m.ctx.Engine
	dest := m.ctx.Config.ClonePath(repo.Owner.Login, repo.Name)
	coordinator := m.ctx.Auth
	return func() tea.Msg {
		cred, ok := coordinator.Credential()
		if !ok {
			return cloneDoneMsg{err: apperr.New(apperr.KindSecurity, "not signed in")}
		}
		ws, err := engine.Clone(ctx, repo.CloneURL, dest, cred)
		return cloneDoneMsg{workspace: ws, err: err}
	}
}

func (m *RootModel) startPublish(message string) tea.Cmd {
	ctx := m.appCtx
	engine := m.ctx.Engine
	ws := m.workspace
	coordinator := m.ctx.Auth
	return func() tea.Msg {
		cred, ok := coordinator.Credential()
		if !ok {
			return publishDoneMsg{err: apperr.New(apperr.KindSecurity, "not signed in")}
		}
		return publishDoneMsg{err: engine.CommitAndPush(ctx, ws, message, cred)}
	}
}

// waitForAuthState blocks on the coordinator feed and re-emits updates as
// messages. The returned command is re-armed after every receipt.
func waitForAuthState(ch <-chan auth.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return authStateMsg(s)
	}
}

func waitForOpState(ch <-chan gitsync.OperationState) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return opStateMsg(s)
	}
}

func (s Screen) String() string {
	switch s {
	case ScreenSignIn:
		return "SignIn"
	case ScreenRepoSelect:
		return "RepoSelect"
	case ScreenCloning:
		return "Cloning"
	case ScreenContent:
		return "Content"
	case ScreenPublish:
		return "Publish"
	case ScreenError:
		return "Error"
	case ScreenQuitting:
		return "Quitting"
	default:
		return "Unknown"
	}
}
