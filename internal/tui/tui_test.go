package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"staticcms/internal/apperr"
	"staticcms/internal/auth"
	"staticcms/internal/config"
	"staticcms/internal/gitsync"
	"staticcms/internal/githubapi"
	"staticcms/internal/logging"
	"staticcms/internal/tui/helpers"

	tea "github.com/charmbracelet/bubbletea"
)

var errTest = errors.New("boom")

type stubFetcher struct{}

func (stubFetcher) FetchIdentity(ctx context.Context, token string) (auth.Identity, error) {
	return auth.Identity{Login: "octocat"}, nil
}

func newTestContext(t *testing.T) helpers.UIContext {
	t.Helper()
	logger, _ := logging.NewTestLogger()
	cfg := &config.Config{CloneRoot: t.TempDir()}
	coordinator := auth.NewCoordinator(config.OAuth{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		CallbackPort: 0,
	}, stubFetcher{})
	api := githubapi.NewClient(githubapi.StaticToken("test-token"))
	return helpers.NewUIContext(100, 40, cfg, logger, coordinator, api, gitsync.NewEngine())
}

func testRepo() githubapi.Repository {
	repo := githubapi.Repository{
		ID:            1,
		Name:          "site",
		FullName:      "octocat/site",
		CloneURL:      "https://github.com/octocat/site.git",
		DefaultBranch: "main",
		UpdatedAt:     time.Now(),
	}
	repo.Owner.Login = "octocat"
	repo.Permissions.Push = true
	return repo
}

func TestNewRootModel(t *testing.T) {
	m := NewRootModel(newTestContext(t))

	if m.screen != ScreenSignIn {
		t.Errorf("expected initial screen SignIn, got %s", m.screen)
	}
	if _, ok := m.active.(*SignInModel); !ok {
		t.Errorf("expected SignInModel active, got %T", m.active)
	}
}

func TestRootModel_AuthSuccessShowsRepoSelect(t *testing.T) {
	m := NewRootModel(newTestContext(t))

	updated, _ := m.Update(authStateMsg(auth.State{Phase: auth.PhaseSuccess}))
	root := updated.(*RootModel)

	if root.screen != ScreenRepoSelect {
		t.Errorf("expected RepoSelect after auth success, got %s", root.screen)
	}
}

func TestRootModel_RestoreSkipsSignIn(t *testing.T) {
	m := NewRootModel(newTestContext(t))

	updated, _ := m.Update(restoreDoneMsg{restored: true})
	root := updated.(*RootModel)

	if root.screen != ScreenRepoSelect {
		t.Errorf("expected RepoSelect after session restore, got %s", root.screen)
	}
}

func TestRootModel_RestoreFailureStaysOnSignIn(t *testing.T) {
	m := NewRootModel(newTestContext(t))

	updated, _ := m.Update(restoreDoneMsg{restored: false})
	root := updated.(*RootModel)

	if root.screen != ScreenSignIn {
		t.Errorf("expected SignIn when restore found nothing, got %s", root.screen)
	}
}

func TestRootModel_RepoChosenStartsCloning(t *testing.T) {
	m := NewRootModel(newTestContext(t))

	updated, cmd := m.Update(repoChosenMsg{repo: testRepo()})
	root := updated.(*RootModel)

	if root.screen != ScreenCloning {
		t.Errorf("expected Cloning screen, got %s", root.screen)
	}
	if cmd == nil {
		t.Error("expected a clone command to be issued")
	}
}

func TestRootModel_CloneFailureStaysOnCloneScreen(t *testing.T) {
	m := NewRootModel(newTestContext(t))
	m.Update(repoChosenMsg{repo: testRepo()})

	updated, _ := m.Update(cloneDoneMsg{err: os.ErrPermission})
	root := updated.(*RootModel)

	if root.screen != ScreenCloning {
		t.Errorf("expected Cloning screen to keep showing the failure, got %s", root.screen)
	}
}

func TestRootModel_CanceledCloneReturnsToRepoSelect(t *testing.T) {
	m := NewRootModel(newTestContext(t))
	m.Update(repoChosenMsg{repo: testRepo()})

	updated, _ := m.Update(cloneDoneMsg{err: apperr.New(apperr.KindCanceled, "clone canceled")})
	root := updated.(*RootModel)

	if root.screen != ScreenRepoSelect {
		t.Errorf("expected RepoSelect after canceled clone, got %s", root.screen)
	}
}

func TestRootModel_SuccessfulCloneOpensContent(t *testing.T) {
	ctx := newTestContext(t)
	m := NewRootModel(ctx)
	m.Update(repoChosenMsg{repo: testRepo()})

	ws := workspaceWithContent(t)
	updated, _ := m.Update(cloneDoneMsg{workspace: ws})
	root := updated.(*RootModel)

	if root.screen != ScreenContent {
		t.Errorf("expected Content screen, got %s", root.screen)
	}
	if root.content == nil {
		t.Error("expected content model to be retained")
	}
}

func TestRootModel_BackToRepoSelect(t *testing.T) {
	m := NewRootModel(newTestContext(t))
	m.Update(repoChosenMsg{repo: testRepo()})

	updated, _ := m.Update(backToRepoSelectMsg{})
	root := updated.(*RootModel)

	if root.screen != ScreenRepoSelect {
		t.Errorf("expected RepoSelect, got %s", root.screen)
	}
}

func TestRootModel_ErrorScreenEscReturns(t *testing.T) {
	m := NewRootModel(newTestContext(t))

	updated, _ := m.Update(errorMsg{err: os.ErrPermission})
	root := updated.(*RootModel)
	if root.screen != ScreenError {
		t.Fatalf("expected Error screen, got %s", root.screen)
	}

	updated, _ = root.Update(tea.KeyMsg{Type: tea.KeyEsc})
	root = updated.(*RootModel)
	if root.screen != ScreenSignIn {
		t.Errorf("expected return to previous screen, got %s", root.screen)
	}
}

func TestScreenString(t *testing.T) {
	names := map[Screen]string{
		ScreenSignIn:     "SignIn",
		ScreenRepoSelect: "RepoSelect",
		ScreenCloning:    "Cloning",
		ScreenContent:    "Content",
		ScreenPublish:    "Publish",
		ScreenError:      "Error",
		ScreenQuitting:   "Quitting",
		Screen(99):       "Unknown",
	}
	for screen, want := range names {
		if got := screen.String(); got != want {
			t.Errorf("Screen(%d).String() = %q, want %q", screen, got, want)
		}
	}
}

// workspaceWithContent builds a bare workspace directory containing one
// content directory so NewContentModel can scan it.
func workspaceWithContent(t *testing.T) *gitsync.Workspace {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "contents", "articles")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create content dir: %v", err)
	}
	csv := "id,nameJa,nameEn,thumbnail,descJa,descEn\nwelcome,ようこそ,Welcome,,,\n"
	if err := os.WriteFile(filepath.Join(dir, "articles.csv"), []byte(csv), 0644); err != nil {
		t.Fatalf("failed to write index: %v", err)
	}
	return &gitsync.Workspace{Path: root}
}
