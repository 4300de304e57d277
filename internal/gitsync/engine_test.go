package gitsync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v6"
	gitconfig "github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"

	"staticcms/internal/apperr"
	"staticcms/internal/auth"
)

func testSignature() *object.Signature {
	return &object.Signature{
		Name:  "Test Editor",
		Email: "editor@example.com",
		When:  time.Now(),
	}
}

// createBareRemote initializes a bare repository usable as a local origin.
func createBareRemote(t *testing.T) string {
	t.Helper()
	path := t.TempDir()
	if _, err := git.PlainInit(path, true); err != nil {
		t.Fatalf("failed to init bare repo: %v", err)
	}
	return path
}

// createSourceRepo creates a repository with one commit on main, for use
// as a local clone source.
func createSourceRepo(t *testing.T) string {
	t.Helper()
	path := t.TempDir()

	repo, err := git.PlainInit(path, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	// Point the unborn HEAD at main so the first commit creates the branch.
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))
	if err := repo.Storer.SetReference(head); err != nil {
		t.Fatalf("failed to set HEAD: %v", err)
	}

	// Embed the repo path so every source repo gets a unique root commit;
	// identical roots would make "unrelated" histories fast-forwardable.
	if err := os.WriteFile(filepath.Join(path, "README.md"), []byte("content "+path+"\n"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := worktree.Add("README.md"); err != nil {
		t.Fatalf("failed to add file: %v", err)
	}
	if _, err := worktree.Commit("initial commit", &git.CommitOptions{Author: testSignature()}); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	return path
}

// createRepoWithOrigin creates a local repository with one commit on main
// and the given path configured as origin.
func createRepoWithOrigin(t *testing.T, originPath string) *Workspace {
	t.Helper()
	path := createSourceRepo(t)

	repo, err := git.PlainOpen(path)
	if err != nil {
		t.Fatalf("failed to open repo: %v", err)
	}
	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{originPath},
	}); err != nil {
		t.Fatalf("failed to add origin: %v", err)
	}
	return &Workspace{Path: path, repo: repo}
}

func writeWorkspaceFile(t *testing.T, ws *Workspace, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(ws.Path, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

func TestClone_Preconditions(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()

	tests := []struct {
		name string
		url  string
		cred auth.Credential
	}{
		{"ssh url", "git@github.com:octocat/site.git", auth.Credential{AccessToken: "tok", Login: "octocat"}},
		{"garbage url", "not-a-url", auth.Credential{AccessToken: "tok", Login: "octocat"}},
		{"empty token", "https://github.com/octocat/site", auth.Credential{Login: "octocat"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Clone(ctx, tt.url, t.TempDir(), tt.cred)
			if err == nil {
				t.Fatal("Expected precondition error")
			}
			if !apperr.IsKind(err, apperr.KindValidation) {
				t.Errorf("Expected validation kind, got %v", err)
			}
			if e.State().Phase != OpIdle {
				t.Errorf("Precondition failure must not leave Idle, got %v", e.State().Phase)
			}
		})
	}
}

func TestPerformClone_RecreatesDestination(t *testing.T) {
	source := createSourceRepo(t)
	dest := filepath.Join(t.TempDir(), "workspace")

	// Pre-populate the destination with stale content.
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	stale := filepath.Join(dest, "stale.txt")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	e := NewEngine()
	ws, err := e.performClone(context.Background(), source, dest, nil, "Cloned")
	if err != nil {
		t.Fatalf("performClone failed: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("Stale destination contents must be removed before cloning")
	}
	if _, err := os.Stat(filepath.Join(dest, "README.md")); err != nil {
		t.Errorf("Cloned content missing: %v", err)
	}

	state := e.State()
	if state.Phase != OpSuccess || state.Progress != 1.0 {
		t.Errorf("Expected Success at 1.0, got %v at %v", state.Phase, state.Progress)
	}
	if ws == nil || ws.Repo() == nil {
		t.Error("Expected an open workspace handle")
	}
}

func TestPerformClone_ErrorKeepsProgress(t *testing.T) {
	e := NewEngine()
	dest := filepath.Join(t.TempDir(), "workspace")

	_, err := e.performClone(context.Background(), filepath.Join(t.TempDir(), "missing"), dest, nil, "Cloned")
	if err == nil {
		t.Fatal("Expected clone failure for missing source")
	}

	state := e.State()
	if state.Phase != OpError {
		t.Fatalf("Expected Error state, got %v", state.Phase)
	}
	// Progress stays where the operation stopped so the UI can show it.
	if state.Progress < 0.05 {
		t.Errorf("Error state should keep last progress, got %v", state.Progress)
	}
	if state.Message == "" {
		t.Error("Error state should carry the failure message")
	}
}

func TestPerformClone_CanceledContext(t *testing.T) {
	source := createSourceRepo(t)
	dest := filepath.Join(t.TempDir(), "workspace")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEngine()
	_, err := e.performClone(ctx, source, dest, nil, "Cloned")
	if err == nil {
		t.Fatal("Expected clone with canceled context to fail")
	}
	if !apperr.IsKind(err, apperr.KindCanceled) {
		t.Errorf("Expected canceled kind, got %v", err)
	}
}

func TestPerformCommitAndPush_PublishesToOrigin(t *testing.T) {
	bare := createBareRemote(t)
	ws := createRepoWithOrigin(t, bare)
	e := NewEngine()

	writeWorkspaceFile(t, ws, "article.md", "# Hello\n")

	err := e.performCommitAndPush(context.Background(), ws, "Add article", testSignature(), nil)
	if err != nil {
		t.Fatalf("performCommitAndPush failed: %v", err)
	}

	state := e.State()
	if state.Phase != OpSuccess || state.Progress != 1.0 {
		t.Errorf("Expected Success at 1.0, got %v at %v", state.Phase, state.Progress)
	}

	// The bare remote must now hold the pushed branch.
	remote, err := git.PlainOpen(bare)
	if err != nil {
		t.Fatalf("failed to open bare remote: %v", err)
	}
	ref, err := remote.Reference(plumbing.NewBranchReferenceName("main"), true)
	if err != nil {
		t.Fatalf("pushed branch missing on remote: %v", err)
	}

	head, err := ws.Repo().Head()
	if err != nil {
		t.Fatalf("failed to resolve HEAD: %v", err)
	}
	if ref.Hash() != head.Hash() {
		t.Error("Remote tip does not match local HEAD after push")
	}

	commit, err := ws.Repo().CommitObject(head.Hash())
	if err != nil {
		t.Fatalf("failed to read commit: %v", err)
	}
	if commit.Message != "Add article" {
		t.Errorf("Unexpected commit message %q", commit.Message)
	}
	if commit.Author.Name != "Test Editor" {
		t.Errorf("Unexpected author %q", commit.Author.Name)
	}
}

func TestPerformCommitAndPush_CleanTreeStillPushes(t *testing.T) {
	bare := createBareRemote(t)
	ws := createRepoWithOrigin(t, bare)
	e := NewEngine()

	// First publish ships the initial commit.
	if err := e.performCommitAndPush(context.Background(), ws, "Publish", testSignature(), nil); err != nil {
		t.Fatalf("first publish failed: %v", err)
	}
	e.Reset()

	// Second publish with nothing new must still succeed.
	if err := e.performCommitAndPush(context.Background(), ws, "Publish again", testSignature(), nil); err != nil {
		t.Fatalf("second publish failed: %v", err)
	}
	if state := e.State(); state.Phase != OpSuccess || state.Progress != 1.0 {
		t.Errorf("Expected Success at 1.0, got %v at %v", state.Phase, state.Progress)
	}
}

func TestPerformCommitAndPush_RejectedPushIsConflict(t *testing.T) {
	bare := createBareRemote(t)

	// First writer establishes main and moves it forward.
	first := createRepoWithOrigin(t, bare)
	e1 := NewEngine()
	if err := e1.performCommitAndPush(context.Background(), first, "Base", testSignature(), nil); err != nil {
		t.Fatalf("base publish failed: %v", err)
	}

	// Second writer diverges from an unrelated history.
	second := createRepoWithOrigin(t, bare)
	e2 := NewEngine()
	writeWorkspaceFile(t, second, "other.md", "diverged\n")

	err := e2.performCommitAndPush(context.Background(), second, "Diverged", testSignature(), nil)
	if err == nil {
		t.Fatal("Expected push rejection")
	}
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("Expected conflict kind, got %v", err)
	}

	if state := e2.State(); state.Phase != OpError {
		t.Errorf("Expected Error state, got %v", state.Phase)
	}

	// The local commit survives the rejected push.
	head, err := second.Repo().Head()
	if err != nil {
		t.Fatalf("failed to resolve HEAD: %v", err)
	}
	commit, err := second.Repo().CommitObject(head.Hash())
	if err != nil {
		t.Fatalf("failed to read commit: %v", err)
	}
	if commit.Message != "Diverged" {
		t.Errorf("Local commit lost after rejected push, HEAD at %q", commit.Message)
	}
}

func TestCommitAndPush_Preconditions(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()
	bare := createBareRemote(t)
	ws := createRepoWithOrigin(t, bare)
	cred := auth.Credential{AccessToken: "tok", Login: "octocat"}

	tests := []struct {
		name string
		run  func() error
	}{
		{"nil workspace", func() error { return e.CommitAndPush(ctx, nil, "msg", cred) }},
		{"empty message", func() error { return e.CommitAndPush(ctx, ws, "   ", cred) }},
		{"missing token", func() error {
			return e.CommitAndPush(ctx, ws, "msg", auth.Credential{Login: "octocat"})
		}},
		{"missing login", func() error {
			return e.CommitAndPush(ctx, ws, "msg", auth.Credential{AccessToken: "tok"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if err == nil {
				t.Fatal("Expected precondition error")
			}
			if !apperr.IsKind(err, apperr.KindValidation) {
				t.Errorf("Expected validation kind, got %v", err)
			}
			if e.State().Phase != OpIdle {
				t.Errorf("Precondition failure must leave state untouched, got %v", e.State().Phase)
			}
		})
	}
}

func TestEngine_SingleFlight(t *testing.T) {
	e := NewEngine()
	if err := e.acquire(); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer e.release()

	_, err := e.Clone(context.Background(), "https://github.com/octocat/site",
		t.TempDir(), auth.Credential{AccessToken: "tok", Login: "octocat"})
	if err == nil {
		t.Fatal("Expected busy error while another operation holds the engine")
	}
	if !apperr.IsKind(err, apperr.KindBusy) {
		t.Errorf("Expected busy kind, got %v", err)
	}
}

func TestEngine_Reset(t *testing.T) {
	e := NewEngine()
	_, _ = e.performClone(context.Background(), filepath.Join(t.TempDir(), "missing"),
		filepath.Join(t.TempDir(), "dest"), nil, "Cloned")
	if e.State().Phase != OpError {
		t.Fatalf("setup: expected Error state, got %v", e.State().Phase)
	}

	e.Reset()
	state := e.State()
	if state.Phase != OpIdle || state.Progress != 0 {
		t.Errorf("Expected Idle at 0, got %v at %v", state.Phase, state.Progress)
	}
}

func TestHasUnpushedChanges(t *testing.T) {
	t.Run("nil workspace", func(t *testing.T) {
		e := NewEngine()
		if e.HasUnpushedChanges(nil) {
			t.Error("Nil workspace cannot have unpushed changes")
		}
	})

	t.Run("no remote tracking ref", func(t *testing.T) {
		bare := createBareRemote(t)
		ws := createRepoWithOrigin(t, bare)
		e := NewEngine()
		if !e.HasUnpushedChanges(ws) {
			t.Error("Missing remote ref must count as unpushed")
		}
	})

	t.Run("remote ref matches head", func(t *testing.T) {
		bare := createBareRemote(t)
		ws := createRepoWithOrigin(t, bare)
		e := NewEngine()

		head, err := ws.Repo().Head()
		if err != nil {
			t.Fatalf("failed to resolve HEAD: %v", err)
		}
		remoteRef := plumbing.NewHashReference(
			plumbing.NewRemoteReferenceName("origin", "main"), head.Hash())
		if err := ws.Repo().Storer.SetReference(remoteRef); err != nil {
			t.Fatalf("failed to set remote ref: %v", err)
		}

		if e.HasUnpushedChanges(ws) {
			t.Error("Matching tips must not report unpushed changes")
		}
	})

	t.Run("remote ref behind head", func(t *testing.T) {
		bare := createBareRemote(t)
		ws := createRepoWithOrigin(t, bare)
		e := NewEngine()

		head, err := ws.Repo().Head()
		if err != nil {
			t.Fatalf("failed to resolve HEAD: %v", err)
		}
		remoteRef := plumbing.NewHashReference(
			plumbing.NewRemoteReferenceName("origin", "main"), head.Hash())
		if err := ws.Repo().Storer.SetReference(remoteRef); err != nil {
			t.Fatalf("failed to set remote ref: %v", err)
		}

		// New local commit moves HEAD past the recorded remote tip.
		worktree, err := ws.Repo().Worktree()
		if err != nil {
			t.Fatalf("failed to get worktree: %v", err)
		}
		if err := os.WriteFile(filepath.Join(ws.Path, "new.md"), []byte("x\n"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if _, err := worktree.Add("new.md"); err != nil {
			t.Fatalf("failed to add: %v", err)
		}
		if _, err := worktree.Commit("local only", &git.CommitOptions{Author: testSignature()}); err != nil {
			t.Fatalf("failed to commit: %v", err)
		}

		if !e.HasUnpushedChanges(ws) {
			t.Error("Diverged tips must report unpushed changes")
		}
	})
}
