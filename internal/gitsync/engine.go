package gitsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/plumbing/transport"
	githttp "github.com/go-git/go-git/v6/plumbing/transport/http"

	"staticcms/internal/apperr"
	"staticcms/internal/auth"
	"staticcms/internal/logging"
	"staticcms/internal/watch"
	"staticcms/pkg/fileops"
)

// Workspace is an opened local clone.
type Workspace struct {
	Path string
	repo *git.Repository
}

// Repo exposes the underlying repository for collaborators that need raw
// access (content scanning, tests).
func (ws *Workspace) Repo() *git.Repository {
	return ws.repo
}

// Open attaches to an existing clone at path.
func Open(path string) (*Workspace, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "no repository at %s", path)
	}
	return &Workspace{Path: path, repo: repo}, nil
}

// Engine performs clone, commit, and push against a single working copy
// and publishes a normalized progress state. One operation at a time; a
// second call while one is in flight gets a busy error rather than
// interleaved worktree mutations.
type Engine struct {
	state *watch.Feed[OperationState]
	sem   chan struct{}
}

// NewEngine creates an idle engine.
func NewEngine() *Engine {
	return &Engine{
		state: watch.NewFeed(OperationState{Phase: OpIdle}),
		sem:   make(chan struct{}, 1),
	}
}

// State returns the current operation state.
func (e *Engine) State() OperationState {
	return e.state.Get()
}

// Watch subscribes to operation state changes.
func (e *Engine) Watch() (<-chan OperationState, func()) {
	return e.state.Subscribe()
}

// Reset returns the engine to Idle with zero progress. It does not abort
// an in-flight operation.
func (e *Engine) Reset() {
	e.state.Set(OperationState{Phase: OpIdle})
}

func (e *Engine) acquire() error {
	select {
	case e.sem <- struct{}{}:
		return nil
	default:
		return apperr.New(apperr.KindBusy, "another repository operation is in progress")
	}
}

func (e *Engine) release() {
	<-e.sem
}

// Clone clones url into dest using the credential's token. The destination
// is recreated from scratch: existing contents are removed first. On
// success the returned workspace is open and state is Success with
// progress 1.0.
func (e *Engine) Clone(ctx context.Context, url, dest string, cred auth.Credential) (*Workspace, error) {
	owner, name, ok := ParseRepositoryURL(url)
	if !ok {
		return nil, apperr.New(apperr.KindValidation, "not a GitHub repository URL: %s", url)
	}
	if strings.TrimSpace(cred.AccessToken) == "" {
		return nil, apperr.New(apperr.KindValidation, "cannot clone without an access token")
	}

	logging.Info("Cloning repository", "repo", owner+"/"+name, "dest", dest)
	return e.performClone(ctx, url, dest, basicAuth(cred), fmt.Sprintf("Cloned %s/%s", owner, name))
}

// performClone is the transport-agnostic clone body. Local fixture URLs in
// tests come through here with nil auth.
func (e *Engine) performClone(ctx context.Context, url, dest string, auth transport.AuthMethod, successMsg string) (*Workspace, error) {
	if err := e.acquire(); err != nil {
		return nil, err
	}
	defer e.release()

	e.setState(OperationState{Phase: OpCloning, Progress: 0})

	dest = fileops.ExpandPath(dest)
	if err := fileops.RecreateDir(dest); err != nil {
		return nil, e.fail(apperr.Wrap(apperr.KindValidation, err, "cannot prepare clone destination"))
	}

	norm := NewNormalizer(CloneSchedule(), func(p float64) {
		e.setState(OperationState{Phase: OpCloning, Progress: p})
	}, func() bool { return ctx.Err() != nil })
	writer := newProgressWriter(norm)

	// Destination is ready and we are about to connect.
	e.setState(OperationState{Phase: OpCloning, Progress: 0.05})

	repo, err := git.PlainCloneContext(ctx, dest, &git.CloneOptions{
		URL:      url,
		Auth:     auth,
		Progress: writer,
	})
	_ = writer.Close()
	if err != nil {
		if ctx.Err() != nil {
			return nil, e.fail(apperr.Wrap(apperr.KindCanceled, ctx.Err(), "clone aborted"))
		}
		return nil, e.fail(classifyVCSError(err))
	}
	if err := ctx.Err(); err != nil {
		return nil, e.fail(apperr.Wrap(apperr.KindCanceled, err, "clone aborted"))
	}

	e.setState(OperationState{Phase: OpCloning, Progress: 0.95})
	e.setState(OperationState{Phase: OpSuccess, Progress: 1.0, Message: successMsg})
	logging.Info("Clone complete", "dest", dest)

	return &Workspace{Path: dest, repo: repo}, nil
}

// Checkpoints for the non-transfer parts of publish. The push schedule
// owns everything past pushStart.
const (
	stageDone  = 0.30
	commitDone = 0.60
	pushStart  = 0.70
)

// CommitAndPush stages every change, commits it with the credential's
// identity as author and committer, and pushes to origin. Push rejections
// surface as conflict errors with the remote's reason intact; the local
// commit is kept either way.
func (e *Engine) CommitAndPush(ctx context.Context, ws *Workspace, message string, cred auth.Credential) error {
	if ws == nil || ws.repo == nil {
		return apperr.New(apperr.KindValidation, "no working copy to publish")
	}
	if strings.TrimSpace(cred.AccessToken) == "" || strings.TrimSpace(cred.Login) == "" {
		return apperr.New(apperr.KindValidation, "cannot publish without a signed-in user")
	}
	if strings.TrimSpace(message) == "" {
		return apperr.New(apperr.KindValidation, "commit message cannot be empty")
	}

	return e.performCommitAndPush(ctx, ws, message, signature(cred), basicAuth(cred))
}

// performCommitAndPush is the transport-agnostic publish body, shared with
// tests that push to local bare remotes without credentials.
func (e *Engine) performCommitAndPush(ctx context.Context, ws *Workspace, message string, sig *object.Signature, auth transport.AuthMethod) error {
	if err := e.acquire(); err != nil {
		return err
	}
	defer e.release()

	if _, err := ws.repo.Remote("origin"); err != nil {
		return e.fail(apperr.Wrap(apperr.KindValidation, err, "working copy has no origin remote"))
	}

	e.setState(OperationState{Phase: OpCommitting, Progress: 0, Message: message})

	worktree, err := ws.repo.Worktree()
	if err != nil {
		return e.fail(apperr.Wrap(apperr.KindTransport, err, "cannot open working tree"))
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return e.fail(apperr.Wrap(apperr.KindTransport, err, "failed to stage changes"))
	}
	e.setState(OperationState{Phase: OpCommitting, Progress: stageDone, Message: message})

	status, err := worktree.Status()
	if err != nil {
		return e.fail(apperr.Wrap(apperr.KindTransport, err, "failed to read working tree status"))
	}

	// A clean tree still pushes: an earlier publish may have committed
	// but failed on the network.
	if !status.IsClean() {
		if _, err := worktree.Commit(message, &git.CommitOptions{
			Author:    sig,
			Committer: sig,
		}); err != nil {
			return e.fail(apperr.Wrap(apperr.KindTransport, err, "failed to create commit"))
		}
		logging.Info("Created commit", "message", message, "author", sig.Name)
	} else {
		logging.Debug("Working tree clean, pushing existing commits")
	}
	e.setState(OperationState{Phase: OpCommitting, Progress: commitDone, Message: message})

	e.setState(OperationState{Phase: OpPushing, Progress: pushStart})
	norm := NewNormalizer(PushSchedule(), func(p float64) {
		e.setState(OperationState{Phase: OpPushing, Progress: p})
	}, func() bool { return ctx.Err() != nil })
	writer := newProgressWriter(norm)

	err = ws.repo.Push(&git.PushOptions{
		RemoteName: "origin",
		Auth:       auth,
		Progress:   writer,
	})
	_ = writer.Close()
	if err != nil && err != git.NoErrAlreadyUpToDate {
		// The commit stays in the local history; only the push failed.
		return e.fail(classifyPushError(err))
	}

	e.setState(OperationState{Phase: OpPushing, Progress: 0.98})
	e.setState(OperationState{Phase: OpSuccess, Progress: 1.0, Message: "Published changes"})
	logging.Info("Push complete", "path", ws.Path)
	return nil
}

// HasUnpushedChanges compares the local branch tip with its remote
// counterpart. A missing remote ref counts as unpushed, so fresh work is
// never silently treated as synced. This is advisory only: internal
// failures degrade to false with a logged cause, never an error.
func (e *Engine) HasUnpushedChanges(ws *Workspace) bool {
	if ws == nil || ws.repo == nil {
		return false
	}

	head, err := ws.repo.Head()
	if err != nil {
		logging.Debug("Cannot resolve HEAD for unpushed check", "error", err)
		return false
	}

	remoteRef := plumbing.NewRemoteReferenceName("origin", head.Name().Short())
	remote, err := ws.repo.Reference(remoteRef, true)
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return true
		}
		logging.Debug("Cannot resolve remote ref for unpushed check", "error", err)
		return false
	}

	return head.Hash() != remote.Hash()
}

func (e *Engine) setState(s OperationState) {
	prev := e.state.Get()
	// Progress never regresses within an attempt.
	if s.Phase != OpIdle && s.Phase == prev.Phase && s.Progress < prev.Progress {
		s.Progress = prev.Progress
	}
	e.state.Set(s)
	if s.Phase != prev.Phase {
		logging.LogStateTransition("gitsync", prev.Phase.String(), s.Phase.String())
	}
}

// fail publishes an Error state, leaving progress where the operation
// stopped, and passes the error through.
func (e *Engine) fail(err error) error {
	cur := e.state.Get()
	e.setState(OperationState{Phase: OpError, Progress: cur.Progress, Message: err.Error()})
	logging.Error("Repository operation failed", "error", err)
	return err
}

func basicAuth(cred auth.Credential) *githttp.BasicAuth {
	return &githttp.BasicAuth{
		Username: cred.Login,
		Password: cred.AccessToken,
	}
}

func signature(cred auth.Credential) *object.Signature {
	name := cred.Name
	if name == "" {
		name = cred.Login
	}
	email := cred.Email
	if email == "" {
		email = cred.Login + "@users.noreply.github.com"
	}
	return &object.Signature{
		Name:  name,
		Email: email,
		When:  time.Now(),
	}
}

func classifyVCSError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "authentication") ||
		strings.Contains(msg, "401") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "403") ||
		strings.Contains(msg, "forbidden"):
		return apperr.Wrap(apperr.KindProvider, err, "repository access rejected")
	case strings.Contains(msg, "not found") || strings.Contains(msg, "404"):
		return apperr.Wrap(apperr.KindProvider, err, "repository not found")
	case strings.Contains(msg, "connection") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "network") ||
		strings.Contains(msg, "no such host"):
		return apperr.Wrap(apperr.KindTransport, err, "network failure")
	default:
		return apperr.Wrap(apperr.KindTransport, err, "repository operation failed")
	}
}

func classifyPushError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "non-fast-forward") ||
		strings.Contains(msg, "fetch first") ||
		strings.Contains(msg, "rejected") {
		// Keep the remote's reason word for word; the UI shows it.
		return apperr.Wrap(apperr.KindConflict, err, "push rejected by remote")
	}
	return classifyVCSError(err)
}

// ClonePathFor computes the local destination for a repository under root,
// one directory per repository named owner_name.
func ClonePathFor(root, owner, name string) string {
	return filepath.Join(fileops.ExpandPath(root), owner+"_"+name)
}

// EnsureCloneRoot creates the repositories root if missing.
func EnsureCloneRoot(root string) error {
	root = fileops.ExpandPath(root)
	if err := fileops.EnsureDir(root); err != nil {
		return apperr.Wrap(apperr.KindConfiguration, err, "cannot create clone root")
	}
	if _, err := os.Stat(root); err != nil {
		return apperr.Wrap(apperr.KindConfiguration, err, "clone root not accessible")
	}
	return nil
}
