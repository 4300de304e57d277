package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"staticcms/internal/apperr"
	"staticcms/internal/config"
	"staticcms/internal/logging"
	"staticcms/internal/watch"
)

// Default GitHub OAuth endpoints. Overridable for tests.
const (
	defaultAuthorizeURL = "https://github.com/login/oauth/authorize"
	defaultTokenURL     = "https://github.com/login/oauth/access_token"
)

// IdentityFetcher resolves the identity behind an access token. The GitHub
// API client satisfies this; tests substitute a fake.
type IdentityFetcher interface {
	FetchIdentity(ctx context.Context, token string) (Identity, error)
}

// Endpoints bundles the provider URLs the coordinator talks to.
type Endpoints struct {
	AuthorizeURL string
	TokenURL     string
}

// GitHubEndpoints returns the production GitHub OAuth endpoints.
func GitHubEndpoints() Endpoints {
	return Endpoints{
		AuthorizeURL: defaultAuthorizeURL,
		TokenURL:     defaultTokenURL,
	}
}

// Coordinator drives the browser-based OAuth sign-in flow and owns the
// observable authentication state. At most one sign-in runs at a time;
// starting a new one cancels the previous flow and waits for its listener
// to shut down before binding the port again.
type Coordinator struct {
	oauth     config.OAuth
	endpoints Endpoints
	store     *Store
	keyring   *KeyringStore
	fetcher   IdentityFetcher
	state     *watch.Feed[State]
	client    *http.Client

	mu       sync.Mutex
	cancel   context.CancelFunc
	flowDone chan struct{}

	// test seam: replaced to avoid launching a real browser
	openURL func(string) error
}

// NewCoordinator creates a coordinator in the Idle phase.
func NewCoordinator(oauth config.OAuth, fetcher IdentityFetcher) *Coordinator {
	return &Coordinator{
		oauth:     oauth,
		endpoints: GitHubEndpoints(),
		store:     NewStore(),
		keyring:   NewKeyringStore(),
		fetcher:   fetcher,
		state:     watch.NewFeed(State{Phase: PhaseIdle}),
		client:    &http.Client{Timeout: 30 * time.Second},
		openURL:   openBrowser,
	}
}

// SetEndpoints overrides the provider endpoints. Intended for tests against
// a local fake provider.
func (c *Coordinator) SetEndpoints(ep Endpoints) {
	c.endpoints = ep
}

// State returns the current authentication state.
func (c *Coordinator) State() State {
	return c.state.Get()
}

// Watch subscribes to authentication state changes. The current state is
// delivered immediately; cancel with the returned function.
func (c *Coordinator) Watch() (<-chan State, func()) {
	return c.state.Subscribe()
}

// Credential returns the active credential, if signed in.
func (c *Coordinator) Credential() (Credential, bool) {
	return c.store.Get()
}

// Authenticate runs the full browser sign-in flow: start the loopback
// listener, open the authorization page, wait for the redirect, exchange
// the code for a token, and resolve the identity behind it. The observable
// state walks Starting, WaitingForUser, Processing, then Success or Error.
//
// A sign-in already in flight is canceled first; Authenticate waits for its
// listener to release the port before starting over.
func (c *Coordinator) Authenticate(ctx context.Context) error {
	flowCtx, done := c.begin(ctx)
	defer done()

	err := c.run(flowCtx)
	if err == nil {
		return nil
	}

	if apperr.IsKind(err, apperr.KindCanceled) {
		// A canceled flow ends quietly; a newer flow or the caller asked
		// for it, so Error would be misleading.
		c.setState(State{Phase: PhaseIdle})
		return err
	}

	logging.Error("Sign-in failed", "error", err)
	c.setState(State{Phase: PhaseError, Err: err.Error()})
	return err
}

// SignOut clears the in-memory credential, the persisted token, and resets
// the state to Idle. An in-flight sign-in is canceled.
func (c *Coordinator) SignOut() error {
	c.cancelInFlight()
	c.store.Clear()
	err := c.keyring.DeleteToken()
	c.setState(State{Phase: PhaseIdle})
	return err
}

// Restore re-establishes a session from a previously persisted token. The
// identity is re-fetched rather than trusted from disk; a dead token clears
// the stored session.
func (c *Coordinator) Restore(ctx context.Context) error {
	token, err := c.keyring.LoadToken()
	if err != nil {
		return err
	}

	identity, err := c.fetcher.FetchIdentity(ctx, token)
	if err != nil {
		_ = c.keyring.DeleteToken()
		return apperr.Wrap(apperr.KindProvider, err, "stored session is no longer valid")
	}

	if err := c.store.Set(Credential{
		AccessToken: token,
		Login:       identity.Login,
		Email:       identity.Email,
		Name:        identity.Name,
	}); err != nil {
		return err
	}

	c.setState(State{Phase: PhaseSuccess, Identity: &identity})
	logging.Info("Restored session", "login", identity.Login)
	return nil
}

// begin cancels any in-flight sign-in, waits for its teardown, and
// registers the new flow. The returned done func must be deferred.
func (c *Coordinator) begin(ctx context.Context) (context.Context, func()) {
	c.cancelInFlight()

	flowCtx, cancel := context.WithCancel(ctx)
	doneCh := make(chan struct{})

	c.mu.Lock()
	c.cancel = cancel
	c.flowDone = doneCh
	c.mu.Unlock()

	return flowCtx, func() {
		cancel()
		close(doneCh)
		c.mu.Lock()
		if c.flowDone == doneCh {
			c.cancel = nil
			c.flowDone = nil
		}
		c.mu.Unlock()
	}
}

func (c *Coordinator) cancelInFlight() {
	c.mu.Lock()
	cancel, doneCh := c.cancel, c.flowDone
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	if doneCh != nil {
		<-doneCh
	}
}

func (c *Coordinator) run(ctx context.Context) error {
	c.setState(State{Phase: PhaseStarting})

	server := NewCallbackServer(c.oauth.CallbackPort)
	if err := server.Start(); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			logging.Warn("Callback server shutdown failed", "error", err)
		}
	}()

	state := uuid.NewString()
	authURL := c.authorizeURL(state)

	if err := c.openURL(authURL); err != nil {
		logging.Warn("Could not open browser, continue manually", "url", authURL)
	}
	c.setState(State{Phase: PhaseWaitingForUser})

	result, err := server.Await(ctx)
	if err != nil {
		return err
	}

	c.setState(State{Phase: PhaseProcessing})

	if result.Error != "" {
		return apperr.New(apperr.KindProvider, "provider denied authorization: %s", result.Error)
	}
	if result.State != state {
		return apperr.New(apperr.KindSecurity, "state token mismatch, discarding authorization code")
	}

	token, err := c.exchangeCode(ctx, result.Code)
	if err != nil {
		return err
	}

	identity, err := c.fetcher.FetchIdentity(ctx, token)
	if err != nil {
		return apperr.Wrap(apperr.KindProvider, err, "failed to resolve identity")
	}

	if err := c.store.Set(Credential{
		AccessToken: token,
		Login:       identity.Login,
		Email:       identity.Email,
		Name:        identity.Name,
	}); err != nil {
		return err
	}

	if err := c.keyring.SaveToken(token); err != nil {
		// In-memory session still works for this run.
		logging.Warn("Could not persist session to credential store", "error", err)
	}

	c.setState(State{Phase: PhaseSuccess, Identity: &identity})
	logging.Info("Signed in", "login", identity.Login)
	return nil
}

func (c *Coordinator) authorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.oauth.ClientID)
	q.Set("redirect_uri", c.oauth.RedirectURI())
	q.Set("scope", c.oauth.Scope)
	q.Set("state", state)
	return c.endpoints.AuthorizeURL + "?" + q.Encode()
}

// tokenResponse covers both shapes GitHub sends back: success fields and,
// still with HTTP 200, error fields.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *Coordinator) exchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("client_id", c.oauth.ClientID)
	form.Set("client_secret", c.oauth.ClientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", c.oauth.RedirectURI())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoints.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", apperr.Wrap(apperr.KindTransport, err, "failed to build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.KindTransport, err, "token exchange request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperr.Wrap(apperr.KindTransport, err, "failed to read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperr.New(apperr.KindProvider, "token endpoint returned status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", apperr.Wrap(apperr.KindProvider, err, "malformed token response")
	}
	if tr.Error != "" {
		msg := tr.Error
		if tr.ErrorDescription != "" {
			msg = fmt.Sprintf("%s: %s", tr.Error, tr.ErrorDescription)
		}
		return "", apperr.New(apperr.KindProvider, "token exchange rejected: %s", msg)
	}
	if strings.TrimSpace(tr.AccessToken) == "" {
		return "", apperr.New(apperr.KindProvider, "token response contained no access token")
	}
	return tr.AccessToken, nil
}

func (c *Coordinator) setState(s State) {
	prev := c.state.Get()
	c.state.Set(s)
	logging.LogStateTransition("auth", prev.Phase.String(), s.Phase.String())
}
