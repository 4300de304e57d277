package githubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"staticcms/internal/apperr"
	"staticcms/internal/auth"
	"staticcms/internal/logging"
)

const (
	defaultBaseURL = "https://api.github.com"
	userAgent      = "StaticCMS/1.0"
	acceptHeader   = "application/vnd.github.v3+json"
	perPage        = 100
)

// TokenSource supplies the current access token. The auth credential store
// satisfies this via a small closure; tests pass a literal.
type TokenSource func() (string, bool)

// StaticToken returns a TokenSource that always yields the given token.
func StaticToken(token string) TokenSource {
	return func() (string, bool) { return token, token != "" }
}

// Client is a minimal authenticated GitHub REST client covering what the
// CMS needs: identity, repository discovery, permissions, and the git-data
// commit endpoints used by the web publish fallback.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewClient builds a client reading tokens from the given source.
func NewClient(tokens TokenSource) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
	}
}

// SetBaseURL points the client at a different API root. For tests.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

// FetchIdentity resolves the account behind an explicit token. Used during
// sign-in, before the credential store holds anything.
func (c *Client) FetchIdentity(ctx context.Context, token string) (auth.Identity, error) {
	user, err := c.userWithToken(ctx, token)
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.Identity{Login: user.Login, Email: user.Email, Name: user.Name}, nil
}

// CurrentUser returns the authenticated account, resolving a hidden email
// through the emails endpoint when needed.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	token, ok := c.tokens()
	if !ok {
		return User{}, apperr.New(apperr.KindSecurity, "not signed in")
	}
	return c.userWithToken(ctx, token)
}

func (c *Client) userWithToken(ctx context.Context, token string) (User, error) {
	var user User
	if err := c.do(ctx, token, http.MethodGet, "/user", nil, &user); err != nil {
		return User{}, err
	}
	if user.Email == "" {
		if email, err := c.primaryEmail(ctx, token); err == nil {
			user.Email = email
		} else {
			logging.Debug("Could not resolve primary email", "error", err)
		}
	}
	return user, nil
}

func (c *Client) primaryEmail(ctx context.Context, token string) (string, error) {
	var emails []userEmail
	if err := c.do(ctx, token, http.MethodGet, "/user/emails", nil, &emails); err != nil {
		return "", err
	}
	for _, e := range emails {
		if e.Primary {
			return e.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}
	return "", apperr.New(apperr.KindProvider, "account has no email addresses")
}

// ListRepositories returns every repository the user can see, most recently
// updated first. Pages are followed until the provider runs out.
func (c *Client) ListRepositories(ctx context.Context) ([]Repository, error) {
	token, ok := c.tokens()
	if !ok {
		return nil, apperr.New(apperr.KindSecurity, "not signed in")
	}

	var all []Repository
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("type", "all")
		q.Set("sort", "updated")
		q.Set("per_page", fmt.Sprint(perPage))
		q.Set("page", fmt.Sprint(page))

		var batch []Repository
		if err := c.do(ctx, token, http.MethodGet, "/user/repos?"+q.Encode(), nil, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < perPage {
			return all, nil
		}
	}
}

// GetRepository fetches a single repository including the caller's
// permissions on it.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (Repository, error) {
	token, ok := c.tokens()
	if !ok {
		return Repository{}, apperr.New(apperr.KindSecurity, "not signed in")
	}
	var repo Repository
	path := fmt.Sprintf("/repos/%s/%s", url.PathEscape(owner), url.PathEscape(name))
	if err := c.do(ctx, token, http.MethodGet, path, nil, &repo); err != nil {
		return Repository{}, err
	}
	return repo, nil
}

// HasWritePermission reports whether the user can push to owner/name.
func (c *Client) HasWritePermission(ctx context.Context, owner, name string) (bool, error) {
	repo, err := c.GetRepository(ctx, owner, name)
	if err != nil {
		return false, err
	}
	return repo.HasWritePermission(), nil
}

// CreateCommit creates a commit object through the git-data API.
func (c *Client) CreateCommit(ctx context.Context, owner, name, message, treeSHA string, parents []string, author CommitAuthor) (Commit, error) {
	token, ok := c.tokens()
	if !ok {
		return Commit{}, apperr.New(apperr.KindSecurity, "not signed in")
	}
	body := struct {
		Message   string       `json:"message"`
		Tree      string       `json:"tree"`
		Parents   []string     `json:"parents"`
		Author    CommitAuthor `json:"author"`
		Committer CommitAuthor `json:"committer"`
	}{Message: message, Tree: treeSHA, Parents: parents, Author: author, Committer: author}

	var commit Commit
	path := fmt.Sprintf("/repos/%s/%s/git/commits", url.PathEscape(owner), url.PathEscape(name))
	if err := c.do(ctx, token, http.MethodPost, path, body, &commit); err != nil {
		return Commit{}, err
	}
	return commit, nil
}

// UpdateRef points a ref (e.g. "heads/main") at the given commit SHA.
func (c *Client) UpdateRef(ctx context.Context, owner, name, ref, sha string) error {
	token, ok := c.tokens()
	if !ok {
		return apperr.New(apperr.KindSecurity, "not signed in")
	}
	body := struct {
		SHA string `json:"sha"`
	}{SHA: sha}
	path := fmt.Sprintf("/repos/%s/%s/git/refs/%s", url.PathEscape(owner), url.PathEscape(name), ref)
	return c.do(ctx, token, http.MethodPatch, path, body, nil)
}

type apiError struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, token, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return apperr.Wrap(apperr.KindValidation, err, "failed to encode request body")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperr.Wrap(apperr.KindTransport, err, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindTransport, err, "request to %s failed", path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return apperr.Wrap(apperr.KindTransport, err, "failed to read response from %s", path)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return apperr.New(apperr.KindSecurity, "authentication rejected, sign in again")
	case resp.StatusCode == http.StatusForbidden:
		return apperr.New(apperr.KindProvider, "access forbidden: %s", apiMessage(data))
	case resp.StatusCode == http.StatusNotFound:
		return apperr.New(apperr.KindProvider, "not found: %s", path)
	case resp.StatusCode >= 400:
		return apperr.New(apperr.KindProvider, "GitHub returned status %d: %s", resp.StatusCode, apiMessage(data))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Wrap(apperr.KindProvider, err, "malformed response from %s", path)
	}
	return nil
}

func apiMessage(data []byte) string {
	var e apiError
	if err := json.Unmarshal(data, &e); err == nil && e.Message != "" {
		return e.Message
	}
	return "no error details"
}
