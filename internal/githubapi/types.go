package githubapi

import "time"

// User is the authenticated GitHub account, as returned by GET /user.
// Email may be empty there when the account hides it; the client then falls
// back to the primary entry from GET /user/emails.
type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type userEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Permissions mirrors the permissions block GitHub attaches to repositories
// the caller can see.
type Permissions struct {
	Admin bool `json:"admin"`
	Push  bool `json:"push"`
	Pull  bool `json:"pull"`
}

// Repository is the subset of GitHub's repository object the CMS cares about.
type Repository struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	FullName      string      `json:"full_name"`
	Private       bool        `json:"private"`
	HTMLURL       string      `json:"html_url"`
	CloneURL      string      `json:"clone_url"`
	DefaultBranch string      `json:"default_branch"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Permissions   Permissions `json:"permissions"`
	Owner         struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// HasWritePermission reports whether the authenticated user can push.
func (r Repository) HasWritePermission() bool {
	return r.Permissions.Push || r.Permissions.Admin
}

// Commit is the git-data commit object returned when creating commits.
type Commit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	HTMLURL string `json:"html_url"`
}

// CommitAuthor identifies the author/committer on created commits.
type CommitAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
