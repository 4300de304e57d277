package gitsync

import "regexp"

// Matches the canonical GitHub HTTPS shape, with an optional .git suffix
// and trailing slash. SSH URLs deliberately do not match; the CMS only
// clones over HTTPS with the OAuth token.
var repoURLPattern = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/.]+?)(?:\.git)?/?$`)

// ParseRepositoryURL extracts (owner, name) from a GitHub HTTPS repository
// URL. It is total: any other shape returns ok=false, never an error or
// panic.
func ParseRepositoryURL(url string) (owner, name string, ok bool) {
	m := repoURLPattern.FindStringSubmatch(url)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
