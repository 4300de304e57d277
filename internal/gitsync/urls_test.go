package gitsync

import "testing"

func TestParseRepositoryURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantOK    bool
	}{
		{"plain https", "https://github.com/octocat/site", "octocat", "site", true},
		{"git suffix", "https://github.com/octocat/site.git", "octocat", "site", true},
		{"trailing slash", "https://github.com/octocat/site/", "octocat", "site", true},
		{"git suffix and slash", "https://github.com/octocat/site.git/", "octocat", "site", true},
		{"hyphenated names", "https://github.com/my-org/my-site-2", "my-org", "my-site-2", true},
		{"ssh url", "git@github.com:octocat/site.git", "", "", false},
		{"other host", "https://gitlab.com/octocat/site", "", "", false},
		{"http scheme", "http://github.com/octocat/site", "", "", false},
		{"missing repo", "https://github.com/octocat", "", "", false},
		{"extra path segment", "https://github.com/octocat/site/tree/main", "", "", false},
		{"empty string", "", "", "", false},
		{"not a url at all", "octocat/site", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, ok := ParseRepositoryURL(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("ParseRepositoryURL(%q) ok = %v, want %v", tt.url, ok, tt.wantOK)
			}
			if owner != tt.wantOwner || repo != tt.wantRepo {
				t.Errorf("ParseRepositoryURL(%q) = (%q, %q), want (%q, %q)",
					tt.url, owner, repo, tt.wantOwner, tt.wantRepo)
			}
		})
	}
}

func TestParseRepositoryURL_Idempotent(t *testing.T) {
	url := "https://github.com/octocat/site.git"
	o1, r1, ok1 := ParseRepositoryURL(url)
	o2, r2, ok2 := ParseRepositoryURL(url)
	if o1 != o2 || r1 != r2 || ok1 != ok2 {
		t.Error("Repeated parses of the same URL must agree")
	}
}
