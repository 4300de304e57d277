package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"staticcms/internal/apperr"
)

// OAuth app registration, looked up before any network call. The client
// secret lives only in process memory; it is never logged or written back.
//
// Sources, in order:
//  1. Environment: GITHUB_CLIENT_ID, GITHUB_CLIENT_SECRET,
//     STATICCMS_CALLBACK_PORT (optional).
//  2. An oauth.properties file (java-style key=value lines) in the working
//     directory or in ~/.staticcms/, with keys github.client.id,
//     github.client.secret and optionally callback.port.
//
// A missing client id or secret is a configuration error, distinct from any
// authentication failure.
type OAuth struct {
	ClientID     string
	ClientSecret string
	CallbackPort int
	Scope        string
}

const defaultCallbackPort = 8080

// RedirectURI returns the redirect URI registered with the OAuth app. It
// must match the token-exchange request exactly.
func (o OAuth) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d/callback", o.CallbackPort)
}

// LoadOAuth resolves the OAuth app settings from the environment or an
// oauth.properties file. All failures carry apperr.KindConfiguration.
func LoadOAuth() (*OAuth, error) {
	oauth := OAuth{
		ClientID:     strings.TrimSpace(os.Getenv("GITHUB_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv("GITHUB_CLIENT_SECRET")),
		CallbackPort: defaultCallbackPort,
		Scope:        "repo",
	}

	if portStr := strings.TrimSpace(os.Getenv("STATICCMS_CALLBACK_PORT")); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			return nil, apperr.New(apperr.KindConfiguration,
				"invalid STATICCMS_CALLBACK_PORT %q", portStr)
		}
		oauth.CallbackPort = port
	}

	if oauth.ClientID == "" || oauth.ClientSecret == "" {
		props, err := loadOAuthProperties()
		if err != nil {
			return nil, err
		}
		if oauth.ClientID == "" {
			oauth.ClientID = props["github.client.id"]
		}
		if oauth.ClientSecret == "" {
			oauth.ClientSecret = props["github.client.secret"]
		}
		if portStr := props["callback.port"]; portStr != "" && os.Getenv("STATICCMS_CALLBACK_PORT") == "" {
			port, err := strconv.Atoi(portStr)
			if err != nil || port <= 0 || port > 65535 {
				return nil, apperr.New(apperr.KindConfiguration,
					"invalid callback.port %q in oauth.properties", portStr)
			}
			oauth.CallbackPort = port
		}
	}

	if oauth.ClientID == "" {
		return nil, apperr.New(apperr.KindConfiguration,
			"GitHub client ID not configured - set GITHUB_CLIENT_ID or add github.client.id to oauth.properties")
	}
	if oauth.ClientSecret == "" {
		return nil, apperr.New(apperr.KindConfiguration,
			"GitHub client secret not configured - set GITHUB_CLIENT_SECRET or add github.client.secret to oauth.properties")
	}

	return &oauth, nil
}

// oauthPropertiesPaths lists the candidate locations for oauth.properties.
func oauthPropertiesPaths() []string {
	paths := []string{"oauth.properties"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "."+AppName, "oauth.properties"))
	}
	return paths
}

func loadOAuthProperties() (map[string]string, error) {
	for _, path := range oauthPropertiesPaths() {
		props, err := parsePropertiesFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.KindConfiguration, err,
				"failed to read %s", path)
		}
		return props, nil
	}
	return map[string]string{}, nil
}

// parsePropertiesFile reads a minimal java-style properties file: key=value
// per line, '#' and '!' comments, surrounding whitespace trimmed.
func parsePropertiesFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	props := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		props[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return props, nil
}
