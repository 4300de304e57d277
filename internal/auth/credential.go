package auth

import (
	"strings"
	"sync"

	"staticcms/internal/apperr"
)

// Credential is the authenticated session: a bearer token plus the verified
// identity it belongs to. A credential is either fully populated or absent;
// consumers never observe a half-written record.
type Credential struct {
	AccessToken string
	Login       string
	Email       string
	Name        string
}

// Store owns the current credential. The OAuth coordinator is the only
// writer; the sync engine and API client read. Records are replaced whole,
// never mutated field by field.
type Store struct {
	mu   sync.RWMutex
	cred *Credential
}

// NewStore creates an empty credential store.
func NewStore() *Store {
	return &Store{}
}

// Get returns a copy of the current credential, and whether one is present.
func (s *Store) Get() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return Credential{}, false
	}
	return *s.cred, true
}

// Set replaces the stored credential atomically. Token and login must be
// non-empty; a partial credential is rejected rather than stored.
func (s *Store) Set(cred Credential) error {
	if strings.TrimSpace(cred.AccessToken) == "" {
		return apperr.New(apperr.KindValidation, "credential access token cannot be empty")
	}
	if strings.TrimSpace(cred.Login) == "" {
		return apperr.New(apperr.KindValidation, "credential login cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c := cred
	s.cred = &c
	return nil
}

// Clear removes the stored credential.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
}
