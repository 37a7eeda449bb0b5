// Package memory holds in-process stores for single-instance deployments
// and development. Nothing survives a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/inventory-system/inventory-web/internal/core/domain"
	"github.com/inventory-system/inventory-web/internal/core/ports"
)

type credentialEntry struct {
	cred      domain.Credential
	expiresAt time.Time
}

// CredentialStore keeps credentials in a map with per-entry expiry.
type CredentialStore struct {
	mu      sync.Mutex
	entries map[string]credentialEntry
	now     func() time.Time
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{entries: make(map[string]credentialEntry), now: time.Now}
}

func (s *CredentialStore) Load(_ context.Context, sessionID string) (domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sessionID]
	if !ok {
		return domain.Credential{}, ports.ErrNoCredential
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, sessionID)
		return domain.Credential{}, ports.ErrNoCredential
	}
	return e.cred, nil
}

func (s *CredentialStore) Save(_ context.Context, sessionID string, cred domain.Credential, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = credentialEntry{cred: cred, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *CredentialStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

const submissionTTL = time.Hour

// SubmissionGuard remembers claimed nonces for an hour.
type SubmissionGuard struct {
	mu      sync.Mutex
	claimed map[string]time.Time
	now     func() time.Time
}

func NewSubmissionGuard() *SubmissionGuard {
	return &SubmissionGuard{claimed: make(map[string]time.Time), now: time.Now}
}

func (g *SubmissionGuard) Claim(_ context.Context, nonce string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	for n, at := range g.claimed {
		if now.Sub(at) > submissionTTL {
			delete(g.claimed, n)
		}
	}
	if _, ok := g.claimed[nonce]; ok {
		return false, nil
	}
	g.claimed[nonce] = now
	return true, nil
}
