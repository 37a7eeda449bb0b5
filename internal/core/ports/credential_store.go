package ports

import (
	"context"
	"errors"
	"time"

	"github.com/inventory-system/inventory-web/internal/core/domain"
)

// ErrNoCredential is returned by CredentialStore.Load when nothing is stored.
var ErrNoCredential = errors.New("no stored credential")

// CredentialStore persists the credential of a browser session so that it
// survives process restarts.
type CredentialStore interface {
	Load(ctx context.Context, sessionID string) (domain.Credential, error)
	Save(ctx context.Context, sessionID string, cred domain.Credential, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

// SubmissionGuard admits each form nonce once.
type SubmissionGuard interface {
	// Claim returns true the first time nonce is seen.
	Claim(ctx context.Context, nonce string) (bool, error)
}

// Revocation is a best-effort remote logout request.
type Revocation struct {
	SessionID  string
	Credential domain.Credential
}

// Revoker accepts revocations without blocking the caller on the network.
type Revoker interface {
	Enqueue(r Revocation)
}
