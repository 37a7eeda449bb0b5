package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inventory-system/inventory-web/internal/core/domain"
	"github.com/inventory-system/inventory-web/internal/core/ports"
	"github.com/inventory-system/inventory-web/internal/pkg/sealer"
)

// CredentialStore keeps sealed session credentials in Redis.
// Key format: inventory:cred:<session_id>
type CredentialStore struct {
	client *redis.Client
	sealer *sealer.Sealer
}

func NewCredentialStore(client *redis.Client, s *sealer.Sealer) *CredentialStore {
	return &CredentialStore{client: client, sealer: s}
}

func (s *CredentialStore) Load(ctx context.Context, sessionID string) (domain.Credential, error) {
	raw, err := s.client.Get(ctx, credKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Credential{}, ports.ErrNoCredential
	}
	if err != nil {
		return domain.Credential{}, fmt.Errorf("load credential: %w", err)
	}
	cred, err := s.sealer.Open(sessionID, raw)
	if err != nil {
		// Unreadable after a secret rotation; treat as absent.
		_ = s.client.Del(ctx, credKey(sessionID)).Err()
		return domain.Credential{}, ports.ErrNoCredential
	}
	return cred, nil
}

func (s *CredentialStore) Save(ctx context.Context, sessionID string, cred domain.Credential, ttl time.Duration) error {
	sealed, err := s.sealer.Seal(sessionID, cred)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, credKey(sessionID), sealed, ttl).Err(); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (s *CredentialStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, credKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

func credKey(sessionID string) string {
	return "inventory:cred:" + sessionID
}
