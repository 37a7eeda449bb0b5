package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventory-system/inventory-web/internal/core/domain"
	"github.com/inventory-system/inventory-web/internal/core/ports"
	"github.com/inventory-system/inventory-web/internal/pkg/sealer"
)

// testClient connects to REDIS_TEST_ADDR and skips when it is unset.
func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client, err := Connect(context.Background(), Config{Addr: addr, Timeout: 2 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCredentialStore(t *testing.T) {
	client := testClient(t)
	s, err := sealer.New("redis-test-secret-0123")
	require.NoError(t, err)
	store := NewCredentialStore(client, s)
	ctx := context.Background()
	sid := uuid.NewString()

	_, err = store.Load(ctx, sid)
	assert.ErrorIs(t, err, ports.ErrNoCredential)

	cred := domain.Credential{Access: "acc", Refresh: "ref"}
	require.NoError(t, store.Save(ctx, sid, cred, time.Minute))

	raw, err := client.Get(ctx, credKey(sid)).Bytes()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "acc")

	got, err := store.Load(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, cred, got)

	require.NoError(t, store.Delete(ctx, sid))
	_, err = store.Load(ctx, sid)
	assert.ErrorIs(t, err, ports.ErrNoCredential)
}

func TestSubmissionGuard(t *testing.T) {
	guard := NewSubmissionGuard(testClient(t))
	nonce := uuid.NewString()

	first, err := guard.Claim(context.Background(), nonce)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := guard.Claim(context.Background(), nonce)
	require.NoError(t, err)
	assert.False(t, again)
}
