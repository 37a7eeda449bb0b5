package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventory-system/inventory-web/internal/core/domain"
	"github.com/inventory-system/inventory-web/internal/core/ports"
)

func TestCredentialStore_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewCredentialStore()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "sid", domain.Credential{Access: "acc"}, time.Minute))
	got, err := s.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "acc", got.Access)

	now = now.Add(time.Minute)
	_, err = s.Load(ctx, "sid")
	assert.ErrorIs(t, err, ports.ErrNoCredential)
}

func TestCredentialStore_Delete(t *testing.T) {
	s := NewCredentialStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "sid", domain.Credential{Access: "acc"}, time.Hour))
	require.NoError(t, s.Delete(ctx, "sid"))
	require.NoError(t, s.Delete(ctx, "sid"))

	_, err := s.Load(ctx, "sid")
	assert.ErrorIs(t, err, ports.ErrNoCredential)
}

func TestSubmissionGuard(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewSubmissionGuard()
	g.now = func() time.Time { return now }
	ctx := context.Background()

	first, _ := g.Claim(ctx, "n1")
	again, _ := g.Claim(ctx, "n1")
	other, _ := g.Claim(ctx, "n2")
	assert.True(t, first)
	assert.False(t, again)
	assert.True(t, other)

	now = now.Add(2 * time.Hour)
	later, _ := g.Claim(ctx, "n1")
	assert.True(t, later, "nonces are forgotten after the ttl")
}
