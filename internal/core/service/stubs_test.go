package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/inventory-system/inventory-web/internal/core/domain"
	"github.com/inventory-system/inventory-web/internal/core/ports"
)

type stubAuth struct {
	loginFn   func(ctx context.Context, email, password string) (domain.Credential, *domain.User, error)
	logoutFn  func(ctx context.Context, cred domain.Credential) error
	refreshFn func(ctx context.Context, refresh string) (string, error)
	meFn      func(ctx context.Context, access string) (*domain.User, error)
}

func (s *stubAuth) Login(ctx context.Context, email, password string) (domain.Credential, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuth) Logout(ctx context.Context, cred domain.Credential) error {
	if s.logoutFn == nil {
		return nil
	}
	return s.logoutFn(ctx, cred)
}

func (s *stubAuth) Refresh(ctx context.Context, refresh string) (string, error) {
	return s.refreshFn(ctx, refresh)
}

func (s *stubAuth) Me(ctx context.Context, access string) (*domain.User, error) {
	return s.meFn(ctx, access)
}

type stubStore struct {
	mu      sync.Mutex
	creds   map[string]domain.Credential
	ttls    map[string]time.Duration
	loadErr error
}

func newStubStore() *stubStore {
	return &stubStore{creds: map[string]domain.Credential{}, ttls: map[string]time.Duration{}}
}

func (s *stubStore) Load(_ context.Context, id string) (domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return domain.Credential{}, s.loadErr
	}
	c, ok := s.creds[id]
	if !ok {
		return domain.Credential{}, ports.ErrNoCredential
	}
	return c, nil
}

func (s *stubStore) Save(_ context.Context, id string, cred domain.Credential, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[id] = cred
	s.ttls[id] = ttl
	return nil
}

func (s *stubStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, id)
	return nil
}

func (s *stubStore) get(id string) (domain.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[id]
	return c, ok
}

type stubRevoker struct {
	mu      sync.Mutex
	revoked []ports.Revocation
}

func (r *stubRevoker) Enqueue(rev ports.Revocation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked = append(r.revoked, rev)
}

func (r *stubRevoker) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.revoked)
}

const testSessionID = "0f3c2a8e-session"

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newTestSession(auth *stubAuth, store *stubStore, rev *stubRevoker) *Session {
	return NewSession(testSessionID, SessionDeps{
		Auth:    auth,
		Store:   store,
		Revoker: rev,
		Logger:  zerolog.Nop(),
		Now:     func() time.Time { return fixedNow },
	})
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"exp":     exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func adminUser() *domain.User {
	return &domain.User{ID: 1, Email: "a@x.com", Role: domain.RoleAdmin}
}
