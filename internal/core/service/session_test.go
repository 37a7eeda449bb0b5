package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/inventory-system/inventory-web/internal/core/domain"
)

func TestSession_InitializeRestoresAdmin(t *testing.T) {
	store := newStubStore()
	store.creds[testSessionID] = domain.Credential{Access: "valid-token"}
	auth := &stubAuth{
		meFn: func(ctx context.Context, access string) (*domain.User, error) {
			if access != "valid-token" {
				t.Fatalf("unexpected token %q", access)
			}
			return adminUser(), nil
		},
	}
	s := newTestSession(auth, store, &stubRevoker{})

	if s.State() != StateUninitialized || !s.Loading() {
		t.Fatalf("new session should be uninitialized")
	}
	s.Initialize(context.Background())

	if s.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", s.State())
	}
	if !s.IsAdmin() || !s.Can(domain.ActionDeleteProduct) {
		t.Fatalf("admin capabilities missing")
	}
	if u := s.User(); u == nil || u.Email != "a@x.com" {
		t.Fatalf("unexpected user %+v", u)
	}
	if s.Token() != "valid-token" {
		t.Fatalf("token not attached")
	}
}

func TestSession_InitializeWithoutCredential(t *testing.T) {
	auth := &stubAuth{
		meFn: func(ctx context.Context, access string) (*domain.User, error) {
			t.Fatalf("me should not be called")
			return nil, nil
		},
	}
	s := newTestSession(auth, newStubStore(), &stubRevoker{})
	s.Initialize(context.Background())

	if s.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", s.State())
	}
	if s.IsAdmin() || s.User() != nil || s.Capabilities() != nil {
		t.Fatalf("anonymous session must have no user or capabilities")
	}
}

func TestSession_InitializeRejectedTokenIsForgotten(t *testing.T) {
	store := newStubStore()
	store.creds[testSessionID] = domain.Credential{Access: "revoked"}
	auth := &stubAuth{
		meFn: func(ctx context.Context, access string) (*domain.User, error) {
			return nil, domain.ErrRejected
		},
	}
	s := newTestSession(auth, store, &stubRevoker{})
	s.Initialize(context.Background())

	if s.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", s.State())
	}
	if _, ok := store.get(testSessionID); ok {
		t.Fatalf("rejected credential should be deleted")
	}
}

func TestSession_InitializeUnavailableFailsSafe(t *testing.T) {
	store := newStubStore()
	store.creds[testSessionID] = domain.Credential{Access: "valid-token"}
	auth := &stubAuth{
		meFn: func(ctx context.Context, access string) (*domain.User, error) {
			return nil, domain.ErrUnavailable
		},
	}
	s := newTestSession(auth, store, &stubRevoker{})
	s.Initialize(context.Background())

	if s.State() != StateAnonymous || s.IsAdmin() {
		t.Fatalf("network failure must end logged out, got %s", s.State())
	}
	if _, ok := store.get(testSessionID); !ok {
		t.Fatalf("credential should be kept after a transient failure")
	}
}

func TestSession_InitializeStoreFailure(t *testing.T) {
	store := newStubStore()
	store.loadErr = errors.New("redis down")
	s := newTestSession(&stubAuth{}, store, &stubRevoker{})
	s.Initialize(context.Background())

	if s.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", s.State())
	}
}

func TestSession_InitializeRefreshesExpiredAccess(t *testing.T) {
	store := newStubStore()
	refresh := signedToken(t, fixedNow.Add(24*time.Hour))
	store.creds[testSessionID] = domain.Credential{
		Access:  signedToken(t, fixedNow.Add(-time.Minute)),
		Refresh: refresh,
	}
	auth := &stubAuth{
		refreshFn: func(ctx context.Context, r string) (string, error) {
			if r != refresh {
				t.Fatalf("unexpected refresh token")
			}
			return "fresh-access", nil
		},
		meFn: func(ctx context.Context, access string) (*domain.User, error) {
			if access != "fresh-access" {
				t.Fatalf("me called with %q", access)
			}
			return adminUser(), nil
		},
	}
	s := newTestSession(auth, store, &stubRevoker{})
	s.Initialize(context.Background())

	if s.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", s.State())
	}
	stored, _ := store.get(testSessionID)
	if stored.Access != "fresh-access" {
		t.Fatalf("refreshed access not persisted: %+v", stored)
	}
	if ttl := store.ttls[testSessionID]; ttl != 24*time.Hour {
		t.Fatalf("expected ttl from refresh expiry, got %s", ttl)
	}
}

func TestSession_InitializeExpiredWithoutRefresh(t *testing.T) {
	store := newStubStore()
	store.creds[testSessionID] = domain.Credential{Access: signedToken(t, fixedNow.Add(-time.Minute))}
	auth := &stubAuth{
		meFn: func(ctx context.Context, access string) (*domain.User, error) {
			t.Fatalf("expired token must not be sent")
			return nil, nil
		},
	}
	s := newTestSession(auth, store, &stubRevoker{})
	s.Initialize(context.Background())

	if s.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", s.State())
	}
	if _, ok := store.get(testSessionID); ok {
		t.Fatalf("expired credential should be deleted")
	}
}

func TestSession_InitializeRunsOnce(t *testing.T) {
	store := newStubStore()
	store.creds[testSessionID] = domain.Credential{Access: "valid-token"}
	calls := 0
	auth := &stubAuth{
		meFn: func(ctx context.Context, access string) (*domain.User, error) {
			calls++
			return adminUser(), nil
		},
	}
	s := newTestSession(auth, store, &stubRevoker{})
	s.Initialize(context.Background())
	s.Logout(context.Background())
	s.Initialize(context.Background())

	if calls != 1 {
		t.Fatalf("expected a single restore, got %d", calls)
	}
	if s.State() != StateAnonymous {
		t.Fatalf("initialize must not leave anonymous, got %s", s.State())
	}
}

func TestSession_LoadingIsSafeAndBusy(t *testing.T) {
	store := newStubStore()
	store.creds[testSessionID] = domain.Credential{Access: "valid-token"}
	started := make(chan struct{})
	release := make(chan struct{})
	auth := &stubAuth{
		meFn: func(ctx context.Context, access string) (*domain.User, error) {
			close(started)
			<-release
			return adminUser(), nil
		},
	}
	s := newTestSession(auth, store, &stubRevoker{})

	done := make(chan struct{})
	go func() {
		s.Initialize(context.Background())
		close(done)
	}()
	<-started

	if s.State() != StateLoading || !s.Loading() {
		t.Fatalf("expected loading, got %s", s.State())
	}
	if s.IsAdmin() || s.Can(domain.ActionViewProducts) {
		t.Fatalf("capabilities must be false while loading")
	}
	s.Initialize(context.Background()) // concurrent caller returns at once
	if _, err := s.Login(context.Background(), "a@x.com", "pw"); !errors.Is(err, domain.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy during loading, got %v", err)
	}

	close(release)
	<-done
	if s.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", s.State())
	}
}

func TestSession_LogoutDuringLoadingWins(t *testing.T) {
	store := newStubStore()
	store.creds[testSessionID] = domain.Credential{Access: "valid-token"}
	started := make(chan struct{})
	release := make(chan struct{})
	auth := &stubAuth{
		meFn: func(ctx context.Context, access string) (*domain.User, error) {
			close(started)
			<-release
			return adminUser(), nil
		},
	}
	s := newTestSession(auth, store, &stubRevoker{})

	done := make(chan struct{})
	go func() {
		s.Initialize(context.Background())
		close(done)
	}()
	<-started
	s.Logout(context.Background())
	close(release)
	<-done

	if s.State() != StateAnonymous || s.IsAdmin() {
		t.Fatalf("logout must win over restore, got %s", s.State())
	}
	if _, ok := store.get(testSessionID); ok {
		t.Fatal("credential must not survive a logout during restore")
	}
}

func TestSession_LogoutDuringRefreshForgetsRefreshedCredential(t *testing.T) {
	store := newStubStore()
	store.creds[testSessionID] = domain.Credential{
		Access:  signedToken(t, fixedNow.Add(-time.Minute)),
		Refresh: signedToken(t, fixedNow.Add(24*time.Hour)),
	}
	started := make(chan struct{})
	release := make(chan struct{})
	auth := &stubAuth{
		refreshFn: func(ctx context.Context, r string) (string, error) {
			close(started)
			<-release
			return "new-access", nil
		},
		meFn: func(ctx context.Context, access string) (*domain.User, error) {
			return adminUser(), nil
		},
	}
	rev := &stubRevoker{}
	s := newTestSession(auth, store, rev)

	done := make(chan struct{})
	go func() {
		s.Initialize(context.Background())
		close(done)
	}()
	<-started
	s.Logout(context.Background())
	close(release)
	<-done

	if s.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", s.State())
	}
	if cred, ok := store.get(testSessionID); ok {
		t.Fatalf("refreshed credential left in store after logout: %+v", cred)
	}
	if rev.count() != 1 || rev.revoked[0].Credential.Access != "new-access" {
		t.Fatalf("expected the refreshed credential to be revoked, got %+v", rev.revoked)
	}
}

func anonymousSession(t *testing.T, auth *stubAuth, store *stubStore, rev *stubRevoker) *Session {
	t.Helper()
	s := newTestSession(auth, store, rev)
	s.Initialize(context.Background())
	if s.State() != StateAnonymous {
		t.Fatalf("setup: expected anonymous, got %s", s.State())
	}
	return s
}

func TestSession_LoginSuccess(t *testing.T) {
	store := newStubStore()
	access := signedToken(t, fixedNow.Add(5*time.Minute))
	auth := &stubAuth{
		loginFn: func(ctx context.Context, email, password string) (domain.Credential, *domain.User, error) {
			if email != "a@x.com" || password != "s3cret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return domain.Credential{Access: access, Refresh: "opaque-refresh"}, adminUser(), nil
		},
	}
	s := anonymousSession(t, auth, store, &stubRevoker{})

	user, err := s.Login(context.Background(), "a@x.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.Role != domain.RoleAdmin || s.State() != StateAuthenticated || !s.IsAdmin() {
		t.Fatalf("unexpected session after login: %s %+v", s.State(), user)
	}
	stored, ok := store.get(testSessionID)
	if !ok || stored.Access != access {
		t.Fatalf("credential not persisted: %+v", stored)
	}
	if ttl := store.ttls[testSessionID]; ttl != defaultCredentialTTL {
		t.Fatalf("opaque refresh should use the default ttl, got %s", ttl)
	}

	if _, err := s.Login(context.Background(), "a@x.com", "s3cret"); !errors.Is(err, domain.ErrAlreadyAuthenticated) {
		t.Fatalf("expected ErrAlreadyAuthenticated, got %v", err)
	}
}

func TestSession_LoginRejected(t *testing.T) {
	store := newStubStore()
	auth := &stubAuth{
		loginFn: func(ctx context.Context, email, password string) (domain.Credential, *domain.User, error) {
			return domain.Credential{}, nil, domain.ErrRejected
		},
	}
	s := anonymousSession(t, auth, store, &stubRevoker{})

	if _, err := s.Login(context.Background(), "a@x.com", "wrong"); !errors.Is(err, domain.ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if s.State() != StateAnonymous || s.User() != nil {
		t.Fatalf("failed login must not mutate the session")
	}
	if _, ok := store.get(testSessionID); ok {
		t.Fatalf("no token should be persisted")
	}
}

func TestSession_LoginUnavailable(t *testing.T) {
	auth := &stubAuth{
		loginFn: func(ctx context.Context, email, password string) (domain.Credential, *domain.User, error) {
			return domain.Credential{}, nil, domain.ErrUnavailable
		},
	}
	s := anonymousSession(t, auth, newStubStore(), &stubRevoker{})

	if _, err := s.Login(context.Background(), "a@x.com", "pw"); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if s.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", s.State())
	}
}

func TestSession_LoginWithoutUserIsUnavailable(t *testing.T) {
	auth := &stubAuth{
		loginFn: func(ctx context.Context, email, password string) (domain.Credential, *domain.User, error) {
			return domain.Credential{Access: "tok"}, nil, nil
		},
	}
	s := anonymousSession(t, auth, newStubStore(), &stubRevoker{})

	if _, err := s.Login(context.Background(), "a@x.com", "pw"); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSession_ConcurrentLoginIsBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	auth := &stubAuth{
		loginFn: func(ctx context.Context, email, password string) (domain.Credential, *domain.User, error) {
			close(started)
			<-release
			return domain.Credential{Access: "tok"}, adminUser(), nil
		},
	}
	s := anonymousSession(t, auth, newStubStore(), &stubRevoker{})

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = s.Login(context.Background(), "a@x.com", "pw")
	}()
	<-started

	if _, err := s.Login(context.Background(), "a@x.com", "pw"); !errors.Is(err, domain.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
	close(release)
	wg.Wait()

	if firstErr != nil || s.State() != StateAuthenticated {
		t.Fatalf("first login should succeed: %v %s", firstErr, s.State())
	}
}

func TestSession_LogoutDuringLoginSupersedes(t *testing.T) {
	store := newStubStore()
	rev := &stubRevoker{}
	started := make(chan struct{})
	release := make(chan struct{})
	auth := &stubAuth{
		loginFn: func(ctx context.Context, email, password string) (domain.Credential, *domain.User, error) {
			close(started)
			<-release
			return domain.Credential{Access: "late-token", Refresh: "late-refresh"}, adminUser(), nil
		},
	}
	s := anonymousSession(t, auth, store, rev)

	errc := make(chan error, 1)
	go func() {
		_, err := s.Login(context.Background(), "a@x.com", "pw")
		errc <- err
	}()
	<-started
	s.Logout(context.Background())
	close(release)

	if err := <-errc; !errors.Is(err, domain.ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if s.State() != StateAnonymous || s.IsAdmin() || s.Token() != "" {
		t.Fatalf("logout must win, got %s", s.State())
	}
	if _, ok := store.get(testSessionID); ok {
		t.Fatalf("late credential must not stay persisted")
	}
	if rev.count() != 1 || rev.revoked[0].Credential.Access != "late-token" {
		t.Fatalf("late credential should be revoked, got %+v", rev.revoked)
	}
}

func TestSession_LogoutClearsAndRevokes(t *testing.T) {
	store := newStubStore()
	store.creds[testSessionID] = domain.Credential{Access: "valid-token", Refresh: "r"}
	rev := &stubRevoker{}
	auth := &stubAuth{
		meFn: func(ctx context.Context, access string) (*domain.User, error) { return adminUser(), nil },
	}
	s := newTestSession(auth, store, rev)
	s.Initialize(context.Background())

	s.Logout(context.Background())

	if s.IsAdmin() || s.State() != StateAnonymous || s.User() != nil {
		t.Fatalf("logout must clear the user")
	}
	if _, ok := store.get(testSessionID); ok {
		t.Fatalf("stored credential should be removed")
	}
	if rev.count() != 1 || rev.revoked[0].Credential.Refresh != "r" {
		t.Fatalf("expected one revocation, got %+v", rev.revoked)
	}

	s.Logout(context.Background())
	if rev.count() != 1 {
		t.Fatalf("second logout must be a no-op, got %d revocations", rev.count())
	}
	if s.IsAdmin() {
		t.Fatalf("isAdmin must stay false after logout")
	}
}

func TestSession_ExpireDoesNotRevoke(t *testing.T) {
	store := newStubStore()
	store.creds[testSessionID] = domain.Credential{Access: "valid-token"}
	rev := &stubRevoker{}
	auth := &stubAuth{
		meFn: func(ctx context.Context, access string) (*domain.User, error) { return adminUser(), nil },
	}
	s := newTestSession(auth, store, rev)
	s.Initialize(context.Background())

	s.Expire(context.Background())

	if s.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", s.State())
	}
	if rev.count() != 0 {
		t.Fatalf("expire must not notify the backend")
	}
	if _, ok := store.get(testSessionID); ok {
		t.Fatalf("stored credential should be removed")
	}
}

func TestSession_IsAdminByRole(t *testing.T) {
	roles := map[domain.Role]bool{
		domain.RoleAdmin:    true,
		domain.RoleStaff:    false,
		domain.RoleCustomer: false,
		domain.RoleUnknown:  false,
	}
	for role, want := range roles {
		store := newStubStore()
		store.creds[testSessionID] = domain.Credential{Access: "tok"}
		auth := &stubAuth{
			meFn: func(ctx context.Context, access string) (*domain.User, error) {
				return &domain.User{ID: 2, Email: "u@x.com", Role: role}, nil
			},
		}
		s := newTestSession(auth, store, &stubRevoker{})
		if s.IsAdmin() {
			t.Fatalf("uninitialized session must not be admin")
		}
		s.Initialize(context.Background())
		if got := s.IsAdmin(); got != want {
			t.Errorf("role %q: IsAdmin = %v, want %v", role, got, want)
		}
		s.Logout(context.Background())
		if s.IsAdmin() {
			t.Errorf("role %q: IsAdmin after logout", role)
		}
	}
}
