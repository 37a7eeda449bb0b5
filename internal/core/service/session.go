package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/inventory-system/inventory-web/internal/core/domain"
	"github.com/inventory-system/inventory-web/internal/core/ports"
	"github.com/inventory-system/inventory-web/internal/pkg/metrics"
)

// SessionState is the lifecycle state of a Session.
type SessionState int

const (
	StateUninitialized SessionState = iota
	StateLoading
	StateAuthenticated
	StateAnonymous
)

func (s SessionState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "uninitialized"
	}
}

// restoreTimeout bounds Initialize. The restore runs detached from the
// caller's cancellation because the session outlives the request that
// triggered it.
const restoreTimeout = 10 * time.Second

// SessionDeps are the collaborators shared by every Session.
type SessionDeps struct {
	Auth    ports.AuthGateway
	Store   ports.CredentialStore
	Revoker ports.Revoker
	Logger  zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Session is the authorization context of one browser session: who is
// logged in and what they may do. It is the only writer of its user; the
// state changes only through Initialize, Login, Logout and Expire.
//
// Logins are single-flight. Logout and Expire bump an epoch, and any login
// or restore that started under an older epoch discards its result, so a
// logout always wins over a request that was still in flight.
type Session struct {
	id   string
	deps SessionDeps
	log  zerolog.Logger

	mu        sync.RWMutex
	state     SessionState
	user      *domain.User
	cred      domain.Credential
	epoch     uint64
	loggingIn bool
}

// NewSession returns an uninitialized Session for the browser session id.
func NewSession(id string, deps SessionDeps) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Session{
		id:   id,
		deps: deps,
		log:  deps.Logger.With().Str("session", shortID(id)).Logger(),
	}
}

// ID returns the browser session id.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Loading reports whether a restore is pending. Uninitialized sessions count
// as loading: no route decision should be made on them yet.
func (s *Session) Loading() bool {
	st := s.State()
	return st == StateUninitialized || st == StateLoading
}

// User returns a copy of the current user, or nil when nobody is logged in.
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the access token attached to protected backend calls.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred.Access
}

// Can reports whether the current user may perform action. It never fails
// and returns false when no user is present.
func (s *Session) Can(action domain.Action) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Can(action)
}

// IsAdmin reports whether the current user holds the admin role.
func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.Role.IsAdmin()
}

// Capabilities lists the actions granted to the current user.
func (s *Session) Capabilities() []domain.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	return s.user.Role.Actions()
}

// Initialize restores the session from the credential store. Only the first
// call does any work; concurrent callers see StateLoading and return at once.
// Failures of any kind end in StateAnonymous.
func (s *Session) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return
	}
	s.setState(StateLoading)
	epoch := s.epoch
	s.mu.Unlock()

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
	defer cancel()

	user, cred := s.restore(rctx)

	s.mu.Lock()
	if s.epoch != epoch || s.state != StateLoading {
		s.mu.Unlock()
		// A logout landed while the restore was in flight. The restore may
		// have saved a refreshed credential after the logout deleted it.
		s.log.Info().Msg("restore superseded by logout")
		s.forget(rctx)
		s.revoke(cred)
		return
	}
	defer s.mu.Unlock()
	if user == nil {
		s.setState(StateAnonymous)
		return
	}
	s.user, s.cred = user, cred
	s.setState(StateAuthenticated)
	s.log.Info().Str("email", user.Email).Str("role", string(user.Role)).Msg("session restored")
}

// restore returns the user and the credential still held in the store. On a
// transient failure the user is nil and the kept credential is returned.
func (s *Session) restore(ctx context.Context) (*domain.User, domain.Credential) {
	cred, err := s.deps.Store.Load(ctx, s.id)
	if err != nil {
		if !errors.Is(err, ports.ErrNoCredential) {
			s.log.Warn().Err(err).Msg("credential load failed, starting anonymous")
		}
		return nil, domain.Credential{}
	}
	if cred.Empty() {
		return nil, domain.Credential{}
	}

	now := s.deps.Now()
	if tokenExpired(cred.Access, now) {
		if cred.Refresh == "" || tokenExpired(cred.Refresh, now) {
			s.forget(ctx)
			return nil, domain.Credential{}
		}
		access, err := s.deps.Auth.Refresh(ctx, cred.Refresh)
		if err != nil {
			return nil, s.restoreFailed(ctx, "refresh", err, cred)
		}
		cred.Access = access
		if err := s.deps.Store.Save(ctx, s.id, cred, credentialTTL(cred, now)); err != nil {
			s.log.Warn().Err(err).Msg("failed to persist refreshed credential")
		}
	}

	user, err := s.deps.Auth.Me(ctx, cred.Access)
	if err != nil {
		return nil, s.restoreFailed(ctx, "me", err, cred)
	}
	return user, cred
}

// restoreFailed drops the stored credential only when the backend refused
// it. A transient failure keeps it for a later restore and returns it.
func (s *Session) restoreFailed(ctx context.Context, step string, err error, cred domain.Credential) domain.Credential {
	if errors.Is(err, domain.ErrRejected) {
		s.log.Info().Str("step", step).Msg("stored credential rejected")
		s.forget(ctx)
		return domain.Credential{}
	}
	s.log.Warn().Err(err).Str("step", step).Msg("session restore failed, starting anonymous")
	return cred
}

// Login authenticates against the backend. On success the credential is
// persisted and the session becomes authenticated. Failures leave the
// session untouched.
func (s *Session) Login(ctx context.Context, email, password string) (*domain.User, error) {
	s.mu.Lock()
	switch {
	case s.state == StateUninitialized || s.state == StateLoading || s.loggingIn:
		s.mu.Unlock()
		metrics.LoginAttemptsTotal.WithLabelValues("busy").Inc()
		return nil, domain.ErrSessionBusy
	case s.state == StateAuthenticated:
		s.mu.Unlock()
		return nil, domain.ErrAlreadyAuthenticated
	}
	s.loggingIn = true
	epoch := s.epoch
	s.mu.Unlock()

	user, cred, err := s.authenticate(ctx, email, password)

	s.mu.Lock()
	s.loggingIn = false
	if err != nil {
		s.mu.Unlock()
		metrics.LoginAttemptsTotal.WithLabelValues(loginOutcome(err)).Inc()
		s.log.Info().Err(err).Str("email", email).Msg("login failed")
		return nil, err
	}
	if s.epoch != epoch || s.state != StateAnonymous {
		s.mu.Unlock()
		metrics.LoginAttemptsTotal.WithLabelValues("superseded").Inc()
		s.log.Info().Str("email", email).Msg("login superseded by logout")
		s.forget(ctx)
		s.revoke(cred)
		return nil, domain.ErrSuperseded
	}
	s.user, s.cred = user, cred
	s.setState(StateAuthenticated)
	s.mu.Unlock()

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("email", user.Email).Str("role", string(user.Role)).Msg("logged in")

	u := *user
	return &u, nil
}

// authenticate calls the backend and persists the credential before the
// result is committed, so a logout that lands afterwards can remove it.
func (s *Session) authenticate(ctx context.Context, email, password string) (*domain.User, domain.Credential, error) {
	cred, user, err := s.deps.Auth.Login(ctx, email, password)
	if err != nil {
		return nil, domain.Credential{}, err
	}
	if user == nil || cred.Empty() {
		return nil, domain.Credential{}, domain.ErrUnavailable
	}
	if err := s.deps.Store.Save(ctx, s.id, cred, credentialTTL(cred, s.deps.Now())); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist credential, session will not survive a restart")
	}
	return user, cred, nil
}

// Logout clears the session. Local clearing is authoritative: it happens
// first, and remote revocation is handed to the revoker without waiting.
// Calling Logout on an anonymous session is a no-op beyond the store delete.
func (s *Session) Logout(ctx context.Context) {
	cred := s.clear()
	s.forget(ctx)
	if !cred.Empty() {
		s.revoke(cred)
		s.log.Info().Msg("logged out")
	}
}

// Expire clears the session after the backend refused its token. No remote
// notification is sent.
func (s *Session) Expire(ctx context.Context) {
	if cred := s.clear(); !cred.Empty() {
		s.log.Info().Msg("session expired")
	}
	s.forget(ctx)
}

func (s *Session) clear() domain.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	cred := s.cred
	s.user, s.cred = nil, domain.Credential{}
	if s.state != StateAnonymous {
		s.setState(StateAnonymous)
	}
	return cred
}

func (s *Session) forget(ctx context.Context) {
	if err := s.deps.Store.Delete(context.WithoutCancel(ctx), s.id); err != nil {
		s.log.Warn().Err(err).Msg("failed to delete stored credential")
	}
}

func (s *Session) revoke(cred domain.Credential) {
	if s.deps.Revoker == nil || cred.Empty() {
		return
	}
	s.deps.Revoker.Enqueue(ports.Revocation{SessionID: s.id, Credential: cred})
}

// setState must be called with mu held.
func (s *Session) setState(st SessionState) {
	s.state = st
	metrics.SessionTransitionsTotal.WithLabelValues(st.String()).Inc()
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrRejected):
		return "rejected"
	default:
		return "unavailable"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
