package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/mailbin/internal/domain"
	"github.com/bnema/mailbin/internal/ports"
	"go.uber.org/zap"
)

var ErrSignInInProgress = errors.New("sign-in already in progress")

// SessionService drives the session lifecycle: consent, token persistence and the expiry gate.
type SessionService struct {
	broker   ports.CredentialBroker
	encoder  ports.SessionEncoder
	store    ports.SessionStore
	profiles ports.ProfileFetcher
	clock    ports.Clock
	logger   *zap.Logger

	mu    sync.Mutex
	state domain.SessionState
}

// SignInResult is returned once the session token is stored.
// The profile lookup keeps running after SignIn returns.
type SignInResult struct {
	Token domain.SessionToken

	profileDone chan struct{}
	profile     *domain.Profile
}

// Profile blocks until the concurrent profile lookup finishes or ctx is done.
func (r *SignInResult) Profile(ctx context.Context) *domain.Profile {
	select {
	case <-r.profileDone:
		return r.profile
	case <-ctx.Done():
		return nil
	}
}

type SessionStatus struct {
	State     domain.SessionState `json:"state"`
	IssuedAt  time.Time           `json:"issued_at,omitzero"`
	ExpiresAt time.Time           `json:"expires_at,omitzero"`
	Scope     string              `json:"scope,omitempty"`
	Profile   *domain.Profile     `json:"profile,omitempty"`
}

func NewSessionService(
	broker ports.CredentialBroker,
	encoder ports.SessionEncoder,
	store ports.SessionStore,
	profiles ports.ProfileFetcher,
	clock ports.Clock,
	logger *zap.Logger,
) *SessionService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SessionService{
		broker:   broker,
		encoder:  encoder,
		store:    store,
		profiles: profiles,
		clock:    clock,
		logger:   logger,
		state:    domain.SessionUnauthenticated,
	}
}

func (s *SessionService) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *SessionService) SignIn(ctx context.Context) (*SignInResult, error) {
	previous, err := s.beginConsent()
	if err != nil {
		return nil, err
	}

	result := s.broker.Prompt(ctx)
	switch result.Type {
	case domain.ConsentSuccess:
	case domain.ConsentCancel:
		s.abortConsent(previous)
		s.logger.Info("sign-in cancelled by user")
		return nil, domain.ErrConsentCancelled
	default:
		s.abortConsent(previous)
		s.logger.Warn("sign-in failed", zap.Error(result.Err))
		if result.Err == nil {
			return nil, domain.ErrConsentFailed
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrConsentFailed, result.Err)
	}
	if result.Credential == nil {
		s.abortConsent(previous)
		return nil, fmt.Errorf("%w: provider returned no credential", domain.ErrConsentFailed)
	}

	credential := *result.Credential
	token, err := s.encoder.Encode(credential)
	if err != nil {
		s.abortConsent(previous)
		return nil, fmt.Errorf("encode session token: %w", err)
	}
	if err := s.store.Set(ctx, token); err != nil {
		s.abortConsent(previous)
		return nil, fmt.Errorf("persist session token: %w", err)
	}

	s.transition(domain.SessionAuthenticated)
	s.logger.Info("signed in", zap.String("scope", credential.Scope))

	signIn := &SignInResult{Token: token, profileDone: make(chan struct{})}
	go s.cacheProfile(ctx, credential.AccessToken, signIn)

	return signIn, nil
}

// ResolveToken returns the stored session token, or the zero token when there is
// no usable session. Expired tokens are cleared on the way.
func (s *SessionService) ResolveToken(ctx context.Context) domain.SessionToken {
	token, _, ok := s.resolve(ctx)
	if !ok {
		return ""
	}
	return token
}

func (s *SessionService) Status(ctx context.Context) SessionStatus {
	_, claims, ok := s.resolve(ctx)
	if !ok {
		return SessionStatus{State: s.State()}
	}

	status := SessionStatus{
		State:     s.State(),
		IssuedAt:  claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
		Scope:     claims.Scope,
	}

	profile, err := s.store.GetProfile(ctx)
	if err != nil {
		s.logger.Warn("read cached profile failed", zap.Error(err))
	}
	status.Profile = profile

	return status
}

func (s *SessionService) SignOut(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	s.mu.Lock()
	s.state = domain.SessionUnauthenticated
	s.mu.Unlock()

	s.logger.Info("signed out")
	return nil
}

func (s *SessionService) resolve(ctx context.Context) (domain.SessionToken, domain.SessionClaims, bool) {
	token, err := s.store.Get(ctx)
	if err != nil {
		s.logger.Warn("read session token failed", zap.Error(err))
		return "", domain.SessionClaims{}, false
	}
	if token.IsZero() {
		s.forceState(domain.SessionUnauthenticated)
		return "", domain.SessionClaims{}, false
	}

	claims, err := s.encoder.Decode(token)
	switch {
	case err == nil && !claims.Expired(s.clock.Now()):
		s.restore()
		return token, claims, true
	case err == nil, errors.Is(err, domain.ErrSessionExpired):
		s.expire(ctx)
	default:
		s.logger.Warn("stored session token rejected", zap.Error(err))
		s.forceState(domain.SessionUnauthenticated)
	}

	return "", domain.SessionClaims{}, false
}

func (s *SessionService) expire(ctx context.Context) {
	s.forceState(domain.SessionExpired)
	s.logger.Info("session expired, clearing stored token")

	if err := s.store.Clear(ctx); err != nil {
		s.logger.Warn("clear expired session failed", zap.Error(err))
	}

	s.forceState(domain.SessionUnauthenticated)
}

func (s *SessionService) cacheProfile(ctx context.Context, accessToken string, result *SignInResult) {
	defer close(result.profileDone)

	if s.profiles == nil {
		return
	}

	profile := s.profiles.FetchProfile(ctx, accessToken)
	if profile == nil {
		return
	}
	if err := s.store.SetProfile(ctx, *profile); err != nil {
		s.logger.Warn("cache user profile failed", zap.Error(err))
	}
	result.profile = profile
}

func (s *SessionService) beginConsent() (domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.state
	if previous == domain.SessionAuthenticating {
		return previous, ErrSignInInProgress
	}
	if previous == domain.SessionExpired {
		previous = domain.SessionUnauthenticated
	}
	s.state = domain.SessionAuthenticating

	return previous, nil
}

// abortConsent returns to the state held before consent started.
func (s *SessionService) abortConsent(previous domain.SessionState) {
	s.transition(previous)
}

func (s *SessionService) transition(next domain.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == next {
		return
	}
	if !s.state.CanTransition(next) {
		s.logger.Debug("ignoring session transition",
			zap.String("from", string(s.state)),
			zap.String("to", string(next)))
		return
	}
	s.state = next
}

// restore marks a persisted session as authenticated without running consent.
func (s *SessionService) restore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.SessionAuthenticating {
		s.state = domain.SessionAuthenticated
	}
}

func (s *SessionService) forceState(next domain.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.SessionAuthenticating {
		s.state = next
	}
}
