package zeen

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// LoginResult is returned by a successful Login
type LoginResult struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Auther verifies credentials and session tokens
type Auther struct {
	repo         RepositoryManager
	tokenService TokenService
	accounts     *Accounts
	logger       Logger
	activitySink ActivitySink

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, tokens TokenService, accounts *Accounts) *Auther {
	return &Auther{
		repo:         repo,
		tokenService: tokens,
		accounts:     accounts,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = sink
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login checks email and password, pings last_seen and issues a session
// token. rememberMe extends the token lifetime.
func (s *Auther) Login(ctx context.Context, email, password string, rememberMe bool) (*LoginResult, error) {
	user, err := s.verifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Warn("login failed for %s: %v", email, err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", map[string]any{
			"identifier": email,
			"error":      err.Error(),
		})
		return nil, err
	}

	token, expiresAt, err := s.tokenService.GenerateSessionToken(user, rememberMe)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, user.ID.String(), map[string]any{
			"identifier": email,
			"error":      err.Error(),
		})
		return nil, err
	}

	if s.accounts != nil {
		if err := s.accounts.Ping(ctx, user); err != nil {
			s.logger.Error("failed to update last seen for %s: %v", user.ID, err)
		}
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, user.ID.String(), map[string]any{
		"remember_me": rememberMe,
	})

	return &LoginResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Authenticate resolves the user a session token was issued for
func (s *Auther) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokenService.ParseSessionToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Users().FindWithRole(ctx, claims.UserID())
	if err != nil {
		if isNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load session user")
	}
	return user, nil
}

func (s *Auther) verifyIdentity(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.Users().FindWithRole(ctx, NormalizeEmail(email))
	if err != nil {
		if !isNotFound(err) {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
		}
		// keep timing similar to a wrong password
		_ = ComparePasswordAndHash(password, s.dummy())
		return nil, ErrMismatchedHashAndPassword
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrMismatchedHashAndPassword
	}

	return user, nil
}

func (s *Auther) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash = DummyPasswordHash()
	})
	return s.dummyHash
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, userID string, metadata map[string]any) {
	record(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: eventType,
		ActorID:   userID,
		UserID:    userID,
		Metadata:  metadata,
	})
}
