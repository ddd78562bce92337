package zeen

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Accounts issues and consumes the confirm, reset and change email tokens.
//
// Consuming a token never returns an error for a bad token: an invalid
// signature, an expired token, a token issued for someone else or a
// taken email all yield false and leave the account untouched. Errors
// are reserved for the store.
type Accounts struct {
	repo     RepositoryManager
	tokens   TokenService
	activity ActivitySink
	logger   Logger
}

// NewAccounts creates an Accounts service with sane defaults.
func NewAccounts(repo RepositoryManager, tokens TokenService) *Accounts {
	return &Accounts{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

// WithActivitySink sets the sink used to emit account events.
func (a *Accounts) WithActivitySink(sink ActivitySink) *Accounts {
	a.activity = sink
	return a
}

// WithLogger overrides the logger used by the service.
func (a *Accounts) WithLogger(logger Logger) *Accounts {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// GenerateConfirmationToken issues a confirm token, ttl 0 uses the default
func (a *Accounts) GenerateConfirmationToken(user *User, ttl time.Duration) (string, error) {
	return a.tokens.GenerateActionToken(user, ActionConfirm, ActionTokenOptions{TTL: ttl})
}

// GenerateResetToken issues a password reset token, ttl 0 uses the default
func (a *Accounts) GenerateResetToken(user *User, ttl time.Duration) (string, error) {
	return a.tokens.GenerateActionToken(user, ActionReset, ActionTokenOptions{TTL: ttl})
}

// GenerateEmailChangeToken issues a token carrying newEmail, ttl 0 uses the default
func (a *Accounts) GenerateEmailChangeToken(user *User, newEmail string, ttl time.Duration) (string, error) {
	return a.tokens.GenerateActionToken(user, ActionChangeEmail, ActionTokenOptions{
		TTL:      ttl,
		NewEmail: newEmail,
	})
}

// Confirm marks user as confirmed if token is a valid confirm token for user
func (a *Accounts) Confirm(ctx context.Context, user *User, token string) (bool, error) {
	if _, ok := a.verify(user, token, ActionConfirm); !ok {
		return false, nil
	}

	err := a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return a.repo.Users().SetConfirmedTx(ctx, tx, user.ID)
	})
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to confirm account")
	}

	user.Confirmed = true
	a.record(ctx, ActivityEventConfirmed, user.ID, nil)

	return true, nil
}

// ResetPassword stores newPassword if token is a valid reset token for user
func (a *Accounts) ResetPassword(ctx context.Context, user *User, token, newPassword string) (bool, error) {
	if _, ok := a.verify(user, token, ActionReset); !ok {
		return false, nil
	}

	return a.applyPassword(ctx, user, newPassword)
}

// ResetPasswordWithToken loads the user the reset token was issued for
// and stores newPassword. Used by the logged out reset flow.
func (a *Accounts) ResetPasswordWithToken(ctx context.Context, token, newPassword string) (bool, error) {
	claims, err := a.tokens.ParseActionToken(token, ActionReset)
	if err != nil {
		a.logger.Debug("rejected reset token: %v", err)
		return false, nil
	}

	user, err := a.repo.Users().GetByIdentifier(ctx, claims.UserID())
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for password reset")
	}

	return a.ResetPassword(ctx, user, token, newPassword)
}

func (a *Accounts) applyPassword(ctx context.Context, user *User, newPassword string) (bool, error) {
	hash, err := HashPassword(newPassword)
	if err != nil {
		return false, err
	}

	err = a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return a.repo.Users().SetPasswordHashTx(ctx, tx, user.ID, hash)
	})
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reset password")
	}

	user.PasswordHash = hash
	a.record(ctx, ActivityEventPasswordReset, user.ID, nil)

	return true, nil
}

// ChangeEmail stores the address carried by token. It fails when the
// address already belongs to a different account.
func (a *Accounts) ChangeEmail(ctx context.Context, user *User, token string) (bool, error) {
	claims, ok := a.verify(user, token, ActionChangeEmail)
	if !ok {
		return false, nil
	}

	newEmail := NormalizeEmail(claims.NewEmail)
	if newEmail == "" {
		return false, nil
	}

	changed := false
	err := a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		taken, err := a.repo.Users().EmailTakenTx(ctx, tx, newEmail, user.ID)
		if err != nil {
			return err
		}
		if taken {
			return nil
		}

		if err := a.repo.Users().SetEmailTx(ctx, tx, user.ID, newEmail); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to change email")
	}

	if !changed {
		a.logger.Debug("rejected email change for %s: %s already registered", user.ID, newEmail)
		return false, nil
	}

	previous := user.Email
	user.Email = newEmail
	a.record(ctx, ActivityEventEmailChanged, user.ID, map[string]any{
		"from": previous,
		"to":   newEmail,
	})

	return true, nil
}

// verify parses token and checks it was issued for user
func (a *Accounts) verify(user *User, token string, action TokenAction) (*ActionClaims, bool) {
	if user == nil || user.ID == uuid.Nil || token == "" {
		return nil, false
	}

	claims, err := a.tokens.ParseActionToken(token, action)
	if err != nil {
		a.logger.Debug("rejected %s token: %v", action, err)
		return nil, false
	}

	if claims.UserID() != user.ID.String() {
		a.logger.Debug("rejected %s token: issued for a different user", action)
		return nil, false
	}

	return claims, true
}

func (a *Accounts) record(ctx context.Context, eventType ActivityEventType, userID uuid.UUID, meta map[string]any) {
	record(ctx, a.activity, a.logger, ActivityEvent{
		EventType: eventType,
		ActorID:   userID.String(),
		UserID:    userID.String(),
		Metadata:  meta,
	})
}

// Ping refreshes the user's last_seen timestamp
func (a *Accounts) Ping(ctx context.Context, user *User) error {
	if user == nil || user.ID == uuid.Nil {
		return nil
	}

	now := time.Now().UTC()
	err := a.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return a.repo.Users().TouchLastSeenTx(ctx, tx, user.ID, now)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update last seen")
	}

	user.LastSeen = now
	return nil
}
