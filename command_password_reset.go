package zeen

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type RequestPasswordResetMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	OnResponse func(resp *RequestPasswordResetResponse)
}

func (p RequestPasswordResetMessage) Type() string { return "user.password_reset.request" }

func (p RequestPasswordResetMessage) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Email, emailRules...),
	)
	return validationError(err, "invalid password reset request")
}

type RequestPasswordResetResponse struct {
	// Token is empty when no account matches the email
	Token string
}

// RequestPasswordResetHandler sends a reset token to the account owner.
// Unknown emails succeed silently so the endpoint can not be used to
// probe for accounts.
type RequestPasswordResetHandler struct {
	repo     RepositoryManager
	accounts *Accounts
	notifier Notifier
	logger   Logger
}

func NewRequestPasswordResetHandler(repo RepositoryManager, accounts *Accounts) *RequestPasswordResetHandler {
	return &RequestPasswordResetHandler{
		repo:     repo,
		accounts: accounts,
		logger:   defLogger{},
	}
}

func (h *RequestPasswordResetHandler) WithNotifier(notifier Notifier) *RequestPasswordResetHandler {
	h.notifier = notifier
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RequestPasswordResetHandler) WithLogger(logger Logger) *RequestPasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestPasswordResetHandler) Execute(ctx context.Context, event RequestPasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestPasswordResetHandler) execute(ctx context.Context, event RequestPasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	resp := &RequestPasswordResetResponse{}

	user, err := h.repo.Users().GetByIdentifier(ctx, NormalizeEmail(event.Email))
	if err != nil {
		if !isNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}
		h.logger.Debug("password reset requested for unknown email %s", event.Email)
	} else {
		token, err := h.accounts.GenerateResetToken(user, 0)
		if err != nil {
			return err
		}
		resp.Token = token

		if h.notifier != nil {
			if err := h.notifier.SendPasswordReset(ctx, user, token); err != nil {
				h.logger.Error("failed to send password reset to %s: %v", user.Email, err)
			}
		}
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}
	return nil
}

type FinalizePasswordResetMessage struct {
	Token           string `json:"token" doc:"Reset password token"`
	Password        string `json:"password" example:"some_secret_word" doc:"Password"`
	PasswordConfirm string `json:"password2" example:"some_secret_word" doc:"Password confirmation"`
	OnResponse      func(resp *FinalizePasswordResetResponse)
}

func (p FinalizePasswordResetMessage) Type() string { return "user.password_reset.finalize" }

func (p FinalizePasswordResetMessage) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Token, validation.Required),
		validation.Field(&p.Password, passwordRules...),
		validation.Field(&p.PasswordConfirm,
			validation.Required,
			equalTo(p.Password, "passwords must match"),
		),
	)
	return validationError(err, "invalid password reset")
}

type FinalizePasswordResetResponse struct {
	Success bool
}

type FinalizePasswordResetHandler struct {
	accounts *Accounts
}

func NewFinalizePasswordResetHandler(accounts *Accounts) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{accounts: accounts}
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	ok, err := h.accounts.ResetPasswordWithToken(ctx, event.Token, event.Password)
	if err != nil {
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(&FinalizePasswordResetResponse{Success: ok})
	}
	return nil
}
