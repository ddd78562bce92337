package zeen

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type RequestEmailChangeMessage struct {
	User       *User  `json:"-"`
	NewEmail   string `json:"email" example:"pepe.new@example.com" doc:"New account email."`
	Password   string `json:"password" example:"some_secret_word" doc:"Current password"`
	OnResponse func(resp *RequestEmailChangeResponse)
}

func (m RequestEmailChangeMessage) Type() string { return "user.email_change.request" }

func (m RequestEmailChangeMessage) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.NewEmail, emailRules...),
		validation.Field(&m.Password, validation.Required),
	)
	return validationError(err, "invalid email change request")
}

type RequestEmailChangeResponse struct {
	Token string
}

// RequestEmailChangeHandler checks the current password and sends an
// email change token to the new address.
type RequestEmailChangeHandler struct {
	repo     RepositoryManager
	accounts *Accounts
	notifier Notifier
	logger   Logger
}

func NewRequestEmailChangeHandler(repo RepositoryManager, accounts *Accounts) *RequestEmailChangeHandler {
	return &RequestEmailChangeHandler{
		repo:     repo,
		accounts: accounts,
		logger:   defLogger{},
	}
}

func (h *RequestEmailChangeHandler) WithNotifier(notifier Notifier) *RequestEmailChangeHandler {
	h.notifier = notifier
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RequestEmailChangeHandler) WithLogger(logger Logger) *RequestEmailChangeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestEmailChangeHandler) Execute(ctx context.Context, event RequestEmailChangeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email change request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestEmailChangeHandler) execute(ctx context.Context, event RequestEmailChangeMessage) error {
	if event.User == nil {
		return ErrForbidden
	}

	if err := event.Validate(); err != nil {
		return err
	}

	if !event.User.VerifyPassword(event.Password) {
		return ErrMismatchedHashAndPassword
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	newEmail := NormalizeEmail(event.NewEmail)

	taken, err := h.repo.Users().EmailTakenTx(ctx, h.repo.DB(), newEmail, uuid.Nil)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email")
	}
	if taken {
		return ErrEmailTaken
	}

	token, err := h.accounts.GenerateEmailChangeToken(event.User, newEmail, 0)
	if err != nil {
		return err
	}

	if h.notifier != nil {
		if err := h.notifier.SendEmailChange(ctx, event.User, newEmail, token); err != nil {
			h.logger.Error("failed to send email change to %s: %v", newEmail, err)
		}
	}

	if event.OnResponse != nil {
		event.OnResponse(&RequestEmailChangeResponse{Token: token})
	}
	return nil
}
