package zeen

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

type ResendConfirmationMessage struct {
	User       *User
	OnResponse func(resp *ResendConfirmationResponse)
}

func (m ResendConfirmationMessage) Type() string { return "user.confirmation.resend" }

type ResendConfirmationResponse struct {
	// Token is empty when the account was already confirmed
	Token string
}

// ResendConfirmationHandler issues a fresh confirmation token
type ResendConfirmationHandler struct {
	accounts *Accounts
	notifier Notifier
	logger   Logger
}

func NewResendConfirmationHandler(accounts *Accounts) *ResendConfirmationHandler {
	return &ResendConfirmationHandler{
		accounts: accounts,
		logger:   defLogger{},
	}
}

func (h *ResendConfirmationHandler) WithNotifier(notifier Notifier) *ResendConfirmationHandler {
	h.notifier = notifier
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *ResendConfirmationHandler) WithLogger(logger Logger) *ResendConfirmationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResendConfirmationHandler) Execute(ctx context.Context, event ResendConfirmationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during confirmation resend",
		)
	default:
	}

	if event.User == nil {
		return ErrForbidden
	}

	resp := &ResendConfirmationResponse{}
	if !event.User.Confirmed {
		token, err := h.accounts.GenerateConfirmationToken(event.User, 0)
		if err != nil {
			return err
		}
		resp.Token = token

		if h.notifier != nil {
			if err := h.notifier.SendConfirmation(ctx, event.User, token); err != nil {
				h.logger.Error("failed to send confirmation to %s: %v", event.User.Email, err)
			}
		}
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}
	return nil
}
