package zeen

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Email           string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	Username        string `json:"username" example:"pepe" doc:"Public username."`
	Password        string `json:"password" example:"some_secret_word" doc:"Password"`
	PasswordConfirm string `json:"password2" example:"some_secret_word" doc:"Password confirmation"`
	OnResponse      func(resp *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate checks the registration form
func (e RegisterUserMessage) Validate() error {
	err := validation.ValidateStruct(&e,
		validation.Field(&e.Email, emailRules...),
		validation.Field(&e.Username, usernameRules...),
		validation.Field(&e.Password, passwordRules...),
		validation.Field(&e.PasswordConfirm,
			validation.Required,
			equalTo(e.Password, "passwords must match"),
		),
	)
	return validationError(err, "invalid registration")
}

type RegisterUserResponse struct {
	User              *User
	ConfirmationToken string
}

type RegisterUserHandler struct {
	repo       RepositoryManager
	tokens     TokenService
	notifier   Notifier
	activity   ActivitySink
	logger     Logger
	adminEmail string
}

// NewRegisterUserHandler creates a handler with sane defaults.
func NewRegisterUserHandler(repo RepositoryManager, tokens TokenService) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

// WithAdminEmail sets the address that registers as Administrator
func (h *RegisterUserHandler) WithAdminEmail(email string) *RegisterUserHandler {
	h.adminEmail = NormalizeEmail(email)
	return h
}

// WithNotifier sets who delivers the confirmation token
func (h *RegisterUserHandler) WithNotifier(notifier Notifier) *RegisterUserHandler {
	h.notifier = notifier
	return h
}

// WithActivitySink sets the sink used to emit registration events.
func (h *RegisterUserHandler) WithActivitySink(sink ActivitySink) *RegisterUserHandler {
	h.activity = sink
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := event.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := NewUser(event.Email, event.Username, event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		role, err := h.roleFor(ctx, tx, user.Email)
		if err != nil {
			return err
		}
		user.AssignRole(role)

		if _, err := h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return err
		}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	token, err := h.tokens.GenerateActionToken(user, ActionConfirm)
	if err != nil {
		return err
	}

	if h.notifier != nil {
		if err := h.notifier.SendConfirmation(ctx, user, token); err != nil {
			h.logger.Error("failed to send confirmation to %s: %v", user.Email, err)
		}
	}

	record(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventRegistered,
		ActorID:   user.ID.String(),
		UserID:    user.ID.String(),
		Metadata:  map[string]any{"role": user.Role.Name},
	})

	if event.OnResponse != nil {
		event.OnResponse(&RegisterUserResponse{
			User:              user,
			ConfirmationToken: token,
		})
	}

	return nil
}

// roleFor picks Administrator for the configured admin address and the
// default role for everyone else.
func (h *RegisterUserHandler) roleFor(ctx context.Context, tx bun.IDB, email string) (*Role, error) {
	if h.adminEmail != "" && email == h.adminEmail {
		return h.repo.Roles().GetByNameTx(ctx, tx, RoleAdministrator)
	}
	return h.repo.Roles().DefaultRoleTx(ctx, tx)
}
