package zeen

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type UpdateProfileMessage struct {
	User        *User  `json:"-"`
	Name        string `json:"name" example:"Pepe Rone" doc:"Real name."`
	Location    string `json:"location" example:"Lisbon" doc:"Location."`
	AboutMe     string `json:"about_me" doc:"Short bio."`
	Phone       string `json:"phone_number" example:"+1 650 253 0000" doc:"Phone number."`
	PhoneRegion string `json:"phone_region" example:"US" doc:"Default region for local numbers."`
	OnResponse  func(user *User)
}

func (m UpdateProfileMessage) Type() string { return "user.profile.update" }

func (m UpdateProfileMessage) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Length(0, 64)),
		validation.Field(&m.Location, validation.Length(0, 64)),
		validation.Field(&m.AboutMe, validation.Length(0, 1000)),
		validation.Field(&m.Phone, validation.Length(0, 32)),
	)
	return validationError(err, "invalid profile")
}

type UpdateProfileHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

func NewUpdateProfileHandler(repo RepositoryManager) *UpdateProfileHandler {
	return &UpdateProfileHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithActivitySink sets the sink used to emit profile events.
func (h *UpdateProfileHandler) WithActivitySink(sink ActivitySink) *UpdateProfileHandler {
	h.activity = sink
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *UpdateProfileHandler) WithLogger(logger Logger) *UpdateProfileHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdateProfileHandler) Execute(ctx context.Context, event UpdateProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateProfileHandler) execute(ctx context.Context, event UpdateProfileMessage) error {
	if event.User == nil {
		return ErrForbidden
	}

	if err := event.Validate(); err != nil {
		return err
	}

	phone, err := NormalizePhone(event.Phone, event.PhoneRegion)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	profile := &User{
		ID:       event.User.ID,
		Name:     strings.TrimSpace(event.Name),
		Location: strings.TrimSpace(event.Location),
		AboutMe:  strings.TrimSpace(event.AboutMe),
		Phone:    phone,
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return h.repo.Users().SaveProfileTx(ctx, tx, profile)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update profile")
	}

	event.User.Name = profile.Name
	event.User.Location = profile.Location
	event.User.AboutMe = profile.AboutMe
	event.User.Phone = profile.Phone

	record(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventProfileUpdated,
		ActorID:   event.User.ID.String(),
		UserID:    event.User.ID.String(),
	})

	if event.OnResponse != nil {
		event.OnResponse(event.User)
	}
	return nil
}

// AdminEditUserMessage lets an administrator change account fields
// users can not change themselves.
type AdminEditUserMessage struct {
	Actor      Identity  `json:"-"`
	UserID     uuid.UUID `json:"-"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	Confirmed  bool      `json:"confirmed"`
	Role       string    `json:"role"`
	OnResponse func(user *User)
}

func (m AdminEditUserMessage) Type() string { return "user.admin.edit" }

func (m AdminEditUserMessage) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Email, emailRules...),
		validation.Field(&m.Username, usernameRules...),
		validation.Field(&m.Role,
			validation.Required,
			validation.In(RoleUser, RoleModerator, RoleAdministrator),
		),
	)
	return validationError(err, "invalid user")
}

type AdminEditUserHandler struct {
	repo RepositoryManager
}

func NewAdminEditUserHandler(repo RepositoryManager) *AdminEditUserHandler {
	return &AdminEditUserHandler{repo: repo}
}

func (h *AdminEditUserHandler) Execute(ctx context.Context, event AdminEditUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during admin user edit",
		)
	default:
	}

	return WithPermission(event.Actor, PermissionAdminister, func() error {
		return h.execute(ctx, event)
	})
}

func (h *AdminEditUserHandler) execute(ctx context.Context, event AdminEditUserMessage) error {
	if err := event.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var user *User
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		users := h.repo.Users()

		if taken, err := users.EmailTakenTx(ctx, tx, event.Email, event.UserID); err != nil {
			return err
		} else if taken {
			return ErrEmailTaken
		}

		if taken, err := users.UsernameTakenTx(ctx, tx, event.Username, event.UserID); err != nil {
			return err
		} else if taken {
			return ErrUsernameTaken
		}

		role, err := h.repo.Roles().GetByNameTx(ctx, tx, event.Role)
		if err != nil {
			return err
		}

		changes := &User{
			ID:        event.UserID,
			Email:     NormalizeEmail(event.Email),
			Username:  strings.TrimSpace(event.Username),
			Confirmed: event.Confirmed,
		}

		if _, err := tx.NewUpdate().
			Model(changes).
			Column("email", "username", "confirmed").
			WherePK().
			Exec(ctx); err != nil {
			return err
		}

		if err := users.SetRoleTx(ctx, tx, event.UserID, role.ID); err != nil {
			return err
		}

		user, err = users.FindWithRoleTx(ctx, tx, event.UserID.String())
		return err
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to edit user")
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}
	return nil
}
