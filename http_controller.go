package zeen

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// Controller exposes the account, graph and post operations as JSON
type Controller struct {
	Debug    bool
	Logger   Logger
	Repo     RepositoryManager
	Auther   *Auther
	Accounts *Accounts
	Graph    *Graph
	Blog     *Blog

	Register      *RegisterUserHandler
	ResetRequest  *RequestPasswordResetHandler
	ResetFinalize *FinalizePasswordResetHandler
	EmailChange   *RequestEmailChangeHandler
	Resend        *ResendConfirmationHandler
	Profile       *UpdateProfileHandler
	AdminEdit     *AdminEditUserHandler

	FollowersPerPage int
	PostsPerPage     int
}

type ControllerOption func(*Controller) *Controller

// NewController builds every service from repo and tokens. Options can
// replace any of them.
func NewController(repo RepositoryManager, tokens TokenService, opts ...ControllerOption) *Controller {
	accounts := NewAccounts(repo, tokens)

	c := &Controller{
		Logger:           defLogger{},
		Repo:             repo,
		Accounts:         accounts,
		Auther:           NewAuthenticator(repo, tokens, accounts),
		Graph:            NewGraph(repo),
		Blog:             NewBlog(repo),
		Register:         NewRegisterUserHandler(repo, tokens),
		ResetRequest:     NewRequestPasswordResetHandler(repo, accounts),
		ResetFinalize:    NewFinalizePasswordResetHandler(accounts),
		EmailChange:      NewRequestEmailChangeHandler(repo, accounts),
		Resend:           NewResendConfirmationHandler(accounts),
		Profile:          NewUpdateProfileHandler(repo),
		AdminEdit:        NewAdminEditUserHandler(repo),
		FollowersPerPage: DefaultFollowersPerPage,
		PostsPerPage:     DefaultPostsPerPage,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in controller...")
	}

	return c
}

// WithControllerLogger sets the logger on the controller and its services
func WithControllerLogger(logger Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if logger == nil {
			return c
		}
		c.Logger = logger
		c.Accounts.WithLogger(logger)
		c.Auther.WithLogger(logger)
		c.Graph.WithLogger(logger)
		c.Blog.WithLogger(logger)
		c.Register.WithLogger(logger)
		c.ResetRequest.WithLogger(logger)
		c.EmailChange.WithLogger(logger)
		c.Resend.WithLogger(logger)
		c.Profile.WithLogger(logger)
		return c
	}
}

// WithControllerNotifier sets who delivers account emails
func WithControllerNotifier(notifier Notifier) ControllerOption {
	return func(c *Controller) *Controller {
		c.Register.WithNotifier(notifier)
		c.ResetRequest.WithNotifier(notifier)
		c.EmailChange.WithNotifier(notifier)
		c.Resend.WithNotifier(notifier)
		return c
	}
}

// WithControllerActivitySink routes every activity event to sink
func WithControllerActivitySink(sink ActivitySink) ControllerOption {
	return func(c *Controller) *Controller {
		c.Accounts.WithActivitySink(sink)
		c.Auther.WithActivitySink(sink)
		c.Graph.WithActivitySink(sink)
		c.Blog.WithActivitySink(sink)
		c.Register.WithActivitySink(sink)
		c.Profile.WithActivitySink(sink)
		return c
	}
}

// WithControllerAdminEmail sets the address that registers as Administrator
func WithControllerAdminEmail(email string) ControllerOption {
	return func(c *Controller) *Controller {
		c.Register.WithAdminEmail(email)
		return c
	}
}

// WithControllerPagination overrides the page sizes
func WithControllerPagination(followersPerPage, postsPerPage int) ControllerOption {
	return func(c *Controller) *Controller {
		if followersPerPage > 0 {
			c.FollowersPerPage = followersPerPage
		}
		if postsPerPage > 0 {
			c.PostsPerPage = postsPerPage
		}
		return c
	}
}

// RegisterRoutes mounts the JSON API on app
func RegisterRoutes[T any](app router.Router[T], c *Controller) {
	session := SessionMiddleware(c.Auther, c.Accounts, c.Logger)
	login := LoginRequired()

	app.Post("/auth/register", c.RegisterPost)
	app.Post("/auth/login", c.LoginPost)
	app.Get("/auth/confirm/:token", c.ConfirmGet, session, login)
	app.Post("/auth/confirm/resend", c.ResendConfirmationPost, session, login)
	app.Post("/auth/reset", c.PasswordResetPost)
	app.Post("/auth/reset/:token", c.PasswordResetExecute)
	app.Post("/auth/change-email", c.ChangeEmailPost, session, login)
	app.Get("/auth/change-email/:token", c.ChangeEmailGet, session, login)

	app.Get("/users/:username", c.UserShow, session)
	app.Post("/me/profile", c.ProfileUpdate, session, login)
	app.Post("/users/:username/follow", c.FollowPost, session, login, PermissionRequired(PermissionFollow))
	app.Post("/users/:username/unfollow", c.UnfollowPost, session, login, PermissionRequired(PermissionFollow))
	app.Get("/users/:username/followers", c.FollowersIndex, session)
	app.Get("/users/:username/followed", c.FollowedIndex, session)

	app.Post("/posts", c.PostCreate, session, login, PermissionRequired(PermissionWriteContent))
	app.Get("/posts/timeline", c.TimelineIndex, session, login)
	app.Delete("/posts/:id", c.PostDelete, session, login)

	app.Get("/admin/users", c.AdminUsersIndex, session, AdminRequired())
	app.Post("/admin/users/:id", c.AdminUserUpdate, session, AdminRequired())
}

// LoginRequest payload
type LoginRequest struct {
	Email      string `form:"email" json:"email"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

func (c *Controller) RegisterPost(ctx router.Context) error {
	payload := RegisterUserMessage{}
	if err := ctx.Bind(&payload); err != nil {
		return c.badRequest(ctx, err)
	}

	if c.Debug {
		c.Logger.Debug("register payload: %s", print.MaybePrettyJSON(map[string]any{
			"email":    payload.Email,
			"username": payload.Username,
		}))
	}

	var resp *RegisterUserResponse
	payload.OnResponse = func(r *RegisterUserResponse) { resp = r }

	if err := c.Register.Execute(ctx.Context(), payload); err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]any{
		"user": resp.User,
	})
}

func (c *Controller) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, err)
	}

	result, err := c.Auther.Login(ctx.Context(), payload.Email, payload.Password, payload.RememberMe)
	if err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, result)
}

func (c *Controller) ConfirmGet(ctx router.Context) error {
	user, _ := GetRouterUser(ctx)
	if user.Confirmed {
		return ctx.JSON(http.StatusOK, map[string]any{"confirmed": true})
	}

	ok, err := c.Accounts.Confirm(ctx.Context(), user, ctx.Param("token"))
	if err != nil {
		return c.fail(ctx, err)
	}
	if !ok {
		return ctx.JSON(http.StatusBadRequest, errorBody("the confirmation link is invalid or has expired", ErrTokenMalformed.TextCode, nil))
	}
	return ctx.JSON(http.StatusOK, map[string]any{"confirmed": true})
}

func (c *Controller) ResendConfirmationPost(ctx router.Context) error {
	user, _ := GetRouterUser(ctx)
	if err := c.Resend.Execute(ctx.Context(), ResendConfirmationMessage{User: user}); err != nil {
		return c.fail(ctx, err)
	}
	return ctx.NoContent(http.StatusAccepted)
}

func (c *Controller) PasswordResetPost(ctx router.Context) error {
	payload := RequestPasswordResetMessage{}
	if err := ctx.Bind(&payload); err != nil {
		return c.badRequest(ctx, err)
	}

	if err := c.ResetRequest.Execute(ctx.Context(), payload); err != nil {
		return c.fail(ctx, err)
	}
	return ctx.NoContent(http.StatusAccepted)
}

func (c *Controller) PasswordResetExecute(ctx router.Context) error {
	payload := FinalizePasswordResetMessage{}
	if err := ctx.Bind(&payload); err != nil {
		return c.badRequest(ctx, err)
	}
	payload.Token = ctx.Param("token")

	success := false
	payload.OnResponse = func(r *FinalizePasswordResetResponse) { success = r.Success }

	if err := c.ResetFinalize.Execute(ctx.Context(), payload); err != nil {
		return c.fail(ctx, err)
	}
	if !success {
		return ctx.JSON(http.StatusBadRequest, errorBody("the reset link is invalid or has expired", ErrTokenMalformed.TextCode, nil))
	}
	return ctx.JSON(http.StatusOK, map[string]any{"reset": true})
}

func (c *Controller) ChangeEmailPost(ctx router.Context) error {
	payload := RequestEmailChangeMessage{}
	if err := ctx.Bind(&payload); err != nil {
		return c.badRequest(ctx, err)
	}
	payload.User, _ = GetRouterUser(ctx)

	if err := c.EmailChange.Execute(ctx.Context(), payload); err != nil {
		return c.fail(ctx, err)
	}
	return ctx.NoContent(http.StatusAccepted)
}

func (c *Controller) ChangeEmailGet(ctx router.Context) error {
	user, _ := GetRouterUser(ctx)

	ok, err := c.Accounts.ChangeEmail(ctx.Context(), user, ctx.Param("token"))
	if err != nil {
		return c.fail(ctx, err)
	}
	if !ok {
		return ctx.JSON(http.StatusBadRequest, errorBody("invalid request", ErrTokenMalformed.TextCode, nil))
	}
	return ctx.JSON(http.StatusOK, map[string]any{"email": user.Email})
}

func (c *Controller) UserShow(ctx router.Context) error {
	user, err := c.lookup(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	stats, err := c.Graph.Stats(ctx.Context(), user)
	if err != nil {
		return c.fail(ctx, err)
	}

	posts, page, err := c.Blog.ListByAuthor(ctx.Context(), user, c.pagination(ctx, c.PostsPerPage))
	if err != nil {
		return c.fail(ctx, err)
	}

	body := map[string]any{
		"user":       user,
		"stats":      stats,
		"posts":      posts,
		"pagination": page,
	}

	if current, ok := GetRouterUser(ctx); ok {
		following, err := c.Graph.IsFollowing(ctx.Context(), current, user)
		if err != nil {
			return c.fail(ctx, err)
		}
		followedBy, err := c.Graph.IsFollowedBy(ctx.Context(), current, user)
		if err != nil {
			return c.fail(ctx, err)
		}
		body["following"] = following
		body["follows_you"] = followedBy
	}

	return ctx.JSON(http.StatusOK, body)
}

func (c *Controller) ProfileUpdate(ctx router.Context) error {
	payload := UpdateProfileMessage{}
	if err := ctx.Bind(&payload); err != nil {
		return c.badRequest(ctx, err)
	}
	payload.User, _ = GetRouterUser(ctx)

	if err := c.Profile.Execute(ctx.Context(), payload); err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]any{"user": payload.User})
}

func (c *Controller) FollowPost(ctx router.Context) error {
	current, _ := GetRouterUser(ctx)
	user, err := c.lookup(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	if err := c.Graph.Follow(ctx.Context(), current, user); err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]any{"following": true})
}

func (c *Controller) UnfollowPost(ctx router.Context) error {
	current, _ := GetRouterUser(ctx)
	user, err := c.lookup(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	if err := c.Graph.Unfollow(ctx.Context(), current, user); err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]any{"following": false})
}

func (c *Controller) FollowersIndex(ctx router.Context) error {
	user, err := c.lookup(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	edges, page, err := c.Graph.Followers(ctx.Context(), user, c.pagination(ctx, c.FollowersPerPage))
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"followers":  edges,
		"pagination": page,
	})
}

func (c *Controller) FollowedIndex(ctx router.Context) error {
	user, err := c.lookup(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	edges, page, err := c.Graph.Followed(ctx.Context(), user, c.pagination(ctx, c.FollowersPerPage))
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"followed":   edges,
		"pagination": page,
	})
}

// PostCreateRequest payload
type PostCreateRequest struct {
	Body string `form:"body" json:"body"`
}

func (c *Controller) PostCreate(ctx router.Context) error {
	payload := new(PostCreateRequest)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, err)
	}

	user, _ := GetRouterUser(ctx)
	post, err := c.Blog.CreatePost(ctx.Context(), user, payload.Body)
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, map[string]any{"post": post})
}

func (c *Controller) TimelineIndex(ctx router.Context) error {
	user, _ := GetRouterUser(ctx)

	posts, page, err := c.Blog.Timeline(ctx.Context(), user, c.pagination(ctx, c.PostsPerPage))
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"posts":      posts,
		"pagination": page,
	})
}

func (c *Controller) PostDelete(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.badRequest(ctx, err)
	}

	user, _ := GetRouterUser(ctx)
	if err := c.Blog.DeletePost(ctx.Context(), user, id); err != nil {
		return c.fail(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *Controller) AdminUsersIndex(ctx router.Context) error {
	users, page, err := c.Repo.Users().Page(ctx.Context(), c.pagination(ctx, DefaultFollowersPerPage))
	if err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"users":      users,
		"pagination": page,
	})
}

func (c *Controller) AdminUserUpdate(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.badRequest(ctx, err)
	}

	payload := AdminEditUserMessage{}
	if err := ctx.Bind(&payload); err != nil {
		return c.badRequest(ctx, err)
	}
	payload.UserID = id
	payload.Actor = CurrentIdentity(ctx)

	var user *User
	payload.OnResponse = func(u *User) { user = u }

	if err := c.AdminEdit.Execute(ctx.Context(), payload); err != nil {
		return c.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]any{"user": user})
}

func (c *Controller) lookup(ctx router.Context) (*User, error) {
	username := strings.TrimSpace(ctx.Param("username"))
	user, err := c.Repo.Users().FindWithRole(ctx.Context(), username)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Controller) pagination(ctx router.Context, perPage int) Pagination {
	return NewPagination(
		ctx.QueryInt("page", 1),
		ctx.QueryInt("per_page", perPage),
		perPage,
	)
}

func (c *Controller) badRequest(ctx router.Context, err error) error {
	return c.fail(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request").
		WithCode(errors.CodeBadRequest))
}

func (c *Controller) fail(ctx router.Context, err error) error {
	status := StatusFromError(err)

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred")
	}

	if status >= http.StatusInternalServerError {
		c.Logger.Error("request %s failed: %v", ctx.Path(), err)
		return ctx.JSON(status, errorBody("internal server error", "INTERNAL", nil))
	}

	c.Logger.Debug("request %s rejected: %s %s", ctx.Path(), richErr.Message, print.MaybePrettyJSON(richErr.Metadata))
	return ctx.JSON(status, errorBody(richErr.Message, richErr.TextCode, richErr.Metadata))
}

// StatusFromError maps an error to the HTTP status it should produce
func StatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if repository.IsRecordNotFound(err) {
		return http.StatusNotFound
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return http.StatusInternalServerError
	}

	if richErr.Code >= 400 && richErr.Code < 600 {
		return richErr.Code
	}

	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(message, code string, metadata map[string]any) map[string]any {
	body := map[string]any{
		"message": message,
	}
	if code != "" {
		body["code"] = code
	}
	if len(metadata) > 0 {
		body["metadata"] = metadata
	}
	return map[string]any{"error": body}
}
