package zeen_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-zeen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	p := zeen.NewPagination(0, 0, zeen.DefaultPostsPerPage)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, zeen.DefaultPostsPerPage, p.PerPage)
	assert.Equal(t, 0, p.Offset())

	p = zeen.NewPagination(3, 500, zeen.DefaultPostsPerPage)
	assert.Equal(t, zeen.MaxPerPage, p.PerPage)
	assert.Equal(t, 200, p.Offset())
}

func TestPagination_Pages(t *testing.T) {
	p := zeen.NewPagination(1, 10, 10)
	assert.Equal(t, 1, p.Pages())
	assert.False(t, p.HasNext())
	assert.False(t, p.HasPrev())

	p.Total = 25
	assert.Equal(t, 3, p.Pages())
	assert.True(t, p.HasNext())

	p.Page = 3
	assert.False(t, p.HasNext())
	assert.True(t, p.HasPrev())
}

func TestRenderMarkdown(t *testing.T) {
	html := zeen.RenderMarkdown("# Title\n\nSome *text* and [a link](http://example.com)")
	assert.Contains(t, html, "<h1>Title</h1>")
	assert.Contains(t, html, "<em>text</em>")
	assert.Contains(t, html, `href="http://example.com"`)
}

func TestRenderMarkdown_Sanitizes(t *testing.T) {
	html := zeen.RenderMarkdown("hello <script>alert('x')</script> <a href=\"javascript:alert(1)\">x</a>")
	assert.NotContains(t, html, "<script")
	assert.NotContains(t, html, "javascript:")
	assert.Contains(t, html, "hello")
}

func TestNormalizePhone(t *testing.T) {
	phone, err := zeen.NormalizePhone("+1 650-253-0000", "")
	require.NoError(t, err)
	assert.Equal(t, "+16502530000", phone)

	phone, err = zeen.NormalizePhone("020 7031 3000", "GB")
	require.NoError(t, err)
	assert.Equal(t, "+442070313000", phone)

	phone, err = zeen.NormalizePhone("  ", "")
	require.NoError(t, err)
	assert.Empty(t, phone)

	_, err = zeen.NormalizePhone("not a number", "US")
	assert.Error(t, err)
}

func TestContextUser(t *testing.T) {
	ctx := context.Background()

	_, ok := zeen.FromContext(ctx)
	assert.False(t, ok)
	assert.True(t, zeen.IdentityFromContext(ctx).IsAnonymous())
	assert.False(t, zeen.Can(ctx, zeen.PermissionFollow))

	u := userWith(zeen.PermissionFollow)
	ctx = zeen.WithContext(ctx, u)

	got, ok := zeen.FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, u, got)
	assert.True(t, zeen.Can(ctx, zeen.PermissionFollow))
	assert.False(t, zeen.Can(ctx, zeen.PermissionAdminister))

	ctx = zeen.WithContext(context.Background(), nil)
	_, ok = zeen.FromContext(ctx)
	assert.False(t, ok)
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, zeen.IsTokenExpiredError(zeen.ErrTokenExpired))
	assert.True(t, zeen.IsTokenExpiredError(errors.New("some wrapper: token is expired")))
	assert.False(t, zeen.IsTokenExpiredError(zeen.ErrIdentityNotFound))
	assert.False(t, zeen.IsTokenExpiredError(nil))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, zeen.IsMalformedError(zeen.ErrTokenMalformed))
	assert.True(t, zeen.IsMalformedError(errors.New("jwt: token is malformed")))
	assert.False(t, zeen.IsMalformedError(errors.New("invalid token")))
	assert.False(t, zeen.IsMalformedError(nil))
}

type lineLogger struct {
	lines []string
}

func (l *lineLogger) Debug(format string, args ...any) {}
func (l *lineLogger) Info(format string, args ...any)  { l.lines = append(l.lines, format) }
func (l *lineLogger) Warn(format string, args ...any)  { l.lines = append(l.lines, format) }
func (l *lineLogger) Error(format string, args ...any) {}

func TestActivitySinkFailuresAreLogged(t *testing.T) {
	f := newFixture(t)
	logger := &lineLogger{}
	failing := zeen.ActivitySinkFunc(func(context.Context, zeen.ActivityEvent) error {
		return errors.New("queue down")
	})

	graph := zeen.NewGraph(f.repo).WithLogger(logger).WithActivitySink(failing)
	u1 := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)
	u2 := f.user(t, "susan@example.org", "susan", "dog", zeen.RoleUser)

	require.NoError(t, graph.Follow(f.ctx, u1, u2))
	assert.Len(t, logger.lines, 1)
}

func TestLogNotifier(t *testing.T) {
	logger := &lineLogger{}
	n := zeen.NewLogNotifier(logger, "http://localhost:5000")
	u := &zeen.User{Email: "john@example.com"}

	require.NoError(t, n.SendConfirmation(context.Background(), u, "tok"))
	require.NoError(t, n.SendPasswordReset(context.Background(), u, "tok"))
	require.NoError(t, n.SendEmailChange(context.Background(), u, "new@example.com", "tok"))
	assert.Len(t, logger.lines, 3)
}

type formattingLogger struct {
	lines []string
}

func (l *formattingLogger) Debug(format string, args ...any) {}
func (l *formattingLogger) Info(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}
func (l *formattingLogger) Warn(format string, args ...any)  {}
func (l *formattingLogger) Error(format string, args ...any) {}

func TestLogNotifier_SubjectPrefixAndSender(t *testing.T) {
	logger := &formattingLogger{}
	n := zeen.NewLogNotifier(logger, "http://localhost:5000").
		WithSubjectPrefix(" [Zeen] ").
		WithSender("Zeen Admin <zeen@example.com>")

	assert.Equal(t, "[Zeen] Reset Your Password", n.Subject("Reset Your Password"))

	u := &zeen.User{Email: "john@example.com"}
	require.NoError(t, n.SendConfirmation(context.Background(), u, "tok"))
	require.Len(t, logger.lines, 1)
	assert.Contains(t, logger.lines[0], `subject="[Zeen] Confirm Your Account"`)
	assert.Contains(t, logger.lines[0], `from="Zeen Admin <zeen@example.com>"`)
	assert.Contains(t, logger.lines[0], "link=http://localhost:5000/auth/confirm/tok")

	assert.Equal(t, "Hello", zeen.NewLogNotifier(logger, "").Subject("Hello"))
}

func TestLogActivitySink(t *testing.T) {
	logger := &lineLogger{}
	sink := zeen.LogActivitySink(logger)

	err := sink.Record(context.Background(), zeen.ActivityEvent{
		EventType: zeen.ActivityEventFollow,
		ActorID:   "actor",
		UserID:    "user",
	})
	require.NoError(t, err)
	require.Len(t, logger.lines, 1)
	assert.Contains(t, logger.lines[0], "activity")
}

func TestMultiActivitySink(t *testing.T) {
	first := &capturingSink{}
	second := &capturingSink{}
	failing := zeen.ActivitySinkFunc(func(context.Context, zeen.ActivityEvent) error {
		return errors.New("queue down")
	})

	sink := zeen.MultiActivitySink(first, nil, failing, second)
	err := sink.Record(context.Background(), zeen.ActivityEvent{EventType: zeen.ActivityEventPostCreated})

	assert.Error(t, err)
	assert.Equal(t, []zeen.ActivityEventType{zeen.ActivityEventPostCreated}, first.types())
	assert.Equal(t, []zeen.ActivityEventType{zeen.ActivityEventPostCreated}, second.types())
}
