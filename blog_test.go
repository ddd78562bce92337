package zeen_test

import (
	"strings"
	"testing"

	"github.com/goliatone/go-zeen"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlog_CreatePost(t *testing.T) {
	f := newFixture(t)
	sink := &capturingSink{}
	blog := zeen.NewBlog(f.repo).WithLogger(silentLogger{}).WithActivitySink(sink)

	u := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)

	post, err := blog.CreatePost(f.ctx, u, "  hello **world**  ")
	require.NoError(t, err)
	assert.Equal(t, "hello **world**", post.Body)
	assert.Contains(t, post.BodyHTML, "<strong>world</strong>")
	assert.Equal(t, u.ID, post.AuthorID)
	assert.Equal(t, []zeen.ActivityEventType{zeen.ActivityEventPostCreated}, sink.types())

	posts, page, err := blog.ListByAuthor(f.ctx, u, zeen.NewPagination(1, 0, zeen.DefaultPostsPerPage))
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, 1, page.Total)
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, "john", posts[0].Author.Username)
}

func TestBlog_CreatePostValidation(t *testing.T) {
	f := newFixture(t)
	blog := zeen.NewBlog(f.repo).WithLogger(silentLogger{})
	u := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)

	_, err := blog.CreatePost(f.ctx, u, "   ")
	assert.Error(t, err)

	_, err = blog.CreatePost(f.ctx, u, strings.Repeat("a", zeen.MaxPostLength+1))
	assert.Error(t, err)
}

func TestBlog_CreatePostRequiresWriteContent(t *testing.T) {
	f := newFixture(t)
	blog := zeen.NewBlog(f.repo).WithLogger(silentLogger{})

	defs := append([]zeen.RoleDefinition{}, zeen.DefaultRoles...)
	defs = append(defs, zeen.RoleDefinition{Name: "Reader", Permissions: zeen.PermissionFollow})
	require.NoError(t, f.repo.Roles().InsertRolesTx(f.ctx, f.repo.DB(), defs))
	reader := f.user(t, "reader@example.com", "reader", "cat", "Reader")

	_, err := blog.CreatePost(f.ctx, reader, "hello")
	assert.ErrorIs(t, err, zeen.ErrForbidden)

	_, err = blog.CreatePost(f.ctx, nil, "hello")
	assert.ErrorIs(t, err, zeen.ErrForbidden)
}

func TestBlog_DeletePost(t *testing.T) {
	f := newFixture(t)
	blog := zeen.NewBlog(f.repo).WithLogger(silentLogger{})

	author := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)
	other := f.user(t, "susan@example.org", "susan", "dog", zeen.RoleUser)
	mod := f.user(t, "mod@example.com", "mod", "fish", zeen.RoleModerator)

	p1, err := blog.CreatePost(f.ctx, author, "first")
	require.NoError(t, err)
	p2, err := blog.CreatePost(f.ctx, author, "second")
	require.NoError(t, err)

	assert.ErrorIs(t, blog.DeletePost(f.ctx, other, p1.ID), zeen.ErrForbidden)
	assert.NoError(t, blog.DeletePost(f.ctx, author, p1.ID))
	assert.NoError(t, blog.DeletePost(f.ctx, mod, p2.ID))

	err = blog.DeletePost(f.ctx, author, uuid.New())
	assert.Error(t, err)
	assert.Equal(t, 404, zeen.StatusFromError(err))
}

func TestBlog_Timeline(t *testing.T) {
	f := newFixture(t)
	blog := zeen.NewBlog(f.repo).WithLogger(silentLogger{})
	graph := zeen.NewGraph(f.repo).WithLogger(silentLogger{})

	john := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)
	susan := f.user(t, "susan@example.org", "susan", "dog", zeen.RoleUser)
	david := f.user(t, "david@example.net", "david", "fish", zeen.RoleUser)

	_, err := blog.CreatePost(f.ctx, john, "by john")
	require.NoError(t, err)
	_, err = blog.CreatePost(f.ctx, susan, "by susan")
	require.NoError(t, err)
	_, err = blog.CreatePost(f.ctx, david, "by david")
	require.NoError(t, err)

	require.NoError(t, graph.Follow(f.ctx, john, susan))

	posts, page, err := blog.Timeline(f.ctx, john, zeen.NewPagination(1, 0, zeen.DefaultPostsPerPage))
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	bodies := make([]string, 0, len(posts))
	for _, p := range posts {
		bodies = append(bodies, p.Body)
	}
	assert.ElementsMatch(t, []string{"by john", "by susan"}, bodies)

	posts, _, err = blog.Timeline(f.ctx, david, zeen.NewPagination(1, 0, zeen.DefaultPostsPerPage))
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "by david", posts[0].Body)
}

func TestUsers_RemoveDeletesPosts(t *testing.T) {
	f := newFixture(t)
	blog := zeen.NewBlog(f.repo).WithLogger(silentLogger{})
	u := f.user(t, "john@example.com", "john", "cat", zeen.RoleUser)

	_, err := blog.CreatePost(f.ctx, u, "hello")
	require.NoError(t, err)

	require.NoError(t, f.repo.Users().Remove(f.ctx, u.ID))

	count, err := f.repo.DB().NewSelect().Model((*zeen.Post)(nil)).Count(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestBlog_ListingsRequireUser(t *testing.T) {
	f := newFixture(t)
	blog := zeen.NewBlog(f.repo).WithLogger(silentLogger{})
	page := zeen.NewPagination(1, 0, zeen.DefaultPostsPerPage)

	_, _, err := blog.Timeline(f.ctx, nil, page)
	assert.ErrorIs(t, err, zeen.ErrUserRequired)
	assert.Equal(t, 400, zeen.StatusFromError(err))

	_, _, err = blog.ListByAuthor(f.ctx, nil, page)
	assert.ErrorIs(t, err, zeen.ErrUserRequired)
}
