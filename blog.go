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

const MaxPostLength = 10000

// Blog publishes and lists posts
type Blog struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

func NewBlog(repo RepositoryManager) *Blog {
	return &Blog{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithActivitySink sets the sink used to emit post events.
func (b *Blog) WithActivitySink(sink ActivitySink) *Blog {
	b.activity = sink
	return b
}

// WithLogger overrides the logger used by the service.
func (b *Blog) WithLogger(logger Logger) *Blog {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// CreatePost stores a new post for author, who needs WRITE_CONTENT
func (b *Blog) CreatePost(ctx context.Context, author *User, body string) (*Post, error) {
	if author == nil {
		return nil, ErrForbidden
	}

	var post *Post
	err := WithPermission(author, PermissionWriteContent, func() error {
		body = strings.TrimSpace(body)
		if err := validation.Validate(body,
			validation.Required.Error("post body is required"),
			validation.Length(1, MaxPostLength),
		); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid post")
		}

		post = &Post{
			ID:        uuid.New(),
			Body:      body,
			BodyHTML:  RenderMarkdown(body),
			AuthorID:  author.ID,
			CreatedAt: time.Now().UTC(),
		}

		return b.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			_, err := b.repo.Posts().InsertTx(ctx, tx, post)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	post.Author = author
	record(ctx, b.activity, b.logger, ActivityEvent{
		EventType: ActivityEventPostCreated,
		ActorID:   author.ID.String(),
		UserID:    author.ID.String(),
		Metadata:  map[string]any{"post_id": post.ID.String()},
	})

	return post, nil
}

// DeletePost removes a post. Only its author or a moderator may do so.
func (b *Blog) DeletePost(ctx context.Context, actor *User, id uuid.UUID) error {
	if actor == nil {
		return ErrForbidden
	}

	err := b.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		post, err := b.repo.Posts().FindTx(ctx, tx, id)
		if err != nil {
			return err
		}

		if post.AuthorID != actor.ID && !actor.Can(PermissionModerateComments) {
			return ErrForbidden
		}

		return b.repo.Posts().RemoveTx(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	record(ctx, b.activity, b.logger, ActivityEvent{
		EventType: ActivityEventPostDeleted,
		ActorID:   actor.ID.String(),
		Metadata:  map[string]any{"post_id": id.String()},
	})
	return nil
}

func (b *Blog) ListByAuthor(ctx context.Context, author *User, pagination Pagination) ([]*Post, Pagination, error) {
	if author == nil {
		return nil, pagination, ErrUserRequired
	}
	return b.repo.Posts().ListByAuthor(ctx, author.ID, pagination)
}

// Timeline lists posts by user and everyone user follows
func (b *Blog) Timeline(ctx context.Context, user *User, pagination Pagination) ([]*Post, Pagination, error) {
	if user == nil {
		return nil, pagination, ErrUserRequired
	}
	return b.repo.Posts().Timeline(ctx, user.ID, pagination)
}
