package zeen

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Posts is the post store
type Posts interface {
	repository.Repository[*Post]

	InsertTx(ctx context.Context, tx bun.IDB, post *Post) (*Post, error)
	FindTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Post, error)
	RemoveTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	ListByAuthor(ctx context.Context, author uuid.UUID, pagination Pagination) ([]*Post, Pagination, error)
	Timeline(ctx context.Context, user uuid.UUID, pagination Pagination) ([]*Post, Pagination, error)
}

type posts struct {
	repository.Repository[*Post]
	db *bun.DB
}

var _ Posts = (*posts)(nil)

func NewPostsRepository(db *bun.DB) Posts {
	repo := repository.NewRepository[*Post](db, repository.ModelHandlers[*Post]{
		NewRecord: func() *Post { return &Post{} },
		GetID: func(p *Post) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Post, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &posts{
		Repository: repo,
		db:         db,
	}
}

func (p *posts) InsertTx(ctx context.Context, tx bun.IDB, post *Post) (*Post, error) {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	if _, err := tx.NewInsert().Model(post).Exec(ctx); err != nil {
		return nil, err
	}
	return post, nil
}

func (p *posts) FindTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Post, error) {
	record := &Post{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}
	return record, nil
}

func (p *posts) RemoveTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewDelete().
		Model((*Post)(nil)).
		Where("id = ?", id.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}
	return nil
}

// ListByAuthor returns the author's posts, newest first
func (p *posts) ListByAuthor(ctx context.Context, author uuid.UUID, pagination Pagination) ([]*Post, Pagination, error) {
	return p.page(ctx, pagination, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.author_id = ?", author.String())
	})
}

// Timeline returns posts written by user or by anyone user follows
func (p *posts) Timeline(ctx context.Context, user uuid.UUID, pagination Pagination) ([]*Post, Pagination, error) {
	// no model on the subquery, ?TableAlias inside it would resolve to follows
	followed := p.db.NewSelect().
		TableExpr("follows").
		Column("followed_id").
		Where("follower_id = ?", user.String())

	return p.page(ctx, pagination, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("pst.author_id = ?", user.String()).
				WhereOr("pst.author_id IN (?)", followed)
		})
	})
}

func (p *posts) page(ctx context.Context, pagination Pagination, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]*Post, Pagination, error) {
	total, err := p.db.NewSelect().
		Model((*Post)(nil)).
		Apply(filter).
		Count(ctx)
	if err != nil {
		return nil, pagination, err
	}
	pagination.Total = total

	records := []*Post{}
	err = p.db.NewSelect().
		Model(&records).
		Relation("Author").
		Apply(filter).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(pagination.PerPage).
		Offset(pagination.Offset()).
		Scan(ctx)
	if err != nil {
		return nil, pagination, err
	}

	return records, pagination, nil
}
