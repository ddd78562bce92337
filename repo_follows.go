package zeen

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Follows is the follow graph store. Edges are keyed by the ordered pair
// (follower, followed).
type Follows interface {
	FollowTx(ctx context.Context, tx bun.IDB, follower, followed uuid.UUID) (bool, error)
	UnfollowTx(ctx context.Context, tx bun.IDB, follower, followed uuid.UUID) (bool, error)

	IsFollowing(ctx context.Context, follower, followed uuid.UUID) (bool, error)
	IsFollowingTx(ctx context.Context, tx bun.IDB, follower, followed uuid.UUID) (bool, error)

	FollowersCount(ctx context.Context, user uuid.UUID) (int, error)
	FollowedCount(ctx context.Context, user uuid.UUID) (int, error)

	Followers(ctx context.Context, user uuid.UUID, pagination Pagination) ([]*Follow, Pagination, error)
	Followed(ctx context.Context, user uuid.UUID, pagination Pagination) ([]*Follow, Pagination, error)
}

type follows struct {
	db *bun.DB
}

var _ Follows = (*follows)(nil)

func NewFollowsRepository(db *bun.DB) Follows {
	return &follows{db: db}
}

// FollowTx inserts the edge, reporting false when it already existed
func (f *follows) FollowTx(ctx context.Context, tx bun.IDB, follower, followed uuid.UUID) (bool, error) {
	edge := &Follow{
		FollowerID: follower,
		FollowedID: followed,
		CreatedAt:  time.Now().UTC(),
	}

	res, err := tx.NewInsert().
		Model(edge).
		On("CONFLICT (follower_id, followed_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UnfollowTx deletes the edge, reporting false when there was none
func (f *follows) UnfollowTx(ctx context.Context, tx bun.IDB, follower, followed uuid.UUID) (bool, error) {
	res, err := tx.NewDelete().
		Model((*Follow)(nil)).
		Where("follower_id = ?", follower.String()).
		Where("followed_id = ?", followed.String()).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (f *follows) IsFollowing(ctx context.Context, follower, followed uuid.UUID) (bool, error) {
	return f.IsFollowingTx(ctx, f.db, follower, followed)
}

func (f *follows) IsFollowingTx(ctx context.Context, tx bun.IDB, follower, followed uuid.UUID) (bool, error) {
	if follower == uuid.Nil || followed == uuid.Nil {
		return false, nil
	}
	return tx.NewSelect().
		Model((*Follow)(nil)).
		Where("?TableAlias.follower_id = ?", follower.String()).
		Where("?TableAlias.followed_id = ?", followed.String()).
		Exists(ctx)
}

func (f *follows) FollowersCount(ctx context.Context, user uuid.UUID) (int, error) {
	return f.db.NewSelect().
		Model((*Follow)(nil)).
		Where("?TableAlias.followed_id = ?", user.String()).
		Count(ctx)
}

func (f *follows) FollowedCount(ctx context.Context, user uuid.UUID) (int, error) {
	return f.db.NewSelect().
		Model((*Follow)(nil)).
		Where("?TableAlias.follower_id = ?", user.String()).
		Count(ctx)
}

// Followers lists edges pointing at user, newest first, with Follower loaded
func (f *follows) Followers(ctx context.Context, user uuid.UUID, pagination Pagination) ([]*Follow, Pagination, error) {
	return f.page(ctx, "followed_id", "Follower", user, pagination)
}

// Followed lists edges leaving user, newest first, with Followed loaded
func (f *follows) Followed(ctx context.Context, user uuid.UUID, pagination Pagination) ([]*Follow, Pagination, error) {
	return f.page(ctx, "follower_id", "Followed", user, pagination)
}

func (f *follows) page(ctx context.Context, column, relation string, user uuid.UUID, pagination Pagination) ([]*Follow, Pagination, error) {
	total, err := f.db.NewSelect().
		Model((*Follow)(nil)).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), user.String()).
		Count(ctx)
	if err != nil {
		return nil, pagination, err
	}
	pagination.Total = total

	records := []*Follow{}
	err = f.db.NewSelect().
		Model(&records).
		Relation(relation).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), user.String()).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(pagination.PerPage).
		Offset(pagination.Offset()).
		Scan(ctx)
	if err != nil {
		return nil, pagination, err
	}

	return records, pagination, nil
}
