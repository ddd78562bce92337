package zeen

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Graph manages follow edges between users
type Graph struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

// FollowStats holds the edge counts for one user
type FollowStats struct {
	Followers int `json:"followers"`
	Followed  int `json:"followed"`
}

func NewGraph(repo RepositoryManager) *Graph {
	return &Graph{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithActivitySink sets the sink used to emit graph events.
func (g *Graph) WithActivitySink(sink ActivitySink) *Graph {
	g.activity = sink
	return g
}

// WithLogger overrides the logger used by the service.
func (g *Graph) WithLogger(logger Logger) *Graph {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Follow makes follower follow followed. Following twice is a no-op.
// Following yourself is allowed.
func (g *Graph) Follow(ctx context.Context, follower, followed *User) error {
	if err := g.check(follower, followed); err != nil {
		return err
	}

	var created bool
	err := g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		created, err = g.repo.Follows().FollowTx(ctx, tx, follower.ID, followed.ID)
		return err
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to follow user")
	}

	if created {
		g.record(ctx, ActivityEventFollow, follower, followed)
	}
	return nil
}

// Unfollow removes the edge if present
func (g *Graph) Unfollow(ctx context.Context, follower, followed *User) error {
	if err := g.check(follower, followed); err != nil {
		return err
	}

	var removed bool
	err := g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		removed, err = g.repo.Follows().UnfollowTx(ctx, tx, follower.ID, followed.ID)
		return err
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to unfollow user")
	}

	if removed {
		g.record(ctx, ActivityEventUnfollow, follower, followed)
	}
	return nil
}

// IsFollowing reports whether user follows other
func (g *Graph) IsFollowing(ctx context.Context, user, other *User) (bool, error) {
	if user == nil || other == nil {
		return false, nil
	}
	return g.repo.Follows().IsFollowing(ctx, user.ID, other.ID)
}

// IsFollowedBy reports whether other follows user
func (g *Graph) IsFollowedBy(ctx context.Context, user, other *User) (bool, error) {
	if user == nil || other == nil {
		return false, nil
	}
	return g.repo.Follows().IsFollowing(ctx, other.ID, user.ID)
}

func (g *Graph) Stats(ctx context.Context, user *User) (FollowStats, error) {
	var stats FollowStats
	if user == nil {
		return stats, nil
	}

	var err error
	if stats.Followers, err = g.repo.Follows().FollowersCount(ctx, user.ID); err != nil {
		return stats, err
	}
	if stats.Followed, err = g.repo.Follows().FollowedCount(ctx, user.ID); err != nil {
		return stats, err
	}
	return stats, nil
}

func (g *Graph) Followers(ctx context.Context, user *User, pagination Pagination) ([]*Follow, Pagination, error) {
	if user == nil {
		return nil, pagination, ErrUserRequired
	}
	return g.repo.Follows().Followers(ctx, user.ID, pagination)
}

func (g *Graph) Followed(ctx context.Context, user *User, pagination Pagination) ([]*Follow, Pagination, error) {
	if user == nil {
		return nil, pagination, ErrUserRequired
	}
	return g.repo.Follows().Followed(ctx, user.ID, pagination)
}

func (g *Graph) check(follower, followed *User) error {
	if follower == nil || followed == nil {
		return ErrUserRequired
	}
	return nil
}

func (g *Graph) record(ctx context.Context, eventType ActivityEventType, follower, followed *User) {
	record(ctx, g.activity, g.logger, ActivityEvent{
		EventType: eventType,
		ActorID:   follower.ID.String(),
		UserID:    followed.ID.String(),
	})
}
