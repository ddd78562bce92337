package zeen

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ActivityEventType names what happened, prefixed by the area it happened in
type ActivityEventType string

const (
	ActivityEventRegistered     ActivityEventType = "account.registered"
	ActivityEventConfirmed      ActivityEventType = "account.confirmed"
	ActivityEventPasswordReset  ActivityEventType = "password.reset"
	ActivityEventEmailChanged   ActivityEventType = "email.changed"
	ActivityEventProfileUpdated ActivityEventType = "profile.updated"
	ActivityEventFollow         ActivityEventType = "graph.follow"
	ActivityEventUnfollow       ActivityEventType = "graph.unfollow"
	ActivityEventLoginSuccess   ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure   ActivityEventType = "auth.login.failure"
	ActivityEventPostCreated    ActivityEventType = "post.created"
	ActivityEventPostDeleted    ActivityEventType = "post.deleted"
)

// ActivityEvent is one entry of the audit trail
type ActivityEvent struct {
	EventType  ActivityEventType
	ActorID    string
	UserID     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink receives account, graph and blog events
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// MultiActivitySink records every event to each sink in turn. All sinks
// see the event even if an earlier one fails; the failures are joined.
func MultiActivitySink(sinks ...ActivitySink) ActivitySink {
	return ActivitySinkFunc(func(ctx context.Context, event ActivityEvent) error {
		var errs []error
		for _, sink := range sinks {
			if sink == nil {
				continue
			}
			if err := sink.Record(ctx, event); err != nil {
				errs = append(errs, err)
			}
		}
		return goerrors.Join(errs...)
	})
}

// LogActivitySink writes every event to a Logger
func LogActivitySink(logger Logger) ActivitySink {
	logger = normalizeLogger(logger)
	return ActivitySinkFunc(func(_ context.Context, event ActivityEvent) error {
		logger.Info("activity %s actor=%s user=%s meta=%v", event.EventType, event.ActorID, event.UserID, event.Metadata)
		return nil
	})
}

// record stamps and forwards event. Sink failures are logged, never returned.
func record(ctx context.Context, sink ActivitySink, logger Logger, event ActivityEvent) {
	if sink == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := sink.Record(ctx, event); err != nil {
		normalizeLogger(logger).Warn("failed to record activity %s: %v", event.EventType, err)
	}
}
