// Package activitymap flattens zeen activity events into a transport
// neutral record for feeds, audit tables or queues.
package activitymap

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-zeen"
)

const (
	ChannelAccounts = "accounts"
	ChannelSocial   = "social"
	ChannelBlog     = "blog"

	ObjectUser = "user"
	ObjectPost = "post"

	// MetadataKeyPostID is where post events carry the post id
	MetadataKeyPostID = "post_id"
)

const defaultActorID = "system"

// Normalized is the flattened activity record
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization
type Option func(*normalizeOptions)

type normalizeOptions struct {
	actorFallback string
	channels      map[string]string
}

// Normalize converts a zeen.ActivityEvent. The channel and object are
// derived from the event type prefix: graph events belong to the social
// channel, post events to the blog channel and everything else to
// accounts.
func Normalize(event zeen.ActivityEvent, opts ...Option) Normalized {
	options := normalizeOptions{actorFallback: defaultActorID}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	verb := string(event.EventType)
	prefix := verb
	if i := strings.Index(verb, "."); i >= 0 {
		prefix = verb[:i]
	}

	out := Normalized{
		ActorID:    firstNonEmpty(strings.TrimSpace(event.ActorID), strings.TrimSpace(event.UserID), options.actorFallback),
		Verb:       verb,
		ObjectType: ObjectUser,
		ObjectID:   strings.TrimSpace(event.UserID),
		Channel:    ChannelAccounts,
		Metadata:   cloneMap(event.Metadata),
		OccurredAt: event.OccurredAt,
	}

	switch prefix {
	case "graph":
		out.Channel = ChannelSocial
	case "post":
		out.Channel = ChannelBlog
		out.ObjectType = ObjectPost
		if id, ok := event.Metadata[MetadataKeyPostID].(string); ok {
			out.ObjectID = id
		}
	}

	if channel, ok := options.channels[prefix]; ok {
		out.Channel = channel
	}

	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now().UTC()
	}

	return out
}

// WithChannel routes events whose type starts with prefix to channel
func WithChannel(prefix, channel string) Option {
	return func(opts *normalizeOptions) {
		if opts.channels == nil {
			opts.channels = map[string]string{}
		}
		opts.channels[strings.TrimSpace(prefix)] = strings.TrimSpace(channel)
	}
}

// WithActorFallback sets the actor id used when the event has none
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

// Sink adapts fn into a zeen.ActivitySink that receives normalized records
func Sink(fn func(context.Context, Normalized) error, opts ...Option) zeen.ActivitySink {
	return zeen.ActivitySinkFunc(func(ctx context.Context, event zeen.ActivityEvent) error {
		return fn(ctx, Normalize(event, opts...))
	})
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
