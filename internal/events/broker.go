package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("events")

// Publisher publishes list item events to the owner's channel.
type Publisher interface {
	Publish(ctx context.Context, ownerID string, event Event) error
}

// Subscriber streams the events published for one owner. The returned
// channel is closed once the subscription ends; the close function ends it.
type Subscriber interface {
	Subscribe(ctx context.Context, ownerID string) (<-chan Event, func() error, error)
}

// RedisBroker implements Publisher and Subscriber on Redis Pub/Sub.
type RedisBroker struct {
	rdb *redis.Client
}

// NewRedisBroker creates a broker backed by rdb.
func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

// Publish sends event on the owner's channel.
func (b *RedisBroker) Publish(ctx context.Context, ownerID string, event Event) error {
	ctx, span := tracer.Start(ctx, "RedisBroker.Publish", trace.WithAttributes(
		attribute.String("event.type", event.Type),
		attribute.String("user.id", ownerID),
	))
	defer span.End()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.rdb.Publish(ctx, OwnerChannel(ownerID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

// Subscribe listens on the owner's channel. Messages that do not decode as
// an Event are logged and dropped.
func (b *RedisBroker) Subscribe(ctx context.Context, ownerID string) (<-chan Event, func() error, error) {
	pubsub := b.rdb.Subscribe(ctx, OwnerChannel(ownerID))

	// Wait for the subscription to be confirmed so no event published after
	// Subscribe returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to list item events: %w", err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.WarnContext(ctx, "Dropping malformed list item event", "user.id", ownerID, "error", err)
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, pubsub.Close, nil
}

// NopPublisher discards every event. It is used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Event) error { return nil }
