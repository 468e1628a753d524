package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisBroker relays events through redis pub/sub so every API instance sees them
type RedisBroker struct {
	client redis.UniversalClient
	logger *logrus.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewRedisBroker wraps an existing redis client
func NewRedisBroker(client redis.UniversalClient, logger *logrus.Logger) *RedisBroker {
	return &RedisBroker{client: client, logger: logger, done: make(chan struct{})}
}

// Publish encodes event as JSON and publishes it on channel
func (b *RedisBroker) Publish(ctx context.Context, channel string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.client.Publish(ctx, channel, string(payload)).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

// Subscribe subscribes to channel and decodes incoming messages.
// Messages that are not valid events are logged and skipped.
func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	select {
	case <-b.done:
		return nil, ErrBrokerClosed
	default:
	}

	pubsub := b.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Event, subscriberBuffer)

	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.done:
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.WithError(err).WithField("channel", msg.Channel).Warn("Dropping malformed realtime event")
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{C: out, channel: channel, cancel: cancel}, nil
}

// Close ends every subscription and closes the underlying redis client
func (b *RedisBroker) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		err = b.client.Close()
	})
	return err
}
