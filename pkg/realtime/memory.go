package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrBrokerClosed is returned after Close
	ErrBrokerClosed = errors.New("broker is closed")
	// ErrSubscriberBehind is returned when a subscriber's buffer was full and it missed the event
	ErrSubscriberBehind = errors.New("subscriber buffer is full, event dropped")
)

const subscriberBuffer = 16

type memorySubscriber struct {
	ch   chan Event
	once sync.Once
}

// MemoryBroker is an in-process broker for single-instance deployments and tests
type MemoryBroker struct {
	mu     sync.RWMutex
	rooms  map[string]map[*memorySubscriber]struct{}
	closed bool
}

// NewMemoryBroker creates an empty in-process broker
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{rooms: make(map[string]map[*memorySubscriber]struct{})}
}

// Publish delivers event to every current subscriber of channel.
// A subscriber whose buffer is full misses the event and Publish reports ErrSubscriberBehind;
// the other subscribers still receive it.
func (b *MemoryBroker) Publish(ctx context.Context, channel string, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBrokerClosed
	}
	dropped := 0
	for sub := range b.rooms[channel] {
		select {
		case sub.ch <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		return fmt.Errorf("%w: %d subscriber(s) of %s", ErrSubscriberBehind, dropped, channel)
	}
	return nil
}

// Subscribe joins channel
func (b *MemoryBroker) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBrokerClosed
	}

	sub := &memorySubscriber{ch: make(chan Event, subscriberBuffer)}
	room, ok := b.rooms[channel]
	if !ok {
		room = make(map[*memorySubscriber]struct{})
		b.rooms[channel] = room
	}
	room[sub] = struct{}{}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-ctx.Done()
		b.leave(channel, sub)
	}()

	return &Subscription{C: sub.ch, channel: channel, cancel: cancel}, nil
}

func (b *MemoryBroker) leave(channel string, sub *memorySubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if room, ok := b.rooms[channel]; ok {
		delete(room, sub)
		if len(room) == 0 {
			delete(b.rooms, channel)
		}
	}
	sub.once.Do(func() { close(sub.ch) })
}

// SubscriberCount returns the number of live subscribers of channel
func (b *MemoryBroker) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms[channel])
}

// Close disconnects every subscriber
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for channel, room := range b.rooms {
		for sub := range room {
			sub.once.Do(func() { close(sub.ch) })
		}
		delete(b.rooms, channel)
	}
	return nil
}
