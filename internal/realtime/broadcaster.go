package realtime

import (
	"context"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Broadcaster fans out change notifications to connected feed subscribers.
// Notifications name the collections that changed; clients reload those
// snapshots. With a Redis client attached the channel is shared across
// instances, without one notifications stay process-local.
type Broadcaster struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger

	mu          sync.Mutex
	subscribers map[chan []string]struct{}
	closed      bool

	onSubscriberChange func(count int)
}

// NewBroadcaster constructs the broadcaster. client may be nil for
// single-instance deployments.
func NewBroadcaster(client *redis.Client, channel string, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		client:      client,
		channel:     channel,
		logger:      logger,
		subscribers: make(map[chan []string]struct{}),
	}
}

// OnSubscriberChange registers a callback observing the subscriber count.
func (b *Broadcaster) OnSubscriberChange(fn func(count int)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onSubscriberChange = fn
}

// Start consumes the shared Redis channel and fans messages out locally.
// It returns immediately; consumption ends when ctx is cancelled.
func (b *Broadcaster) Start(ctx context.Context) {
	if b.client == nil {
		return
	}
	sub := b.client.Subscribe(ctx, b.channel)
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.fanout(strings.Split(msg.Payload, ","))
			}
		}
	}()
}

// Publish notifies subscribers that the named collections changed. With
// Redis attached the notification goes through the shared channel so every
// instance sees it.
func (b *Broadcaster) Publish(ctx context.Context, collections ...string) {
	if len(collections) == 0 {
		return
	}
	if b.client != nil {
		payload := strings.Join(collections, ",")
		if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
			b.logger.Warn("failed to publish change notification", zap.Error(err))
			b.fanout(collections)
		}
		return
	}
	b.fanout(collections)
}

// Subscribe registers a feed subscriber. The returned cancel function must
// be called when the subscriber disconnects.
func (b *Broadcaster) Subscribe() (<-chan []string, func()) {
	ch := make(chan []string, 8)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subscribers[ch] = struct{}{}
	count := len(b.subscribers)
	notify := b.onSubscriberChange
	b.mu.Unlock()

	if notify != nil {
		notify(count)
	}

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		count := len(b.subscribers)
		notify := b.onSubscriberChange
		b.mu.Unlock()
		if notify != nil {
			notify(count)
		}
	}
	return ch, cancel
}

// Close drops every subscriber. Further publishes are no-ops locally.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, ch)
	}
}

func (b *Broadcaster) fanout(collections []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		select {
		case ch <- collections:
		default:
			// Slow subscriber; drop rather than block the publisher.
		}
	}
}
