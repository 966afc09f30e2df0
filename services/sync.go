package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

// InvalidationBus fans mutation signals out to view refreshers. Every
// lifecycle or read-state transition invalidates both participants, since one
// row's change affects the receiver's Incoming, the sender's Sent and
// whoever's Deleted view.
//
// With a redis client the signal is also published, so refreshers on other
// instances pick it up; without one the bus is process-local.
type InvalidationBus struct {
	client *redis.Client

	mu   sync.Mutex
	subs map[uint][]chan struct{}
}

func NewInvalidationBus(client *redis.Client) *InvalidationBus {
	return &InvalidationBus{
		client: client,
		subs:   make(map[uint][]chan struct{}),
	}
}

func invalidationChannel(userID uint) string {
	return fmt.Sprintf("inbox:invalidate:%d", userID)
}

// Invalidate signals every subscriber of the given users. Non-blocking: a
// refresher that already has a pending signal does not need another.
func (b *InvalidationBus) Invalidate(ctx context.Context, userIDs ...uint) {
	b.mu.Lock()
	for _, id := range userIDs {
		for _, ch := range b.subs[id] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
	b.mu.Unlock()

	if b.client == nil {
		return
	}
	for _, id := range userIDs {
		if err := b.client.Publish(ctx, invalidationChannel(id), "1").Err(); err != nil {
			log.Printf("invalidation publish failed for user %d: %v", id, err)
		}
	}
}

// Subscribe returns a signal channel for one user's views and a cancel func.
func (b *InvalidationBus) Subscribe(ctx context.Context, userID uint) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	b.subs[userID] = append(b.subs[userID], ch)
	b.mu.Unlock()

	var pubsub *redis.PubSub
	if b.client != nil {
		pubsub = b.client.Subscribe(ctx, invalidationChannel(userID))
		go func() {
			for range pubsub.Channel() {
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}()
	}

	cancel := func() {
		if pubsub != nil {
			pubsub.Close()
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		channels := b.subs[userID]
		for i, c := range channels {
			if c == ch {
				b.subs[userID] = append(channels[:i], channels[i+1:]...)
				break
			}
		}
	}
	return ch, cancel
}

// ViewRefresher keeps one (actor, view) aggregate fresh: interval polling
// plus invalidation-triggered refetches, always a full recompute. Every fetch
// carries a monotonically increasing request id; a response that is no longer
// the latest issued request is discarded instead of applied, so a slow fetch
// can never overwrite a newer one with stale conversations.
type ViewRefresher struct {
	fetch    func(ctx context.Context) ([]*Conversation, error)
	interval time.Duration

	reqID  atomic.Uint64
	stored atomic.Uint64 // request id of the snapshot currently held

	mu     sync.RWMutex
	latest []*Conversation
}

func NewViewRefresher(interval time.Duration, fetch func(ctx context.Context) ([]*Conversation, error)) *ViewRefresher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ViewRefresher{fetch: fetch, interval: interval}
}

// Refresh runs one aggregation pass and returns the freshest snapshot it
// knows. If a newer request was issued while this one was in flight, the
// result is dropped and the newer snapshot (or the previous one) is returned.
func (r *ViewRefresher) Refresh(ctx context.Context) ([]*Conversation, error) {
	id := r.reqID.Add(1)

	conversations, err := r.fetch(ctx)
	if err != nil {
		// Read-side failures are retried silently on the next poll.
		return r.Latest(), err
	}

	r.mu.Lock()
	if id > r.stored.Load() && id == r.reqID.Load() {
		r.stored.Store(id)
		r.latest = conversations
	}
	snapshot := r.latest
	r.mu.Unlock()
	return snapshot, nil
}

// Latest returns the last applied snapshot without refetching.
func (r *ViewRefresher) Latest() []*Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Run polls until ctx is done, refreshing on the interval and on every
// invalidation signal.
func (r *ViewRefresher) Run(ctx context.Context, invalidations <-chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-invalidations:
		}
		if _, err := r.Refresh(ctx); err != nil {
			log.Printf("view refresh failed: %v", err)
		}
	}
}
