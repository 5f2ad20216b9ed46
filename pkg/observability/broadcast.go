package observability

import (
	"context"
	"sync"

	"github.com/aretw0/blocks/pkg/domain"
)

// Broadcaster fans mutation and persistence events out to subscribers.
// Slow subscribers drop events rather than block the session.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan any]string
	buffer int
}

// NewBroadcaster creates a broadcaster whose subscriber channels hold
// buffer events.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broadcaster{
		subs:   make(map[chan any]string),
		buffer: buffer,
	}
}

// Subscribe returns a channel of events for pageID (every page when empty).
// The channel closes when ctx is done.
func (b *Broadcaster) Subscribe(ctx context.Context, pageID string) <-chan any {
	ch := make(chan any, b.buffer)
	b.mu.Lock()
	b.subs[ch] = pageID
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

// Subscribers returns the number of live subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Hooks returns lifecycle hooks that publish every event.
func (b *Broadcaster) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMutation: func(ctx context.Context, e *domain.MutationEvent) {
			b.publish(e.PageID, e)
		},
		OnPersist: func(ctx context.Context, e *domain.PersistEvent) {
			b.publish(e.PageID, e)
		},
	}
}

func (b *Broadcaster) publish(pageID string, event any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch, filter := range b.subs {
		if filter != "" && filter != pageID {
			continue
		}
		select {
		case ch <- event:
		default:
		}
	}
}
