package events

import (
	"sync"
	"time"
)

// DefaultHistoryLimit bounds the events a MemoryBus keeps for History.
const DefaultHistoryLimit = 4096

// EventBus provides publish/subscribe for run events.
type EventBus interface {
	Publish(event Event)
	Subscribe(filter ...EventType) <-chan Event
	Unsubscribe(ch <-chan Event)
	History(since time.Time) []Event
}

type subscriber struct {
	ch     chan Event
	filter map[EventType]bool // empty means all events
}

// MemoryBus is an in-memory implementation of EventBus.
type MemoryBus struct {
	mu          sync.RWMutex
	subscribers []subscriber
	history     []Event
	limit       int
}

// NewMemoryBus creates a new in-memory event bus that keeps at most limit
// events of history. A limit <= 0 uses DefaultHistoryLimit.
func NewMemoryBus(limit int) *MemoryBus {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &MemoryBus{
		history: make([]Event, 0, min(limit, 256)),
		limit:   limit,
	}
}

// Publish records event and delivers it to matching subscribers. Slow
// subscribers miss events rather than block the publisher.
func (b *MemoryBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.Lock()
	b.history = append(b.history, event)
	if over := len(b.history) - b.limit; over > 0 {
		b.history = append(b.history[:0], b.history[over:]...)
	}
	b.mu.Unlock()

	// Sends happen under the read lock so Unsubscribe cannot close a channel
	// mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers {
		if len(sub.filter) > 0 && !sub.filter[event.Type] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Slow subscriber; drop.
		}
	}
}

// Subscribe returns a channel of events of the given types, or of all
// types when filter is empty.
func (b *MemoryBus) Subscribe(filter ...EventType) <-chan Event {
	ch := make(chan Event, 64)
	sub := subscriber{ch: ch}
	if len(filter) > 0 {
		sub.filter = make(map[EventType]bool, len(filter))
		for _, f := range filter {
			sub.filter[f] = true
		}
	}

	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	b.mu.Unlock()

	return ch
}

// Unsubscribe removes and closes a subscription.
func (b *MemoryBus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub.ch == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// History returns recorded events at or after since, oldest first.
func (b *MemoryBus) History(since time.Time) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []Event
	for _, e := range b.history {
		if !e.Timestamp.Before(since) {
			result = append(result, e)
		}
	}
	return result
}

// Nop is an EventBus that discards everything.
type Nop struct{}

func (Nop) Publish(Event)                       {}
func (Nop) Subscribe(...EventType) <-chan Event { return nil }
func (Nop) Unsubscribe(<-chan Event)            {}
func (Nop) History(time.Time) []Event           { return nil }
