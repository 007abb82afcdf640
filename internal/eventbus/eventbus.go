// Package eventbus provides the non-blocking fan-out bus the engine
// publishes domain events on. Subscribers that fall behind lose events
// rather than stalling the publisher.
package eventbus

import "sync"

// Event is any value published on the bus; the concrete types live in
// core/events.
type Event any

// EventBus is the publish/subscribe contract used by the engine and the
// service wiring.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus is the default EventBus backed by buffered channels.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	ids    map[<-chan Event]int
	closed bool
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[int]chan Event), ids: make(map[<-chan Event]int)}
}

// Publish delivers the event to every subscriber without blocking; a full
// subscriber buffer drops the event for that subscriber.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a subscriber and returns its receive channel.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.nextID++
	b.subs[b.nextID] = ch
	b.ids[ch] = b.nextID
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.ids[sub]
	if !ok {
		return
	}
	ch := b.subs[id]
	delete(b.subs, id)
	delete(b.ids, sub)
	if !b.closed {
		close(ch)
	}
}

// Close closes every subscriber channel and rejects further publishes.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.ids = nil
}
