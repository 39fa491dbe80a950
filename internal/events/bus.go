package events

import "sync"

// EventKind represents the type of domain event produced by the services.
type EventKind string

const (
	EventInsightCreated EventKind = "insight_created"
	EventInsightDeleted EventKind = "insight_deleted"
	EventMoodLogged     EventKind = "mood_logged"
)

// Event is a refresh hint for interested clients. It carries no record
// content, only enough coarse metadata to decide whether to re-fetch.
type Event struct {
	Kind        EventKind `json:"kind"`
	UserID      string    `json:"userId"`
	WindowStart string    `json:"windowStart,omitempty"`
	WindowEnd   string    `json:"windowEnd,omitempty"`
}

// Bus is a lightweight in-process pub-sub implementation. Each subscriber
// gets its own buffered channel; a full buffer drops the hint rather than
// blocking the publisher.
type Bus struct {
	mu     sync.Mutex
	buffer int
	subs   map[int]chan Event
	nextID int
}

// NewBus creates a bus whose subscriber channels hold buffer events.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 1
	}
	return &Bus{buffer: buffer, subs: make(map[int]chan Event)}
}

// Publish delivers the event to every subscriber without blocking.
// Returns the number of subscribers that received it.
func (b *Bus) Publish(evt Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- evt:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribe registers a new consumer. The returned cancel func must be called
// when the consumer goes away; it closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.buffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}
