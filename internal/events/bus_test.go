package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := NewBus(4)
	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel1()
	defer cancel2()

	n := b.Publish(Event{Kind: EventInsightCreated, UserID: "u1"})
	assert.Equal(t, 2, n)

	evt := <-ch1
	assert.Equal(t, EventInsightCreated, evt.Kind)
	evt = <-ch2
	assert.Equal(t, "u1", evt.UserID)
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	b := NewBus(1)
	_, cancel := b.Subscribe()
	defer cancel()

	assert.Equal(t, 1, b.Publish(Event{Kind: EventMoodLogged, UserID: "u1"}))
	// Buffer is full now; the hint is dropped, not blocked on.
	assert.Equal(t, 0, b.Publish(Event{Kind: EventMoodLogged, UserID: "u1"}))
}

func TestCancelClosesChannel(t *testing.T) {
	b := NewBus(1)
	ch, cancel := b.Subscribe()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	// cancelling twice is safe
	cancel()
	assert.Equal(t, 0, b.Publish(Event{Kind: EventInsightDeleted, UserID: "u1"}))
}
