package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	a := bus.Subscribe()
	b := bus.Subscribe()
	assert.Equal(t, 2, bus.Subscribers())

	ev := Event{Resource: ResourceLegend, Action: ActionUpdated, ID: "risk"}
	bus.Publish(ev)
	assert.Equal(t, ev, <-a)
	assert.Equal(t, ev, <-b)

	bus.Unsubscribe(a)
	bus.Unsubscribe(a)
	assert.Equal(t, 1, bus.Subscribers())
	_, open := <-a
	assert.False(t, open)

	bus.Publish(ev)
	assert.Equal(t, ev, <-b)
}

func TestEventBus_slowSubscriber(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe()

	for i := 0; i < 100; i++ {
		bus.Publish(Event{Resource: ResourcePointer, Action: ActionMoved})
	}
	require.Len(t, ch, cap(ch), "publish drops instead of blocking")
}
