package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	first, cancelFirst := bus.Subscribe()
	second, cancelSecond := bus.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	bus.Publish(ImportStarted, "imports", ImportProgressData{RunID: "run-1", Total: 10})

	for _, ch := range []<-chan Event{first, second} {
		event := receive(t, ch)
		assert.Equal(t, ImportStarted, event.Type)
		assert.Equal(t, "imports", event.Source)
		assert.False(t, event.Timestamp.IsZero())

		data, ok := event.Data.(ImportProgressData)
		require.True(t, ok)
		assert.Equal(t, "run-1", data.RunID)
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()

	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Publishing after cancel must not panic or block.
	bus.Publish(RatesRefreshed, "scheduler", nil)

	// Double cancel is a no-op.
	cancel()
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	// Overfill the subscriber buffer; the publisher must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			bus.Publish(ImportProgress, "imports", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}

	// The buffered portion is still readable.
	event := receive(t, ch)
	assert.Equal(t, ImportProgress, event.Type)
}
