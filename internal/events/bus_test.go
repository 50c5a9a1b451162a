package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyphene/recs-contract/internal/domain"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus(4)

	ch1, cancel1 := bus.Subscribe()
	defer cancel1()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	bus.Publish(domain.Redeemed{Account: "acct", TokenID: 0, Amount: 5})

	for _, ch := range []<-chan domain.Event{ch1, ch2} {
		select {
		case got := <-ch:
			redeemed, ok := got.(domain.Redeemed)
			require.True(t, ok)
			assert.Equal(t, uint64(5), redeemed.Amount)
		default:
			t.Fatal("expected event on subscriber channel")
		}
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus(1)

	_, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(domain.Redeemed{Amount: 1})
	bus.Publish(domain.Redeemed{Amount: 2})

	assert.Equal(t, uint64(1), bus.Dropped())
}

func TestBusCancelStopsDelivery(t *testing.T) {
	bus := NewBus(4)

	ch, cancel := bus.Subscribe()
	cancel()

	// Publishing after cancel must not panic.
	bus.Publish(domain.Redeemed{Amount: 1})

	_, open := <-ch
	assert.False(t, open)
}

func TestRecorderDrain(t *testing.T) {
	rec := &Recorder{}
	rec.Publish(domain.Redeemed{Amount: 1})
	rec.Publish(domain.Redeemed{Amount: 2})

	drained := rec.Drain()
	require.Len(t, drained, 2)
	assert.Empty(t, rec.Events())
}
