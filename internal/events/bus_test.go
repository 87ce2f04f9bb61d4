package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_OfferSubscribe(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsubscribe := Subscribe[StatusChanged](b, 1)
	defer unsubscribe()

	assert.Zero(t, b.Offer(StatusChanged{Status: "success-process"}))

	select {
	case got := <-ch:
		assert.Equal(t, "success-process", got.Status)
	case <-time.After(250 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_InterfaceSubscriptionReceivesAllEvents(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsubscribe := Subscribe[Event](b, 2)
	defer unsubscribe()

	assert.Zero(t, b.Offer(BuildSkipped{Gate: "health"}))
	assert.Zero(t, b.Offer(CursorMoved{Line: 4}))

	assert.Equal(t, "skipped", (<-ch).EventName())
	assert.Equal(t, "cursor", (<-ch).EventName())
	assert.Equal(t, 1, SubscriberCount[Event](b))
}

func TestBus_OfferIgnoresNilAndOtherTypes(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsubscribe := Subscribe[StatusChanged](b, 1)
	defer unsubscribe()

	assert.Zero(t, b.Offer(nil))
	assert.Zero(t, b.Offer(BuildSkipped{Gate: "change"}))
	assert.Empty(t, ch)
	assert.Zero(t, b.Dropped())
}

func TestBus_OfferDropsForFullSubscribers(t *testing.T) {
	b := NewBus()
	defer b.Close()

	fast, unsubFast := Subscribe[StatusChanged](b, 4)
	defer unsubFast()
	_, unsubSlow := Subscribe[StatusChanged](b, 0)
	defer unsubSlow()

	assert.Equal(t, 1, b.Offer(StatusChanged{Status: "error-yaml"}))
	assert.Equal(t, uint64(1), b.Dropped())
	assert.Equal(t, "error-yaml", (<-fast).Status)

	var nilBus *Bus
	assert.Zero(t, nilBus.Offer(StatusChanged{}))
}

func TestBus_Close(t *testing.T) {
	b := NewBus()

	ch, _ := Subscribe[StatusChanged](b, 1)
	b.Close()

	_, ok := <-ch
	require.False(t, ok)
	assert.Zero(t, b.Offer(StatusChanged{}))
	assert.Zero(t, b.Dropped())

	late, _ := Subscribe[StatusChanged](b, 1)
	_, ok = <-late
	assert.False(t, ok)
}

func TestBus_CloseAfterPublishersStop(t *testing.T) {
	b := NewBus()
	ch, _ := Subscribe[StatusChanged](b, 256)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 32 {
				b.Offer(StatusChanged{Status: "success-process"})
			}
		}()
	}
	wg.Wait()
	b.Close()

	n := 0
	for range ch {
		n++
	}
	assert.Equal(t, 128, n)
	assert.Zero(t, b.Dropped())
}
