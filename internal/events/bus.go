// Package events is the in-process notification bus between the preview
// controller and its observers (SSE clients, build history, metrics).
package events

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// Bus delivers typed events to subscribers.
//
// Offer never waits and drops the event for subscribers whose buffer is
// full, so a slow observer cannot stall the controller loop. Observers that
// must not lose events size their buffer for it and subscribe before the
// first publisher starts.
type Bus struct {
	mu        sync.RWMutex
	subs      map[reflect.Type]map[uint64]*subscriber
	nextID    atomic.Uint64
	isClosed  atomic.Bool
	closeOnce sync.Once
	dropped   atomic.Uint64
}

type subscriber struct {
	send  func(evt any) bool
	close func()
}

func NewBus() *Bus {
	return &Bus{subs: make(map[reflect.Type]map[uint64]*subscriber)}
}

// Subscribe registers a subscription for events of type T.
//
// If T is an interface, events whose concrete type implements T are delivered.
func Subscribe[T any](b *Bus, buffer int) (<-chan T, func()) {
	eventType := reflect.TypeFor[T]()
	ch := make(chan T, buffer)

	if b.isClosed.Load() {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID.Add(1)

	var closeOnce sync.Once
	closeChannel := func() { closeOnce.Do(func() { close(ch) }) }

	var unsubOnce sync.Once
	unsubscribe := func() {
		unsubOnce.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if typeSubs, ok := b.subs[eventType]; ok {
				delete(typeSubs, id)
				if len(typeSubs) == 0 {
					delete(b.subs, eventType)
				}
			}
			closeChannel()
		})
	}

	sub := &subscriber{
		send: func(evt any) bool {
			v, ok := evt.(T)
			if !ok {
				return false
			}
			select {
			case ch <- v:
				return true
			default:
				return false
			}
		},
		close: closeChannel,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isClosed.Load() {
		closeChannel()
		return ch, func() {}
	}
	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[uint64]*subscriber)
	}
	b.subs[eventType][id] = sub

	return ch, unsubscribe
}

// SubscriberCount returns the number of active subscribers for events of type T.
func SubscriberCount[T any](b *Bus) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[reflect.TypeFor[T]()])
}

// Offer delivers evt to every subscriber with buffer room and reports how
// many subscribers missed it. A nil or closed bus drops silently.
func (b *Bus) Offer(evt any) int {
	if b == nil || b.isClosed.Load() {
		return 0
	}
	return b.deliver(evt)
}

// Dropped is the total number of deliveries lost by Offer.
func (b *Bus) Dropped() uint64 {
	if b == nil {
		return 0
	}
	return b.dropped.Load()
}

func (b *Bus) deliver(evt any) int {
	if evt == nil {
		return 0
	}

	evtType := reflect.TypeOf(evt)

	b.mu.RLock()
	var targets []*subscriber
	for subType, typeSubs := range b.subs {
		match := subType == evtType
		if !match && subType.Kind() == reflect.Interface {
			match = evtType.Implements(subType)
		}
		if !match {
			continue
		}
		for _, s := range typeSubs {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	missed := 0
	for _, s := range targets {
		if !s.send(evt) {
			missed++
		}
	}
	if missed > 0 {
		b.dropped.Add(uint64(missed))
	}
	return missed
}

// Close closes the bus and all subscription channels. It must only be called
// once every publisher has stopped: an Offer racing Close may send on a
// channel Close is closing. The preview command closes the bus after its
// errgroup has returned.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.isClosed.Store(true)

		b.mu.Lock()
		var toClose []*subscriber
		for _, typeSubs := range b.subs {
			for _, s := range typeSubs {
				toClose = append(toClose, s)
			}
		}
		b.subs = make(map[reflect.Type]map[uint64]*subscriber)
		b.mu.Unlock()

		for _, s := range toClose {
			s.close()
		}
	})
}
