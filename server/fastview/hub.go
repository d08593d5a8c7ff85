package fastview

import (
	"context"
	"sync"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
)

// batch collects ele-updates by element id; a later update for an element replaces the
// earlier one, so only the latest values are sent. Flush returns updates in the order
// their elements were first seen.
type batch struct {
	order []string
	byId  map[string]EleUpdate
}

func newBatch() *batch {
	return &batch{byId: map[string]EleUpdate{}}
}

func (b *batch) add(updates []EleUpdate) {
	for _, update := range updates {
		if _, seen := b.byId[update.EleId]; !seen {
			b.order = append(b.order, update.EleId)
		}
		b.byId[update.EleId] = update
	}
}

func (b *batch) empty() bool {
	return len(b.order) == 0
}

func (b *batch) flush() []EleUpdate {
	updates := make([]EleUpdate, 0, len(b.order))
	for _, id := range b.order {
		updates = append(updates, b.byId[id])
	}
	b.order = nil
	b.byId = map[string]EleUpdate{}
	return updates
}

// Batchify forwards source in batches sent at most once per rate, overwriting
// previously received values for the same ele-id within a batch. A pending batch is
// flushed when source closes.
func Batchify(
	done <-chan struct{},
	source <-chan []EleUpdate,
	rate time.Duration,
) <-chan []EleUpdate {
	output := make(chan []EleUpdate)

	go func() {
		defer close(output)

		pending := newBatch()
		ticker := channerics.NewTicker(done, rate)
		send := func() bool {
			select {
			case output <- pending.flush():
				return true
			case <-done:
				return false
			}
		}

		for {
			select {
			case <-done:
				return
			case updates, ok := <-source:
				if !ok {
					if !pending.empty() {
						send()
					}
					return
				}
				pending.add(updates)
			case <-ticker:
				if !pending.empty() && !send() {
					return
				}
			}
		}
	}()

	return output
}

// Hub fans one ele-update stream out to any number of subscribers. Each subscriber
// accumulates its own pending batch, so a slow client never blocks the others and never
// misses an element's latest value. New subscribers start with the latest value of
// every element seen so far.
type Hub struct {
	mu     sync.Mutex
	latest *batch
	subs   map[*Subscription]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{
		latest: newBatch(),
		subs:   map[*Subscription]struct{}{},
	}
}

// Subscription is one subscriber's view of the hub.
type Subscription struct {
	mu      sync.Mutex
	pending *batch
	ready   chan struct{}
	done    chan struct{}
}

// Ready signals that Take has updates.
func (sub *Subscription) Ready() <-chan struct{} { return sub.ready }

// Done is closed when the hub stops; pending updates may still be taken.
func (sub *Subscription) Done() <-chan struct{} { return sub.done }

// Take returns and clears the pending updates.
func (sub *Subscription) Take() []EleUpdate {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.pending.empty() {
		return nil
	}
	return sub.pending.flush()
}

func (sub *Subscription) add(updates []EleUpdate) {
	sub.mu.Lock()
	sub.pending.add(updates)
	sub.mu.Unlock()
	select {
	case sub.ready <- struct{}{}:
	default:
	}
}

func (hub *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		pending: newBatch(),
		ready:   make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()
	if !hub.latest.empty() {
		sub.add(hub.snapshot())
	}
	if hub.closed {
		close(sub.done)
		return sub
	}
	hub.subs[sub] = struct{}{}
	return sub
}

func (hub *Hub) Unsubscribe(sub *Subscription) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	delete(hub.subs, sub)
}

// Subscribers returns the number of live subscriptions.
func (hub *Hub) Subscribers() int {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	return len(hub.subs)
}

// Publish hands updates to every subscriber.
func (hub *Hub) Publish(updates []EleUpdate) {
	if len(updates) == 0 {
		return
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.latest.add(updates)
	for sub := range hub.subs {
		sub.add(updates)
	}
}

// Run publishes source until it closes or ctx is done, then closes every subscription.
func (hub *Hub) Run(ctx context.Context, source <-chan []EleUpdate) {
	defer hub.close()
	for updates := range channerics.OrDone(ctx.Done(), source) {
		hub.Publish(updates)
	}
}

func (hub *Hub) close() {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.closed {
		return
	}
	hub.closed = true
	for sub := range hub.subs {
		close(sub.done)
	}
	hub.subs = map[*Subscription]struct{}{}
}

// snapshot copies the latest value of every element; hub.mu must be held.
func (hub *Hub) snapshot() []EleUpdate {
	updates := make([]EleUpdate, 0, len(hub.latest.order))
	for _, id := range hub.latest.order {
		updates = append(updates, hub.latest.byId[id])
	}
	return updates
}
