package session

import (
	"sync"
	"time"
)

// Reasons attached to auth-state events.
const (
	ReasonSignedIn        = "signed_in"
	ReasonSignedOut       = "signed_out"
	ReasonPasswordUpdated = "password_updated"
	ReasonAccountDeleted  = "account_deleted"
)

// Event describes a change to a user's authentication state. It is the
// payload streamed to watching clients.
type Event struct {
	Authenticated bool      `json:"authenticated"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewEvent stamps an event with the current time.
func NewEvent(authenticated bool, reason string) Event {
	return Event{
		Authenticated: authenticated,
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	}
}

// subscriberBuffer is how many undelivered events a subscriber may lag
// behind before further events are dropped for it.
const subscriberBuffer = 8

// Broadcaster fans auth-state events out to the subscribers of a user. It is
// strictly in-process: every API instance only needs to notify the watch
// streams it is itself serving.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int64]map[chan Event]struct{}
	closed bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[int64]map[chan Event]struct{}),
	}
}

// Subscribe registers for the given user's events. The returned cancel
// function must be called when the subscriber is done; it closes the channel.
// Subscribing on a closed broadcaster yields an already-closed channel.
func (b *Broadcaster) Subscribe(userID int64) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}

	set, ok := b.subs[userID]
	if !ok {
		set = make(map[chan Event]struct{})
		b.subs[userID] = set
	}
	set[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if set, ok := b.subs[userID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(b.subs, userID)
				}
			}
			closed := b.closed
			b.mu.Unlock()

			// When the broadcaster shut down first, Close already closed ch.
			if !closed {
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber of userID. Delivery never
// blocks: a subscriber whose buffer is full misses the event.
func (b *Broadcaster) Publish(userID int64, event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for ch := range b.subs[userID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers reports the number of active subscriptions across all users.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, set := range b.subs {
		n += len(set)
	}
	return n
}

// Close shuts the broadcaster down and closes every subscriber channel so
// watch streams end. Publish and Subscribe become no-ops afterwards.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, set := range b.subs {
		for ch := range set {
			close(ch)
		}
	}
	b.subs = nil
}
