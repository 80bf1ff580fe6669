// Package events fans daemon state changes out to stream subscribers.
package events

import (
	"sync"
	"time"

	"github.com/rbright/heosctl/internal/device"
)

// Kind names an event.
type Kind string

const (
	KindIdentity    Kind = "identity"
	KindMute        Kind = "mute"
	KindIntent      Kind = "intent"
	KindScreenShare Kind = "screenshare"
	KindValidation  Kind = "validation"
	KindSnapshot    Kind = "snapshot"
)

// Event is one published change. Detail carries kind-specific text.
type Event struct {
	Kind   Kind            `json:"kind"`
	At     time.Time       `json:"at"`
	Detail string          `json:"detail,omitempty"`
	State  device.Snapshot `json:"state"`
}

const subscriberBuffer = 16

// Bus delivers events to subscribers without blocking publishers.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan Event
}

// Subscribe registers a buffered listener.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// Publish sends evt to every subscriber. Full subscribers miss the event.
func (b *Bus) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		select {
		case sub <- evt:
		default:
		}
	}
}

// Subscribers returns the current listener count.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
