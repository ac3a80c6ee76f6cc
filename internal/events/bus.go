package events

import (
	"sync"

	model "auction-engine/internal/models"
)

// Publisher is the side the ledger and state machine talk to. Publishing is
// fire-and-forget: slow consumers lose events rather than blocking bid
// acceptance.
type Publisher interface {
	Publish(event model.AuctionEvent)
}

// Bus fans AuctionEvents out to subscriber channels.
type Bus struct {
	mu   sync.RWMutex
	subs []chan model.AuctionEvent
}

// NewBus creates an event bus with no subscribers.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a new consumer and returns its channel. The buffer
// absorbs bursts; once it is full further events are dropped for that
// subscriber.
func (b *Bus) Subscribe(buffer int) <-chan model.AuctionEvent {
	ch := make(chan model.AuctionEvent, buffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(event model.AuctionEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// NopPublisher discards all events. Useful in tests that do not assert on
// notifications.
type NopPublisher struct{}

func (NopPublisher) Publish(model.AuctionEvent) {}
