package events

import (
	"sync"
	"sync/atomic"

	"github.com/OldStager01/crop-advisor/internal/logger"
	"github.com/OldStager01/crop-advisor/pkg/models"
)

// subscription is one buffered channel and the event types it receives.
// A nil types set means every type.
type subscription struct {
	ch    chan *models.Event
	types map[models.EventType]struct{}
}

func (s *subscription) wants(t models.EventType) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// EventBus fans refresh-job events out to in-process subscribers: the
// event logger and the websocket bridge. Publishing never blocks; a full
// subscriber misses the event.
type EventBus struct {
	mu         sync.RWMutex
	subs       []*subscription
	bufferSize int
	closed     bool
	dropped    atomic.Int64
}

func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &EventBus{bufferSize: bufferSize}
}

// Subscribe returns a channel receiving only the given event types.
func (b *EventBus) Subscribe(types ...models.EventType) <-chan *models.Event {
	set := make(map[models.EventType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return b.add(set)
}

func (b *EventBus) SubscribeAll() <-chan *models.Event {
	return b.add(nil)
}

func (b *EventBus) add(types map[models.EventType]struct{}) <-chan *models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *models.Event, b.bufferSize)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, &subscription{ch: ch, types: types})
	return ch
}

func (b *EventBus) Publish(event *models.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subs {
		if !sub.wants(event.Type) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
			logger.Warnf("Event channel full, dropping event: %s", event.Type)
		}
	}
}

// Unsubscribe removes ch and closes it.
func (b *EventBus) Unsubscribe(ch <-chan *models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if (<-chan *models.Event)(sub.ch) == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber
// was full.
func (b *EventBus) Dropped() int64 {
	return b.dropped.Load()
}

// Close closes every subscriber channel. Later subscriptions receive an
// already closed channel.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
}
