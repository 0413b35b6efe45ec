package event

import "sync"

// Handler receives events published on a Bus.
type Handler func(topic string, payload any)

// Bus is a minimal synchronous publish/subscribe mechanism.  Handlers run
// on the publisher's goroutine in subscription order, so for a single
// session the observers see commits exactly in the order they were applied.
type Bus struct {
	mu     sync.RWMutex
	topics map[string][]Handler
	all    []Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{topics: make(map[string][]Handler)}
}

// Subscribe registers a handler for one topic.
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics[topic] = append(b.topics[topic], h)
}

// SubscribeAll registers a handler for every topic.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish delivers the payload to all handlers of the topic, then to the
// catch-all handlers.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.RLock()
	handlers := append(append([]Handler(nil), b.topics[topic]...), b.all...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(topic, payload)
	}
}
