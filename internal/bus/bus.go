package bus

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/cskr/pubsub"
)

// Subscription is a channel-based observer attachment.
type Subscription chan any

// Handler receives an event synchronously on the publisher's goroutine.
type Handler func(topic, origin string, payload any)

// MessageBus decouples the controller from its observers. Listeners run
// synchronously in subscription order; channel subscriptions receive the
// same events asynchronously through buffered channels.
type MessageBus interface {
	Publish(topic, origin string, payload any)
	Listen(topic string, h Handler)
	Unlisten(topic string, h Handler)
	Subscribe(topic string) Subscription
	Unsubscribe(ch Subscription, topics ...string)
	Close()
}

type PubSubBus struct {
	ps     *pubsub.PubSub
	logger *slog.Logger

	mu        sync.RWMutex
	listeners map[string][]Handler
}

func New(logger *slog.Logger) *PubSubBus {
	return &PubSubBus{
		ps:        pubsub.New(128),
		logger:    logger,
		listeners: make(map[string][]Handler),
	}
}

// Publish delivers payload to every listener of topic in subscription order,
// then fans out to channel subscribers. A listener panic is logged and does
// not stop delivery to the remaining listeners. Publishing to a topic with
// no listeners or subscribers is a no-op.
func (b *PubSubBus) Publish(topic, origin string, payload any) {
	b.logger.Debug("publish", "topic", topic, "origin", origin, "payload_type", payloadType(payload))

	b.mu.RLock()
	handlers := b.listeners[topic]
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(topic, origin, payload, h)
	}

	b.ps.Pub(payload, topic)
}

func (b *PubSubBus) deliver(topic, origin string, payload any, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("listener panicked", "topic", topic, "origin", origin, "panic", r)
		}
	}()
	h(topic, origin, payload)
}

func (b *PubSubBus) Listen(topic string, h Handler) {
	b.mu.Lock()
	b.listeners[topic] = append(b.listeners[topic], h)
	b.mu.Unlock()
	b.logger.Debug("listen", "topic", topic)
}

// Unlisten removes the first registration of h on topic. Handlers are
// matched by function identity.
func (b *PubSubBus) Unlisten(topic string, h Handler) {
	ptr := reflect.ValueOf(h).Pointer()

	b.mu.Lock()
	defer b.mu.Unlock()
	handlers := b.listeners[topic]
	for i, candidate := range handlers {
		if reflect.ValueOf(candidate).Pointer() != ptr {
			continue
		}
		b.listeners[topic] = append(handlers[:i:i], handlers[i+1:]...)
		if len(b.listeners[topic]) == 0 {
			delete(b.listeners, topic)
		}
		b.logger.Debug("unlisten", "topic", topic)
		return
	}
}

func (b *PubSubBus) Subscribe(topic string) Subscription {
	ch := b.ps.Sub(topic)
	b.logger.Debug("subscribe", "topic", topic)
	return ch
}

func (b *PubSubBus) Unsubscribe(ch Subscription, topics ...string) {
	if len(topics) == 0 {
		b.ps.Unsub(ch)
		b.logger.Debug("unsubscribe", "mode", "all")
		return
	}
	b.ps.Unsub(ch, topics...)
	b.logger.Debug("unsubscribe", "topics", topics)
}

func (b *PubSubBus) Close() {
	b.ps.Shutdown()
}

func payloadType(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
