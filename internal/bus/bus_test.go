package bus

import (
	"io"
	"log/slog"
	"testing"
)

func newTestBus() *PubSubBus {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPublishWithoutListenersIsNoOp(t *testing.T) {
	b := newTestBus()
	defer b.Close()

	b.Publish("nobody.home", "test", 42)
}

func TestListenersRunInSubscriptionOrder(t *testing.T) {
	b := newTestBus()
	defer b.Close()

	var order []int
	b.Listen("topic", func(_, _ string, _ any) { order = append(order, 1) })
	b.Listen("topic", func(_, _ string, _ any) { order = append(order, 2) })
	b.Listen("topic", func(_, _ string, _ any) { order = append(order, 3) })

	b.Publish("topic", "test", nil)

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("unexpected delivery order: %v", order)
	}
}

func TestPanickingListenerDoesNotStopDelivery(t *testing.T) {
	b := newTestBus()
	defer b.Close()

	var delivered int
	b.Listen("topic", func(_, _ string, _ any) { panic("boom") })
	b.Listen("topic", func(_, _ string, _ any) { delivered++ })

	b.Publish("topic", "test", "payload")

	if delivered != 1 {
		t.Fatalf("expected second listener to run, delivered = %d", delivered)
	}
}

func TestUnlistenRemovesHandler(t *testing.T) {
	b := newTestBus()
	defer b.Close()

	var calls int
	h := func(_, _ string, _ any) { calls++ }
	b.Listen("topic", h)
	b.Publish("topic", "test", nil)
	b.Unlisten("topic", h)
	b.Publish("topic", "test", nil)

	if calls != 1 {
		t.Fatalf("expected one delivery before unlisten, got %d", calls)
	}
}

func TestChannelSubscriberReceivesPublishedPayload(t *testing.T) {
	b := newTestBus()
	defer b.Close()

	sub := b.Subscribe("topic")
	b.Publish("topic", "test", "hello")

	got := <-sub
	if got != "hello" {
		t.Fatalf("unexpected payload: %v", got)
	}
	b.Unsubscribe(sub, "topic")
}

func TestListenerReceivesTopicAndOrigin(t *testing.T) {
	b := newTestBus()
	defer b.Close()

	var gotTopic, gotOrigin string
	b.Listen("topic", func(topic, origin string, _ any) {
		gotTopic = topic
		gotOrigin = origin
	})
	b.Publish("topic", "controller", nil)

	if gotTopic != "topic" || gotOrigin != "controller" {
		t.Fatalf("unexpected metadata: topic=%q origin=%q", gotTopic, gotOrigin)
	}
}
