package registrar

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/docker/api/types/events"
)

func TestEventRouter(t *testing.T) {
	handledEvents := make(chan *events.Message, 10)
	hFn := func(event *events.Message) error {
		handledEvents <- event
		return nil
	}
	handler := &testHandler{handlerFunc: hFn}
	handlers := map[string][]Handler{"container.start": {handler}}

	cli := newFakeEventClient()
	router, _ := NewEventRouter(5, 5, cli, handlers)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	router.Start(ctx)

	sendCount := 2
	for i := 0; i < sendCount; i++ {
		cli.messages <- events.Message{
			Type:   "container",
			Action: "start",
			Actor:  events.Actor{ID: fmt.Sprintf("c%d", i)},
		}
	}
	// an event nobody handles
	cli.messages <- events.Message{
		Type:   "container",
		Action: "pause",
		Actor:  events.Actor{ID: "paused"},
	}

	receivedCount := 0
	for receivedCount != sendCount {
		select {
		case <-handledEvents:
			receivedCount++
		case <-time.After(10 * time.Second):
			t.Fatalf("Timed out waiting on events.")
		}
	}

	select {
	case event := <-handledEvents:
		t.Fatalf("Unhandled event leaked through: %#v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWorkerTimeout(t *testing.T) {
	// This test proves the worker timeout and retry logic is working properly by making
	// the handler take longer than the worker timeout and then asserting that all events
	// were still handled.
	handledEvents := make(chan *events.Message, 10)
	hFn := func(event *events.Message) error {
		time.Sleep(20 * time.Millisecond)
		handledEvents <- event
		return nil
	}
	handler := &testHandler{handlerFunc: hFn}
	handlers := map[string][]Handler{"container.start": {handler}}

	cli := newFakeEventClient()
	router, _ := NewEventRouter(1, 1, cli, handlers)
	router.workerTimeout = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	router.Start(ctx)

	sendCount := 2
	for i := 0; i < sendCount; i++ {
		cli.messages <- events.Message{
			Type:   "container",
			Action: "start",
			Actor:  events.Actor{ID: fmt.Sprintf("c%d", i)},
		}
	}

	receivedCount := 0
	timeoutCount := 0
	for receivedCount != sendCount {
		select {
		case <-handledEvents:
			receivedCount++
		case <-time.After(10 * time.Millisecond):
			timeoutCount++
			if timeoutCount > 100 {
				t.Fatalf("Timed out waiting on events.")
			}
		}
	}
}

func TestResubscribeOnStreamError(t *testing.T) {
	handledEvents := make(chan *events.Message, 10)
	handler := &testHandler{handlerFunc: func(event *events.Message) error {
		handledEvents <- event
		return nil
	}}
	handlers := map[string][]Handler{"container.start": {handler}}

	cli := newFakeEventClient()
	router, _ := NewEventRouter(5, 5, cli, handlers)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	router.Start(ctx)

	cli.errs <- fmt.Errorf("stream reset")
	cli.messages <- events.Message{
		Type:   "container",
		Action: "start",
		Actor:  events.Actor{ID: "after-error"},
	}

	select {
	case event := <-handledEvents:
		if containerID(event) != "after-error" {
			t.Fatalf("Unexpected event %#v", event)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("Timed out waiting for event after resubscribe.")
	}
}

func TestRoutingKey(t *testing.T) {
	cases := []struct {
		event    events.Message
		expected string
	}{
		{events.Message{Type: "container", Action: "start"}, "container.start"},
		{events.Message{Type: "network", Action: "connect"}, "network.connect"},
		{events.Message{Status: "die"}, "container.die"},
		{events.Message{Type: "container", Action: "health_status: healthy"}, "container.health_status"},
	}
	for _, tc := range cases {
		if key := routingKey(&tc.event); key != tc.expected {
			t.Fatalf("routingKey(%#v) = %s, expected %s", tc.event, key, tc.expected)
		}
	}
}

func TestContainerID(t *testing.T) {
	withActor := &events.Message{ID: "legacy", Actor: events.Actor{ID: "actor"}}
	if containerID(withActor) != "actor" {
		t.Fatalf("expected actor ID to win")
	}
	legacyOnly := &events.Message{ID: "legacy"}
	if containerID(legacyOnly) != "legacy" {
		t.Fatalf("expected legacy ID fallback")
	}
}
