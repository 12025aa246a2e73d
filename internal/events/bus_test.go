package events

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func TestBusPublishSubscribe(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	bus := NewBus(100, logger)
	go bus.Start()
	defer bus.Stop()

	ch := bus.Subscribe(100)
	defer bus.Unsubscribe(ch)

	evt := Event{
		Type: EventPathNotFound,
		Pair: &PairData{A: "10.0.0.1", B: "10.0.0.2"},
	}
	bus.Publish(evt)

	select {
	case received := <-ch:
		if received.Type != EventPathNotFound {
			t.Errorf("received event type = %q, want %q", received.Type, EventPathNotFound)
		}
		if received.Pair == nil || received.Pair.A != "10.0.0.1" {
			t.Error("pair data not preserved")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestBusMultipleSubscribers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	bus := NewBus(100, logger)
	go bus.Start()
	defer bus.Stop()

	ch1 := bus.Subscribe(100)
	ch2 := bus.Subscribe(100)
	defer bus.Unsubscribe(ch1)
	defer bus.Unsubscribe(ch2)

	bus.Publish(Event{Type: EventControllerUnreachable})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case e := <-ch:
			if e.Type != EventControllerUnreachable {
				t.Errorf("event type = %q, want %q", e.Type, EventControllerUnreachable)
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for event on subscriber")
		}
	}
}

func TestBusUnsubscribe(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	bus := NewBus(100, logger)
	go bus.Start()
	defer bus.Stop()

	ch := bus.Subscribe(100)
	bus.Unsubscribe(ch)

	// Publish after unsubscribe — should not block or panic
	bus.Publish(Event{Type: EventPortUnknown})

	time.Sleep(50 * time.Millisecond)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("should not receive events after unsubscribe")
		}
	default:
		// Expected — channel closed or empty
	}
}

func TestBusNonBlocking(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	bus := NewBus(1, logger)
	go bus.Start()
	defer bus.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(Event{Type: EventDistanceUnknown})
		}
		close(done)
	}()

	select {
	case <-done:
		// Good — publishing didn't block
	case <-time.After(2 * time.Second):
		t.Fatal("publishing blocked — event bus should be non-blocking")
	}
}

func TestBusRunStateChangedSurvivesFullDiagnosticTraffic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	bus := NewBus(1, logger)
	go bus.Start()
	defer bus.Stop()

	ch := bus.Subscribe(1)
	defer bus.Unsubscribe(ch)

	// Flood the bus with disposable diagnostic events first — these are
	// allowed to drop under backpressure.
	for i := 0; i < 50; i++ {
		bus.Publish(Event{Type: EventPathNotFound})
	}

	bus.Publish(Event{Type: EventRunStateChanged, RunState: &RunStateData{From: "Idle", To: "Updating"}})

	deadline := time.After(3 * time.Second)
	for {
		select {
		case e := <-ch:
			if e.Type == EventRunStateChanged {
				return
			}
		case <-deadline:
			t.Fatal("run state transition never reached the subscriber")
		}
	}
}
