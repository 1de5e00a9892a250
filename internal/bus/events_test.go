package bus

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPublishStampsTimestamp(t *testing.T) {
	b := NewEventBus(10)
	b.Publish(Event{Type: EventOnboardingStarted, EmployeeID: "abc12345"})

	ev := <-b.Events
	if ev.Timestamp.IsZero() {
		t.Error("Publish did not stamp a timestamp")
	}
}

func TestPublishKeepsTimestamp(t *testing.T) {
	b := NewEventBus(10)
	stamp := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	b.Publish(Event{Type: EventStepCompleted, Timestamp: stamp})

	ev := <-b.Events
	if !ev.Timestamp.Equal(stamp) {
		t.Errorf("timestamp = %v, want %v", ev.Timestamp, stamp)
	}
}

func TestDispatchFansOut(t *testing.T) {
	b := NewEventBus(10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	got := make(map[string][]EventType)
	for _, name := range []string{"web", "notify"} {
		name := name
		b.Subscribe(name, func(ev Event) {
			mu.Lock()
			got[name] = append(got[name], ev.Type)
			mu.Unlock()
		})
	}

	go b.Dispatch(ctx)

	b.Publish(Event{Type: EventOnboardingStarted})
	b.Publish(Event{Type: EventOnboardingFinished})

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		done := len(got["web"]) == 2 && len(got["notify"]) == 2
		mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("events not delivered to all subscribers: %v", got)
		case <-time.After(10 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, name := range []string{"web", "notify"} {
		if got[name][0] != EventOnboardingStarted || got[name][1] != EventOnboardingFinished {
			t.Errorf("%s received %v, want started then finished", name, got[name])
		}
	}
}

func TestDispatchStopsOnCancel(t *testing.T) {
	b := NewEventBus(10)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		b.Dispatch(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch did not stop after cancel")
	}
}
