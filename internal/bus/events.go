package bus

import (
	"context"
	"sync"
	"time"
)

type EventType string

const (
	EventOnboardingStarted  EventType = "onboarding_started"
	EventStepCompleted      EventType = "step_completed"
	EventStepFailed         EventType = "step_failed"
	EventTaskCompleted      EventType = "task_completed"
	EventOnboardingFinished EventType = "onboarding_finished"
	EventReminderSent       EventType = "reminder_sent"
)

type Event struct {
	Type       EventType `json:"type"`
	EmployeeID string    `json:"employee_id,omitempty"`
	Employee   string    `json:"employee,omitempty"`
	Step       string    `json:"step,omitempty"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	Progress   float64   `json:"progress,omitempty"`
	Timestamp  time.Time `json:"ts"`
}

type EventBus struct {
	Events chan Event

	mu   sync.RWMutex
	subs map[string]func(Event)
}

func NewEventBus(bufSize int) *EventBus {
	return &EventBus{
		Events: make(chan Event, bufSize),
		subs:   make(map[string]func(Event)),
	}
}

func (b *EventBus) Subscribe(name string, fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[name] = fn
}

func (b *EventBus) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	b.Events <- ev
}

// Dispatch fans queued events out to every subscriber until ctx is done.
func (b *EventBus) Dispatch(ctx context.Context) {
	for {
		select {
		case ev := <-b.Events:
			b.mu.RLock()
			for _, fn := range b.subs {
				fn(ev)
			}
			b.mu.RUnlock()
		case <-ctx.Done():
			return
		}
	}
}
