package wizard

import "registration-wizard/internal/model"

type EventType string

const (
	EventInitialized    EventType = "initialized"
	EventDataUpdated    EventType = "data_updated"
	EventStepChanged    EventType = "step_changed"
	EventEditingChanged EventType = "editing_changed"
	EventReset          EventType = "reset"
)

// Event describes one store mutation. It carries field names, never values.
type Event struct {
	Type     EventType
	Step     model.Step
	PrevStep model.Step
	Fields   []string
	Editing  bool
}

// Observer is notified synchronously after each mutation, outside the
// store lock, so it may read the store but must not block for long.
type Observer interface {
	Observe(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }
