package dom

import "slices"

// Event is delivered to listeners by Dispatch.
type Event struct {
	// Type is the event name, e.g. "click".
	Type string

	// Target is the element the event was dispatched at.
	Target *Element

	// CurrentTarget is the element whose listener is running.
	CurrentTarget *Element

	// Detail carries caller data.
	Detail any

	stopped bool
}

// StopPropagation keeps the event from reaching further ancestors.
// Remaining listeners on the current element still run.
func (ev *Event) StopPropagation() {
	ev.stopped = true
}

// Stopped reports whether StopPropagation was called.
func (ev *Event) Stopped() bool {
	return ev.stopped
}

// Listener handles an event.
type Listener func(ev *Event)

// On registers a listener for an event type. Nil listeners are ignored.
func (e *Element) On(eventType string, fn Listener) *Element {
	if fn == nil || eventType == "" {
		return e
	}
	if e.listeners == nil {
		e.listeners = make(map[string][]Listener)
	}
	e.listeners[eventType] = append(e.listeners[eventType], fn)
	return e
}

// Dispatch fires an event at e and bubbles it through the ancestors.
// Listeners run in registration order; one added during dispatch first
// runs on the next event. A panicking listener propagates to the caller.
func (e *Element) Dispatch(eventType string, detail any) *Event {
	ev := &Event{Type: eventType, Target: e, Detail: detail}
	for cur := e; cur != nil && !ev.stopped; cur = cur.Parent() {
		ev.CurrentTarget = cur
		for _, fn := range slices.Clone(cur.listeners[eventType]) {
			fn(ev)
		}
	}
	ev.CurrentTarget = nil
	return ev
}
