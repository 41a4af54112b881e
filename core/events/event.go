package events

import (
	"sync"

	"rwaledger/core/types"
)

// Event represents a structured state change emitted by the ledger.
type Event interface {
	EventType() string
}

// Record is an event that carries its canonical attribute payload.
type Record interface {
	Event
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Payload extracts the canonical payload from an emitted event. Events that do
// not carry one are wrapped with an empty attribute set.
func Payload(evt Event) *types.Event {
	if evt == nil {
		return nil
	}
	if rec, ok := evt.(Record); ok && rec.Event() != nil {
		return rec.Event()
	}
	return &types.Event{Type: evt.EventType(), Attributes: map[string]string{}}
}

// Buffer collects events in emission order until they are drained. The ledger
// uses it to hold events back until the enclosing call commits.
type Buffer struct {
	mu     sync.Mutex
	events []*types.Event
}

// Emit implements the Emitter interface.
func (b *Buffer) Emit(evt Event) {
	payload := Payload(evt)
	if payload == nil {
		return
	}
	b.mu.Lock()
	b.events = append(b.events, payload.Clone())
	b.mu.Unlock()
}

// Len reports the number of buffered events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// Drain returns the buffered events and resets the buffer.
func (b *Buffer) Drain() []*types.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.events
	b.events = nil
	return out
}

// Committed wraps an event payload that has been sequenced by the ledger.
type Committed struct {
	Payload *types.Event
}

// EventType implements Event.
func (c Committed) EventType() string {
	if c.Payload == nil {
		return ""
	}
	return c.Payload.Type
}

// Event implements Record.
func (c Committed) Event() *types.Event { return c.Payload }

// Fanout delivers each event to every registered emitter in registration order.
type Fanout struct {
	mu    sync.RWMutex
	sinks []Emitter
}

// NewFanout constructs a fanout over the supplied sinks. Nil sinks are skipped.
func NewFanout(sinks ...Emitter) *Fanout {
	f := &Fanout{}
	for _, sink := range sinks {
		f.Add(sink)
	}
	return f
}

// Add registers an additional sink.
func (f *Fanout) Add(sink Emitter) {
	if sink == nil {
		return
	}
	f.mu.Lock()
	f.sinks = append(f.sinks, sink)
	f.mu.Unlock()
}

// Emit implements the Emitter interface.
func (f *Fanout) Emit(evt Event) {
	f.mu.RLock()
	sinks := append([]Emitter(nil), f.sinks...)
	f.mu.RUnlock()
	for _, sink := range sinks {
		sink.Emit(evt)
	}
}
