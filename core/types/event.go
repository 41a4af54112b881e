package types

// Event represents a typed event emitted during state transitions. Sequence
// and Timestamp are assigned by the ledger when the enclosing call commits.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	Sequence   uint64            `json:"sequence,omitempty"`
	Timestamp  int64             `json:"timestamp,omitempty"`
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	attrs := make(map[string]string, len(e.Attributes))
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	return &Event{Type: e.Type, Attributes: attrs, Sequence: e.Sequence, Timestamp: e.Timestamp}
}
