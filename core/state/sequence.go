package state

var eventSequenceKey = []byte("events/sequence")

// EventSequence returns the sequence number of the last committed event.
func (m *Manager) EventSequence() (uint64, error) {
	return m.getUint64(eventSequenceKey)
}

// SetEventSequence records the sequence number of the last committed event.
func (m *Manager) SetEventSequence(seq uint64) error {
	return m.KVPut(eventSequenceKey, seq)
}
