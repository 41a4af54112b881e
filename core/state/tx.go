package state

import (
	"errors"
	"fmt"
	"sort"

	"rwaledger/storage"
)

var errTxClosed = errors.New("state: transaction closed")

// Tx is a write overlay over a database. Reads see the transaction's own
// writes; nothing reaches the database until Commit writes the overlay as a
// single batch.
type Tx struct {
	db     storage.Database
	writes map[string][]byte
	closed bool
}

// Begin opens a transaction over db.
func Begin(db storage.Database) *Tx {
	return &Tx{db: db, writes: make(map[string][]byte)}
}

// Get returns the value stored under key, or nil when absent.
func (tx *Tx) Get(key []byte) ([]byte, error) {
	if tx.closed {
		return nil, errTxClosed
	}
	if value, ok := tx.writes[string(key)]; ok {
		if value == nil {
			return nil, nil
		}
		return append([]byte(nil), value...), nil
	}
	value, err := tx.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (tx *Tx) Put(key, value []byte) error {
	if tx.closed {
		return errTxClosed
	}
	if value == nil {
		value = []byte{}
	}
	tx.writes[string(key)] = append([]byte(nil), value...)
	return nil
}

func (tx *Tx) Delete(key []byte) error {
	if tx.closed {
		return errTxClosed
	}
	tx.writes[string(key)] = nil
	return nil
}

// Dirty reports the number of pending writes.
func (tx *Tx) Dirty() int { return len(tx.writes) }

// Commit flushes the overlay in key order as one atomic batch and closes the
// transaction.
func (tx *Tx) Commit() error {
	if tx.closed {
		return errTxClosed
	}
	tx.closed = true
	if len(tx.writes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tx.writes))
	for k := range tx.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	batch := tx.db.NewBatch()
	for _, k := range keys {
		if value := tx.writes[k]; value != nil {
			batch.Put([]byte(k), value)
			continue
		}
		batch.Delete([]byte(k))
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	tx.writes = nil
	return nil
}

// Discard drops every pending write.
func (tx *Tx) Discard() {
	tx.closed = true
	tx.writes = nil
}
