package state

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Manager reads and writes rlp encoded records through a transaction.
type Manager struct {
	tx *Tx
}

// NewManager creates a state manager operating on the provided transaction.
func NewManager(tx *Tx) *Manager {
	return &Manager{tx: tx}
}

// ErrEmptyKey is returned when a record key is empty.
var ErrEmptyKey = errors.New("state: empty key")

// hashedKey maps a logical key onto its keccak256 storage slot.
func hashedKey(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return ethcrypto.Keccak256(key), nil
}

// KVPut rlp encodes value and stores it under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	slot, err := hashedKey(key)
	if err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.tx.Put(slot, encoded)
}

// KVGet decodes the record under key into out and reports whether it existed.
// A nil out only probes for presence.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	data, err := m.raw(key)
	if err != nil || len(data) == 0 {
		return false, err
	}
	if out != nil {
		if err := rlp.DecodeBytes(data, out); err != nil {
			return false, fmt.Errorf("state: decode %q: %w", key, err)
		}
	}
	return true, nil
}

func (m *Manager) raw(key []byte) ([]byte, error) {
	slot, err := hashedKey(key)
	if err != nil {
		return nil, err
	}
	return m.tx.Get(slot)
}

// KVDelete removes the record under key.
func (m *Manager) KVDelete(key []byte) error {
	slot, err := hashedKey(key)
	if err != nil {
		return err
	}
	return m.tx.Delete(slot)
}

// KVAppend adds value to the byte-slice set stored under key, preserving
// insertion order. Values already present are skipped.
func (m *Manager) KVAppend(key []byte, value []byte) error {
	var members [][]byte
	if err := m.KVGetList(key, &members); err != nil {
		return err
	}
	for _, member := range members {
		if bytes.Equal(member, value) {
			return nil
		}
	}
	return m.KVPut(key, append(members, append([]byte(nil), value...)))
}

// KVGetList decodes the list under key into out, a pointer to a slice. A
// missing list leaves out as an empty slice.
func (m *Manager) KVGetList(key []byte, out interface{}) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Ptr || target.IsNil() || target.Elem().Kind() != reflect.Slice {
		return errors.New("state: list destination must be a non-nil slice pointer")
	}
	data, err := m.raw(key)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		target.Elem().Set(reflect.MakeSlice(target.Elem().Type(), 0, 0))
		return nil
	}
	return rlp.DecodeBytes(data, out)
}

func (m *Manager) getUint64(key []byte) (uint64, error) {
	var value uint64
	if _, err := m.KVGet(key, &value); err != nil {
		return 0, err
	}
	return value, nil
}
