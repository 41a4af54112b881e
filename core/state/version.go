package state

import (
	"errors"
	"fmt"
	"math"

	"rwaledger/storage"
)

// StateVersion is the record layout this binary reads and writes. Bump it on
// any incompatible change to stored records.
const StateVersion uint32 = 1

var stateVersionKey = []byte("state/version")

// ErrStateVersionMismatch is returned when the database was written by a
// different record layout.
var ErrStateVersionMismatch = errors.New("state: schema version mismatch")

// SetStateVersion stamps the database with version.
func (m *Manager) SetStateVersion(version uint32) error {
	return m.KVPut(stateVersionKey, uint64(version))
}

// StateVersion returns the stamped version, if any.
func (m *Manager) StateVersion() (uint32, bool, error) {
	var stored uint64
	ok, err := m.KVGet(stateVersionKey, &stored)
	if err != nil || !ok {
		return 0, false, err
	}
	if stored > math.MaxUint32 {
		return 0, false, fmt.Errorf("state: schema version %d out of range", stored)
	}
	return uint32(stored), true, nil
}

// EnsureStateVersion stamps an empty database with StateVersion and rejects
// one stamped with anything else unless allowMigrate is set.
func EnsureStateVersion(db storage.Database, allowMigrate bool) error {
	if db == nil {
		return errors.New("state: nil database")
	}
	tx := Begin(db)
	manager := NewManager(tx)
	version, ok, err := manager.StateVersion()
	switch {
	case err != nil:
		tx.Discard()
		return err
	case !ok:
		if err := manager.SetStateVersion(StateVersion); err != nil {
			tx.Discard()
			return err
		}
		return tx.Commit()
	}
	tx.Discard()
	if version != StateVersion && !allowMigrate {
		return fmt.Errorf("%w: stored %d, supported %d", ErrStateVersionMismatch, version, StateVersion)
	}
	return nil
}
