package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
)

type memEntry struct {
	slot    Slot
	version uint64
}

// MemStore is an in memory SlotStore. Commit is all or nothing: every
// version is checked before any change is applied.
type MemStore struct {
	mu      sync.RWMutex
	entries map[Address]memEntry
	clock   uint64
}

func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[Address]memEntry)}
}

func (s *MemStore) GetSlot(ctx context.Context, addr Address) (Slot, string, error) {
	if err := ctx.Err(); err != nil {
		return Slot{}, "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[addr]
	if !ok {
		return Slot{}, "", fmt.Errorf("%s: %w", addr, ErrSlotNotFound)
	}
	return e.slot.Clone(), strconv.FormatUint(e.version, 10), nil
}

// Put unconditionally establishes the slot, for seeding stores in tests and
// tools.
func (s *MemStore) Put(addr Address, slot Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock++
	s.entries[addr] = memEntry{slot: slot.Clone(), version: s.clock}
}

func (s *MemStore) Commit(ctx context.Context, changes []SlotChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range changes {
		e, ok := s.entries[c.Address]
		if c.Version == "" {
			if ok {
				return fmt.Errorf("%s: %w", c.Address, ErrExistsOC)
			}
			continue
		}
		if !ok || strconv.FormatUint(e.version, 10) != c.Version {
			return fmt.Errorf("%s: %w", c.Address, ErrContentOC)
		}
	}
	for _, c := range changes {
		s.clock++
		s.entries[c.Address] = memEntry{slot: c.Slot.Clone(), version: s.clock}
	}
	return nil
}

// Len returns the number of slots held
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func IsSlotNotFound(err error) bool {
	return err != nil && errors.Is(err, ErrSlotNotFound)
}
