package ledger

import (
	"bytes"
)

// Slot is the persisted state of a single storage slot.
type Slot struct {
	Owner    Address
	Lamports uint64
	Data     []byte
}

// Clone returns a deep copy, so callers can hand the copy to an instruction
// without aliasing the stored bytes.
func (s Slot) Clone() Slot {
	return Slot{
		Owner:    s.Owner,
		Lamports: s.Lamports,
		Data:     bytes.Clone(s.Data),
	}
}

// Equal reports whether the two slots hold identical state
func (s Slot) Equal(o Slot) bool {
	return s.Owner == o.Owner && s.Lamports == o.Lamports && bytes.Equal(s.Data, o.Data)
}

// SlotInfo is the working copy of a slot presented to an instruction.
//
// Instructions mutate SlotInfo values in place. Nothing is persisted until the
// host commits the working set, and the host only does that when the
// instruction returns without error.
type SlotInfo struct {
	Address    Address
	IsSigner   bool
	IsWritable bool
	Slot

	// Version is the store specific concurrency token for the state that was
	// loaded. It is empty when the slot did not exist at load time.
	Version string
}

// NewEmptySlotInfo returns the working copy used for a slot that does not
// exist in the store: system owned, no lamports and no data.
func NewEmptySlotInfo(addr Address) *SlotInfo {
	return &SlotInfo{
		Address: addr,
		Slot:    Slot{Owner: SystemProgramID},
	}
}

// DataIsEmpty is true for slots that have never been allocated
func (si *SlotInfo) DataIsEmpty() bool {
	return len(si.Data) == 0
}

// Exists is true if the slot was present in the store when it was loaded
func (si *SlotInfo) Exists() bool {
	return si.Version != ""
}

// SlotMeta references a slot from an instruction
type SlotMeta struct {
	Address    Address
	IsSigner   bool
	IsWritable bool
}
