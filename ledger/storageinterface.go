package ledger

import (
	"context"
)

type SlotReader interface {
	// GetSlot reads the current state of the slot and its version. An absent
	// slot is reported with ErrSlotNotFound.
	GetSlot(ctx context.Context, addr Address) (Slot, string, error)
}

// SlotChange is a single slot write. Version is the version the slot must
// still have for the write to apply. An empty Version requires the slot to
// not exist.
type SlotChange struct {
	Address Address
	Slot    Slot
	Version string
}

type SlotCommitter interface {
	// Commit applies the changes. Implementations must reject any change whose
	// Version no longer matches with ErrContentOC, or ErrExistsOC when
	// creating a slot that now exists.
	Commit(ctx context.Context, changes []SlotChange) error
}

type SlotStore interface {
	SlotReader
	SlotCommitter
}

// LoadSlotInfo reads addr from the store into a working copy. Absent slots
// load as NewEmptySlotInfo.
func LoadSlotInfo(ctx context.Context, store SlotReader, addr Address) (*SlotInfo, error) {
	slot, version, err := store.GetSlot(ctx, addr)
	if IsSlotNotFound(err) {
		return NewEmptySlotInfo(addr), nil
	}
	if err != nil {
		return nil, err
	}
	return &SlotInfo{
		Address: addr,
		Slot:    slot.Clone(),
		Version: version,
	}, nil
}
