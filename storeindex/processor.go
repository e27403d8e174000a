package storeindex

import (
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/manuochoa/metaplex/derivation"
	"github.com/manuochoa/metaplex/ledger"
	"github.com/manuochoa/metaplex/records"
)

// Slot positions for InstructionSetStoreIndex
const (
	SlotPage = iota
	SlotPayer
	SlotCache
	SlotStore
	SlotAllocator
	SlotRent
	SlotClock
	SlotAbove
	SlotBelow

	// RequiredSlots is the minimum, the neighbor slots are optional
	RequiredSlots = SlotAbove
)

// Allocator creates program owned slots on behalf of a payer
type Allocator interface {
	ProgramID() ledger.Address
	CreateSlot(
		payer, target, rentSlot *ledger.SlotInfo,
		size uint64, owner ledger.Address, signerSeeds [][]byte) error
}

type ProcessorOptions struct {
	// PageSize is the size a page slot is allocated with
	PageSize uint64
}

type ProcessorOption func(*ProcessorOptions)

// WithPageSize overrides the allocated size of new pages. Only tests should
// need this.
func WithPageSize(size uint64) ProcessorOption {
	return func(o *ProcessorOptions) {
		o.PageSize = size
	}
}

type Processor struct {
	ProcessorOptions
	log       logger.Logger
	allocator Allocator
	codec     InstructionCodec
}

func NewProcessor(log logger.Logger, allocator Allocator, opts ...ProcessorOption) (*Processor, error) {
	codec, err := NewInstructionCodec()
	if err != nil {
		return nil, err
	}
	p := &Processor{
		ProcessorOptions: ProcessorOptions{PageSize: records.MaxStoreIndexerSize},
		log:              log,
		allocator:        allocator,
		codec:            codec,
	}
	for _, opt := range opts {
		opt(&p.ProcessorOptions)
	}
	return p, nil
}

// Process decodes the instruction data and applies it
func (p *Processor) Process(programID ledger.Address, slots []*ledger.SlotInfo, data []byte) error {
	args, err := p.codec.DecodeSetStoreIndex(data)
	if err != nil {
		return err
	}
	return p.InsertReference(programID, slots, args)
}

// PageCapacity is the number of entries a page allocated by p can hold
func (p *Processor) PageCapacity() int {
	return records.PageCapacity(int(p.PageSize))
}

// neighbor is a supplied cache record next to the insertion point. A slot
// supplied with no data has no cache and can only ever mismatch.
type neighbor struct {
	address ledger.Address
	empty   bool
	cache   records.AuctionCache
}

// InsertReference inserts the cache record at args.Offset of page args.Page.
//
// The page allocation and the insert are made on staged copies of the page
// and payer slots. Those are applied to slots only when every check passes,
// so a rejected insert leaves every slot as it was.
func (p *Processor) InsertReference(programID ledger.Address, slots []*ledger.SlotInfo, args SetStoreIndexArgs) error {
	if len(slots) < RequiredSlots {
		return fmt.Errorf("%w: got %d, need at least %d", ErrNotEnoughSlots, len(slots), RequiredSlots)
	}
	pageSlot := slots[SlotPage]
	payer := slots[SlotPayer]
	cacheSlot := slots[SlotCache]
	storeSlot := slots[SlotStore]
	allocatorSlot := slots[SlotAllocator]
	rentSlot := slots[SlotRent]
	clockSlot := slots[SlotClock]
	var aboveSlot, belowSlot *ledger.SlotInfo
	if len(slots) > SlotAbove {
		aboveSlot = slots[SlotAbove]
	}
	if len(slots) > SlotBelow {
		belowSlot = slots[SlotBelow]
	}

	if !payer.IsSigner {
		return fmt.Errorf("%w: payer %s", ErrNotAuthenticated, payer.Address)
	}

	if err := assertOwnedBy(storeSlot, programID); err != nil {
		return err
	}
	if err := assertOwnedBy(cacheSlot, programID); err != nil {
		return err
	}
	if _, err := records.StoreFromSlot(storeSlot); err != nil {
		return err
	}
	cache, err := records.AuctionCacheFromSlot(cacheSlot)
	if err != nil {
		return err
	}
	clock, err := ledger.ClockFromSlot(clockSlot)
	if err != nil {
		return err
	}

	if allocatorSlot.Address != p.allocator.ProgramID() {
		return fmt.Errorf("%w: %s", ErrInvalidAllocator, allocatorSlot.Address)
	}

	if err := assertDerivation(programID, cacheSlot.Address,
		derivation.CacheSeeds(programID, storeSlot.Address, cache.Auction)); err != nil {
		return err
	}

	below, err := p.loadNeighbor(programID, storeSlot.Address, belowSlot)
	if err != nil {
		return err
	}
	above, err := p.loadNeighbor(programID, storeSlot.Address, aboveSlot)
	if err != nil {
		return err
	}

	pageSeeds := derivation.IndexSeeds(programID, storeSlot.Address, args.Page)
	bump, err := derivation.AssertDerivation(programID, pageSlot.Address, pageSeeds)
	if err != nil {
		return fmt.Errorf("%w: page %d: %w", ErrInvalidDerivation, args.Page, err)
	}

	stagedPage := stage(pageSlot)
	stagedPayer := stage(payer)
	if stagedPage.DataIsEmpty() {
		p.log.Debugf("allocating page %d at %s", args.Page, pageSlot.Address)
		if err := p.allocator.CreateSlot(
			stagedPayer, stagedPage, rentSlot, p.PageSize, programID,
			derivation.WithBump(pageSeeds, bump)); err != nil {
			return err
		}
	}

	if err := assertOwnedBy(stagedPage, programID); err != nil {
		return err
	}
	page, err := records.StoreIndexerFromSlot(stagedPage)
	if err != nil {
		return err
	}
	page.Key = records.KeyStoreIndexerV1
	page.Store = storeSlot.Address

	capacity := records.PageCapacity(len(stagedPage.Data))
	next, err := insertAt(page.AuctionCaches, args.Offset, cacheSlot.Address, cache.Timestamp, above, below, capacity)
	if err != nil {
		return err
	}
	if len(next) != len(page.AuctionCaches)+1 || next[args.Offset] != cacheSlot.Address {
		p.log.Infof("page %d: insert at %d produced an inconsistent sequence", args.Page, args.Offset)
		return fmt.Errorf("%w: page %d", ErrInternalInvariant, args.Page)
	}

	page.AuctionCaches = next
	if err := page.EncodeInto(stagedPage.Data); err != nil {
		return fmt.Errorf("%w: %w", ErrInternalInvariant, err)
	}
	pageSlot.Slot = stagedPage.Slot
	payer.Slot = stagedPayer.Slot
	p.log.Debugf(
		"page %d: inserted %s at %d, %d entries, clock slot %d",
		args.Page, cacheSlot.Address, args.Offset, len(next), clock.Slot)
	return nil
}

// loadNeighbor validates an optional neighbor slot. A nil slot, or the system
// program standing in for one, is not supplied.
func (p *Processor) loadNeighbor(programID, store ledger.Address, si *ledger.SlotInfo) (*neighbor, error) {
	if si == nil || si.Address == ledger.SystemProgramID {
		return nil, nil
	}
	if si.DataIsEmpty() {
		return &neighbor{address: si.Address, empty: true}, nil
	}
	cache, err := records.AuctionCacheFromSlot(si)
	if err != nil {
		return nil, err
	}
	if err := assertDerivation(programID, si.Address,
		derivation.CacheSeeds(programID, store, cache.Auction)); err != nil {
		return nil, err
	}
	if err := assertOwnedBy(si, programID); err != nil {
		return nil, err
	}
	return &neighbor{address: si.Address, cache: cache}, nil
}

// stage returns a private copy of si for changes that must not be seen
// unless the instruction succeeds.
func stage(si *ledger.SlotInfo) *ledger.SlotInfo {
	staged := *si
	staged.Slot = si.Slot.Clone()
	return &staged
}

// insertAt returns a new sequence with addr at offset, provided the supplied
// neighbors are the entries either side of offset and their timestamps keep
// the sequence in descending order. entries is not modified.
func insertAt(
	entries []ledger.Address, offset uint64, addr ledger.Address, timestamp int64,
	above, below *neighbor, capacity int) ([]ledger.Address, error) {

	n := uint64(len(entries))
	if offset > n {
		return nil, fmt.Errorf("%w: %d, page has %d entries", ErrInvalidOffset, offset, n)
	}

	if offset < n {
		want := entries[offset]
		if above == nil {
			return nil, fmt.Errorf("%w: expected %s", ErrMissingAboveNeighbor, want)
		}
		if above.address != want {
			return nil, fmt.Errorf("%w: above is %s, expected %s", ErrNeighborMismatch, above.address, want)
		}
		if above.empty {
			return nil, fmt.Errorf("%w: above %s holds no cache record", ErrNeighborMismatch, want)
		}
		if above.cache.Timestamp > timestamp {
			return nil, fmt.Errorf(
				"%w: %d > %d", ErrAboveIsNewer, above.cache.Timestamp, timestamp)
		}
	}

	if offset > 0 {
		want := entries[offset-1]
		if below == nil {
			return nil, fmt.Errorf("%w: expected %s", ErrMissingBelowNeighbor, want)
		}
		if below.address != want {
			return nil, fmt.Errorf("%w: below is %s, expected %s", ErrNeighborMismatch, below.address, want)
		}
		if below.empty {
			return nil, fmt.Errorf("%w: below %s holds no cache record", ErrNeighborMismatch, want)
		}
		if below.cache.Timestamp < timestamp {
			return nil, fmt.Errorf(
				"%w: %d < %d", ErrBelowIsOlder, below.cache.Timestamp, timestamp)
		}
	}

	if len(entries)+1 > capacity {
		return nil, fmt.Errorf("%w: capacity %d", ErrPageFull, capacity)
	}

	next := make([]ledger.Address, 0, len(entries)+1)
	next = append(next, entries[:offset]...)
	next = append(next, addr)
	next = append(next, entries[offset:]...)
	return next, nil
}

func assertOwnedBy(si *ledger.SlotInfo, owner ledger.Address) error {
	if si.Owner != owner {
		return fmt.Errorf("%w: %s is owned by %s", ErrNotOwnedByProgram, si.Address, si.Owner)
	}
	return nil
}

func assertDerivation(programID, addr ledger.Address, seeds [][]byte) error {
	if _, err := derivation.AssertDerivation(programID, addr, seeds); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidDerivation, addr, err)
	}
	return nil
}
