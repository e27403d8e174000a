// Package host executes signed transactions against a slot store.
//
// A transaction names a program, the slots it may touch and the instruction
// data. The host verifies the signatures, write locks the writable slots,
// loads private working copies and runs the program over them. Only when the
// program succeeds are the changed slots committed, each guarded by the
// version it was loaded at. A failed program leaves the store exactly as it
// was. A host configured with WithRent or WithClock supplies those sysvars
// itself.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/google/uuid"
	"github.com/manuochoa/metaplex/auth"
	"github.com/manuochoa/metaplex/ledger"
	"golang.org/x/sync/errgroup"
)

const (
	defaultLoadConcurrency = 8
)

var (
	ErrUnknownProgram       = errors.New("no program is registered at the address")
	ErrReadOnlySlotModified = errors.New("the program modified a slot that was not writable")
	ErrNoSlots              = errors.New("the transaction references no slots")
)

// Program processes one instruction over the working copies of its slots
type Program interface {
	Process(programID ledger.Address, slots []*ledger.SlotInfo, data []byte) error
}

type Options struct {
	LoadConcurrency int
	// Rent, when set, is supplied as the rent sysvar rather than read from
	// the store.
	Rent *ledger.Rent
	// Clock, when set, is called once per transaction for the clock sysvar
	Clock func() ledger.Clock
}

type Option func(*Options)

// WithLoadConcurrency limits how many slots are read from the store at once
func WithLoadConcurrency(n int) Option {
	return func(o *Options) {
		o.LoadConcurrency = n
	}
}

// WithRent supplies the rent sysvar from r
func WithRent(r ledger.Rent) Option {
	return func(o *Options) {
		o.Rent = &r
	}
}

// WithClock supplies the clock sysvar from now
func WithClock(now func() ledger.Clock) Option {
	return func(o *Options) {
		o.Clock = now
	}
}

// NewWallClock returns a clock reading the system time. Its slot counts the
// transactions it has been read for.
func NewWallClock() func() ledger.Clock {
	var slot atomic.Uint64
	return func() ledger.Clock {
		return ledger.Clock{Slot: slot.Add(1), UnixTimestamp: time.Now().Unix()}
	}
}

// Receipt describes a committed transaction
type Receipt struct {
	ID      string
	Changed []ledger.Address
}

type Host struct {
	Options
	log      logger.Logger
	store    ledger.SlotStore
	locks    *ledger.LockSet
	codec    Codec
	programs map[ledger.Address]Program
}

func New(log logger.Logger, store ledger.SlotStore, opts ...Option) (*Host, error) {
	codec, err := NewCodec()
	if err != nil {
		return nil, err
	}
	h := &Host{
		Options:  Options{LoadConcurrency: defaultLoadConcurrency},
		log:      log,
		store:    store,
		locks:    ledger.NewLockSet(),
		codec:    codec,
		programs: make(map[ledger.Address]Program),
	}
	for _, opt := range opts {
		opt(&h.Options)
	}
	return h, nil
}

// Register makes prog the program executed for programID. Not safe to call
// concurrently with Execute.
func (h *Host) Register(programID ledger.Address, prog Program) {
	h.programs[programID] = prog
}

func (h *Host) Codec() Codec {
	return h.codec
}

// Execute runs the transaction, committing its effects only if the program
// succeeds.
func (h *Host) Execute(ctx context.Context, tx Transaction) (Receipt, error) {
	receipt := Receipt{ID: uuid.NewString()}

	ins, err := h.codec.DecodeInstruction(tx.Message)
	if err != nil {
		return receipt, err
	}
	if len(ins.Slots) == 0 {
		return receipt, ErrNoSlots
	}
	prog, ok := h.programs[ins.ProgramID]
	if !ok {
		return receipt, fmt.Errorf("%w: %s", ErrUnknownProgram, ins.ProgramID)
	}

	signers, err := verifySignatures(tx)
	if err != nil {
		return receipt, err
	}

	// A slot may be referenced more than once, every reference shares the
	// one working copy and its flags are merged.
	working := make(map[ledger.Address]*ledger.SlotInfo)
	var unique []*ledger.SlotInfo
	var writable []ledger.Address
	for _, meta := range ins.Slots {
		if meta.IsSigner {
			if err := signers.Require(meta.Address); err != nil {
				return receipt, err
			}
		}
		si, ok := working[meta.Address]
		if !ok {
			si = &ledger.SlotInfo{Address: meta.Address}
			working[meta.Address] = si
			unique = append(unique, si)
		}
		si.IsSigner = si.IsSigner || meta.IsSigner
		si.IsWritable = si.IsWritable || meta.IsWritable
		if meta.IsWritable {
			writable = append(writable, meta.Address)
		}
	}

	release := h.locks.Acquire(writable)
	defer release()

	sysvars := h.sysvars()
	loaded, err := h.load(ctx, unique, sysvars)
	if err != nil {
		return receipt, err
	}

	slots := make([]*ledger.SlotInfo, len(ins.Slots))
	for i, meta := range ins.Slots {
		slots[i] = working[meta.Address]
	}

	if err := prog.Process(ins.ProgramID, slots, ins.Data); err != nil {
		h.log.Infof("tx %s: program %s failed: %v", receipt.ID, ins.ProgramID, err)
		return receipt, err
	}

	var changes []ledger.SlotChange
	for i, si := range unique {
		if si.Slot.Equal(loaded[i]) {
			continue
		}
		if _, ok := sysvars[si.Address]; ok || !si.IsWritable {
			return receipt, fmt.Errorf("%w: %s", ErrReadOnlySlotModified, si.Address)
		}
		changes = append(changes, ledger.SlotChange{Address: si.Address, Slot: si.Slot, Version: si.Version})
	}
	if len(changes) == 0 {
		h.log.Infof("tx %s: program %s succeeded, nothing changed", receipt.ID, ins.ProgramID)
		return receipt, nil
	}
	if err := h.store.Commit(ctx, changes); err != nil {
		return receipt, err
	}
	for _, c := range changes {
		receipt.Changed = append(receipt.Changed, c.Address)
	}
	h.log.Infof("tx %s: program %s committed %d slots", receipt.ID, ins.ProgramID, len(changes))
	return receipt, nil
}

// sysvars returns the sysvar slots the host supplies itself. They are never
// read from or committed to the store.
func (h *Host) sysvars() map[ledger.Address]ledger.Slot {
	supplied := make(map[ledger.Address]ledger.Slot)
	if h.Rent != nil {
		supplied[ledger.RentSysvarID] = ledger.NewRentSlot(*h.Rent)
	}
	if h.Clock != nil {
		supplied[ledger.ClockSysvarID] = ledger.NewClockSlot(h.Clock())
	}
	return supplied
}

// load fills in the working copies concurrently and returns the state each
// was loaded with, for change detection.
func (h *Host) load(
	ctx context.Context, unique []*ledger.SlotInfo, sysvars map[ledger.Address]ledger.Slot) ([]ledger.Slot, error) {

	loaded := make([]ledger.Slot, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.LoadConcurrency)
	for i, si := range unique {
		if slot, ok := sysvars[si.Address]; ok {
			si.Slot = slot.Clone()
			loaded[i] = slot
			continue
		}
		g.Go(func() error {
			got, err := ledger.LoadSlotInfo(gctx, h.store, si.Address)
			if err != nil {
				return err
			}
			si.Slot = got.Slot
			si.Version = got.Version
			loaded[i] = got.Slot.Clone()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return loaded, nil
}

func verifySignatures(tx Transaction) (auth.SignerSet, error) {
	signers := auth.SignerSet{}
	for _, sig := range tx.Signatures {
		signer, err := ledger.AddressFromBytes(sig.Signer)
		if err != nil {
			return nil, fmt.Errorf("%w: signer: %v", ErrMalformedTransaction, err)
		}
		if err := auth.Verify1(signer, sig.Sign1, tx.Message); err != nil {
			return nil, err
		}
		signers[signer] = struct{}{}
	}
	return signers, nil
}
