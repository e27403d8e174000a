// Package system implements the platform slot allocator. It is the only
// component permitted to assign a system owned slot to a program.
package system

import (
	"errors"
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/manuochoa/metaplex/derivation"
	"github.com/manuochoa/metaplex/ledger"
)

const (
	// MaxPermittedDataLength bounds the size of any single slot
	MaxPermittedDataLength = 10 * 1024 * 1024
)

var (
	ErrSlotAlreadyInUse    = errors.New("the slot to allocate already has data or an owner")
	ErrSlotNotWritable     = errors.New("the slot was not passed as writable")
	ErrPayerNotSigner      = errors.New("the payer did not sign")
	ErrSignerSeedsMismatch = errors.New("the signer seeds do not derive the slot to allocate")
	ErrInvalidDataLength   = errors.New("the requested slot size exceeds the permitted maximum")
)

// Allocator creates program owned slots, prepaying their rent from a payer.
// It works on the working copies handed to an instruction, so nothing it does
// is visible until the host commits.
type Allocator struct {
	log logger.Logger
}

func NewAllocator(log logger.Logger) *Allocator {
	return &Allocator{log: log}
}

// ProgramID is the address callers must reference for this allocator
func (a *Allocator) ProgramID() ledger.Address {
	return ledger.SystemProgramID
}

// CreateSlot allocates target with size zero bytes, assigns it to owner and
// tops up its lamports to the rent exempt minimum from payer.
//
// target is a derived address, so signerSeeds (including the bump) must
// derive target under owner. That is the authority the owner presents in
// place of a signature.
func (a *Allocator) CreateSlot(
	payer, target, rentSlot *ledger.SlotInfo,
	size uint64, owner ledger.Address, signerSeeds [][]byte) error {

	if size > MaxPermittedDataLength {
		return fmt.Errorf("%w: %d", ErrInvalidDataLength, size)
	}
	derived, err := derivation.CreateProgramAddress(signerSeeds, owner)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignerSeedsMismatch, err)
	}
	if derived != target.Address {
		return fmt.Errorf("%w: %s", ErrSignerSeedsMismatch, target.Address)
	}
	if !target.IsWritable {
		return fmt.Errorf("%w: target %s", ErrSlotNotWritable, target.Address)
	}
	if target.Owner != ledger.SystemProgramID || !target.DataIsEmpty() {
		return fmt.Errorf("%w: %s", ErrSlotAlreadyInUse, target.Address)
	}

	rent, err := ledger.RentFromSlot(rentSlot)
	if err != nil {
		return err
	}

	// The target may already hold lamports, someone can transfer to any
	// address, in which case only the shortfall is charged.
	required := rent.MinimumBalance(size)
	var shortfall uint64
	if target.Lamports < required {
		shortfall = required - target.Lamports
	}
	if shortfall > 0 {
		if !payer.IsSigner {
			return fmt.Errorf("%w: %s", ErrPayerNotSigner, payer.Address)
		}
		if !payer.IsWritable {
			return fmt.Errorf("%w: payer %s", ErrSlotNotWritable, payer.Address)
		}
		if payer.Lamports < shortfall {
			return fmt.Errorf(
				"%w: payer %s has %d, needs %d", ledger.ErrInsufficientFunds, payer.Address, payer.Lamports, shortfall)
		}
		payer.Lamports -= shortfall
		target.Lamports += shortfall
	}

	target.Data = make([]byte, size)
	target.Owner = owner

	a.log.Debugf("slot allocated: %s size=%d owner=%s rent=%d", target.Address, size, owner, shortfall)
	return nil
}
