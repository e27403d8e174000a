package storeindex

import (
	"errors"
	"fmt"

	"github.com/manuochoa/metaplex/auth"
	"github.com/manuochoa/metaplex/derivation"
	"github.com/manuochoa/metaplex/ledger"
	"github.com/manuochoa/metaplex/records"
	"github.com/manuochoa/metaplex/system"
)

var (
	ErrNotAuthenticated     = errors.New("the payer did not authorize the operation")
	ErrNotOwnedByProgram    = errors.New("the slot is not owned by the program")
	ErrInvalidAllocator     = errors.New("the allocator is not the platform allocator")
	ErrInvalidDerivation    = errors.New("the slot address does not match its derivation")
	ErrInvalidOffset        = errors.New("the offset is beyond the end of the page")
	ErrNeighborMismatch     = errors.New("the neighbor is not the record held next to the insertion point")
	ErrMissingAboveNeighbor = errors.New("the record after the insertion point must be provided")
	ErrMissingBelowNeighbor = errors.New("the record before the insertion point must be provided")
	ErrAboveIsNewer         = errors.New("the record after the insertion point is newer than the inserted record")
	ErrBelowIsOlder         = errors.New("the record before the insertion point is older than the inserted record")
	ErrPageFull             = errors.New("the page is full")
	ErrInternalInvariant    = errors.New("internal invariant violated")
)

var (
	ErrNotEnoughSlots     = errors.New("not enough slots were provided for the instruction")
	ErrInvalidInstruction = errors.New("the instruction data is not a recognized instruction")
)

// Code is the discrete wire level code reported for a failed operation.
// Values are persisted by clients, never renumber them.
type Code uint32

const (
	CodeOK Code = iota
	CodeNotAuthenticated
	CodeNotOwnedByProgram
	CodeInvalidAllocator
	CodeInvalidDerivation
	CodeInvalidOffset
	CodeNeighborMismatch
	CodeMissingAboveNeighbor
	CodeMissingBelowNeighbor
	CodeAboveIsNewer
	CodeBelowIsOlder
	CodePageFull
	CodeInternalInvariant
	CodeDataTypeMismatch
	CodeNotEnoughSlots
	CodeInvalidInstruction
	CodeInvalidSysvar
	CodeAllocationFailed
	CodeConflict
	CodeUnknown
)

var codeNames = map[Code]string{
	CodeOK:                   "OK",
	CodeNotAuthenticated:     "NotAuthenticated",
	CodeNotOwnedByProgram:    "NotOwnedByProgram",
	CodeInvalidAllocator:     "InvalidAllocator",
	CodeInvalidDerivation:    "InvalidDerivation",
	CodeInvalidOffset:        "InvalidOffset",
	CodeNeighborMismatch:     "NeighborMismatch",
	CodeMissingAboveNeighbor: "MissingAboveNeighbor",
	CodeMissingBelowNeighbor: "MissingBelowNeighbor",
	CodeAboveIsNewer:         "AboveIsNewer",
	CodeBelowIsOlder:         "BelowIsOlder",
	CodePageFull:             "PageFull",
	CodeInternalInvariant:    "InternalInvariant",
	CodeDataTypeMismatch:     "DataTypeMismatch",
	CodeNotEnoughSlots:       "NotEnoughSlots",
	CodeInvalidInstruction:   "InvalidInstruction",
	CodeInvalidSysvar:        "InvalidSysvar",
	CodeAllocationFailed:     "AllocationFailed",
	CodeConflict:             "Conflict",
	CodeUnknown:              "Unknown",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", uint32(c))
}

// codeTable is searched in order, the first sentinel matched decides the
// code. The operation errors come first, as they may also wrap lower level
// causes.
var codeTable = []struct {
	err  error
	code Code
}{
	{ErrNotAuthenticated, CodeNotAuthenticated},
	{ErrNotOwnedByProgram, CodeNotOwnedByProgram},
	{ErrInvalidAllocator, CodeInvalidAllocator},
	{ErrInvalidDerivation, CodeInvalidDerivation},
	{ErrInvalidOffset, CodeInvalidOffset},
	{ErrNeighborMismatch, CodeNeighborMismatch},
	{ErrMissingAboveNeighbor, CodeMissingAboveNeighbor},
	{ErrMissingBelowNeighbor, CodeMissingBelowNeighbor},
	{ErrAboveIsNewer, CodeAboveIsNewer},
	{ErrBelowIsOlder, CodeBelowIsOlder},
	{ErrPageFull, CodePageFull},
	{ErrInternalInvariant, CodeInternalInvariant},
	{ErrNotEnoughSlots, CodeNotEnoughSlots},
	{ErrInvalidInstruction, CodeInvalidInstruction},
	{auth.ErrNotAuthenticated, CodeNotAuthenticated},
	{auth.ErrSignatureInvalid, CodeNotAuthenticated},
	{auth.ErrSignatureMalformed, CodeNotAuthenticated},
	{derivation.ErrDerivationMismatch, CodeInvalidDerivation},
	{records.ErrDataTypeMismatch, CodeDataTypeMismatch},
	{records.ErrDataTooShort, CodeDataTypeMismatch},
	{records.ErrDataTooLong, CodeDataTypeMismatch},
	{ledger.ErrInvalidSysvar, CodeInvalidSysvar},
	{ledger.ErrSysvarDataInvalid, CodeInvalidSysvar},
	{ledger.ErrInsufficientFunds, CodeAllocationFailed},
	{system.ErrSlotAlreadyInUse, CodeAllocationFailed},
	{system.ErrSlotNotWritable, CodeAllocationFailed},
	{system.ErrPayerNotSigner, CodeAllocationFailed},
	{system.ErrSignerSeedsMismatch, CodeAllocationFailed},
	{system.ErrInvalidDataLength, CodeAllocationFailed},
	{ledger.ErrExistsOC, CodeConflict},
	{ledger.ErrContentOC, CodeConflict},
}

// CodeOf maps err to its wire code. nil is CodeOK, anything unrecognized is
// CodeUnknown.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	for _, e := range codeTable {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return CodeUnknown
}
