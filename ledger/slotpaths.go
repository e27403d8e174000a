package ledger

import (
	"fmt"
	"strings"
)

const (
	V1SlotPrefix      = "v1/slots"
	V1SlotPathSep     = "/"
	V1SlotExt         = "slot"
	V1SlotBlobNameFmt = "%s.slot"

	// LedgerInstanceN allows the slot layout of a ledger to be changed without
	// re-writing the existing blobs, in the same way a log instance is rolled.
	LedgerInstanceN = 0
)

// LedgerSlotPrefix returns the path under which all slots for the ledger are
// stored. It is the callers responsibility to ensure the ledger identity has
// the correct form, typically a uuid string.
func LedgerSlotPrefix(ledgerIdentity string) string {
	return fmt.Sprintf(
		"%s/%s/%d/slots/", V1SlotPrefix, ledgerIdentity, LedgerInstanceN,
	)
}

// SlotBlobPath returns the blob path for the slot addr
//
// The returned string forms a relative resource name with a versioned resource
// prefix of 'v1/slots/{ledger-identity}/{instance}/slots/'. The address is
// the lower case hex form, so blob names sort in address order.
func SlotBlobPath(ledgerIdentity string, addr Address) string {
	return fmt.Sprintf(
		"%s%s", LedgerSlotPrefix(ledgerIdentity), fmt.Sprintf(V1SlotBlobNameFmt, addr),
	)
}

// SlotAddressFromPath recovers the slot address from a path produced by SlotBlobPath
func SlotAddressFromPath(blobPath string) (Address, error) {
	i := strings.LastIndex(blobPath, V1SlotPathSep)
	name := blobPath[i+1:]
	name, ok := strings.CutSuffix(name, "."+V1SlotExt)
	if !ok {
		return Address{}, fmt.Errorf("%w: %s is not a slot blob", ErrAddressBadHex, blobPath)
	}
	return AddressFromHex(name)
}
