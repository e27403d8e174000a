package ledger

import "errors"

var (
	ErrSlotNotFound      = errors.New("slot not found")
	ErrExistsOC          = errors.New("optimistic concurrency failure, slot already exists")
	ErrContentOC         = errors.New("optimistic concurrency failure, slot content to replace does not match expected version")
	ErrInvalidSysvar     = errors.New("the slot is not the expected sysvar")
	ErrSysvarDataInvalid = errors.New("the sysvar data is too short or badly formed")
	ErrInsufficientFunds = errors.New("insufficient lamports")
	ErrSlotTagMissing    = errors.New("a required slot metadata tag was missing or invalid")
)
