package storeindex

import (
	"github.com/manuochoa/metaplex/derivation"
	"github.com/manuochoa/metaplex/ledger"
)

// InsertSlots lays out the slots of an insert of cache at plan. payer signs
// and funds the page if the insert has to allocate it.
func InsertSlots(programID, store, payer, cache ledger.Address, plan Plan) ([]ledger.SlotMeta, error) {
	page, _, err := derivation.IndexPageAddress(programID, store, plan.Page)
	if err != nil {
		return nil, err
	}
	slots := []ledger.SlotMeta{
		{Address: page, IsWritable: true},
		{Address: payer, IsSigner: true, IsWritable: true},
		{Address: cache},
		{Address: store},
		{Address: ledger.SystemProgramID},
		{Address: ledger.RentSysvarID},
		{Address: ledger.ClockSysvarID},
	}
	if plan.Above == nil && plan.Below == nil {
		return slots, nil
	}
	// the system program never holds data, so it stands in for an absent
	// above neighbor
	above := ledger.SystemProgramID
	if plan.Above != nil {
		above = *plan.Above
	}
	slots = append(slots, ledger.SlotMeta{Address: above})
	if plan.Below != nil {
		slots = append(slots, ledger.SlotMeta{Address: *plan.Below})
	}
	return slots, nil
}
