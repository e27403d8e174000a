package storeindex

import (
	"fmt"

	"github.com/manuochoa/metaplex/ledger"
	"github.com/manuochoa/metaplex/records"
)

// TimestampLookup returns the timestamp of the cache record at addr
type TimestampLookup func(addr ledger.Address) (int64, error)

// Plan is where a record should be inserted, and the neighbors that must be
// supplied with the insert.
type Plan struct {
	Page   uint64
	Offset uint64
	// Above is the entry currently at Offset, nil when inserting at the end
	Above *ledger.Address
	// Below is the entry at Offset-1, nil when inserting at the front
	Below *ledger.Address
}

func (p Plan) Args() SetStoreIndexArgs {
	return SetStoreIndexArgs{Page: p.Page, Offset: p.Offset}
}

// PlanInsert finds the offset in page for a record with the given timestamp.
// The record is placed before any entries with an equal timestamp, so the
// most recently inserted of equals is listed first. capacity is the number of
// entries the page slot holds, see PageReader.ReadPageCapacity and
// Processor.PageCapacity.
//
// The page is a snapshot, the plan may be stale by the time it is submitted.
// The processor detects that and the caller re-plans.
func PlanInsert(
	pageNumber uint64, page records.StoreIndexer, capacity int,
	timestamp int64, lookup TimestampLookup) (Plan, error) {

	if len(page.AuctionCaches) >= capacity {
		return Plan{}, fmt.Errorf("%w: page %d holds %d", ErrPageFull, pageNumber, capacity)
	}

	// entries are descending, binary search for the first not newer
	lo, hi := 0, len(page.AuctionCaches)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		ts, err := lookup(page.AuctionCaches[mid])
		if err != nil {
			return Plan{}, err
		}
		if ts > timestamp {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	plan := Plan{Page: pageNumber, Offset: uint64(lo)}
	if lo < len(page.AuctionCaches) {
		a := page.AuctionCaches[lo]
		plan.Above = &a
	}
	if lo > 0 {
		b := page.AuctionCaches[lo-1]
		plan.Below = &b
	}
	return plan, nil
}
