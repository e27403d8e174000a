package storeindex

import (
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/manuochoa/metaplex/derivation"
	"github.com/manuochoa/metaplex/ledger"
	"github.com/manuochoa/metaplex/records"
	"github.com/manuochoa/metaplex/system"
	"github.com/stretchr/testify/require"
)

const testPayerLamports = 10_000_000_000

func testAddress(seed byte) ledger.Address {
	var a ledger.Address
	for i := range a {
		a[i] = seed + byte(i)
	}
	return a
}

// testWorld holds the working copies for a single store. The page slots are
// reused across inserts, standing in for the committed state.
type testWorld struct {
	t         *testing.T
	program   ledger.Address
	store     *ledger.SlotInfo
	payer     *ledger.SlotInfo
	allocator *ledger.SlotInfo
	rent      *ledger.SlotInfo
	clock     *ledger.SlotInfo
	pages     map[uint64]*ledger.SlotInfo
	caches    map[string]*ledger.SlotInfo
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()
	program := testAddress(1)
	storeData, err := records.Store{Key: records.KeyStoreV1, Public: true}.MarshalBinary()
	require.NoError(t, err)
	return &testWorld{
		t:       t,
		program: program,
		store: &ledger.SlotInfo{
			Address: testAddress(2),
			Slot:    ledger.Slot{Owner: program, Data: storeData},
			Version: "1",
		},
		payer: &ledger.SlotInfo{
			Address: testAddress(3), IsSigner: true, IsWritable: true,
			Slot: ledger.Slot{Lamports: testPayerLamports},
		},
		allocator: ledger.NewEmptySlotInfo(ledger.SystemProgramID),
		rent:      &ledger.SlotInfo{Address: ledger.RentSysvarID, Slot: ledger.NewRentSlot(ledger.DefaultRent())},
		clock:     &ledger.SlotInfo{Address: ledger.ClockSysvarID, Slot: ledger.NewClockSlot(ledger.Clock{Slot: 7, UnixTimestamp: 1000})},
		pages:     map[uint64]*ledger.SlotInfo{},
		caches:    map[string]*ledger.SlotInfo{},
	}
}

// cache creates, or returns, the cache record named name. The auction address
// is derived from the name so each name gets its own cache address.
func (w *testWorld) cache(name string, timestamp int64) *ledger.SlotInfo {
	w.t.Helper()
	if si, ok := w.caches[name]; ok {
		return si
	}
	var auction ledger.Address
	copy(auction[:], name)
	addr, _, err := derivation.CacheAddress(w.program, w.store.Address, auction)
	require.NoError(w.t, err)
	data, err := records.AuctionCache{
		Key:       records.KeyAuctionCacheV1,
		Store:     w.store.Address,
		Timestamp: timestamp,
		Auction:   auction,
	}.MarshalBinary()
	require.NoError(w.t, err)
	si := &ledger.SlotInfo{Address: addr, Slot: ledger.Slot{Owner: w.program, Data: data}, Version: "1"}
	w.caches[name] = si
	return si
}

func (w *testWorld) page(n uint64) *ledger.SlotInfo {
	w.t.Helper()
	if si, ok := w.pages[n]; ok {
		return si
	}
	addr, _, err := derivation.IndexPageAddress(w.program, w.store.Address, n)
	require.NoError(w.t, err)
	si := ledger.NewEmptySlotInfo(addr)
	si.IsWritable = true
	w.pages[n] = si
	return si
}

// slots lays out the instruction slots. above and below may be nil.
func (w *testWorld) slots(page uint64, cache, above, below *ledger.SlotInfo) []*ledger.SlotInfo {
	slots := []*ledger.SlotInfo{
		w.page(page), w.payer, cache, w.store, w.allocator, w.rent, w.clock,
	}
	if above == nil && below == nil {
		return slots
	}
	if above == nil {
		above = ledger.NewEmptySlotInfo(ledger.SystemProgramID)
	}
	slots = append(slots, above)
	if below != nil {
		slots = append(slots, below)
	}
	return slots
}

func (w *testWorld) entries(page uint64) []ledger.Address {
	w.t.Helper()
	idx, err := records.StoreIndexerFromSlot(w.page(page))
	require.NoError(w.t, err)
	return idx.AuctionCaches
}

func (w *testWorld) addresses(names ...string) []ledger.Address {
	addrs := make([]ledger.Address, 0, len(names))
	for _, name := range names {
		si, ok := w.caches[name]
		require.True(w.t, ok, name)
		addrs = append(addrs, si.Address)
	}
	return addrs
}

// memStore returns a store holding the committed state of the world
func (w *testWorld) memStore() *ledger.MemStore {
	s := ledger.NewMemStore()
	s.Put(w.store.Address, w.store.Slot)
	for _, si := range w.caches {
		s.Put(si.Address, si.Slot)
	}
	for _, si := range w.pages {
		if si.DataIsEmpty() {
			continue
		}
		s.Put(si.Address, si.Slot)
	}
	return s
}

func newTestProcessor(t *testing.T, opts ...ProcessorOption) *Processor {
	t.Helper()
	logger.New("NOOP")
	log := logger.Sugar.WithServiceName("TestProcessor")
	p, err := NewProcessor(log, system.NewAllocator(log), opts...)
	require.NoError(t, err)
	return p
}
