package storeindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/manuochoa/metaplex/derivation"
	"github.com/manuochoa/metaplex/ledger"
	"github.com/manuochoa/metaplex/records"
	"golang.org/x/sync/errgroup"
)

// Entry is an index entry together with the cache record it refers to
type Entry struct {
	Address ledger.Address
	Cache   records.AuctionCache
}

// PageReader reads the index pages of a single store
type PageReader struct {
	ProgramID ledger.Address
	Store     ledger.Address
	Reader    ledger.SlotReader
}

func NewPageReader(programID, store ledger.Address, reader ledger.SlotReader) PageReader {
	return PageReader{ProgramID: programID, Store: store, Reader: reader}
}

// ReadPage returns the page and its address. An absent page returns an error
// satisfying ledger.IsSlotNotFound
func (r PageReader) ReadPage(ctx context.Context, page uint64) (records.StoreIndexer, ledger.Address, error) {
	idx, si, err := r.readPage(ctx, page)
	return idx, si.Address, err
}

// ReadPageCapacity returns the page and the number of entries its slot can
// hold. An absent page returns an error satisfying ledger.IsSlotNotFound
func (r PageReader) ReadPageCapacity(ctx context.Context, page uint64) (records.StoreIndexer, int, error) {
	idx, si, err := r.readPage(ctx, page)
	if err != nil {
		return idx, 0, err
	}
	return idx, records.PageCapacity(len(si.Data)), nil
}

func (r PageReader) readPage(ctx context.Context, page uint64) (records.StoreIndexer, *ledger.SlotInfo, error) {
	addr, _, err := derivation.IndexPageAddress(r.ProgramID, r.Store, page)
	if err != nil {
		return records.StoreIndexer{}, ledger.NewEmptySlotInfo(addr), err
	}
	si, err := ledger.LoadSlotInfo(ctx, r.Reader, addr)
	if err != nil {
		return records.StoreIndexer{}, ledger.NewEmptySlotInfo(addr), err
	}
	if !si.Exists() {
		return records.StoreIndexer{}, si, ledger.ErrSlotNotFound
	}
	if si.Owner != r.ProgramID {
		return records.StoreIndexer{}, si, fmt.Errorf("%w: page %d is owned by %s", ErrNotOwnedByProgram, page, si.Owner)
	}
	idx, err := records.StoreIndexerFromSlot(si)
	return idx, si, err
}

// ReadEntries reads the page and every cache record it lists, newest first.
func (r PageReader) ReadEntries(ctx context.Context, page uint64) ([]Entry, error) {
	idx, _, err := r.ReadPage(ctx, page)
	if err != nil {
		return nil, err
	}
	return r.readCaches(ctx, idx.AuctionCaches)
}

func (r PageReader) readCaches(ctx context.Context, addrs []ledger.Address) ([]Entry, error) {
	entries := make([]Entry, len(addrs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, addr := range addrs {
		g.Go(func() error {
			si, err := ledger.LoadSlotInfo(gctx, r.Reader, addr)
			if err != nil {
				return err
			}
			cache, err := records.AuctionCacheFromSlot(si)
			if err != nil {
				return err
			}
			entries[i] = Entry{Address: addr, Cache: cache}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// TimestampLookup returns a lookup reading cache records through the reader,
// suitable for PlanInsert
func (r PageReader) TimestampLookup(ctx context.Context) TimestampLookup {
	return func(addr ledger.Address) (int64, error) {
		si, err := ledger.LoadSlotInfo(ctx, r.Reader, addr)
		if err != nil {
			return 0, err
		}
		cache, err := records.AuctionCacheFromSlot(si)
		if err != nil {
			return 0, err
		}
		return cache.Timestamp, nil
	}
}

// ListPages calls fn for each page from 0 until the first absent page, or
// until fn returns false.
func (r PageReader) ListPages(ctx context.Context, fn func(page uint64, entries []Entry) (bool, error)) error {
	for page := uint64(0); ; page++ {
		entries, err := r.ReadEntries(ctx, page)
		if errors.Is(err, ledger.ErrSlotNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		more, err := fn(page, entries)
		if err != nil || !more {
			return err
		}
	}
}
