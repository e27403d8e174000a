package records

// StoreIndexer layout, one page of the store index
//
// .     | key | store | count |  auction caches  |
// .     | 0   | 1  32 | 33 36 | 37 ...           |
// bytes | 1   |  32   |   4   | count * 32       |
//
// Pages are allocated once at MaxStoreIndexerSize and zero filled. A zero
// filled page decodes as an empty, uninitialized page. The capacity of a page
// is fixed by the size of its slot.

import (
	"encoding/binary"
	"fmt"

	"github.com/manuochoa/metaplex/ledger"
)

const (
	MaxIndexedElements = 100

	StoreIndexerStoreFirstByte  = 1
	StoreIndexerCountFirstByte  = StoreIndexerStoreFirstByte + ledger.AddressBytes
	StoreIndexerCachesFirstByte = StoreIndexerCountFirstByte + 4

	MaxStoreIndexerSize = StoreIndexerCachesFirstByte + MaxIndexedElements*ledger.AddressBytes
)

// StoreIndexer is one page of the global index. AuctionCaches holds the
// addresses of cache records, newest first.
type StoreIndexer struct {
	Key           Key
	Store         ledger.Address
	AuctionCaches []ledger.Address
}

// PageCapacity returns the number of addresses a page slot of dataLen bytes
// can hold.
func PageCapacity(dataLen int) int {
	if dataLen < StoreIndexerCachesFirstByte {
		return 0
	}
	return (dataLen - StoreIndexerCachesFirstByte) / ledger.AddressBytes
}

func (p StoreIndexer) EncodedSize() int {
	return StoreIndexerCachesFirstByte + len(p.AuctionCaches)*ledger.AddressBytes
}

// EncodeInto serializes the page into the front of dst, which is the whole
// page slot. Bytes beyond the encoded size are cleared.
func (p StoreIndexer) EncodeInto(dst []byte) error {
	if p.EncodedSize() > len(dst) {
		return fmt.Errorf("%w: page needs %d bytes, slot has %d", ErrDataTooLong, p.EncodedSize(), len(dst))
	}
	clear(dst)
	dst[0] = byte(p.Key)
	copy(dst[StoreIndexerStoreFirstByte:], p.Store[:])
	binary.BigEndian.PutUint32(dst[StoreIndexerCountFirstByte:], uint32(len(p.AuctionCaches)))
	for i, a := range p.AuctionCaches {
		copy(dst[StoreIndexerCachesFirstByte+i*ledger.AddressBytes:], a[:])
	}
	return nil
}

func (p StoreIndexer) MarshalBinary() ([]byte, error) {
	b := make([]byte, p.EncodedSize())
	return b, p.EncodeInto(b)
}

func (p *StoreIndexer) UnmarshalBinary(b []byte) error {
	if err := checkKey(b, KeyStoreIndexerV1, true); err != nil {
		return err
	}
	if len(b) < StoreIndexerCachesFirstByte {
		return fmt.Errorf("%w: page needs %d bytes, got %d", ErrDataTooShort, StoreIndexerCachesFirstByte, len(b))
	}
	p.Key = Key(b[0])
	copy(p.Store[:], b[StoreIndexerStoreFirstByte:])

	n := int(binary.BigEndian.Uint32(b[StoreIndexerCountFirstByte:]))
	end := StoreIndexerCachesFirstByte + n*ledger.AddressBytes
	if n < 0 || len(b) < end {
		return fmt.Errorf("%w: %d entries need %d bytes, got %d", ErrDataTooShort, n, end, len(b))
	}
	p.AuctionCaches = make([]ledger.Address, n)
	for i := range p.AuctionCaches {
		copy(p.AuctionCaches[i][:], b[StoreIndexerCachesFirstByte+i*ledger.AddressBytes:])
	}
	return nil
}

func StoreIndexerFromSlot(si *ledger.SlotInfo) (StoreIndexer, error) {
	var p StoreIndexer
	if err := p.UnmarshalBinary(si.Data); err != nil {
		return p, fmt.Errorf("store index %s: %w", si.Address, err)
	}
	return p, nil
}
