package records

// AuctionCache layout
//
// .     | key | store | timestamp | auction | vault  | auction manager | metadata n |  metadata  |
// .     | 0   | 1  32 | 33     40 | 41   72 | 73 104 | 105         136 | 137    140 | 141 ...    |
// bytes | 1   |  32   |     8     |   32    |   32   |       32        |     4      | n * 32     |
//
// The cache is an immutable summary of an auction, created when the auction
// is set up. The index only ever reads the store, auction and timestamp.

import (
	"encoding/binary"
	"fmt"

	"github.com/manuochoa/metaplex/ledger"
)

const (
	MaxMetadataPerCache = 10

	AuctionCacheStoreFirstByte          = 1
	AuctionCacheTimestampFirstByte      = AuctionCacheStoreFirstByte + ledger.AddressBytes
	AuctionCacheAuctionFirstByte        = AuctionCacheTimestampFirstByte + 8
	AuctionCacheVaultFirstByte          = AuctionCacheAuctionFirstByte + ledger.AddressBytes
	AuctionCacheAuctionManagerFirstByte = AuctionCacheVaultFirstByte + ledger.AddressBytes
	AuctionCacheMetadataCountFirstByte  = AuctionCacheAuctionManagerFirstByte + ledger.AddressBytes
	AuctionCacheMetadataFirstByte       = AuctionCacheMetadataCountFirstByte + 4

	MaxAuctionCacheSize = AuctionCacheMetadataFirstByte + MaxMetadataPerCache*ledger.AddressBytes
)

type AuctionCache struct {
	Key            Key
	Store          ledger.Address
	Timestamp      int64
	Auction        ledger.Address
	Vault          ledger.Address
	AuctionManager ledger.Address
	Metadata       []ledger.Address
}

func (c AuctionCache) MarshalBinary() ([]byte, error) {
	if len(c.Metadata) > MaxMetadataPerCache {
		return nil, fmt.Errorf("%w: %d metadata entries", ErrDataTooLong, len(c.Metadata))
	}
	b := make([]byte, AuctionCacheMetadataFirstByte+len(c.Metadata)*ledger.AddressBytes)
	b[0] = byte(KeyAuctionCacheV1)
	copy(b[AuctionCacheStoreFirstByte:], c.Store[:])
	binary.BigEndian.PutUint64(b[AuctionCacheTimestampFirstByte:], uint64(c.Timestamp))
	copy(b[AuctionCacheAuctionFirstByte:], c.Auction[:])
	copy(b[AuctionCacheVaultFirstByte:], c.Vault[:])
	copy(b[AuctionCacheAuctionManagerFirstByte:], c.AuctionManager[:])
	binary.BigEndian.PutUint32(b[AuctionCacheMetadataCountFirstByte:], uint32(len(c.Metadata)))
	for i, m := range c.Metadata {
		copy(b[AuctionCacheMetadataFirstByte+i*ledger.AddressBytes:], m[:])
	}
	return b, nil
}

func (c *AuctionCache) UnmarshalBinary(b []byte) error {
	if err := checkKey(b, KeyAuctionCacheV1, false); err != nil {
		return err
	}
	if len(b) < AuctionCacheMetadataFirstByte {
		return fmt.Errorf("%w: auction cache needs %d bytes, got %d", ErrDataTooShort, AuctionCacheMetadataFirstByte, len(b))
	}
	c.Key = Key(b[0])
	copy(c.Store[:], b[AuctionCacheStoreFirstByte:])
	c.Timestamp = int64(binary.BigEndian.Uint64(b[AuctionCacheTimestampFirstByte:]))
	copy(c.Auction[:], b[AuctionCacheAuctionFirstByte:])
	copy(c.Vault[:], b[AuctionCacheVaultFirstByte:])
	copy(c.AuctionManager[:], b[AuctionCacheAuctionManagerFirstByte:])

	n := int(binary.BigEndian.Uint32(b[AuctionCacheMetadataCountFirstByte:]))
	if n > MaxMetadataPerCache {
		return fmt.Errorf("%w: %d metadata entries", ErrDataTooLong, n)
	}
	end := AuctionCacheMetadataFirstByte + n*ledger.AddressBytes
	if len(b) < end {
		return fmt.Errorf("%w: %d metadata entries need %d bytes, got %d", ErrDataTooShort, n, end, len(b))
	}
	c.Metadata = make([]ledger.Address, n)
	for i := range c.Metadata {
		copy(c.Metadata[i][:], b[AuctionCacheMetadataFirstByte+i*ledger.AddressBytes:])
	}
	return nil
}

// AuctionCacheFromSlot decodes the slot as an auction cache. Uninitialized
// slots are rejected, a cache is always fully written when it is created.
func AuctionCacheFromSlot(si *ledger.SlotInfo) (AuctionCache, error) {
	var c AuctionCache
	if err := c.UnmarshalBinary(si.Data); err != nil {
		return c, fmt.Errorf("auction cache %s: %w", si.Address, err)
	}
	return c, nil
}
