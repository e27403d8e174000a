package records

// Store layout
//
// .     | key | public | auction program | vault program | metadata program | token program |
// .     | 0   | 1      | 2            33 | 34         65 | 66            97 | 98        129 |

import (
	"fmt"

	"github.com/manuochoa/metaplex/ledger"
)

const (
	StorePublicFirstByte          = 1
	StoreAuctionProgramFirstByte  = 2
	StoreVaultProgramFirstByte    = StoreAuctionProgramFirstByte + ledger.AddressBytes
	StoreMetadataProgramFirstByte = StoreVaultProgramFirstByte + ledger.AddressBytes
	StoreTokenProgramFirstByte    = StoreMetadataProgramFirstByte + ledger.AddressBytes
	MaxStoreSize                  = StoreTokenProgramFirstByte + ledger.AddressBytes
)

// Store is the root of every seed tuple used by the index. It is read only
// as far as the index is concerned.
type Store struct {
	Key                  Key
	Public               bool
	AuctionProgram       ledger.Address
	TokenVaultProgram    ledger.Address
	TokenMetadataProgram ledger.Address
	TokenProgram         ledger.Address
}

func (s Store) MarshalBinary() ([]byte, error) {
	b := make([]byte, MaxStoreSize)
	b[0] = byte(KeyStoreV1)
	if s.Public {
		b[StorePublicFirstByte] = 1
	}
	copy(b[StoreAuctionProgramFirstByte:], s.AuctionProgram[:])
	copy(b[StoreVaultProgramFirstByte:], s.TokenVaultProgram[:])
	copy(b[StoreMetadataProgramFirstByte:], s.TokenMetadataProgram[:])
	copy(b[StoreTokenProgramFirstByte:], s.TokenProgram[:])
	return b, nil
}

func (s *Store) UnmarshalBinary(b []byte) error {
	if err := checkKey(b, KeyStoreV1, false); err != nil {
		return err
	}
	if len(b) < MaxStoreSize {
		return fmt.Errorf("%w: store needs %d bytes, got %d", ErrDataTooShort, MaxStoreSize, len(b))
	}
	s.Key = Key(b[0])
	s.Public = b[StorePublicFirstByte] != 0
	copy(s.AuctionProgram[:], b[StoreAuctionProgramFirstByte:])
	copy(s.TokenVaultProgram[:], b[StoreVaultProgramFirstByte:])
	copy(s.TokenMetadataProgram[:], b[StoreMetadataProgramFirstByte:])
	copy(s.TokenProgram[:], b[StoreTokenProgramFirstByte:])
	return nil
}

func StoreFromSlot(si *ledger.SlotInfo) (Store, error) {
	var s Store
	if err := s.UnmarshalBinary(si.Data); err != nil {
		return s, fmt.Errorf("store %s: %w", si.Address, err)
	}
	return s, nil
}
