package derivation

import (
	"strconv"

	"github.com/manuochoa/metaplex/ledger"
)

const (
	// Prefix is the domain prefix leading every seed tuple
	Prefix = "metaplex"
	Cache  = "cache"
	Index  = "index"
)

// CacheSeeds is the seed tuple of the auction cache record for auction in store
func CacheSeeds(programID, store, auction ledger.Address) [][]byte {
	return [][]byte{
		[]byte(Prefix),
		programID.Bytes(),
		store.Bytes(),
		auction.Bytes(),
		[]byte(Cache),
	}
}

// IndexSeeds is the seed tuple of index page number page in store. The page
// number is included as decimal text.
func IndexSeeds(programID, store ledger.Address, page uint64) [][]byte {
	return [][]byte{
		[]byte(Prefix),
		programID.Bytes(),
		store.Bytes(),
		[]byte(Index),
		[]byte(strconv.FormatUint(page, 10)),
	}
}

func CacheAddress(programID, store, auction ledger.Address) (ledger.Address, uint8, error) {
	return FindProgramAddress(CacheSeeds(programID, store, auction), programID)
}

func IndexPageAddress(programID, store ledger.Address, page uint64) (ledger.Address, uint8, error) {
	return FindProgramAddress(IndexSeeds(programID, store, page), programID)
}
