package records

import (
	"errors"
	"fmt"
)

// Key is the type tag held in the first byte of every record
type Key uint8

const (
	KeyUninitialized Key = iota // zero filled, freshly allocated slots carry this tag
	_
	_
	KeyStoreV1
	_
	_
	_
	_
	_
	_
	_
	_
	_
	KeyStoreIndexerV1
	KeyAuctionCacheV1
)

var (
	ErrDataTypeMismatch = errors.New("the record type tag is not the expected type")
	ErrDataTooShort     = errors.New("the record data is too short for its layout")
	ErrDataTooLong      = errors.New("the record does not fit the data available for it")
)

func (k Key) String() string {
	switch k {
	case KeyUninitialized:
		return "Uninitialized"
	case KeyStoreV1:
		return "StoreV1"
	case KeyStoreIndexerV1:
		return "StoreIndexerV1"
	case KeyAuctionCacheV1:
		return "AuctionCacheV1"
	}
	return fmt.Sprintf("Key(%d)", uint8(k))
}

// checkKey accepts the expected tag, and the uninitialized tag when allowed.
func checkKey(data []byte, want Key, allowUninitialized bool) error {
	if len(data) < 1 {
		return fmt.Errorf("%w: no type tag", ErrDataTooShort)
	}
	got := Key(data[0])
	if got == want || (allowUninitialized && got == KeyUninitialized) {
		return nil
	}
	return fmt.Errorf("%w: want %s, got %s", ErrDataTypeMismatch, want, got)
}
