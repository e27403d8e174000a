package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// AddressBytes is the width of every slot address. Signer addresses are
	// ed25519 public keys, derived addresses are 32 byte hashes that are
	// guaranteed not to be valid ed25519 points.
	AddressBytes = 32
)

var (
	ErrAddressBadSize = errors.New("an address must be exactly 32 bytes")
	ErrAddressBadHex  = errors.New("the address is not valid hex")
)

// Address identifies a storage slot
type Address [AddressBytes]byte

// SystemProgramID is the owner of every slot that has not been assigned to a
// program. Absent slots load as system owned.
var SystemProgramID = Address{}

// Well known sysvar slot addresses. The values are fixed, any instruction
// referencing a sysvar must present exactly these addresses.
var (
	ClockSysvarID = wellKnownAddress("SysvarC1ock11111111111111111111111111111111")
	RentSysvarID  = wellKnownAddress("SysvarRent111111111111111111111111111111111")
)

func wellKnownAddress(name string) Address {
	return Address(sha256.Sum256([]byte(name)))
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) Bytes() []byte {
	b := make([]byte, AddressBytes)
	copy(b, a[:])
	return b
}

// Compare orders addresses as big endian integers
func (a Address) Compare(b Address) int {
	return bytes.Compare(a[:], b[:])
}

// AddressFromBytes copies b into an address. b must be exactly AddressBytes long.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressBytes {
		return a, fmt.Errorf("%w: got %d", ErrAddressBadSize, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// AddressFromHex parses the hex form produced by String. A leading 0x is accepted.
func AddressFromHex(s string) (Address, error) {
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrAddressBadHex, err)
	}
	return AddressFromBytes(b)
}

// MustAddressFromHex is AddressFromHex for constants and tests
func MustAddressFromHex(s string) Address {
	a, err := AddressFromHex(s)
	if err != nil {
		panic(err)
	}
	return a
}
