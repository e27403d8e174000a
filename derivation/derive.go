package derivation

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/manuochoa/metaplex/ledger"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32
	PDAMarker     = "ProgramDerivedAddress"
)

var (
	ErrMaxSeedLengthExceeded = errors.New("a seed exceeds the maximum seed length, or there are too many seeds")
	ErrInvalidSeeds          = errors.New("the seeds produce an address on the ed25519 curve")
	ErrNoViableBump          = errors.New("no bump seed produced an address off the ed25519 curve")
	ErrDerivationMismatch    = errors.New("the address does not match its claimed derivation")
)

// IsOnCurve reports whether b is the encoding of a valid ed25519 point
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// CreateProgramAddress derives the address for the complete seed tuple,
// including the bump. It fails if the result is on the curve.
func CreateProgramAddress(seeds [][]byte, programID ledger.Address) (ledger.Address, error) {
	if len(seeds) > MaxSeeds {
		return ledger.Address{}, fmt.Errorf("%w: %d seeds", ErrMaxSeedLengthExceeded, len(seeds))
	}
	h := sha256.New()
	for i, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return ledger.Address{}, fmt.Errorf("%w: seed %d is %d bytes", ErrMaxSeedLengthExceeded, i, len(seed))
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(PDAMarker))

	var addr ledger.Address
	copy(addr[:], h.Sum(nil))
	if IsOnCurve(addr[:]) {
		return ledger.Address{}, ErrInvalidSeeds
	}
	return addr, nil
}

// FindProgramAddress searches for the highest bump that yields a valid
// derived address for seeds. The bump is returned with the address.
func FindProgramAddress(seeds [][]byte, programID ledger.Address) (ledger.Address, uint8, error) {
	// the bump is appended as an extra seed, so it must fit
	if len(seeds) >= MaxSeeds {
		return ledger.Address{}, 0, fmt.Errorf("%w: %d seeds", ErrMaxSeedLengthExceeded, len(seeds))
	}
	for bump := 255; bump >= 0; bump-- {
		addr, err := CreateProgramAddress(WithBump(seeds, uint8(bump)), programID)
		if errors.Is(err, ErrInvalidSeeds) {
			continue
		}
		if err != nil {
			return ledger.Address{}, 0, err
		}
		return addr, uint8(bump), nil
	}
	return ledger.Address{}, 0, ErrNoViableBump
}

// AssertDerivation checks that addr is the address derived from seeds and
// returns the bump. Any mismatch is ErrDerivationMismatch.
func AssertDerivation(programID ledger.Address, addr ledger.Address, seeds [][]byte) (uint8, error) {
	want, bump, err := FindProgramAddress(seeds, programID)
	if err != nil {
		return 0, err
	}
	if want != addr {
		return 0, fmt.Errorf("%w: got %s, derived %s", ErrDerivationMismatch, addr, want)
	}
	return bump, nil
}

// WithBump returns a copy of seeds with the bump appended, the form used to
// authorize as the derived address.
func WithBump(seeds [][]byte, bump uint8) [][]byte {
	out := make([][]byte, 0, len(seeds)+1)
	out = append(out, seeds...)
	return append(out, []byte{bump})
}
