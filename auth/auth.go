// Package auth establishes which identities authorized a message.
//
// An identity is an ed25519 public key, used directly as its slot address.
// Authorization is a COSE_Sign1 message (RFC 8152) with a detached payload:
// the signed bytes are the encoded transaction message, which the verifier
// re-attaches before checking the signature.
package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/manuochoa/metaplex/ledger"
	"github.com/veraison/go-cose"
)

var (
	ErrSignatureInvalid   = errors.New("the signature does not verify for the claimed signer")
	ErrSignatureMalformed = errors.New("the signature is not a valid COSE_Sign1 message")
	ErrNotAuthenticated   = errors.New("the identity did not authorize the message")
)

// Identity returns the slot address of an ed25519 key
func Identity(pub ed25519.PublicKey) ledger.Address {
	var a ledger.Address
	copy(a[:], pub)
	return a
}

// Sign1 signs message with key, returning the COSE_Sign1 encoding with the
// payload detached.
func Sign1(key ed25519.PrivateKey, message []byte) ([]byte, error) {
	signer, err := cose.NewSigner(cose.AlgorithmEd25519, key)
	if err != nil {
		return nil, err
	}

	msg := cose.Sign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{
				cose.HeaderLabelAlgorithm: cose.AlgorithmEd25519,
			},
		},
		Payload: message,
	}
	err = msg.Sign(rand.Reader, nil, signer)
	if err != nil {
		return nil, err
	}

	// Detach, the verifier always has the message to hand.
	msg.Payload = nil
	return msg.MarshalCBOR()
}

// Verify1 checks that signature is a valid signature by signer over message.
func Verify1(signer ledger.Address, signature []byte, message []byte) error {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(signature); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureMalformed, err)
	}
	verifier, err := cose.NewVerifier(cose.AlgorithmEd25519, ed25519.PublicKey(signer.Bytes()))
	if err != nil {
		return err
	}
	msg.Payload = message
	if err := msg.Verify(nil, verifier); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSignatureInvalid, signer, err)
	}
	return nil
}

// SignerSet is the set of identities whose signatures verified
type SignerSet map[ledger.Address]struct{}

// Authenticated reports whether addr authorized the current message
func (s SignerSet) Authenticated(addr ledger.Address) bool {
	_, ok := s[addr]
	return ok
}

// Require returns ErrNotAuthenticated unless addr is in the set
func (s SignerSet) Require(addr ledger.Address) error {
	if !s.Authenticated(addr) {
		return fmt.Errorf("%w: %s", ErrNotAuthenticated, addr)
	}
	return nil
}
