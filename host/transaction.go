package host

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	dtcbor "github.com/datatrails/go-datatrails-common/cbor"
	"github.com/manuochoa/metaplex/auth"
	"github.com/manuochoa/metaplex/ledger"
)

var (
	ErrMalformedTransaction = errors.New("the transaction could not be decoded")
)

// WireSlot is the encoded form of a ledger.SlotMeta
type WireSlot struct {
	Address  []byte `cbor:"1,keyasint"`
	Signer   bool   `cbor:"2,keyasint"`
	Writable bool   `cbor:"3,keyasint"`
}

// Message is what signers sign. Nonce makes otherwise identical messages
// distinct.
type Message struct {
	ProgramID []byte     `cbor:"1,keyasint"`
	Slots     []WireSlot `cbor:"2,keyasint"`
	Data      []byte     `cbor:"3,keyasint"`
	Nonce     []byte     `cbor:"4,keyasint"`
}

// Signature is a detached COSE_Sign1 over the encoded message
type Signature struct {
	Signer []byte `cbor:"1,keyasint"`
	Sign1  []byte `cbor:"2,keyasint"`
}

type Transaction struct {
	// Message is the encoded Message, kept as bytes so signatures verify
	// against exactly what was signed.
	Message    []byte      `cbor:"1,keyasint"`
	Signatures []Signature `cbor:"2,keyasint"`
}

// Instruction is the decoded form of a message
type Instruction struct {
	ProgramID ledger.Address
	Slots     []ledger.SlotMeta
	Data      []byte
	Nonce     []byte
}

type Codec struct {
	cbor dtcbor.CBORCodec
}

func NewCodec() (Codec, error) {
	codec, err := dtcbor.NewCBORCodec(dtcbor.NewDeterministicEncOpts(), dtcbor.NewDeterministicDecOpts())
	if err != nil {
		return Codec{}, err
	}
	return Codec{cbor: codec}, nil
}

func (c Codec) EncodeInstruction(ins Instruction) ([]byte, error) {
	msg := Message{
		ProgramID: ins.ProgramID.Bytes(),
		Data:      ins.Data,
		Nonce:     ins.Nonce,
	}
	for _, s := range ins.Slots {
		msg.Slots = append(msg.Slots, WireSlot{Address: s.Address.Bytes(), Signer: s.IsSigner, Writable: s.IsWritable})
	}
	return c.cbor.MarshalCBOR(msg)
}

func (c Codec) DecodeInstruction(data []byte) (Instruction, error) {
	var msg Message
	if err := c.cbor.UnmarshalInto(data, &msg); err != nil {
		return Instruction{}, fmt.Errorf("%w: %v", ErrMalformedTransaction, err)
	}
	programID, err := ledger.AddressFromBytes(msg.ProgramID)
	if err != nil {
		return Instruction{}, fmt.Errorf("%w: program id: %v", ErrMalformedTransaction, err)
	}
	ins := Instruction{ProgramID: programID, Data: msg.Data, Nonce: msg.Nonce}
	for i, s := range msg.Slots {
		addr, err := ledger.AddressFromBytes(s.Address)
		if err != nil {
			return Instruction{}, fmt.Errorf("%w: slot %d: %v", ErrMalformedTransaction, i, err)
		}
		ins.Slots = append(ins.Slots, ledger.SlotMeta{Address: addr, IsSigner: s.Signer, IsWritable: s.Writable})
	}
	return ins, nil
}

func (c Codec) EncodeTransaction(tx Transaction) ([]byte, error) {
	return c.cbor.MarshalCBOR(tx)
}

func (c Codec) DecodeTransaction(data []byte) (Transaction, error) {
	var tx Transaction
	if err := c.cbor.UnmarshalInto(data, &tx); err != nil {
		return tx, fmt.Errorf("%w: %v", ErrMalformedTransaction, err)
	}
	return tx, nil
}

// NewTransaction encodes ins and signs it with each of keys
func (c Codec) NewTransaction(ins Instruction, keys ...ed25519.PrivateKey) (Transaction, error) {
	message, err := c.EncodeInstruction(ins)
	if err != nil {
		return Transaction{}, err
	}
	tx := Transaction{Message: message}
	for _, key := range keys {
		sig, err := auth.Sign1(key, message)
		if err != nil {
			return Transaction{}, err
		}
		id := auth.Identity(key.Public().(ed25519.PublicKey))
		tx.Signatures = append(tx.Signatures, Signature{Signer: id.Bytes(), Sign1: sig})
	}
	return tx, nil
}
