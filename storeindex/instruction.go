package storeindex

import (
	"fmt"

	dtcbor "github.com/datatrails/go-datatrails-common/cbor"
)

const (
	// InstructionSetStoreIndex tags the instruction data for an index insert
	InstructionSetStoreIndex uint8 = 21
)

// SetStoreIndexArgs are the wire level arguments of an insert
type SetStoreIndexArgs struct {
	// Page identifies the index page targeted
	Page uint64 `cbor:"1,keyasint"`
	// Offset is the insert position within the page
	Offset uint64 `cbor:"2,keyasint"`
}

// InstructionCodec encodes instruction data as a tag byte followed by the
// deterministic CBOR encoding of the arguments.
type InstructionCodec struct {
	codec dtcbor.CBORCodec
}

func NewInstructionCodec() (InstructionCodec, error) {
	codec, err := dtcbor.NewCBORCodec(
		dtcbor.NewDeterministicEncOpts(),
		dtcbor.NewDeterministicDecOpts(), // unsigned int decodes to uint64
	)
	if err != nil {
		return InstructionCodec{}, err
	}
	return InstructionCodec{codec: codec}, nil
}

func (c InstructionCodec) EncodeSetStoreIndex(args SetStoreIndexArgs) ([]byte, error) {
	payload, err := c.codec.MarshalCBOR(args)
	if err != nil {
		return nil, err
	}
	return append([]byte{InstructionSetStoreIndex}, payload...), nil
}

func (c InstructionCodec) DecodeSetStoreIndex(data []byte) (SetStoreIndexArgs, error) {
	var args SetStoreIndexArgs
	if len(data) < 1 || data[0] != InstructionSetStoreIndex {
		return args, fmt.Errorf("%w: missing or unknown instruction tag", ErrInvalidInstruction)
	}
	if err := c.codec.UnmarshalInto(data[1:], &args); err != nil {
		return args, fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	return args, nil
}
