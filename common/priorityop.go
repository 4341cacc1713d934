package common

import (
	"fmt"

	"github.com/hermeznetwork/tracerr"
)

// PriorityOpType is a string that represents the type of a priority op
type PriorityOpType string

const (
	// PriorityOpTypeDeposit represents an L1 -> L2 deposit
	PriorityOpTypeDeposit PriorityOpType = "Deposit"
	// PriorityOpTypeFullExit represents a forced exit of a whole balance
	PriorityOpTypeFullExit PriorityOpType = "FullExit"
)

const (
	// DepositOpCode is the op type byte of a Deposit in the priority queue
	DepositOpCode = byte(0x01)
	// DepositOpChunks is the number of block chunks used by a Deposit
	DepositOpChunks = 6
	// FullExitOpCode is the op type byte of a FullExit in the priority queue
	FullExitOpCode = byte(0x06)
	// FullExitOpChunks is the number of block chunks used by a FullExit
	FullExitOpChunks = 6
)

// PriorityOp is one of the priority operations that can be requested in the
// smart contract.  The only implementations are *Deposit and *FullExit.
type PriorityOp interface {
	Type() PriorityOpType
	priorityOp()
}

type pubdataDecoder func(b []byte, w FieldWidths) (PriorityOp, error)

// pubdataDecoders has one entry per PriorityOpType.  Supporting a new kind
// of priority op requires adding its decoder here.
var pubdataDecoders = map[PriorityOpType]pubdataDecoder{
	PriorityOpTypeDeposit: func(b []byte, w FieldWidths) (PriorityOp, error) {
		op, err := DepositFromBytes(b, w)
		if err != nil {
			return nil, tracerr.Wrap(err)
		}
		return op, nil
	},
	PriorityOpTypeFullExit: func(b []byte, w FieldWidths) (PriorityOp, error) {
		op, err := FullExitFromBytes(b, w)
		if err != nil {
			return nil, tracerr.Wrap(err)
		}
		return op, nil
	},
}

// OpDescriptor describes how a priority op type is identified in the
// priority queue and how many block chunks it uses
type OpDescriptor struct {
	Type   PriorityOpType
	OpCode byte
	Chunks uint64
}

// DefaultOpDescriptors are the descriptors of the current protocol version
var DefaultOpDescriptors = []OpDescriptor{
	{Type: PriorityOpTypeDeposit, OpCode: DepositOpCode, Chunks: DepositOpChunks},
	{Type: PriorityOpTypeFullExit, OpCode: FullExitOpCode, Chunks: FullExitOpChunks},
}

// DefaultPriorityOpRegistry is the registry built from DefaultFieldWidths
// and DefaultOpDescriptors
var DefaultPriorityOpRegistry = MustNewPriorityOpRegistry(DefaultFieldWidths, DefaultOpDescriptors)

// PriorityOpRegistry maps op type bytes to pubdata decoders for a given
// version of the protocol field widths.  It's immutable once created and safe
// for concurrent use.
type PriorityOpRegistry struct {
	widths FieldWidths
	byCode map[byte]OpDescriptor
	byType map[PriorityOpType]OpDescriptor
}

// NewPriorityOpRegistry creates a PriorityOpRegistry.  Every known
// PriorityOpType must be described exactly once, and op codes can't be
// shared between types.
func NewPriorityOpRegistry(widths FieldWidths, descs []OpDescriptor) (*PriorityOpRegistry, error) {
	if err := widths.Validate(); err != nil {
		return nil, tracerr.Wrap(err)
	}
	r := &PriorityOpRegistry{
		widths: widths,
		byCode: make(map[byte]OpDescriptor, len(descs)),
		byType: make(map[PriorityOpType]OpDescriptor, len(descs)),
	}
	for _, desc := range descs {
		if _, ok := pubdataDecoders[desc.Type]; !ok {
			return nil, tracerr.Wrap(fmt.Errorf("no pubdata decoder for priority op type %q", desc.Type))
		}
		if _, ok := r.byType[desc.Type]; ok {
			return nil, tracerr.Wrap(fmt.Errorf("duplicated priority op type %s", desc.Type))
		}
		if other, ok := r.byCode[desc.OpCode]; ok {
			return nil, tracerr.Wrap(fmt.Errorf("op code %d used by %s and %s",
				desc.OpCode, other.Type, desc.Type))
		}
		r.byCode[desc.OpCode] = desc
		r.byType[desc.Type] = desc
	}
	for opType := range pubdataDecoders {
		if _, ok := r.byType[opType]; !ok {
			return nil, tracerr.Wrap(fmt.Errorf("missing descriptor for priority op type %s", opType))
		}
	}
	return r, nil
}

// MustNewPriorityOpRegistry is like NewPriorityOpRegistry but panics on error
func MustNewPriorityOpRegistry(widths FieldWidths, descs []OpDescriptor) *PriorityOpRegistry {
	r, err := NewPriorityOpRegistry(widths, descs)
	if err != nil {
		panic(err)
	}
	return r
}

// Widths returns the field widths used by the registry
func (r *PriorityOpRegistry) Widths() FieldWidths {
	return r.widths
}

// Descriptor returns the OpDescriptor of opType
func (r *PriorityOpRegistry) Descriptor(opType PriorityOpType) (OpDescriptor, bool) {
	desc, ok := r.byType[opType]
	return desc, ok
}

// Parse decodes the pubdata of the priority op identified by opCode
func (r *PriorityOpRegistry) Parse(opCode byte, pubdata []byte) (PriorityOp, error) {
	desc, ok := r.byCode[opCode]
	if !ok {
		return nil, tracerr.Wrap(fmt.Errorf("%w: %d", ErrUnsupportedOpType, opCode))
	}
	op, err := pubdataDecoders[desc.Type](pubdata, r.widths)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return op, nil
}

// Chunks returns the number of block chunks used by op
func (r *PriorityOpRegistry) Chunks(op PriorityOp) uint64 {
	return r.byType[op.Type()].Chunks
}

// ParsePriorityOp decodes the pubdata of the priority op identified by
// opCode using DefaultPriorityOpRegistry
func ParsePriorityOp(opCode byte, pubdata []byte) (PriorityOp, error) {
	return DefaultPriorityOpRegistry.Parse(opCode, pubdata)
}

// PriorityOpChunks returns the number of block chunks used by op according
// to DefaultPriorityOpRegistry
func PriorityOpChunks(op PriorityOp) uint64 {
	return DefaultPriorityOpRegistry.Chunks(op)
}
