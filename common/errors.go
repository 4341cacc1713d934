package common

import "errors"

// ErrNumOverflow is used when a given value overflows the maximum capacity of the parameter
var ErrNumOverflow = errors.New("Value overflows the type")

var (
	// ErrEnvelopeDecode is used when the data of a priority request log
	// doesn't match the ABI schema of the event
	ErrEnvelopeDecode = errors.New("priority request event data decode failed")
	// ErrUnsupportedOpType is used when the op type byte of a priority
	// request has no registered decoder
	ErrUnsupportedOpType = errors.New("unsupported priority op type")
	// ErrMalformedPubdata is used when the pubdata length doesn't match
	// exactly the layout of the resolved operation
	ErrMalformedPubdata = errors.New("malformed priority op pubdata")
	// ErrIntegerRange is used when an ABI integer doesn't fit in the
	// narrower type it is converted to
	ErrIntegerRange = errors.New("integer out of range")
	// ErrMissingTxHash is used when the priority request log doesn't carry
	// the hash of the transaction that emitted it
	ErrMissingTxHash = errors.New("event transaction hash is missing")
)
