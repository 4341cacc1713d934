package common

import (
	"fmt"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/hermeznetwork/tracerr"
)

// pubdataReader consumes the fields of a priority op pubdata in order.  Every
// field offset depends on the widths of the previous ones.
type pubdataReader struct {
	opType PriorityOpType
	b      []byte
}

func newPubdataReader(opType PriorityOpType, b []byte) *pubdataReader {
	return &pubdataReader{opType: opType, b: b}
}

func (r *pubdataReader) next(field string, n int) ([]byte, error) {
	if len(r.b) < n {
		return nil, tracerr.Wrap(fmt.Errorf("%w: %s parse failed: input too short reading %s, need %d bytes, have %d",
			ErrMalformedPubdata, r.opType, field, n, len(r.b)))
	}
	out := r.b[:n]
	r.b = r.b[n:]
	return out, nil
}

func (r *pubdataReader) address(field string, n int) (ethCommon.Address, error) {
	b, err := r.next(field, n)
	if err != nil {
		return ethCommon.Address{}, tracerr.Wrap(err)
	}
	return ethCommon.BytesToAddress(b), nil
}

func (r *pubdataReader) tokenID(n int) (TokenID, error) {
	b, err := r.next("token", n)
	if err != nil {
		return 0, tracerr.Wrap(err)
	}
	return TokenIDFromBytes(b)
}

// close checks that the whole pubdata has been consumed
func (r *pubdataReader) close() error {
	if len(r.b) != 0 {
		return tracerr.Wrap(fmt.Errorf("%w: %s parse failed: input too big, %d trailing bytes",
			ErrMalformedPubdata, r.opType, len(r.b)))
	}
	return nil
}
