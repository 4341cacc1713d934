package common

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strconv"

	"github.com/hermeznetwork/tracerr"
)

// accountIDMaxBytesLen is the number of bytes of the AccountID type
const accountIDMaxBytesLen = 4

// AccountID represents the account index in the rollup state tree
type AccountID uint32

// String returns a string representation of the AccountID
func (id AccountID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// BigInt returns a *big.Int representing the AccountID
func (id AccountID) BigInt() *big.Int {
	return new(big.Int).SetUint64(uint64(id))
}

// Bytes returns the big endian representation of the AccountID using
// nBytes, which is the account id width of the protocol.  The natural 4 byte
// representation is truncated from the most significant side, returning
// ErrNumOverflow if a non zero byte would be dropped.
func (id AccountID) Bytes(nBytes int) ([]byte, error) {
	if nBytes <= 0 || nBytes > accountIDMaxBytesLen {
		return nil, tracerr.Wrap(fmt.Errorf("invalid AccountID bytes len %d", nBytes))
	}
	var idBytes [accountIDMaxBytesLen]byte
	binary.BigEndian.PutUint32(idBytes[:], uint32(id))
	for _, b := range idBytes[:accountIDMaxBytesLen-nBytes] {
		if b != 0 {
			return nil, tracerr.Wrap(fmt.Errorf("%w: AccountID %d doesn't fit in %d bytes",
				ErrNumOverflow, id, nBytes))
		}
	}
	out := make([]byte, nBytes)
	copy(out, idBytes[accountIDMaxBytesLen-nBytes:])
	return out, nil
}

// AccountIDFromBytes returns AccountID from a big endian byte array of up to
// 4 bytes
func AccountIDFromBytes(b []byte) (AccountID, error) {
	if len(b) == 0 || len(b) > accountIDMaxBytesLen {
		return 0, tracerr.Wrap(fmt.Errorf("can not parse AccountID, bytes len %d, expected 1 to %d",
			len(b), accountIDMaxBytesLen))
	}
	var idBytes [accountIDMaxBytesLen]byte
	copy(idBytes[accountIDMaxBytesLen-len(b):], b)
	return AccountID(binary.BigEndian.Uint32(idBytes[:])), nil
}
