package common

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strconv"

	"github.com/hermeznetwork/tracerr"
)

// TokenIDBytesLen defines the length of the TokenID byte array representation
const TokenIDBytesLen = 2

// TokenID is the unique identifier of the token, as set in the smart contract
type TokenID uint16

// String returns a string representation of the TokenID
func (t TokenID) String() string {
	return strconv.Itoa(int(t))
}

// Bytes returns a byte array of length 2 representing the TokenID
func (t TokenID) Bytes() []byte {
	var tokenIDBytes [TokenIDBytesLen]byte
	binary.BigEndian.PutUint16(tokenIDBytes[:], uint16(t))
	return tokenIDBytes[:]
}

// BigInt returns the *big.Int representation of the TokenID
func (t TokenID) BigInt() *big.Int {
	return big.NewInt(int64(t))
}

// TokenIDFromBytes returns TokenID from a byte array
func TokenIDFromBytes(b []byte) (TokenID, error) {
	if len(b) != TokenIDBytesLen {
		return 0, tracerr.Wrap(fmt.Errorf("can not parse TokenID, bytes len %d, expected %d",
			len(b), TokenIDBytesLen))
	}
	tid := binary.BigEndian.Uint16(b[:TokenIDBytesLen])
	return TokenID(tid), nil
}
