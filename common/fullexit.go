package common

import (
	"fmt"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/hermeznetwork/tracerr"
)

// FullExitTxType is the tag prepended to the canonical FullExit bytes, as
// encoded by the smart contract
const FullExitTxType = byte(6)

// FullExit is a priority op that forces the exit of the whole balance of
// TokenID from the account AccountID to EthAddr
type FullExit struct {
	AccountID AccountID         `json:"account_id"`
	EthAddr   ethCommon.Address `json:"eth_address"`
	TokenID   TokenID           `json:"token"`
}

// Type returns PriorityOpTypeFullExit
func (e *FullExit) Type() PriorityOpType { return PriorityOpTypeFullExit }

func (e *FullExit) priorityOp() {}

// Bytes encodes the FullExit in its canonical form:
// [FullExitTxType] + [accountID] + [ethAddr] + [token]
func (e *FullExit) Bytes(w FieldWidths) ([]byte, error) {
	accountIDBytes, err := e.AccountID.Bytes(w.AccountIDBytesLen())
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	b := make([]byte, 0, 1+w.FullExitBytesLen())
	b = append(b, FullExitTxType)
	b = append(b, accountIDBytes...)
	b = append(b, e.EthAddr.Bytes()...)
	b = append(b, e.TokenID.Bytes()...)
	return b, nil
}

// FullExitFromBytes decodes a FullExit from the pubdata of a priority
// request: [accountID] + [ethAddr] + [token], with the widths given by w.
func FullExitFromBytes(b []byte, w FieldWidths) (*FullExit, error) {
	r := newPubdataReader(PriorityOpTypeFullExit, b)
	var e FullExit
	accountIDBytes, err := r.next("account id", w.AccountIDBytesLen())
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	if e.AccountID, err = AccountIDFromBytes(accountIDBytes); err != nil {
		return nil, tracerr.Wrap(err)
	}
	if e.EthAddr, err = r.address("eth address", w.EthereumKeyBytesLen()); err != nil {
		return nil, tracerr.Wrap(err)
	}
	if e.TokenID, err = r.tokenID(w.TokenBytesLen()); err != nil {
		return nil, tracerr.Wrap(err)
	}
	if err := r.close(); err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &e, nil
}

// FullExitFromTxBytes decodes a FullExit from its canonical form, as
// returned by FullExit.Bytes
func FullExitFromTxBytes(b []byte, w FieldWidths) (*FullExit, error) {
	if len(b) == 0 {
		return nil, tracerr.Wrap(fmt.Errorf("%w: %s parse failed: input too short, missing tx type",
			ErrMalformedPubdata, PriorityOpTypeFullExit))
	}
	if b[0] != FullExitTxType {
		return nil, tracerr.Wrap(fmt.Errorf("%w: %s parse failed: tx type %d, expected %d",
			ErrMalformedPubdata, PriorityOpTypeFullExit, b[0], FullExitTxType))
	}
	return FullExitFromBytes(b[1:], w)
}
