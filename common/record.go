package common

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/hermeznetwork/tracerr"
	"github.com/shopspring/decimal"
)

// PriorityOpRecord is a priority op as requested in the smart contract
// priority queue.  It's built from a single event log and never modified.
type PriorityOpRecord struct {
	// SerialID is assigned by the smart contract, increasing by one with
	// every priority request
	SerialID uint64
	Data     PriorityOp
	// DeadlineBlock is the ethereum block after which the op expires
	DeadlineBlock uint64
	EthFee        decimal.Decimal
	// EthTxHash is the hash of the transaction that requested the op
	EthTxHash []byte
}

type priorityOpRecordJSON struct {
	SerialID      uint64          `json:"serial_id"`
	Data          json.RawMessage `json:"data"`
	DeadlineBlock uint64          `json:"deadline_block"`
	EthFee        decimal.Decimal `json:"eth_fee"`
	EthTxHash     hexutil.Bytes   `json:"eth_hash"`
}

// MarshalJSON encodes the record with the op tagged by its type:
// `"data": {"type": "Deposit", ...}`
func (r PriorityOpRecord) MarshalJSON() ([]byte, error) {
	data, err := MarshalPriorityOpJSON(r.Data)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return json.Marshal(priorityOpRecordJSON{
		SerialID:      r.SerialID,
		Data:          data,
		DeadlineBlock: r.DeadlineBlock,
		EthFee:        r.EthFee,
		EthTxHash:     r.EthTxHash,
	})
}

// MarshalPriorityOpJSON encodes op as a JSON object with its fields plus a
// "type" field
func MarshalPriorityOpJSON(op PriorityOp) ([]byte, error) {
	switch op := op.(type) {
	case *Deposit:
		return json.Marshal(struct {
			Type PriorityOpType `json:"type"`
			*Deposit
		}{op.Type(), op})
	case *FullExit:
		return json.Marshal(struct {
			Type PriorityOpType `json:"type"`
			*FullExit
		}{op.Type(), op})
	default:
		return nil, tracerr.Wrap(ErrUnsupportedOpType)
	}
}
