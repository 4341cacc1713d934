package common

import (
	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/hermeznetwork/tracerr"
	"github.com/shopspring/decimal"
)

// Deposit is a priority op that moves Amount of TokenID from the L1 address
// From into the rollup account of To
type Deposit struct {
	From    ethCommon.Address `json:"from"`
	TokenID TokenID           `json:"token"`
	// Amount in the token base units, without decimals applied
	Amount decimal.Decimal   `json:"amount"`
	To     ethCommon.Address `json:"to"`
}

// Type returns PriorityOpTypeDeposit
func (d *Deposit) Type() PriorityOpType { return PriorityOpTypeDeposit }

func (d *Deposit) priorityOp() {}

// DepositFromBytes decodes a Deposit from the pubdata of a priority request:
// [sender] + [token] + [amount] + [recipient], with the widths given by w.
func DepositFromBytes(b []byte, w FieldWidths) (*Deposit, error) {
	r := newPubdataReader(PriorityOpTypeDeposit, b)
	var d Deposit
	var err error
	if d.From, err = r.address("sender", w.EthereumKeyBytesLen()); err != nil {
		return nil, tracerr.Wrap(err)
	}
	if d.TokenID, err = r.tokenID(w.TokenBytesLen()); err != nil {
		return nil, tracerr.Wrap(err)
	}
	amountBytes, err := r.next("amount", w.BalanceBytesLen())
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	d.Amount = DecimalFromBytes(amountBytes)
	if d.To, err = r.address("recipient", w.FrAddressBytesLen()); err != nil {
		return nil, tracerr.Wrap(err)
	}
	if err := r.close(); err != nil {
		return nil, tracerr.Wrap(err)
	}
	return &d, nil
}
