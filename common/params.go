package common

import (
	"fmt"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/hermeznetwork/tracerr"
)

const (
	// AccountIDBitWidth is the bit width of the account id in the pubdata
	AccountIDBitWidth = 24
	// TokenBitWidth is the bit width of the token id in the pubdata
	TokenBitWidth = 16
	// BalanceBitWidth is the bit width of a balance (amount) in the pubdata
	BalanceBitWidth = 128
	// EthereumKeyBitWidth is the bit width of an ethereum address in the
	// pubdata
	EthereumKeyBitWidth = 160
	// FrAddressBitWidth is the bit width of the rollup recipient address
	// in the pubdata
	FrAddressBitWidth = 160

	// maxAccountIDBitWidth is the width of AccountID
	maxAccountIDBitWidth = 32
)

// DefaultFieldWidths is the field width table of the current protocol
// version, shared with the smart contract and the circuit.
var DefaultFieldWidths = FieldWidths{
	AccountID:   AccountIDBitWidth,
	Token:       TokenBitWidth,
	Balance:     BalanceBitWidth,
	EthereumKey: EthereumKeyBitWidth,
	FrAddress:   FrAddressBitWidth,
}

// FieldWidths is the table of bit widths of the fields encoded in the
// priority op pubdata.  All the widths are expressed in bits and must be
// multiples of 8.
type FieldWidths struct {
	AccountID   int
	Token       int
	Balance     int
	EthereumKey int
	FrAddress   int
}

// Validate checks that the widths can be represented by the Go types used
// to hold the decoded fields.
func (w FieldWidths) Validate() error {
	for _, f := range []struct {
		name  string
		width int
	}{
		{"AccountID", w.AccountID},
		{"Token", w.Token},
		{"Balance", w.Balance},
		{"EthereumKey", w.EthereumKey},
		{"FrAddress", w.FrAddress},
	} {
		if f.width <= 0 || f.width%8 != 0 {
			return tracerr.Wrap(fmt.Errorf("invalid %s bit width %d: must be a positive multiple of 8",
				f.name, f.width))
		}
	}
	if w.AccountID > maxAccountIDBitWidth {
		return tracerr.Wrap(fmt.Errorf("AccountID bit width %d exceeds %d",
			w.AccountID, maxAccountIDBitWidth))
	}
	if w.Token != TokenIDBytesLen*8 {
		return tracerr.Wrap(fmt.Errorf("Token bit width %d, expected %d",
			w.Token, TokenIDBytesLen*8))
	}
	if w.Balance > BalanceBitWidth {
		return tracerr.Wrap(fmt.Errorf("Balance bit width %d exceeds %d",
			w.Balance, BalanceBitWidth))
	}
	if w.EthereumKey != ethCommon.AddressLength*8 || w.FrAddress != ethCommon.AddressLength*8 {
		return tracerr.Wrap(fmt.Errorf("address bit widths (%d, %d), expected %d",
			w.EthereumKey, w.FrAddress, ethCommon.AddressLength*8))
	}
	return nil
}

// AccountIDBytesLen returns the length in bytes of the account id
func (w FieldWidths) AccountIDBytesLen() int { return w.AccountID / 8 }

// TokenBytesLen returns the length in bytes of the token id
func (w FieldWidths) TokenBytesLen() int { return w.Token / 8 }

// BalanceBytesLen returns the length in bytes of a balance
func (w FieldWidths) BalanceBytesLen() int { return w.Balance / 8 }

// EthereumKeyBytesLen returns the length in bytes of an ethereum address
func (w FieldWidths) EthereumKeyBytesLen() int { return w.EthereumKey / 8 }

// FrAddressBytesLen returns the length in bytes of a rollup recipient address
func (w FieldWidths) FrAddressBytesLen() int { return w.FrAddress / 8 }

// DepositBytesLen returns the length of the Deposit pubdata:
// [sender] + [token] + [amount] + [recipient]
func (w FieldWidths) DepositBytesLen() int {
	return w.EthereumKeyBytesLen() + w.TokenBytesLen() + w.BalanceBytesLen() + w.FrAddressBytesLen()
}

// FullExitBytesLen returns the length of the FullExit pubdata:
// [accountID] + [ethAddr] + [token]
func (w FieldWidths) FullExitBytesLen() int {
	return w.AccountIDBytesLen() + w.EthereumKeyBytesLen() + w.TokenBytesLen()
}
