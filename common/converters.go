package common

import (
	"fmt"
	"math"
	"math/big"

	"github.com/hermeznetwork/tracerr"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// StringToPriorityOpType converts string to priority op type
func StringToPriorityOpType(opType string) (PriorityOpType, error) {
	opTypeCasted := PriorityOpType(opType)
	switch opTypeCasted {
	case PriorityOpTypeDeposit, PriorityOpTypeFullExit:
		return opTypeCasted, nil
	default:
		return "", tracerr.Wrap(fmt.Errorf(
			"invalid %s, %s is not a valid option. Valid options: %s, %s",
			"priority op type", opType, PriorityOpTypeDeposit, PriorityOpTypeFullExit,
		))
	}
}

func uint256FromBigInt(b *big.Int) (*uint256.Int, error) {
	if b == nil {
		return nil, tracerr.Wrap(fmt.Errorf("%w: nil value", ErrIntegerRange))
	}
	if b.Sign() < 0 {
		return nil, tracerr.Wrap(fmt.Errorf("%w: negative value %s", ErrIntegerRange, b))
	}
	u, overflow := uint256.FromBig(b)
	if overflow {
		return nil, tracerr.Wrap(fmt.Errorf("%w: %s does not fit in uint256", ErrIntegerRange, b))
	}
	return u, nil
}

// Uint64FromBigInt converts an ABI unsigned integer into uint64, returning
// ErrIntegerRange if the value doesn't fit.
func Uint64FromBigInt(b *big.Int) (uint64, error) {
	u, err := uint256FromBigInt(b)
	if err != nil {
		return 0, tracerr.Wrap(err)
	}
	if !u.IsUint64() {
		return 0, tracerr.Wrap(fmt.Errorf("%w: %s does not fit in uint64", ErrIntegerRange, b))
	}
	return u.Uint64(), nil
}

// Uint8FromBigInt converts an ABI unsigned integer into uint8, returning
// ErrIntegerRange if the value doesn't fit.
func Uint8FromBigInt(b *big.Int) (uint8, error) {
	u, err := uint256FromBigInt(b)
	if err != nil {
		return 0, tracerr.Wrap(err)
	}
	if !u.IsUint64() || u.Uint64() > math.MaxUint8 {
		return 0, tracerr.Wrap(fmt.Errorf("%w: %s does not fit in uint8", ErrIntegerRange, b))
	}
	return uint8(u.Uint64()), nil
}

// DecimalFromBigInt converts an unsigned integer into a decimal with no
// fractional digits, going through its base 10 representation.
func DecimalFromBigInt(b *big.Int) (decimal.Decimal, error) {
	if b == nil {
		return decimal.Decimal{}, tracerr.Wrap(fmt.Errorf("%w: nil value", ErrIntegerRange))
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Decimal{}, tracerr.Wrap(err)
	}
	return d, nil
}

// DecimalFromBytes interprets b as a big endian unsigned integer and returns
// it as a decimal with no fractional digits.
func DecimalFromBytes(b []byte) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetBytes(b), 0)
}
