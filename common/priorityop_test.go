package common

import (
	"errors"
	"math/big"
	"testing"

	"github.com/hermeznetwork/tracerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriorityOp(t *testing.T) {
	depositData := depositPubdata(amountBytes(big.NewInt(1000)))
	op, err := ParsePriorityOp(DepositOpCode, depositData)
	require.NoError(t, err)
	deposit, ok := op.(*Deposit)
	require.True(t, ok)
	assert.Equal(t, "1000", deposit.Amount.String())
	assert.Equal(t, uint64(DepositOpChunks), PriorityOpChunks(op))

	fullExit := FullExit{AccountID: 42, EthAddr: ffAddr, TokenID: 9}
	encoded, err := fullExit.Bytes(DefaultFieldWidths)
	require.NoError(t, err)
	op, err = ParsePriorityOp(FullExitOpCode, encoded[1:])
	require.NoError(t, err)
	assert.Equal(t, &fullExit, op)
	assert.Equal(t, PriorityOpTypeFullExit, op.Type())
	assert.Equal(t, uint64(FullExitOpChunks), PriorityOpChunks(op))
}

func TestParsePriorityOpUnsupported(t *testing.T) {
	pubdata := depositPubdata(amountBytes(big.NewInt(1)))
	for i := 0; i < 256; i++ {
		opCode := byte(i)
		if opCode == DepositOpCode || opCode == FullExitOpCode {
			continue
		}
		_, err := ParsePriorityOp(opCode, pubdata)
		require.Error(t, err)
		assert.True(t, errors.Is(tracerr.Unwrap(err), ErrUnsupportedOpType), "op code %d", opCode)
	}
}

func TestParsePriorityOpExactLength(t *testing.T) {
	testVector := map[byte]int{
		DepositOpCode:  DefaultFieldWidths.DepositBytesLen(),
		FullExitOpCode: DefaultFieldWidths.FullExitBytesLen(),
	}
	for opCode, length := range testVector {
		pubdata := make([]byte, length+1)
		_, err := ParsePriorityOp(opCode, pubdata[:length])
		assert.NoError(t, err)
		_, err = ParsePriorityOp(opCode, pubdata[:length-1])
		assert.True(t, errors.Is(tracerr.Unwrap(err), ErrMalformedPubdata))
		_, err = ParsePriorityOp(opCode, pubdata)
		assert.True(t, errors.Is(tracerr.Unwrap(err), ErrMalformedPubdata))
	}
	assert.Equal(t, 58, DefaultFieldWidths.DepositBytesLen())
	assert.Equal(t, 25, DefaultFieldWidths.FullExitBytesLen())
}

func TestPriorityOpRegistry(t *testing.T) {
	descs := []OpDescriptor{
		{Type: PriorityOpTypeDeposit, OpCode: 0x11, Chunks: 4},
		{Type: PriorityOpTypeFullExit, OpCode: 0x16, Chunks: 2},
	}
	widths := DefaultFieldWidths
	widths.AccountID = 32
	registry, err := NewPriorityOpRegistry(widths, descs)
	require.NoError(t, err)
	assert.Equal(t, widths, registry.Widths())

	fullExit := FullExit{AccountID: 0xffffffff, EthAddr: ffAddr, TokenID: 1}
	encoded, err := fullExit.Bytes(widths)
	require.NoError(t, err)
	assert.Equal(t, 1+4+20+2, len(encoded))
	op, err := registry.Parse(0x16, encoded[1:])
	require.NoError(t, err)
	assert.Equal(t, &fullExit, op)
	assert.Equal(t, uint64(2), registry.Chunks(op))

	_, err = registry.Parse(FullExitOpCode, encoded[1:])
	assert.True(t, errors.Is(tracerr.Unwrap(err), ErrUnsupportedOpType))

	desc, ok := registry.Descriptor(PriorityOpTypeDeposit)
	require.True(t, ok)
	assert.Equal(t, descs[0], desc)
}

func TestNewPriorityOpRegistryErrors(t *testing.T) {
	_, err := NewPriorityOpRegistry(DefaultFieldWidths, DefaultOpDescriptors[:1])
	assert.Error(t, err)

	_, err = NewPriorityOpRegistry(DefaultFieldWidths, []OpDescriptor{
		{Type: PriorityOpTypeDeposit, OpCode: 1, Chunks: 6},
		{Type: PriorityOpTypeFullExit, OpCode: 1, Chunks: 6},
	})
	assert.Error(t, err)

	_, err = NewPriorityOpRegistry(DefaultFieldWidths, append(DefaultOpDescriptors,
		OpDescriptor{Type: "ChangePubKey", OpCode: 7, Chunks: 6}))
	assert.Error(t, err)

	widths := DefaultFieldWidths
	widths.Balance = 129
	_, err = NewPriorityOpRegistry(widths, DefaultOpDescriptors)
	assert.Error(t, err)
}
