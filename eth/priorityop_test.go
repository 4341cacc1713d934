package eth

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hermeznetwork/hermez-priorityop/common"
	"github.com/hermeznetwork/hermez-priorityop/metric"
	"github.com/hermeznetwork/tracerr"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	contractAddr = ethCommon.HexToAddress("0xc58d29fA6e86E4FAe04DDcEd660d45BCf3Cb2370")
	txHash       = ethCommon.HexToHash("0x8e1bbd5e7e1d5bd29a4c7b7fd7c5a4a2d3c5b0e1f2a3b4c5d6e7f8091a2b3c4d")
)

func depositPubdata() []byte {
	amount, _ := new(big.Int).SetString("1000000000000000000", 10)
	amountBytes := make([]byte, 16)
	raw := amount.Bytes()
	copy(amountBytes[16-len(raw):], raw)
	var b []byte
	b = append(b, bytes.Repeat([]byte{0x11}, 20)...)
	b = append(b, 0x00, 0x07)
	b = append(b, amountBytes...)
	b = append(b, bytes.Repeat([]byte{0x22}, 20)...)
	return b
}

func fullExitPubdata(t *testing.T) []byte {
	fullExit := common.FullExit{
		AccountID: 42,
		EthAddr:   ethCommon.HexToAddress("0x3333333333333333333333333333333333333333"),
		TokenID:   9,
	}
	b, err := fullExit.Bytes(common.DefaultFieldWidths)
	require.NoError(t, err)
	return b[1:]
}

func packPriorityRequest(t *testing.T, serialID, opType *big.Int, pubdata []byte,
	deadline, fee *big.Int) []byte {
	data, err := priorityRequestArgs.Pack(serialID, opType, pubdata, deadline, fee)
	require.NoError(t, err)
	return data
}

func priorityRequestLog(data []byte) types.Log {
	return types.Log{
		Address:     contractAddr,
		Topics:      []ethCommon.Hash{LogNewPriorityRequest},
		Data:        data,
		BlockNumber: 1000,
		TxHash:      txHash,
		Index:       2,
	}
}

func TestPriorityOpFromLogDeposit(t *testing.T) {
	fee, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	require.True(t, ok)
	data := packPriorityRequest(t, big.NewInt(5), big.NewInt(int64(common.DepositOpCode)),
		depositPubdata(), big.NewInt(12345), fee)

	record, err := PriorityOpFromLog(priorityRequestLog(data))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), record.SerialID)
	assert.Equal(t, uint64(12345), record.DeadlineBlock)
	assert.Equal(t, fee.String(), record.EthFee.String())
	assert.Equal(t, txHash.Bytes(), record.EthTxHash)
	assert.Equal(t, uint64(common.DepositOpChunks), common.PriorityOpChunks(record.Data))

	deposit, ok := record.Data.(*common.Deposit)
	require.True(t, ok)
	assert.Equal(t, ethCommon.HexToAddress("0x1111111111111111111111111111111111111111"), deposit.From)
	assert.Equal(t, common.TokenID(7), deposit.TokenID)
	assert.Equal(t, "1000000000000000000", deposit.Amount.String())
	assert.Equal(t, ethCommon.HexToAddress("0x2222222222222222222222222222222222222222"), deposit.To)
}

func TestPriorityOpFromLogFullExit(t *testing.T) {
	data := packPriorityRequest(t, big.NewInt(6), big.NewInt(int64(common.FullExitOpCode)),
		fullExitPubdata(t), big.NewInt(1), big.NewInt(0))

	record, err := PriorityOpFromLog(priorityRequestLog(data))
	require.NoError(t, err)
	assert.Equal(t, &common.FullExit{
		AccountID: 42,
		EthAddr:   ethCommon.HexToAddress("0x3333333333333333333333333333333333333333"),
		TokenID:   9,
	}, record.Data)
	assert.Equal(t, "0", record.EthFee.String())
}

func TestPriorityOpFromLogPubdataError(t *testing.T) {
	pubdata := depositPubdata()
	corrupted := pubdata[:len(pubdata)-1]
	data := packPriorityRequest(t, big.NewInt(1), big.NewInt(int64(common.DepositOpCode)),
		corrupted, big.NewInt(1), big.NewInt(1))

	_, parseErr := common.ParsePriorityOp(common.DepositOpCode, corrupted)
	require.Error(t, parseErr)
	_, err := PriorityOpFromLog(priorityRequestLog(data))
	require.Error(t, err)
	assert.True(t, errors.Is(tracerr.Unwrap(err), common.ErrMalformedPubdata))
	assert.Equal(t, tracerr.Unwrap(parseErr).Error(), tracerr.Unwrap(err).Error())

	data = packPriorityRequest(t, big.NewInt(1), big.NewInt(2), pubdata, big.NewInt(1), big.NewInt(1))
	_, err = PriorityOpFromLog(priorityRequestLog(data))
	assert.True(t, errors.Is(tracerr.Unwrap(err), common.ErrUnsupportedOpType))
}

func TestPriorityOpFromLogIntegerRange(t *testing.T) {
	tooBig := new(big.Int).Lsh(big.NewInt(1), 64)
	opType := big.NewInt(int64(common.DepositOpCode))

	data := packPriorityRequest(t, tooBig, opType, depositPubdata(), big.NewInt(1), big.NewInt(1))
	_, err := PriorityOpFromLog(priorityRequestLog(data))
	assert.True(t, errors.Is(tracerr.Unwrap(err), common.ErrIntegerRange))

	data = packPriorityRequest(t, big.NewInt(1), opType, depositPubdata(), tooBig, big.NewInt(1))
	_, err = PriorityOpFromLog(priorityRequestLog(data))
	assert.True(t, errors.Is(tracerr.Unwrap(err), common.ErrIntegerRange))

	data = packPriorityRequest(t, big.NewInt(1), big.NewInt(0x101), depositPubdata(),
		big.NewInt(1), big.NewInt(1))
	_, err = PriorityOpFromLog(priorityRequestLog(data))
	assert.True(t, errors.Is(tracerr.Unwrap(err), common.ErrIntegerRange))
}

func TestPriorityOpFromLogEnvelopeError(t *testing.T) {
	data := packPriorityRequest(t, big.NewInt(1), big.NewInt(int64(common.DepositOpCode)),
		depositPubdata(), big.NewInt(1), big.NewInt(1))

	for _, malformed := range [][]byte{nil, data[:64], data[:len(data)-32]} {
		_, err := PriorityOpFromLog(priorityRequestLog(malformed))
		require.Error(t, err)
		assert.True(t, errors.Is(tracerr.Unwrap(err), common.ErrEnvelopeDecode))
	}
}

func TestPriorityOpFromLogTrailingBytes(t *testing.T) {
	data := packPriorityRequest(t, big.NewInt(1), big.NewInt(int64(common.DepositOpCode)),
		depositPubdata(), big.NewInt(1), big.NewInt(1))
	assert.Equal(t, envelopeLen(len(depositPubdata())), len(data))

	for _, extra := range [][]byte{
		bytes.Repeat([]byte{0xab}, 7),
		make([]byte, 32),
	} {
		padded := append(append([]byte{}, data...), extra...)
		_, err := PriorityOpFromLog(priorityRequestLog(padded))
		require.Error(t, err)
		assert.True(t, errors.Is(tracerr.Unwrap(err), common.ErrEnvelopeDecode))
		assert.Equal(t, "envelope_decode", FailureReason(err))
	}
}

func TestPriorityOpDecoderChunks(t *testing.T) {
	registry, err := common.NewPriorityOpRegistry(common.DefaultFieldWidths, []common.OpDescriptor{
		{Type: common.PriorityOpTypeDeposit, OpCode: common.DepositOpCode, Chunks: 3},
		{Type: common.PriorityOpTypeFullExit, OpCode: common.FullExitOpCode, Chunks: 9},
	})
	require.NoError(t, err)
	decoder := NewPriorityOpDecoder(registry, PriorityOpDecoderConfig{})

	data := packPriorityRequest(t, big.NewInt(1), big.NewInt(int64(common.DepositOpCode)),
		depositPubdata(), big.NewInt(1), big.NewInt(1))
	record, err := decoder.FromLog(priorityRequestLog(data))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), decoder.Chunks(record.Data))

	data = packPriorityRequest(t, big.NewInt(2), big.NewInt(int64(common.FullExitOpCode)),
		fullExitPubdata(t), big.NewInt(1), big.NewInt(0))
	record, err = decoder.FromLog(priorityRequestLog(data))
	require.NoError(t, err)
	assert.Equal(t, uint64(9), decoder.Chunks(record.Data))
}

func TestPriorityOpFromLogMissingTxHash(t *testing.T) {
	data := packPriorityRequest(t, big.NewInt(1), big.NewInt(int64(common.DepositOpCode)),
		depositPubdata(), big.NewInt(1), big.NewInt(1))
	vLog := priorityRequestLog(data)
	vLog.TxHash = ethCommon.Hash{}
	_, err := PriorityOpFromLog(vLog)
	assert.True(t, errors.Is(tracerr.Unwrap(err), common.ErrMissingTxHash))
}

func TestPriorityOpDecoderFromLogs(t *testing.T) {
	decoder := NewPriorityOpDecoder(common.DefaultPriorityOpRegistry, PriorityOpDecoderConfig{
		ContractAddress: contractAddr,
		Workers:         4,
	})
	deposit := depositPubdata()
	var logs []types.Log
	for i := 0; i < 20; i++ {
		pubdata := deposit
		if i%5 == 0 {
			pubdata = deposit[1:]
		}
		logs = append(logs, priorityRequestLog(packPriorityRequest(t, big.NewInt(int64(i)),
			big.NewInt(int64(common.DepositOpCode)), pubdata, big.NewInt(100), big.NewInt(1))))
	}
	otherContract := priorityRequestLog(logs[1].Data)
	otherContract.Address = ethCommon.HexToAddress("0x0000000000000000000000000000000000000001")
	otherTopic := priorityRequestLog(logs[1].Data)
	otherTopic.Topics = []ethCommon.Hash{{}}
	logs = append(logs, otherContract, otherTopic)

	failedBefore := testutil.ToFloat64(metric.PriorityOpsFailed.WithLabelValues("malformed_pubdata"))
	decodedBefore := testutil.ToFloat64(metric.PriorityOpsDecoded.WithLabelValues("Deposit"))
	results, err := decoder.FromLogs(context.Background(), logs)
	require.NoError(t, err)
	assert.Equal(t, failedBefore+4,
		testutil.ToFloat64(metric.PriorityOpsFailed.WithLabelValues("malformed_pubdata")))
	assert.Equal(t, decodedBefore+16,
		testutil.ToFloat64(metric.PriorityOpsDecoded.WithLabelValues("Deposit")))
	require.Equal(t, 20, len(results))
	for i, result := range results {
		assert.Equal(t, i, result.Position)
		if i%5 == 0 {
			assert.True(t, errors.Is(tracerr.Unwrap(result.Err), common.ErrMalformedPubdata))
			assert.Equal(t, "malformed_pubdata", FailureReason(result.Err))
			assert.Nil(t, result.Record)
			continue
		}
		require.NoError(t, result.Err)
		assert.Equal(t, uint64(i), result.Record.SerialID)
	}
}

func TestPriorityOpDecoderFromLogsCanceled(t *testing.T) {
	decoder := NewPriorityOpDecoder(common.DefaultPriorityOpRegistry, PriorityOpDecoderConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	logs := make([]types.Log, 10)
	_, err := decoder.FromLogs(ctx, logs)
	assert.True(t, errors.Is(tracerr.Unwrap(err), context.Canceled))
}
