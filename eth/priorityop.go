package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hermeznetwork/hermez-priorityop/common"
	"github.com/hermeznetwork/hermez-priorityop/log"
	"github.com/hermeznetwork/hermez-priorityop/metric"
	"github.com/hermeznetwork/tracerr"
	"golang.org/x/sync/errgroup"
)

// LogNewPriorityRequest is the topic of the event emitted by the smart
// contract when a priority op is added to the priority queue
var LogNewPriorityRequest = crypto.Keccak256Hash([]byte(
	"NewPriorityRequest(uint64,uint8,bytes,uint256,uint256)"))

// priorityRequestArgs are the data arguments of NewPriorityRequest.  The
// event declares serialId as uint64 and opType as uint8; both are read as
// full ABI words so that they can be range checked instead of truncated.
var priorityRequestArgs = abi.Arguments{
	{Name: "serialId", Type: mustNewType("uint256")},
	{Name: "opType", Type: mustNewType("uint256")},
	{Name: "pubData", Type: mustNewType("bytes")},
	{Name: "expirationBlock", Type: mustNewType("uint256")},
	{Name: "fee", Type: mustNewType("uint256")},
}

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// envelopeLen is the length of the ABI encoding of the NewPriorityRequest
// data when the pubdata is pubdataLen bytes long: five head words, the
// length word of pubData and its content padded to 32 bytes.
func envelopeLen(pubdataLen int) int {
	return 32*len(priorityRequestArgs) + 32 + (pubdataLen+31)/32*32
}

// PriorityOpDecoderConfig is the configuration of a PriorityOpDecoder
type PriorityOpDecoderConfig struct {
	// ContractAddress, if set, is used by FromLogs to ignore the logs
	// that are not NewPriorityRequest events of this contract
	ContractAddress ethCommon.Address
	// Workers is the number of logs decoded concurrently by FromLogs
	Workers int
}

// PriorityOpDecoder builds PriorityOpRecords from NewPriorityRequest logs
type PriorityOpDecoder struct {
	registry *common.PriorityOpRegistry
	cfg      PriorityOpDecoderConfig
}

// NewPriorityOpDecoder creates a PriorityOpDecoder that parses the pubdata
// with registry
func NewPriorityOpDecoder(registry *common.PriorityOpRegistry,
	cfg PriorityOpDecoderConfig) *PriorityOpDecoder {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &PriorityOpDecoder{
		registry: registry,
		cfg:      cfg,
	}
}

// PriorityOpFromLog decodes a NewPriorityRequest log using the
// common.DefaultPriorityOpRegistry
func PriorityOpFromLog(vLog types.Log) (*common.PriorityOpRecord, error) {
	return NewPriorityOpDecoder(common.DefaultPriorityOpRegistry,
		PriorityOpDecoderConfig{}).FromLog(vLog)
}

// FromLog decodes the data of a NewPriorityRequest log into a
// PriorityOpRecord.  Errors in the pubdata are returned as they are given by
// the registry.
func (d *PriorityOpDecoder) FromLog(vLog types.Log) (*common.PriorityOpRecord, error) {
	values, err := priorityRequestArgs.Unpack(vLog.Data)
	if err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("%w: %v", common.ErrEnvelopeDecode, err))
	}
	if len(values) != len(priorityRequestArgs) {
		return nil, tracerr.Wrap(fmt.Errorf("%w: got %d values, expected %d",
			common.ErrEnvelopeDecode, len(values), len(priorityRequestArgs)))
	}
	serialIDBig, ok0 := values[0].(*big.Int)
	opTypeBig, ok1 := values[1].(*big.Int)
	pubdata, ok2 := values[2].([]byte)
	deadlineBig, ok3 := values[3].(*big.Int)
	feeBig, ok4 := values[4].(*big.Int)
	if !(ok0 && ok1 && ok2 && ok3 && ok4) {
		return nil, tracerr.Wrap(fmt.Errorf("%w: unexpected value types %T, %T, %T, %T, %T",
			common.ErrEnvelopeDecode, values[0], values[1], values[2], values[3], values[4]))
	}
	// Unpack ignores the bytes past the encoded values
	if expected := envelopeLen(len(pubdata)); len(vLog.Data) != expected {
		return nil, tracerr.Wrap(fmt.Errorf("%w: data is %d bytes, expected %d",
			common.ErrEnvelopeDecode, len(vLog.Data), expected))
	}

	var record common.PriorityOpRecord
	if record.SerialID, err = common.Uint64FromBigInt(serialIDBig); err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("serialId: %w", tracerr.Unwrap(err)))
	}
	opType, err := common.Uint8FromBigInt(opTypeBig)
	if err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("opType: %w", tracerr.Unwrap(err)))
	}
	if record.Data, err = d.registry.Parse(opType, pubdata); err != nil {
		return nil, tracerr.Wrap(err)
	}
	if record.DeadlineBlock, err = common.Uint64FromBigInt(deadlineBig); err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("expirationBlock: %w", tracerr.Unwrap(err)))
	}
	if record.EthFee, err = common.DecimalFromBigInt(feeBig); err != nil {
		return nil, tracerr.Wrap(err)
	}
	if vLog.TxHash == (ethCommon.Hash{}) {
		return nil, tracerr.Wrap(fmt.Errorf("%w: log %d of block %d",
			common.ErrMissingTxHash, vLog.Index, vLog.BlockNumber))
	}
	record.EthTxHash = vLog.TxHash.Bytes()
	return &record, nil
}

// Chunks returns the number of block chunks used by op according to the
// registry of the decoder
func (d *PriorityOpDecoder) Chunks(op common.PriorityOp) uint64 {
	return d.registry.Chunks(op)
}

// PriorityOpResult is the outcome of decoding one log in FromLogs
type PriorityOpResult struct {
	// Position of the log in the slice passed to FromLogs
	Position int
	Record   *common.PriorityOpRecord
	Err      error
}

// IsPriorityRequest returns true if vLog is a NewPriorityRequest event of
// the configured contract.  If no contract address is configured, every log
// is accepted.
func (d *PriorityOpDecoder) IsPriorityRequest(vLog *types.Log) bool {
	if d.cfg.ContractAddress == (ethCommon.Address{}) {
		return true
	}
	return vLog.Address == d.cfg.ContractAddress &&
		len(vLog.Topics) > 0 && vLog.Topics[0] == LogNewPriorityRequest
}

// FromLogs decodes the priority request logs concurrently.  A log that fails
// to decode only affects its own result.  The results keep the order of the
// input logs; logs rejected by IsPriorityRequest are skipped.  The only
// error returned is the cancellation of ctx.
func (d *PriorityOpDecoder) FromLogs(ctx context.Context,
	logs []types.Log) ([]PriorityOpResult, error) {
	results := make([]PriorityOpResult, 0, len(logs))
	for i := range logs {
		if d.IsPriorityRequest(&logs[i]) {
			results = append(results, PriorityOpResult{Position: i})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int)
	g.Go(func() error {
		defer close(jobs)
		for i := range results {
			if err := gctx.Err(); err != nil {
				return tracerr.Wrap(err)
			}
			select {
			case jobs <- i:
			case <-gctx.Done():
				return tracerr.Wrap(gctx.Err())
			}
		}
		return nil
	})
	for w := 0; w < d.cfg.Workers; w++ {
		g.Go(func() error {
			for i := range jobs {
				result := &results[i]
				start := time.Now()
				result.Record, result.Err = d.FromLog(logs[result.Position])
				metric.PriorityOpDecodeDuration.Observe(time.Since(start).Seconds())
				if result.Err != nil {
					metric.PriorityOpsFailed.WithLabelValues(FailureReason(result.Err)).Inc()
					log.Warnw("Failed to decode priority request",
						"txHash", logs[result.Position].TxHash.String(),
						"logIndex", logs[result.Position].Index,
						"err", result.Err)
					continue
				}
				metric.PriorityOpsDecoded.WithLabelValues(
					string(result.Record.Data.Type())).Inc()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, tracerr.Wrap(err)
	}
	return results, nil
}

// FailureReason classifies a FromLog error for metrics
func FailureReason(err error) string {
	err = tracerr.Unwrap(err)
	switch {
	case errors.Is(err, common.ErrEnvelopeDecode):
		return "envelope_decode"
	case errors.Is(err, common.ErrUnsupportedOpType):
		return "unsupported_op_type"
	case errors.Is(err, common.ErrMalformedPubdata):
		return "malformed_pubdata"
	case errors.Is(err, common.ErrIntegerRange):
		return "integer_range"
	case errors.Is(err, common.ErrMissingTxHash):
		return "missing_tx_hash"
	default:
		return "unknown"
	}
}
