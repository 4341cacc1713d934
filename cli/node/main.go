package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hermeznetwork/hermez-priorityop/common"
	"github.com/hermeznetwork/hermez-priorityop/config"
	"github.com/hermeznetwork/hermez-priorityop/eth"
	"github.com/hermeznetwork/hermez-priorityop/log"
	"github.com/hermeznetwork/tracerr"
	"github.com/urfave/cli/v2"
)

const (
	flagCfg       = "cfg"
	flagData      = "data"
	flagTxHash    = "txhash"
	flagFile      = "file"
	flagAccountID = "accountid"
	flagEthAddr   = "ethaddr"
	flagToken     = "token"
)

type decoderCtx struct {
	cfg      *config.Config
	registry *common.PriorityOpRegistry
	decoder  *eth.PriorityOpDecoder
}

func newDecoderCtx(c *cli.Context) (*decoderCtx, error) {
	cfg, err := config.Load(c.String(flagCfg))
	if err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("error parsing flags and config: %w", err))
	}
	log.Init(cfg.Log.Level, cfg.Log.Out, cfg.Log.ErrorsPath)
	registry, err := cfg.Protocol.Registry()
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	decoder := eth.NewPriorityOpDecoder(registry, eth.PriorityOpDecoderConfig{
		ContractAddress: cfg.Decoder.ContractAddress,
		Workers:         cfg.Decoder.Workers,
	})
	return &decoderCtx{cfg: cfg, registry: registry, decoder: decoder}, nil
}

func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	return b, nil
}

// parseTxHash parses a hex encoded transaction hash, which must be exactly
// ethCommon.HashLength bytes long
func parseTxHash(s string) (ethCommon.Hash, error) {
	b, err := decodeHex(s)
	if err != nil {
		return ethCommon.Hash{}, tracerr.Wrap(err)
	}
	if len(b) != ethCommon.HashLength {
		return ethCommon.Hash{}, tracerr.Wrap(fmt.Errorf("hash is %d bytes, expected %d",
			len(b), ethCommon.HashLength))
	}
	return ethCommon.BytesToHash(b), nil
}

func printJSON(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return tracerr.Wrap(err)
	}
	fmt.Println(string(b))
	return nil
}

func cmdDecode(c *cli.Context) error {
	dctx, err := newDecoderCtx(c)
	if err != nil {
		return tracerr.Wrap(err)
	}
	data, err := decodeHex(c.String(flagData))
	if err != nil {
		return tracerr.Wrap(fmt.Errorf("invalid %s: %w", flagData, err))
	}
	txHash, err := parseTxHash(c.String(flagTxHash))
	if err != nil {
		return tracerr.Wrap(fmt.Errorf("invalid %s: %w", flagTxHash, err))
	}
	record, err := dctx.decoder.FromLog(types.Log{
		Data:   data,
		TxHash: txHash,
	})
	if err != nil {
		return tracerr.Wrap(err)
	}
	log.Debugw("Decoded priority op", "serialID", record.SerialID,
		"type", record.Data.Type(), "chunks", dctx.decoder.Chunks(record.Data))
	return printJSON(record)
}

type decodeFileResult struct {
	Position int                      `json:"position"`
	Record   *common.PriorityOpRecord `json:"record,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

// jsonLog is a log as returned by eth_getLogs.  Unlike types.Log, the
// transactionHash may be null, as it is for pending logs.
type jsonLog struct {
	Address     ethCommon.Address `json:"address"`
	Topics      []ethCommon.Hash  `json:"topics"`
	Data        hexutil.Bytes     `json:"data"`
	BlockNumber hexutil.Uint64    `json:"blockNumber"`
	TxHash      *ethCommon.Hash   `json:"transactionHash"`
	TxIndex     hexutil.Uint      `json:"transactionIndex"`
	BlockHash   *ethCommon.Hash   `json:"blockHash"`
	Index       hexutil.Uint      `json:"logIndex"`
	Removed     bool              `json:"removed"`
}

func (l *jsonLog) toLog() types.Log {
	vLog := types.Log{
		Address:     l.Address,
		Topics:      l.Topics,
		Data:        l.Data,
		BlockNumber: uint64(l.BlockNumber),
		TxIndex:     uint(l.TxIndex),
		Index:       uint(l.Index),
		Removed:     l.Removed,
	}
	if l.TxHash != nil {
		vLog.TxHash = *l.TxHash
	}
	if l.BlockHash != nil {
		vLog.BlockHash = *l.BlockHash
	}
	return vLog
}

// decodeLogs decodes the priority requests of a JSON array of logs.  Each
// entry is parsed on its own: an entry that is not a valid log only fails
// its own result.  Results are sorted by the position of the entry in the
// array.
func decodeLogs(ctx context.Context, decoder *eth.PriorityOpDecoder,
	b []byte) ([]eth.PriorityOpResult, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("invalid logs file: %w", err))
	}
	var results []eth.PriorityOpResult
	logs := make([]types.Log, 0, len(entries))
	positions := make([]int, 0, len(entries))
	for i, entry := range entries {
		var l jsonLog
		if err := json.Unmarshal(entry, &l); err != nil {
			log.Warnw("Invalid log entry", "position", i, "err", err)
			results = append(results, eth.PriorityOpResult{
				Position: i,
				Err:      tracerr.Wrap(fmt.Errorf("invalid log: %w", err)),
			})
			continue
		}
		logs = append(logs, l.toLog())
		positions = append(positions, i)
	}

	decoded, err := decoder.FromLogs(ctx, logs)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	for _, result := range decoded {
		result.Position = positions[result.Position]
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Position < results[j].Position
	})
	return results, nil
}

func cmdDecodeFile(c *cli.Context) error {
	dctx, err := newDecoderCtx(c)
	if err != nil {
		return tracerr.Wrap(err)
	}
	b, err := ioutil.ReadFile(c.String(flagFile))
	if err != nil {
		return tracerr.Wrap(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// catch ^C to cancel the decoding
	ossig := make(chan os.Signal, 1)
	signal.Notify(ossig, os.Interrupt)
	defer signal.Stop(ossig)
	go func() {
		select {
		case <-ossig:
			cancel()
		case <-ctx.Done():
		}
	}()

	results, err := decodeLogs(ctx, dctx.decoder, b)
	if err != nil {
		return tracerr.Wrap(err)
	}
	var failed int
	var chunks uint64
	for _, result := range results {
		out := decodeFileResult{Position: result.Position, Record: result.Record}
		if result.Err != nil {
			out.Error = tracerr.Unwrap(result.Err).Error()
			failed++
		} else {
			chunks += dctx.decoder.Chunks(result.Record.Data)
		}
		if err := printJSON(out); err != nil {
			return tracerr.Wrap(err)
		}
	}
	log.Infow("Decoded priority requests", "priorityRequests", len(results),
		"failed", failed, "chunks", chunks)
	return nil
}

func cmdEncodeFullExit(c *cli.Context) error {
	dctx, err := newDecoderCtx(c)
	if err != nil {
		return tracerr.Wrap(err)
	}
	if !ethCommon.IsHexAddress(c.String(flagEthAddr)) {
		return tracerr.Wrap(fmt.Errorf("invalid %s: %s", flagEthAddr, c.String(flagEthAddr)))
	}
	if uint64(c.Uint(flagAccountID)) > math.MaxUint32 {
		return tracerr.Wrap(fmt.Errorf("%w: %s %d", common.ErrNumOverflow, flagAccountID, c.Uint(flagAccountID)))
	}
	if c.Uint(flagToken) > math.MaxUint16 {
		return tracerr.Wrap(fmt.Errorf("%w: %s %d", common.ErrNumOverflow, flagToken, c.Uint(flagToken)))
	}
	fullExit := common.FullExit{
		AccountID: common.AccountID(c.Uint(flagAccountID)),
		EthAddr:   ethCommon.HexToAddress(c.String(flagEthAddr)),
		TokenID:   common.TokenID(c.Uint(flagToken)),
	}
	b, err := fullExit.Bytes(dctx.registry.Widths())
	if err != nil {
		return tracerr.Wrap(err)
	}
	fmt.Println("0x" + hex.EncodeToString(b))
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "hermez-priorityop"
	app.Usage = "Decode priority ops requested in the rollup smart contract"
	app.Version = "0.1.0-alpha"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  flagCfg,
			Usage: "Configuration `FILE`, if not set the default configuration is used",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:    "decode",
			Aliases: []string{},
			Usage:   "Decode the data of a NewPriorityRequest event log",
			Action:  cmdDecode,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     flagData,
					Usage:    "event log `DATA` in hex",
					Required: true,
				},
				&cli.StringFlag{
					Name:     flagTxHash,
					Usage:    "`HASH` of the transaction that emitted the event",
					Required: true,
				}},
		},
		{
			Name:    "decodefile",
			Aliases: []string{},
			Usage:   "Decode the priority requests of a JSON array of event logs",
			Action:  cmdDecodeFile,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     flagFile,
					Usage:    "JSON `FILE` with the logs, as returned by eth_getLogs",
					Required: true,
				}},
		},
		{
			Name:    "encodefullexit",
			Aliases: []string{},
			Usage:   "Encode a FullExit in its canonical form",
			Action:  cmdEncodeFullExit,
			Flags: []cli.Flag{
				&cli.UintFlag{
					Name:     flagAccountID,
					Usage:    "rollup `ACCOUNT_ID`",
					Required: true,
				},
				&cli.StringFlag{
					Name:     flagEthAddr,
					Usage:    "ethereum `ADDRESS` that receives the funds",
					Required: true,
				},
				&cli.UintFlag{
					Name:     flagToken,
					Usage:    "`TOKEN_ID`",
					Required: true,
				}},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Printf("\nError: %v\n", tracerr.Sprint(err))
		os.Exit(1)
	}
}
