package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/hermeznetwork/hermez-priorityop/common"
	"github.com/hermeznetwork/tracerr"
	"gopkg.in/go-playground/validator.v9"
)

// LogConf specifies the log configuration parameters
type LogConf struct {
	Level string   `validate:"required,oneof=debug info warn error"`
	Out   []string
	// ErrorsPath is the file where the errors are appended, if empty the
	// errors are not stored
	ErrorsPath string
}

// PriorityOp describes a priority op type of the protocol
type PriorityOp struct {
	// Type is the name of the priority op, "Deposit" or "FullExit"
	Type string `validate:"required,oneof=Deposit FullExit"`
	// OpCode is the op type byte used in the priority queue events
	OpCode uint8
	// Chunks is the number of block chunks the op uses
	Chunks uint64 `validate:"required"`
}

// Protocol is the field width table and the priority op descriptors shared
// with the smart contract and the circuit
type Protocol struct {
	AccountIDBitWidth   int          `validate:"required"`
	TokenBitWidth       int          `validate:"required"`
	BalanceBitWidth     int          `validate:"required"`
	EthereumKeyBitWidth int          `validate:"required"`
	FrAddressBitWidth   int          `validate:"required"`
	PriorityOps         []PriorityOp `validate:"required,dive"`
}

// FieldWidths returns the common.FieldWidths of the protocol
func (p *Protocol) FieldWidths() common.FieldWidths {
	return common.FieldWidths{
		AccountID:   p.AccountIDBitWidth,
		Token:       p.TokenBitWidth,
		Balance:     p.BalanceBitWidth,
		EthereumKey: p.EthereumKeyBitWidth,
		FrAddress:   p.FrAddressBitWidth,
	}
}

// Registry builds the common.PriorityOpRegistry of the protocol
func (p *Protocol) Registry() (*common.PriorityOpRegistry, error) {
	descs := make([]common.OpDescriptor, len(p.PriorityOps))
	for i, op := range p.PriorityOps {
		opType, err := common.StringToPriorityOpType(op.Type)
		if err != nil {
			return nil, tracerr.Wrap(err)
		}
		descs[i] = common.OpDescriptor{
			Type:   opType,
			OpCode: op.OpCode,
			Chunks: op.Chunks,
		}
	}
	return common.NewPriorityOpRegistry(p.FieldWidths(), descs)
}

// Config is the configuration of the priority op decoder
type Config struct {
	Log      LogConf  `validate:"required"`
	Protocol Protocol `validate:"required"`
	Decoder  struct {
		// Workers is the number of logs decoded concurrently
		Workers int `validate:"required,gt=0"`
		// ContractAddress is the address of the smart contract that
		// emits the priority requests.  If set, logs from other
		// contracts or with other topics are ignored.
		ContractAddress ethCommon.Address
	} `validate:"required"`
}

// Load loads the Config from path over the DefaultValues.  If path is empty
// only the DefaultValues are used.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(DefaultValues, &cfg); err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("error loading default configuration: %w", err))
	}
	if path != "" {
		md, err := toml.DecodeFile(path, &Config{})
		if err != nil {
			return nil, tracerr.Wrap(fmt.Errorf("error loading configuration file: %w", err))
		}
		// Arrays of tables are decoded over the existing elements, so a
		// PriorityOps list in the file replaces the default one entirely
		if md.IsDefined("Protocol", "PriorityOps") {
			cfg.Protocol.PriorityOps = nil
		}
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, tracerr.Wrap(fmt.Errorf("error loading configuration file: %w", err))
		}
	}
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("error validating configuration file: %w", err))
	}
	if _, err := cfg.Protocol.Registry(); err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("error validating configuration file: %w", err))
	}
	return &cfg, nil
}
