package config

// DefaultValues is the default configuration of the priority op decoder
const DefaultValues = `
[Log]
Level = "info"

[Protocol]
AccountIDBitWidth   = 24
TokenBitWidth       = 16
BalanceBitWidth     = 128
EthereumKeyBitWidth = 160
FrAddressBitWidth   = 160

[[Protocol.PriorityOps]]
Type   = "Deposit"
OpCode = 1
Chunks = 6

[[Protocol.PriorityOps]]
Type   = "FullExit"
OpCode = 6
Chunks = 6

[Decoder]
Workers = 4
# ContractAddress = "0x0000000000000000000000000000000000000000"
`
