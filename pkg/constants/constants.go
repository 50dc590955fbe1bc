package constants

import "time"

const (
	ContractValidationTimeout = 10 * time.Second // timeout for the contract identity probe
	ReceiptPollInterval       = 5 * time.Second  // interval between receipt lookups while a tx is pending
	PinTimeout                = 30 * time.Second // timeout for IPFS pin requests
	DialTimeout               = 10 * time.Second // timeout for dialing an RPC endpoint
)

// Required network: Ethereum Sepolia. The registry contract is deployed on a
// single network; every signer and contract call is gated on the wallet being
// connected to it.
const (
	SepoliaChainID     = int64(11155111)
	SepoliaChainIDHex  = "0xaa36a7"
	SepoliaName        = "Sepolia"
	SepoliaRPCURL      = "https://rpc.sepolia.org"
	SepoliaExplorerURL = "https://sepolia.etherscan.io"

	SepoliaCurrencyName     = "SepoliaETH"
	SepoliaCurrencySymbol   = "ETH"
	SepoliaCurrencyDecimals = 18
)

// RegistryContractAddress is the fixed deployment address of the name
// registry on Sepolia.
const RegistryContractAddress = "0x8aE1F6B5d7A3dD7b8Cf4aE014a8a26E7a42c95B3"

// Wallet provider error codes (EIP-1193 / EIP-3085).
const (
	CodeUserRejected      = 4001 // user rejected the request in the wallet prompt
	CodeUnrecognizedChain = 4902 // wallet does not know the requested chain
)

// DefaultIPFSGatewayURL resolves pinned content identifiers for display.
const DefaultIPFSGatewayURL = "https://ipfs.io"
