// Package network enforces that the wallet is connected to the required
// network before any downstream capability (signer, contract) is derived,
// and keeps enforcing it for the life of the session by consuming
// provider-pushed chain-change events.
package network

import (
	"fmt"
	"strings"

	"github.com/namegate/namegate/pkg/constants"
)

// Currency describes a network's native currency for add-chain requests.
type Currency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Descriptor is the full description of a network, sufficient to ask a
// wallet to add it (EIP-3085).
type Descriptor struct {
	ChainID     int64
	HexChainID  string
	Name        string
	RPCURLs     []string
	Currency    Currency
	ExplorerURL string
}

// Sepolia is the required network of the reference deployment.
var Sepolia = Descriptor{
	ChainID:    constants.SepoliaChainID,
	HexChainID: constants.SepoliaChainIDHex,
	Name:       constants.SepoliaName,
	RPCURLs:    []string{constants.SepoliaRPCURL},
	Currency: Currency{
		Name:     constants.SepoliaCurrencyName,
		Symbol:   constants.SepoliaCurrencySymbol,
		Decimals: constants.SepoliaCurrencyDecimals,
	},
	ExplorerURL: constants.SepoliaExplorerURL,
}

// SwitchChainParams is the wallet_switchEthereumChain parameter object.
type SwitchChainParams struct {
	ChainID string `json:"chainId"`
}

// AddChainParams is the wallet_addEthereumChain parameter object.
type AddChainParams struct {
	ChainID           string   `json:"chainId"`
	ChainName         string   `json:"chainName"`
	RPCURLs           []string `json:"rpcUrls"`
	NativeCurrency    Currency `json:"nativeCurrency"`
	BlockExplorerURLs []string `json:"blockExplorerUrls"`
}

// SwitchParams returns the parameter object for a switch request.
func (d Descriptor) SwitchParams() SwitchChainParams {
	return SwitchChainParams{ChainID: d.HexChainID}
}

// AddParams returns the full parameter object for an add-chain request.
func (d Descriptor) AddParams() AddChainParams {
	return AddChainParams{
		ChainID:           d.HexChainID,
		ChainName:         d.Name,
		RPCURLs:           d.RPCURLs,
		NativeCurrency:    d.Currency,
		BlockExplorerURLs: []string{d.ExplorerURL},
	}
}

// Matches reports whether a hex chain identity from the provider refers to
// this network. Wallets are inconsistent about hex casing.
func (d Descriptor) Matches(hexChainID string) bool {
	return strings.EqualFold(hexChainID, d.HexChainID)
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s (%d)", d.Name, d.ChainID)
}
