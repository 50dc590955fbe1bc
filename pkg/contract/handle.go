// Package contract binds the fixed registry address and call interface to a
// resolved signer and validates the binding before anyone may use it.
package contract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/namegate/namegate/pkg/signer"
)

// ErrNoReturnData is returned when an eth_call yields empty data, which a
// node reports when there is no contract code at the target address.
var ErrNoReturnData = errors.New("contract: call returned no data, no contract code at address?")

type callParams struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
	Data string `json:"data"`
}

// Handle is the immutable triple of registry address, call interface and
// current signer. It is reusable across calls until the network or account
// changes, at which point the session re-binds a fresh one.
type Handle struct {
	address common.Address
	abi     abi.ABI
	signer  *signer.Signer
	logger  *slog.Logger
}

// NewHandle constructs an unvalidated handle. Use Binder.Bind to get a
// validated one.
func NewHandle(address common.Address, s *signer.Signer, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{
		address: address,
		abi:     RegistryABI(),
		signer:  s,
		logger:  logger,
	}
}

// Address returns the registry's fixed on-chain address.
func (h *Handle) Address() common.Address {
	return h.address
}

// Signer returns the signer the handle is bound to.
func (h *Handle) Signer() *signer.Signer {
	return h.signer
}

// call packs a read-only method, issues eth_call through the provider and
// unpacks the outputs.
func (h *Handle) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := h.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("contract: pack %s: %w", method, err)
	}

	raw, err := h.signer.Provider().Request(ctx, "eth_call", callParams{
		To:   h.address.Hex(),
		Data: hexutil.Encode(data),
	}, "latest")
	if err != nil {
		return nil, fmt.Errorf("contract: %s: %w", method, err)
	}

	var result string
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("contract: %s: malformed call result: %w", method, err)
	}
	out, err := hexutil.Decode(result)
	if err != nil {
		return nil, fmt.Errorf("contract: %s: malformed return data: %w", method, err)
	}
	if len(out) == 0 {
		return nil, ErrNoReturnData
	}

	values, err := h.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("contract: %s: unpack: %w", method, err)
	}
	return values, nil
}

// Send packs a state-changing method and submits it through the wallet. It
// returns the submitted transaction hash; awaiting confirmation is the
// executor's job.
func (h *Handle) Send(ctx context.Context, method string, args ...any) (common.Hash, error) {
	data, err := h.abi.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("contract: pack %s: %w", method, err)
	}

	raw, err := h.signer.Provider().Request(ctx, "eth_sendTransaction", callParams{
		From: h.signer.Address().Hex(),
		To:   h.address.Hex(),
		Data: hexutil.Encode(data),
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("contract: %s: %w", method, err)
	}

	var txHash string
	if err := json.Unmarshal(raw, &txHash); err != nil {
		return common.Hash{}, fmt.Errorf("contract: %s: malformed tx hash: %w", method, err)
	}
	h.logger.Info("transaction submitted", "method", method, "tx", txHash)
	return common.HexToHash(txHash), nil
}

// IsNameAvailable probes whether a name can still be registered.
func (h *Handle) IsNameAvailable(ctx context.Context, name string) (bool, error) {
	values, err := h.call(ctx, "isNameAvailable", name)
	if err != nil {
		return false, err
	}
	available, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("contract: isNameAvailable: unexpected return type %T", values[0])
	}
	return available, nil
}

// ResolveName returns the address a name points at.
func (h *Handle) ResolveName(ctx context.Context, name string) (common.Address, error) {
	values, err := h.call(ctx, "resolveName", name)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("contract: resolveName: unexpected return type %T", values[0])
	}
	return addr, nil
}

// NamesOwnedBy lists the names owned by an account.
func (h *Handle) NamesOwnedBy(ctx context.Context, owner common.Address) ([]string, error) {
	values, err := h.call(ctx, "getNamesOwnedBy", owner)
	if err != nil {
		return nil, err
	}
	names, ok := values[0].([]string)
	if !ok {
		return nil, fmt.Errorf("contract: getNamesOwnedBy: unexpected return type %T", values[0])
	}
	return names, nil
}

// Image returns the content identifier of a name's profile image.
func (h *Handle) Image(ctx context.Context, name string) (string, error) {
	values, err := h.call(ctx, "getImage", name)
	if err != nil {
		return "", err
	}
	cid, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("contract: getImage: unexpected return type %T", values[0])
	}
	return cid, nil
}

// Owner is the read-only identity probe used to validate the binding.
func (h *Handle) Owner(ctx context.Context) (common.Address, error) {
	values, err := h.call(ctx, "contractOwner")
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("contract: contractOwner: unexpected return type %T", values[0])
	}
	return addr, nil
}
