package provider

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/namegate/namegate/pkg/constants"
)

// RPCProvider adapts a plain JSON-RPC node to the Provider capability for
// environments without an injected wallet (tests, CLI runs against a local
// development node with unlocked accounts). A node is pinned to one chain, so
// the wallet-only methods degrade deterministically: a switch request
// succeeds only when the node already serves the requested chain, and an
// add request is reported as unrecognized chain.
type RPCProvider struct {
	client  *rpc.Client
	account common.Address
	logger  *slog.Logger

	mu        sync.Mutex
	listeners map[int]func(string)
	nextID    int
}

var _ Provider = (*RPCProvider)(nil)

// RPCOption configures an RPCProvider.
type RPCOption func(*RPCProvider)

// WithAccount fixes the account reported by eth_requestAccounts. Without it
// the node's own account list is used.
func WithAccount(addr common.Address) RPCOption {
	return func(p *RPCProvider) { p.account = addr }
}

// WithLogger sets the logger; nil falls back to slog.Default.
func WithLogger(logger *slog.Logger) RPCOption {
	return func(p *RPCProvider) { p.logger = logger }
}

// DialRPC connects to a JSON-RPC endpoint and wraps it as a Provider.
func DialRPC(ctx context.Context, url string, opts ...RPCOption) (*RPCProvider, error) {
	dialCtx, cancel := context.WithTimeout(ctx, constants.DialTimeout)
	defer cancel()

	client, err := rpc.DialContext(dialCtx, url)
	if err != nil {
		return nil, &RPCError{Code: -32000, Message: err.Error()}
	}

	p := &RPCProvider{
		client:    client,
		logger:    slog.Default(),
		listeners: make(map[int]func(string)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Request implements Provider. Wallet-prompt methods are emulated against the
// fixed node; everything else passes through to the endpoint.
func (p *RPCProvider) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	switch method {
	case "eth_requestAccounts", "eth_accounts":
		return p.accounts(ctx)
	case "wallet_switchEthereumChain":
		return p.switchChain(ctx, params)
	case "wallet_addEthereumChain":
		return nil, &RPCError{Code: constants.CodeUnrecognizedChain,
			Message: "node endpoints cannot add chains"}
	}

	var raw json.RawMessage
	if err := p.client.CallContext(ctx, &raw, method, params...); err != nil {
		return nil, wrapRPCError(err)
	}
	return raw, nil
}

// OnChainChanged implements Provider. A fixed node never pushes chain
// changes; the registry exists so NotifyChainChanged can fan out
// synthetic events in tests and tooling.
func (p *RPCProvider) OnChainChanged(fn func(hexChainID string)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.listeners[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// NotifyChainChanged delivers a chain-change event to all listeners.
func (p *RPCProvider) NotifyChainChanged(hexChainID string) {
	p.mu.Lock()
	fns := make([]func(string), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(hexChainID)
	}
}

// Close releases the underlying RPC connection.
func (p *RPCProvider) Close() {
	p.client.Close()
}

func (p *RPCProvider) accounts(ctx context.Context) (json.RawMessage, error) {
	if p.account != (common.Address{}) {
		return json.Marshal([]string{p.account.Hex()})
	}
	var raw json.RawMessage
	if err := p.client.CallContext(ctx, &raw, "eth_accounts"); err != nil {
		return nil, wrapRPCError(err)
	}
	return raw, nil
}

// switchChain succeeds only when the node already serves the requested chain.
func (p *RPCProvider) switchChain(ctx context.Context, params []any) (json.RawMessage, error) {
	requested := requestedChainID(params)

	var current string
	if err := p.client.CallContext(ctx, &current, "eth_chainId"); err != nil {
		return nil, wrapRPCError(err)
	}
	if requested != "" && strings.EqualFold(current, requested) {
		return json.RawMessage("null"), nil
	}

	p.logger.Debug("switch requested against fixed node",
		"requested", requested, "current", current)
	return nil, &RPCError{Code: constants.CodeUnrecognizedChain,
		Message: "node endpoint is pinned to chain " + current}
}

func requestedChainID(params []any) string {
	if len(params) == 0 {
		return ""
	}
	// The switch param is {"chainId": "0x..."}; tolerate both typed structs
	// and raw maps by round-tripping through JSON.
	buf, err := json.Marshal(params[0])
	if err != nil {
		return ""
	}
	var decoded struct {
		ChainID string `json:"chainId"`
	}
	if err := json.Unmarshal(buf, &decoded); err != nil {
		return ""
	}
	return decoded.ChainID
}

// wrapRPCError converts go-ethereum rpc errors into RPCError so wallet codes
// survive classification.
func wrapRPCError(err error) error {
	if ec, ok := err.(rpc.Error); ok {
		return &RPCError{Code: ec.ErrorCode(), Message: ec.Error()}
	}
	return err
}
