// Package signer derives an authenticated signing handle from the wallet
// provider, contingent on the required network being active.
package signer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/namegate/namegate/pkg/constants"
	"github.com/namegate/namegate/pkg/errclass"
	"github.com/namegate/namegate/pkg/network"
	"github.com/namegate/namegate/pkg/provider"
)

// Signer is a capability bound to one account address. It is valid only
// while the provider session and the network identity remain unchanged; it
// is never persisted.
type Signer struct {
	address  common.Address
	provider provider.Provider
}

// Address returns the connected account.
func (s *Signer) Address() common.Address {
	return s.address
}

// Provider returns the underlying wallet capability for issuing calls.
func (s *Signer) Provider() provider.Provider {
	return s.provider
}

// New binds an account address to a provider capability. Normally a signer
// comes out of Resolver.Resolve; this constructor exists for callers that
// manage account selection themselves.
func New(address common.Address, p provider.Provider) *Signer {
	return &Signer{address: address, provider: p}
}

// Resolver obtains signing handles from the provider.
type Resolver struct {
	provider provider.Provider
	enforcer *network.Enforcer
	logger   *slog.Logger
}

func NewResolver(p provider.Provider, enforcer *network.Enforcer, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{provider: p, enforcer: enforcer, logger: logger}
}

// Resolve returns a signing handle for the connected account. Callers are
// expected to have passed the network check already, but a mismatched
// network is tolerated here: the switch flow runs inline before the account
// request, so a caller that skipped the explicit check still ends up on the
// required network.
func (r *Resolver) Resolve(ctx context.Context) (*Signer, error) {
	if err := provider.EnsureAvailable(r.provider); err != nil {
		return nil, err
	}

	state, err := r.enforcer.Check(ctx)
	if err != nil {
		r.logger.Info("chain identity query failed, proceeding to account request", "err", err)
	}
	if state == network.Mismatched {
		if err := r.enforcer.Switch(ctx); err != nil {
			return nil, err
		}
	}

	raw, err := r.provider.Request(ctx, "eth_requestAccounts")
	if err != nil {
		return nil, mapAccountError(err)
	}

	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, errclass.Wrap(errclass.SignerUnavailable,
			"wallet returned a malformed account list", err)
	}
	if len(accounts) == 0 {
		return nil, errclass.New(errclass.SignerUnavailable,
			"wallet returned no connected accounts")
	}

	s := &Signer{address: common.HexToAddress(accounts[0]), provider: r.provider}
	r.logger.Debug("signer resolved", "account", s.address.Hex())
	return s, nil
}

func mapAccountError(err error) error {
	var rpcErr *provider.RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == constants.CodeUserRejected {
		return errclass.Wrap(errclass.UserRejected, "user rejected wallet connection", err)
	}
	if strings.Contains(strings.ToLower(err.Error()), errclass.MarkerUserDenied) {
		return errclass.Wrap(errclass.WalletAccessDenied, "user denied wallet access", err)
	}
	return errclass.Wrap(errclass.SignerUnavailable,
		fmt.Sprintf("failed to get signer: %v", err), err)
}
