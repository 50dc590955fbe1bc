package signer

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namegate/namegate/pkg/constants"
	"github.com/namegate/namegate/pkg/errclass"
	"github.com/namegate/namegate/pkg/network"
	"github.com/namegate/namegate/pkg/provider"
	"github.com/namegate/namegate/pkg/provider/providertest"
)

const testAccount = "0x1111111111111111111111111111111111111111"

func newTestResolver(t *testing.T) (*Resolver, *providertest.FakeProvider) {
	t.Helper()
	fp := providertest.New()
	enforcer := network.NewEnforcer(fp, network.Sepolia, nil)
	t.Cleanup(enforcer.Close)
	return NewResolver(fp, enforcer, nil), fp
}

func TestResolveHappyPath(t *testing.T) {
	r, fp := newTestResolver(t)
	fp.Stub("eth_chainId", constants.SepoliaChainIDHex)
	fp.Stub("eth_requestAccounts", []string{testAccount})

	s, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAccount), s.Address())
	assert.NotNil(t, s.Provider())
}

func TestResolveRunsSwitchFlowInline(t *testing.T) {
	r, fp := newTestResolver(t)
	fp.Stub("eth_chainId", "0x1")
	fp.Stub("eth_chainId", constants.SepoliaChainIDHex)
	fp.Stub("wallet_switchEthereumChain", nil)
	fp.Stub("eth_requestAccounts", []string{testAccount})

	s, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAccount), s.Address())
	assert.Len(t, fp.Calls("wallet_switchEthereumChain"), 1)
}

func TestResolveSwitchFailurePropagates(t *testing.T) {
	r, fp := newTestResolver(t)
	fp.Stub("eth_chainId", "0x1")
	fp.StubError("wallet_switchEthereumChain", errors.New("wallet is locked"))

	_, err := r.Resolve(context.Background())
	kind, ok := errclass.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errclass.NetworkSwitchFailed, kind)
	assert.Empty(t, fp.Calls("eth_requestAccounts"))
}

func TestResolveUserRejection(t *testing.T) {
	r, fp := newTestResolver(t)
	fp.Stub("eth_chainId", constants.SepoliaChainIDHex)
	fp.StubError("eth_requestAccounts", &provider.RPCError{
		Code: constants.CodeUserRejected, Message: "User rejected the request.",
	})

	_, err := r.Resolve(context.Background())
	kind, ok := errclass.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errclass.UserRejected, kind)
}

func TestResolveAccessDeniedPhrase(t *testing.T) {
	r, fp := newTestResolver(t)
	fp.Stub("eth_chainId", constants.SepoliaChainIDHex)
	fp.StubError("eth_requestAccounts", errors.New("User denied account authorization"))

	_, err := r.Resolve(context.Background())
	kind, ok := errclass.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errclass.WalletAccessDenied, kind)
}

func TestResolveOtherProviderErrors(t *testing.T) {
	r, fp := newTestResolver(t)
	fp.Stub("eth_chainId", constants.SepoliaChainIDHex)
	fp.StubError("eth_requestAccounts", errors.New("wallet had a bad day"))

	_, err := r.Resolve(context.Background())
	kind, ok := errclass.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errclass.SignerUnavailable, kind)
	assert.ErrorContains(t, err, "wallet had a bad day")
}

func TestResolveNoAccounts(t *testing.T) {
	r, fp := newTestResolver(t)
	fp.Stub("eth_chainId", constants.SepoliaChainIDHex)
	fp.Stub("eth_requestAccounts", []string{})

	_, err := r.Resolve(context.Background())
	kind, ok := errclass.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errclass.SignerUnavailable, kind)
}
