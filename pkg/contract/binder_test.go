package contract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namegate/namegate/pkg/constants"
	"github.com/namegate/namegate/pkg/errclass"
	"github.com/namegate/namegate/pkg/network"
	"github.com/namegate/namegate/pkg/provider/providertest"
	"github.com/namegate/namegate/pkg/signer"
)

func newTestBinder(t *testing.T, opts ...BinderOption) (*Binder, *providertest.FakeProvider) {
	t.Helper()
	fp := providertest.New()
	enforcer := network.NewEnforcer(fp, network.Sepolia, nil)
	t.Cleanup(enforcer.Close)
	resolver := signer.NewResolver(fp, enforcer, nil)
	return NewBinder(testRegistry, resolver, nil, opts...), fp
}

func stubConnectedWallet(fp *providertest.FakeProvider) {
	fp.Stub("eth_chainId", constants.SepoliaChainIDHex)
	fp.Stub("eth_requestAccounts", []string{testAccount.Hex()})
}

func TestBindReturnsValidatedHandle(t *testing.T) {
	b, fp := newTestBinder(t)
	stubConnectedWallet(fp)
	owner := common.HexToAddress("0x3333333333333333333333333333333333333333")
	fp.Stub("eth_call", encodeOutput(t, "contractOwner", owner))

	h, err := b.Bind(context.Background())
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, testRegistry, h.Address())
	assert.Equal(t, testAccount, h.Signer().Address())

	// The probe ran exactly once.
	assert.Len(t, fp.Calls("eth_call"), 1)
}

func TestBindValidationTimeout(t *testing.T) {
	b, fp := newTestBinder(t, WithValidationTimeout(50*time.Millisecond))
	stubConnectedWallet(fp)
	fp.StubFunc("eth_call", func(ctx context.Context, params []any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	h, err := b.Bind(context.Background())
	assert.Nil(t, h, "no handle may escape a timed-out validation")
	kind, ok := errclass.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errclass.ValidationTimeout, kind)
}

func TestBindContractNotFoundOnEmptyReturnData(t *testing.T) {
	b, fp := newTestBinder(t)
	stubConnectedWallet(fp)
	fp.Stub("eth_call", "0x")

	h, err := b.Bind(context.Background())
	assert.Nil(t, h)
	kind, ok := errclass.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errclass.ContractNotFound, kind)
	assert.ErrorContains(t, err, testRegistry.Hex())
}

func TestBindContractNotFoundOnMissingRevertData(t *testing.T) {
	b, fp := newTestBinder(t)
	stubConnectedWallet(fp)
	fp.StubError("eth_call", errors.New("missing revert data in call exception"))

	h, err := b.Bind(context.Background())
	assert.Nil(t, h)
	kind, ok := errclass.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errclass.ContractNotFound, kind)
}

func TestBindValidationFailedOnOtherErrors(t *testing.T) {
	b, fp := newTestBinder(t)
	stubConnectedWallet(fp)
	fp.StubError("eth_call", errors.New("node is syncing"))

	h, err := b.Bind(context.Background())
	assert.Nil(t, h)
	kind, ok := errclass.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errclass.ValidationFailed, kind)
}

func TestBindPropagatesSignerFailure(t *testing.T) {
	b, fp := newTestBinder(t)
	fp.Stub("eth_chainId", constants.SepoliaChainIDHex)
	fp.StubError("eth_requestAccounts", errors.New("wallet had a bad day"))

	h, err := b.Bind(context.Background())
	assert.Nil(t, h)
	kind, ok := errclass.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errclass.SignerUnavailable, kind)
}

func TestBindRejectsConcurrentEntry(t *testing.T) {
	b, fp := newTestBinder(t)
	stubConnectedWallet(fp)

	release := make(chan struct{})
	entered := make(chan struct{})
	fp.StubFunc("eth_call", func(ctx context.Context, params []any) (any, error) {
		close(entered)
		<-release
		return encodeOutput(t, "contractOwner",
			common.HexToAddress("0x3333333333333333333333333333333333333333")), nil
	})

	first := make(chan error, 1)
	go func() {
		_, err := b.Bind(context.Background())
		first <- err
	}()

	<-entered
	_, err := b.Bind(context.Background())
	assert.ErrorIs(t, err, ErrBindInProgress)

	close(release)
	require.NoError(t, <-first)
}
