package errclass

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// codedError mimics a provider error carrying a wallet code.
type codedError struct {
	code int
	msg  string
}

func (e *codedError) Error() string  { return e.msg }
func (e *codedError) ErrorCode() int { return e.code }

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{
			name:     "user rejection code",
			err:      &codedError{code: 4001, msg: "User rejected the request."},
			expected: UserRejected,
		},
		{
			name:     "user rejection code wins over other markers",
			err:      &codedError{code: 4001, msg: "insufficient funds, already registered"},
			expected: UserRejected,
		},
		{
			name:     "user denied phrase without code",
			err:      errors.New("MetaMask Tx Signature: User denied transaction signature."),
			expected: UserRejected,
		},
		{
			name:     "name conflict",
			err:      errors.New("execution reverted: Name already registered"),
			expected: NameConflict,
		},
		{
			name:     "name taken phrase",
			err:      errors.New("execution reverted: Name is taken"),
			expected: NameConflict,
		},
		{
			name:     "insufficient funds",
			err:      errors.New("err: insufficient funds for gas * price + value"),
			expected: InsufficientFunds,
		},
		{
			name:     "insufficient funds wins over call-exception markers",
			err:      errors.New("execution reverted: insufficient funds"),
			expected: InsufficientFunds,
		},
		{
			name:     "execution reverted",
			err:      errors.New("execution reverted"),
			expected: ContractCallFailed,
		},
		{
			name:     "missing revert data",
			err:      errors.New("missing revert data in call exception"),
			expected: ContractCallFailed,
		},
		{
			name:     "ethers call exception code in message",
			err:      errors.New("call revert exception (code=CALL_EXCEPTION)"),
			expected: ContractCallFailed,
		},
		{
			name:     "anything else is unknown",
			err:      errors.New("the moon is in the wrong phase"),
			expected: UnknownFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.err)
			require.NotNil(t, c)
			assert.Equal(t, tt.expected, c.Kind)
			assert.NotEmpty(t, c.Message)
			assert.ErrorIs(t, c, tt.err, "original error must stay in the chain")
		})
	}
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestClassifyIsDeterministic(t *testing.T) {
	err := errors.New("insufficient funds")
	first := Classify(err)
	second := Classify(err)
	assert.Equal(t, first.Kind, second.Kind)
	assert.Equal(t, first.Message, second.Message)
}

func TestClassifyPreservesUnknownMessageVerbatim(t *testing.T) {
	err := errors.New("Something Rather Specific Happened")
	c := Classify(err)
	assert.Equal(t, UnknownFailure, c.Kind)
	assert.Equal(t, "Something Rather Specific Happened", c.Message)
}

func TestClassifyKeepsExistingClassification(t *testing.T) {
	orig := New(ContractNotReady, "contract not initialized")
	wrapped := fmt.Errorf("while executing: %w", orig)
	c := Classify(wrapped)
	assert.Equal(t, ContractNotReady, c.Kind)
}

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(ValidationTimeout, "probe timed out"))
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ValidationTimeout, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestClassifiedErrorString(t *testing.T) {
	c := Wrap(NetworkSwitchFailed, "could not switch", errors.New("boom"))
	assert.Contains(t, c.Error(), "network_switch_failed")
	assert.Contains(t, c.Error(), "boom")
	assert.Equal(t, "boom", c.Unwrap().Error())
}
