// Package provider models the wallet-supplied capability object that brokers
// requests to the user's account and the connected network. The core never
// owns the provider; it borrows it for the session and validates it before
// every operation that needs it.
package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/namegate/namegate/pkg/errclass"
)

// Provider is the request/event capability the connection core consumes.
// Request issues a JSON-RPC style call and returns the raw result;
// OnChainChanged registers a callback invoked with the new hex chain ID
// whenever the wallet switches networks, and returns an unsubscribe func
// that must be called when the listener is torn down.
type Provider interface {
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
	OnChainChanged(fn func(hexChainID string)) (unsubscribe func())
}

// RPCError is a provider failure carrying a wallet error code
// (EIP-1193 / EIP-3085 conventions, e.g. 4001 user rejection,
// 4902 unrecognized chain).
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// ErrorCode exposes the wallet code for classification.
func (e *RPCError) ErrorCode() int {
	return e.Code
}

// Detect validates an injected provider object during bootstrap. It fails
// with ProviderMissing when nothing was injected and ProviderIncapable when
// the object does not expose the request capability.
func Detect(injected any) (Provider, error) {
	if injected == nil {
		return nil, errclass.New(errclass.ProviderMissing,
			"no wallet provider found; install an EVM wallet")
	}
	p, ok := injected.(Provider)
	if !ok {
		return nil, errclass.New(errclass.ProviderIncapable,
			"wallet provider does not support the request method")
	}
	return p, nil
}

// EnsureAvailable re-checks the provider before an operation. Idempotent and
// side-effect free; safe to call before every call that needs the provider.
func EnsureAvailable(p Provider) error {
	if p == nil {
		return errclass.New(errclass.ProviderMissing,
			"no wallet provider found; install an EVM wallet")
	}
	return nil
}
