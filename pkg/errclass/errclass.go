// Package errclass maps heterogeneous wallet and contract failures into a
// closed taxonomy. The taxonomy is the contract between the connection core
// and its UI consumers: every component fails with one of these kinds rather
// than letting raw provider errors escape.
package errclass

import (
	"errors"
	"fmt"
	"strings"

	"github.com/namegate/namegate/pkg/constants"
)

// Kind identifies one failure class in the closed taxonomy.
type Kind string

const (
	ProviderMissing     Kind = "provider_missing"
	ProviderIncapable   Kind = "provider_incapable"
	NetworkSwitchFailed Kind = "network_switch_failed"
	NetworkAddFailed    Kind = "network_add_failed"
	UserRejected        Kind = "user_rejected"
	WalletAccessDenied  Kind = "wallet_access_denied"
	SignerUnavailable   Kind = "signer_unavailable"
	ValidationTimeout   Kind = "validation_timeout"
	ContractNotFound    Kind = "contract_not_found"
	ValidationFailed    Kind = "validation_failed"
	ContractNotReady    Kind = "contract_not_ready"
	InvalidArgument     Kind = "invalid_argument"
	NameConflict        Kind = "name_conflict"
	InsufficientFunds   Kind = "insufficient_funds"
	ContractCallFailed  Kind = "contract_call_failed"
	UnknownFailure      Kind = "unknown_failure"
)

// Message markers recognized by Classify. They mirror the error conventions
// of wallet providers and the registry contract, so they are effectively part
// of the external interface; changing one changes classification behavior.
const (
	MarkerNameConflict      = "already registered"
	MarkerNameTaken         = "name is taken"
	MarkerInsufficientFunds = "insufficient funds"
	MarkerMissingRevertData = "missing revert data"
	MarkerExecutionReverted = "execution reverted"
	MarkerCallException     = "call_exception"
	MarkerUserRejected      = "user rejected"
	MarkerUserDenied        = "user denied"
)

// Classified is a tagged failure carrying a human-readable message and the
// originating error for diagnostics.
type Classified struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Classified) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Classified) Unwrap() error {
	return e.Cause
}

// New creates a classified error with no underlying cause.
func New(kind Kind, message string) *Classified {
	return &Classified{Kind: kind, Message: message}
}

// Wrap creates a classified error preserving the original for diagnostics.
func Wrap(kind Kind, message string, cause error) *Classified {
	return &Classified{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the kind from an error chain. The second return is false
// when the chain contains no classified error.
func KindOf(err error) (Kind, bool) {
	var c *Classified
	if errors.As(err, &c) {
		return c.Kind, true
	}
	return UnknownFailure, false
}

// coder is satisfied by provider errors that carry a wallet error code.
type coder interface {
	ErrorCode() int
}

// Classify maps a raw provider or contract error into the taxonomy. It is
// total (never panics, handles nil) and deterministic for identical input.
// Matching runs in priority order: the canonical user-rejection code wins
// over every message marker.
func Classify(err error) *Classified {
	if err == nil {
		return nil
	}

	// Already classified upstream; keep the original verdict.
	var c *Classified
	if errors.As(err, &c) {
		return c
	}

	msg := strings.ToLower(err.Error())

	var coded coder
	if errors.As(err, &coded) && coded.ErrorCode() == constants.CodeUserRejected {
		return Wrap(UserRejected, "transaction was declined in the wallet", err)
	}
	if strings.Contains(msg, MarkerUserRejected) || strings.Contains(msg, MarkerUserDenied) {
		return Wrap(UserRejected, "transaction was declined in the wallet", err)
	}

	if strings.Contains(msg, MarkerNameConflict) || strings.Contains(msg, MarkerNameTaken) {
		return Wrap(NameConflict, "name is already registered", err)
	}

	if strings.Contains(msg, MarkerInsufficientFunds) {
		return Wrap(InsufficientFunds, "insufficient funds to pay for the transaction", err)
	}

	if strings.Contains(msg, MarkerExecutionReverted) ||
		strings.Contains(msg, MarkerMissingRevertData) ||
		strings.Contains(msg, MarkerCallException) {
		return Wrap(ContractCallFailed, "contract call failed", err)
	}

	return Wrap(UnknownFailure, err.Error(), err)
}
