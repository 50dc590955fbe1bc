package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/namegate/namegate/pkg/constants"
	"github.com/namegate/namegate/pkg/errclass"
	"github.com/namegate/namegate/pkg/signer"
)

// ErrBindInProgress is returned when Bind is re-entered while a previous
// bind (and its wallet prompts) is still running.
var ErrBindInProgress = errors.New("contract: bind already in progress")

// Binder constructs validated contract handles. A handle is only returned
// after the identity probe has settled successfully within the timeout.
type Binder struct {
	address  common.Address
	resolver *signer.Resolver
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	binding bool
}

// BinderOption configures a Binder.
type BinderOption func(*Binder)

// WithValidationTimeout overrides the probe timeout.
func WithValidationTimeout(d time.Duration) BinderOption {
	return func(b *Binder) { b.timeout = d }
}

// NewBinder creates a binder for the registry at address.
func NewBinder(address common.Address, resolver *signer.Resolver, logger *slog.Logger, opts ...BinderOption) *Binder {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Binder{
		address:  address,
		resolver: resolver,
		timeout:  constants.ContractValidationTimeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bind resolves a signer, constructs the handle and validates it with the
// contractOwner probe raced against the timeout. Whichever settles first
// wins; a timeout yields ValidationTimeout and no handle.
func (b *Binder) Bind(ctx context.Context) (*Handle, error) {
	b.mu.Lock()
	if b.binding {
		b.mu.Unlock()
		return nil, ErrBindInProgress
	}
	b.binding = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.binding = false
		b.mu.Unlock()
	}()

	s, err := b.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	h := NewHandle(b.address, s, b.logger)
	if err := b.validate(ctx, h); err != nil {
		return nil, err
	}

	b.logger.Info("contract handle validated",
		"address", b.address.Hex(), "account", s.Address().Hex())
	return h, nil
}

func (b *Binder) validate(ctx context.Context, h *Handle) error {
	probeCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := h.Owner(probeCtx)
		done <- err
	}()

	var err error
	select {
	case err = <-done:
	case <-probeCtx.Done():
		return errclass.Wrap(errclass.ValidationTimeout,
			"contract validation timed out, check network connection", probeCtx.Err())
	}

	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errclass.Wrap(errclass.ValidationTimeout,
			"contract validation timed out, check network connection", err)
	}
	if errors.Is(err, ErrNoReturnData) ||
		strings.Contains(strings.ToLower(err.Error()), errclass.MarkerMissingRevertData) {
		return errclass.Wrap(errclass.ContractNotFound,
			fmt.Sprintf("no contract found at address %s", b.address.Hex()), err)
	}
	return errclass.Wrap(errclass.ValidationFailed,
		fmt.Sprintf("contract validation failed: %v", err), err)
}
