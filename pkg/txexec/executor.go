// Package txexec drives every state-changing registry call through a uniform
// submit, await-confirmation, classify-outcome pipeline.
package txexec

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/namegate/namegate/pkg/constants"
	"github.com/namegate/namegate/pkg/contract"
	"github.com/namegate/namegate/pkg/errclass"
	"github.com/namegate/namegate/pkg/notify"
	"github.com/namegate/namegate/pkg/provider"
)

// Status is the lifecycle stage of a request. Transitions are strictly
// forward: Pending, then exactly one of Confirmed, Rejected or Failed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
)

// Receipt is the confirmation record of an included transaction.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	Reverted    bool
}

// Outcome is the terminal result of one request. Rejected means the user
// declined in the wallet before signing; it is a normal outcome, not a
// failure, and UIs should not alarm the user over it.
type Outcome struct {
	Status  Status
	Receipt *Receipt
	Err     *errclass.Classified
}

// HandleSource yields the current validated contract handle. Implementations
// re-derive the handle lazily so that a network or account change between
// two calls is picked up instead of silently using a stale binding.
type HandleSource interface {
	Handle(ctx context.Context) (*contract.Handle, error)
}

// HandleSourceFunc adapts a function to HandleSource.
type HandleSourceFunc func(ctx context.Context) (*contract.Handle, error)

func (f HandleSourceFunc) Handle(ctx context.Context) (*contract.Handle, error) {
	return f(ctx)
}

// Executor runs the transaction pipeline. It never retries a state-changing
// call on its own: a blind retry risks duplicate on-chain effects, so
// retries are always caller-initiated fresh requests.
type Executor struct {
	source       HandleSource
	notifier     notify.Notifier
	logger       *slog.Logger
	pollInterval time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Option configures an Executor.
type Option func(*Executor)

// WithNotifier attaches the outbound notification boundary.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Executor) { e.notifier = n }
}

// WithLogger sets the logger; nil falls back to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithPollInterval overrides the receipt poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(e *Executor) { e.pollInterval = d }
}

// NewExecutor creates an executor over a handle source.
func NewExecutor(source HandleSource, opts ...Option) *Executor {
	e := &Executor{
		source:       source,
		notifier:     notify.Discard,
		logger:       slog.Default(),
		pollInterval: constants.ReceiptPollInterval,
		inflight:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one request through the pipeline. Within a single invocation
// submission strictly precedes confirmation strictly precedes
// classification; across invocations there is no ordering guarantee and
// outcomes are fully independent.
//
// Only contract validation carries a client-side timeout. Submission and
// confirmation run to provider-determined completion, so a hung wallet
// prompt leaves the call pending until the caller's ctx cancels it.
func (e *Executor) Execute(ctx context.Context, req *Request) *Outcome {
	if err := req.Validate(); err != nil {
		return e.failed(req, errclass.Classify(err))
	}

	if !e.acquireSlot(req.Slot) {
		return e.failed(req, errclass.New(errclass.InvalidArgument,
			fmt.Sprintf("action slot %q already has an in-flight transaction", req.Slot)))
	}
	defer e.releaseSlot(req.Slot)

	handle, err := e.source.Handle(ctx)
	if err != nil {
		c := errclass.Classify(err)
		if c.Kind == errclass.UserRejected {
			return e.rejected(req, c)
		}
		return e.failed(req, errclass.Wrap(errclass.ContractNotReady,
			"contract not initialized, check your wallet connection", err))
	}

	txHash, err := handle.Send(ctx, string(req.Op), req.callArgs()...)
	if err != nil {
		c := errclass.Classify(err)
		if c.Kind == errclass.UserRejected {
			return e.rejected(req, c)
		}
		return e.failed(req, c)
	}

	e.logger.Info("awaiting confirmation",
		"op", string(req.Op), "id", req.ID.String(), "tx", txHash.Hex())
	e.notifier.Notify(notify.Event{Kind: notify.Info,
		Message: fmt.Sprintf("Transaction submitted: %s", txHash.Hex())})

	receipt, err := e.waitMined(ctx, handle.Signer().Provider(), txHash)
	if err != nil {
		return e.failed(req, errclass.Classify(err))
	}
	if receipt.Reverted {
		outcome := e.failed(req, errclass.New(errclass.ContractCallFailed,
			"transaction reverted on chain"))
		outcome.Receipt = receipt
		return outcome
	}

	e.notifier.Notify(notify.Event{Kind: notify.Success,
		Message: fmt.Sprintf("Transaction confirmed: %s", receipt.TxHash.Hex())})
	return &Outcome{Status: StatusConfirmed, Receipt: receipt}
}

// rpcReceipt is the minimal receipt shape read back from the provider.
type rpcReceipt struct {
	TransactionHash common.Hash    `json:"transactionHash"`
	BlockNumber     hexutil.Uint64 `json:"blockNumber"`
	Status          hexutil.Uint64 `json:"status"`
}

// waitMined polls for the receipt until it appears or ctx is cancelled.
// Transient lookup errors keep the poll going; inclusion is
// provider-determined.
func (e *Executor) waitMined(ctx context.Context, p provider.Provider, txHash common.Hash) (*Receipt, error) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := e.lookupReceipt(ctx, p, txHash)
		if err != nil {
			e.logger.Debug("receipt lookup failed, will retry", "tx", txHash.Hex(), "err", err)
		}
		if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("txexec: confirmation wait aborted: %w", ctx.Err())
		}
	}
}

func (e *Executor) lookupReceipt(ctx context.Context, p provider.Provider, txHash common.Hash) (*Receipt, error) {
	raw, err := p.Request(ctx, "eth_getTransactionReceipt", txHash)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return nil, nil
	}

	var decoded rpcReceipt
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("txexec: malformed receipt: %w", err)
	}
	return &Receipt{
		TxHash:      decoded.TransactionHash,
		BlockNumber: uint64(decoded.BlockNumber),
		Reverted:    decoded.Status == 0,
	}, nil
}

func (e *Executor) acquireSlot(slot string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, taken := e.inflight[slot]; taken {
		return false
	}
	e.inflight[slot] = struct{}{}
	return true
}

func (e *Executor) releaseSlot(slot string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, slot)
}

func (e *Executor) rejected(req *Request, c *errclass.Classified) *Outcome {
	e.logger.Info("transaction declined by user", "op", string(req.Op), "id", req.ID.String())
	e.notifier.Notify(notify.Event{Kind: notify.Info, Message: c.Message})
	return &Outcome{Status: StatusRejected, Err: c}
}

func (e *Executor) failed(req *Request, c *errclass.Classified) *Outcome {
	e.logger.Error("transaction failed",
		"op", string(req.Op), "id", req.ID.String(), "kind", string(c.Kind), "err", c)
	e.notifier.Notify(notify.Event{Kind: notify.Error, Message: c.Message})
	return &Outcome{Status: StatusFailed, Err: c}
}
