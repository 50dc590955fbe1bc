package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/namegate/namegate/pkg/constants"
	"github.com/namegate/namegate/pkg/errclass"
	"github.com/namegate/namegate/pkg/provider"
)

// State is the enforcer's view of the wallet's current network.
type State int

const (
	// Unknown means the chain identity has not been established yet, or the
	// last query failed. Treated as informational, not blocking.
	Unknown State = iota
	// Correct means the wallet is on the required network.
	Correct
	// Mismatched means the wallet is on some other network.
	Mismatched
	// Switching means a switch request is in flight.
	Switching
)

func (s State) String() string {
	switch s {
	case Correct:
		return "correct"
	case Mismatched:
		return "mismatched"
	case Switching:
		return "switching"
	default:
		return "unknown"
	}
}

// Status is the derived network-status event republished to downstream
// components after every re-check.
type Status struct {
	State   State
	ChainID string // hex chain identity reported by the provider
}

// ErrAlreadyCorrect is returned when Switch is called while the network is
// already correct. That is a programmer error, not a wallet failure.
var ErrAlreadyCorrect = errors.New("network: switch requested while network is already correct")

// ErrSwitchInProgress is returned when Switch is re-entered while a previous
// switch prompt is still open.
var ErrSwitchInProgress = errors.New("network: switch already in progress")

// Enforcer owns the network state machine. It is the single writer of the
// current chain identity; everything else reads the state and must tolerate
// it going stale between read and use.
type Enforcer struct {
	provider provider.Provider
	required Descriptor
	logger   *slog.Logger

	mu            sync.Mutex
	state         State
	chainID       string
	switching     bool
	lastSwitchErr error

	changes     chan string
	events      chan Status
	unsubscribe func()
	done        chan struct{}
	closeOnce   sync.Once
}

// NewEnforcer subscribes to the provider's chain-change events and starts
// the single consumer goroutine that keeps the state current. Close must be
// called to release the subscription.
func NewEnforcer(p provider.Provider, required Descriptor, logger *slog.Logger) *Enforcer {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Enforcer{
		provider: p,
		required: required,
		logger:   logger,
		changes:  make(chan string, 16),
		events:   make(chan Status, 16),
		done:     make(chan struct{}),
	}
	e.unsubscribe = p.OnChainChanged(func(hexChainID string) {
		select {
		case e.changes <- hexChainID:
		default:
			e.logger.Warn("dropping chain-change event, consumer is behind",
				"chainId", hexChainID)
		}
	})
	go e.run()
	return e
}

// Required returns the descriptor of the required network.
func (e *Enforcer) Required() Descriptor {
	return e.required
}

// State returns the current state.
func (e *Enforcer) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastSwitchError returns the failure of the most recent switch attempt, if
// any. It is cleared when a chain-change event arrives.
func (e *Enforcer) LastSwitchError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSwitchErr
}

// Events exposes the derived network-status stream. The enforcer is the sole
// publisher; consumers must drain promptly or events are dropped.
func (e *Enforcer) Events() <-chan Status {
	return e.events
}

// Check queries the wallet's chain identity and updates the state machine.
// A failed query leaves the state Unknown and is surfaced as informational:
// the returned error is wrapped but carries no taxonomy kind.
func (e *Enforcer) Check(ctx context.Context) (State, error) {
	raw, err := e.provider.Request(ctx, "eth_chainId")
	if err != nil {
		e.setState(Unknown, "")
		return Unknown, fmt.Errorf("network: chain identity query failed: %w", err)
	}

	var chainID string
	if err := json.Unmarshal(raw, &chainID); err != nil {
		e.setState(Unknown, "")
		return Unknown, fmt.Errorf("network: malformed chain identity: %w", err)
	}

	next := Mismatched
	if e.required.Matches(chainID) {
		next = Correct
	}
	e.setState(next, chainID)
	return next, nil
}

// Switch asks the wallet to move to the required network. Valid only while
// the state is Mismatched. When the wallet reports the chain as unrecognized
// (code 4902), exactly one add-network request carrying the full descriptor
// is issued, and the post-add chain identity is re-checked.
func (e *Enforcer) Switch(ctx context.Context) error {
	e.mu.Lock()
	if e.state == Correct {
		e.mu.Unlock()
		return ErrAlreadyCorrect
	}
	if e.switching {
		e.mu.Unlock()
		return ErrSwitchInProgress
	}
	e.switching = true
	e.state = Switching
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.switching = false
		e.mu.Unlock()
	}()

	_, err := e.provider.Request(ctx, "wallet_switchEthereumChain", e.required.SwitchParams())
	if err != nil {
		var rpcErr *provider.RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == constants.CodeUnrecognizedChain {
			e.logger.Info("required network unknown to wallet, requesting add",
				"network", e.required.String())
			if _, addErr := e.provider.Request(ctx, "wallet_addEthereumChain", e.required.AddParams()); addErr != nil {
				e.recordSwitchFailure(addErr)
				return errclass.Wrap(errclass.NetworkAddFailed,
					fmt.Sprintf("could not add %s to the wallet", e.required.Name), addErr)
			}
		} else {
			e.recordSwitchFailure(err)
			return errclass.Wrap(errclass.NetworkSwitchFailed,
				fmt.Sprintf("could not switch the wallet to %s", e.required.Name), err)
		}
	}

	state, checkErr := e.Check(ctx)
	if checkErr != nil {
		e.logger.Warn("post-switch chain check failed", "err", checkErr)
		return nil
	}
	if state != Correct {
		err := fmt.Errorf("wallet remained on chain %s", e.currentChainID())
		e.recordSwitchFailure(err)
		return errclass.Wrap(errclass.NetworkSwitchFailed,
			fmt.Sprintf("wallet did not switch to %s", e.required.Name), err)
	}
	return nil
}

// Close releases the chain-change subscription and stops the consumer.
func (e *Enforcer) Close() {
	e.closeOnce.Do(func() {
		e.unsubscribe()
		close(e.done)
	})
}

// run is the sole consumer of provider-pushed chain-change events. Each
// event clears any stale switch error, re-runs the check, and republishes
// the derived status.
func (e *Enforcer) run() {
	for {
		select {
		case chainID := <-e.changes:
			e.mu.Lock()
			e.lastSwitchErr = nil
			e.mu.Unlock()

			state, err := e.Check(context.Background())
			if err != nil {
				e.logger.Warn("chain re-check failed after change event", "err", err)
			}
			e.publish(Status{State: state, ChainID: chainID})
		case <-e.done:
			return
		}
	}
}

func (e *Enforcer) publish(st Status) {
	select {
	case e.events <- st:
	default:
		e.logger.Warn("dropping network status event, consumer is behind",
			"state", st.State.String())
	}
}

func (e *Enforcer) setState(s State, chainID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
	e.chainID = chainID
}

func (e *Enforcer) currentChainID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chainID
}

func (e *Enforcer) recordSwitchFailure(err error) {
	e.mu.Lock()
	e.lastSwitchErr = err
	e.state = Mismatched
	e.mu.Unlock()
}
