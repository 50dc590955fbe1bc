// Package session owns the process-wide connection state: the borrowed
// wallet provider, the network enforcer, and the current signer and contract
// handle. The enforcer's event loop is the single writer; every other
// component reads the current handle through Handle, which re-derives it
// lazily instead of caching across suspension points.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/namegate/namegate/pkg/constants"
	"github.com/namegate/namegate/pkg/contract"
	"github.com/namegate/namegate/pkg/errclass"
	"github.com/namegate/namegate/pkg/network"
	"github.com/namegate/namegate/pkg/notify"
	"github.com/namegate/namegate/pkg/provider"
	"github.com/namegate/namegate/pkg/signer"
)

// Session is the connection context for one wallet/page lifetime.
type Session struct {
	provider provider.Provider
	enforcer *network.Enforcer
	resolver *signer.Resolver
	binder   *contract.Binder
	notifier notify.Notifier
	logger   *slog.Logger

	mu     sync.Mutex
	handle *contract.Handle

	watchOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

// Config carries the session's fixed deployment values.
type Config struct {
	// Network the registry requires. Zero value means Sepolia.
	Network network.Descriptor
	// ContractAddress of the registry. Zero value means the reference
	// deployment address.
	ContractAddress common.Address
	// ValidationTimeout for the contract probe. Zero means the default.
	ValidationTimeout time.Duration
	// Notifier for outbound events. Nil means discard.
	Notifier notify.Notifier
	// Logger; nil means slog.Default.
	Logger *slog.Logger
}

// New builds a session over an already-detected provider. Close must be
// called to release the chain-change subscription.
func New(p provider.Provider, cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Discard
	}
	if cfg.Network.ChainID == 0 {
		cfg.Network = network.Sepolia
	}
	if cfg.ContractAddress == (common.Address{}) {
		cfg.ContractAddress = common.HexToAddress(constants.RegistryContractAddress)
	}

	enforcer := network.NewEnforcer(p, cfg.Network, cfg.Logger)
	resolver := signer.NewResolver(p, enforcer, cfg.Logger)

	binderOpts := []contract.BinderOption{}
	if cfg.ValidationTimeout > 0 {
		binderOpts = append(binderOpts, contract.WithValidationTimeout(cfg.ValidationTimeout))
	}

	s := &Session{
		provider: p,
		enforcer: enforcer,
		resolver: resolver,
		binder:   contract.NewBinder(cfg.ContractAddress, resolver, cfg.Logger, binderOpts...),
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		done:     make(chan struct{}),
	}
	return s
}

// Enforcer exposes the network enforcer for callers that drive the switch
// flow from their own UI.
func (s *Session) Enforcer() *network.Enforcer {
	return s.enforcer
}

// Connect runs the full pipeline: provider gate, network check (with the
// switch flow when mismatched), signer resolution and contract binding. On
// success the validated handle is cached until a chain-change event
// invalidates it.
func (s *Session) Connect(ctx context.Context) error {
	if err := provider.EnsureAvailable(s.provider); err != nil {
		s.notifyClassified(err, "No wallet provider available")
		return err
	}

	state, err := s.enforcer.Check(ctx)
	if err != nil {
		// Non-fatal: the identity query failed, binding below will retry.
		s.notifier.Notify(notify.Event{Kind: notify.Info,
			Message: "Could not determine the wallet's network"})
	}
	if state == network.Mismatched {
		s.notifier.Notify(notify.Event{Kind: notify.Info,
			Message: fmt.Sprintf("Wrong network, switching to %s", s.enforcer.Required().Name)})
		if err := s.enforcer.Switch(ctx); err != nil {
			s.notifyClassified(err, "Network switch failed")
			return err
		}
	}

	handle, err := s.binder.Bind(ctx)
	if err != nil {
		s.notifyClassified(err, "Contract validation failed")
		return err
	}

	s.mu.Lock()
	s.handle = handle
	s.mu.Unlock()

	s.watchOnce.Do(func() { go s.watch() })

	s.notifier.Notify(notify.Event{Kind: notify.Success,
		Message: fmt.Sprintf("Connected to %s", s.enforcer.Required().Name)})
	return nil
}

// Handle returns the current validated contract handle, re-binding when the
// cached one was invalidated. It implements txexec.HandleSource.
func (s *Session) Handle(ctx context.Context) (*contract.Handle, error) {
	s.mu.Lock()
	if s.handle != nil {
		h := s.handle
		s.mu.Unlock()
		return h, nil
	}
	s.mu.Unlock()

	handle, err := s.binder.Bind(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.handle = handle
	s.mu.Unlock()
	return handle, nil
}

// Invalidate drops the cached handle so the next Handle call re-binds.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.handle = nil
	s.mu.Unlock()
}

// Close tears down the chain-change subscription and the watcher.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.enforcer.Close()
		close(s.done)
	})
}

// watch consumes derived network-status events. Any chain change invalidates
// the handle: even a change back to the required network means the signer
// was re-derived on a different chain in between.
func (s *Session) watch() {
	for {
		select {
		case st := <-s.enforcer.Events():
			s.Invalidate()
			switch st.State {
			case network.Correct:
				s.notifier.Notify(notify.Event{Kind: notify.Info,
					Message: fmt.Sprintf("Network changed to %s", s.enforcer.Required().Name)})
			default:
				s.notifier.Notify(notify.Event{Kind: notify.Error,
					Message: fmt.Sprintf("Wrong network, please switch to %s", s.enforcer.Required().Name)})
			}
			s.logger.Info("network status changed, contract handle invalidated",
				"state", st.State.String(), "chainId", st.ChainID)
		case <-s.done:
			return
		}
	}
}

func (s *Session) notifyClassified(err error, fallback string) {
	msg := fallback
	if c := errclass.Classify(err); c != nil {
		msg = c.Message
	}
	s.notifier.Notify(notify.Event{Kind: notify.Error, Message: msg})
}
