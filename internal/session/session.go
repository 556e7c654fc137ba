// Package session owns the connected wallet address and its signing chain
// client. Both are set together or not at all.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/educert/internal/chain"
	"github.com/and161185/educert/internal/config"
	"github.com/and161185/educert/internal/errs"
	"github.com/and161185/educert/internal/model"
	"github.com/and161185/educert/internal/repository"
	"github.com/and161185/educert/internal/wallet"
)

// AddressKey is the persisted key holding the last connected address.
const AddressKey = "walletAddress"

// Client is the part of the signing chain client the gateway uses.
type Client interface {
	Execute(ctx context.Context, sender, contract string, msg any, fee chain.Fee, memo string, funds []chain.Coin) (*model.BroadcastResult, error)
	QueryContractSmart(ctx context.Context, contract string, query any, out any) error
}

// Dialer builds a signing client for cfg.
type Dialer func(ctx context.Context, cfg config.Chain, signer wallet.OfflineSigner) (Client, error)

// Session is a snapshot of the connection state.
type Session struct {
	Address string
	Client  Client
}

// Connected reports whether the snapshot holds a live session.
func (s Session) Connected() bool { return s.Address != "" && s.Client != nil }

// Manager implements connect, disconnect and startup restore.
type Manager struct {
	ext   wallet.Extension
	cfg   config.Chain
	dial  Dialer
	store repository.KVRepository
	log   *zap.Logger

	mu      sync.RWMutex
	address string
	client  Client
}

// Option configures a Manager.
type Option func(*Manager)

// WithDialer replaces the default chain.ConnectWithSigner dialer.
func WithDialer(d Dialer) Option { return func(m *Manager) { m.dial = d } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(m *Manager) { m.log = l } }

// NewManager constructs a Manager. ext may be nil when no wallet is installed.
func NewManager(ext wallet.Extension, cfg config.Chain, store repository.KVRepository, opts ...Option) *Manager {
	m := &Manager{ext: ext, cfg: cfg, store: store, log: zap.NewNop()}
	for _, o := range opts {
		o(m)
	}
	if m.dial == nil {
		m.dial = restDialer(m.log)
	}
	return m
}

func restDialer(log *zap.Logger) Dialer {
	return func(ctx context.Context, cfg config.Chain, signer wallet.OfflineSigner) (Client, error) {
		return chain.ConnectWithSigner(ctx, cfg.REST, cfg.ChainID, signer, chain.WithRPC(cfg.RPC), chain.WithLogger(log))
	}
}

// Connect authorizes the configured chain, takes the first account and dials
// a signing client. On success the address is persisted under AddressKey.
func (m *Manager) Connect(ctx context.Context) error {
	addr, client, err := m.open(ctx)
	if err != nil {
		m.log.Warn("wallet connect failed", zap.String("chain_id", m.cfg.ChainID), zap.Error(err))
		return err
	}

	m.mu.Lock()
	m.address, m.client = addr, client
	m.mu.Unlock()

	if err := m.store.Set(ctx, AddressKey, addr); err != nil {
		m.log.Warn("persist wallet address", zap.Error(err))
	}
	m.log.Info("wallet connected", zap.String("address", addr))
	return nil
}

func (m *Manager) open(ctx context.Context) (string, Client, error) {
	if m.ext == nil {
		return "", nil, fmt.Errorf("%w: please install the wallet extension", errs.ErrExtensionUnavailable)
	}
	if err := m.ext.Enable(ctx, m.cfg.ChainID); err != nil {
		return "", nil, err
	}
	signer, err := m.ext.GetOfflineSigner(m.cfg.ChainID)
	if err != nil {
		return "", nil, err
	}
	accounts, err := signer.GetAccounts(ctx)
	if err != nil {
		return "", nil, err
	}
	if len(accounts) == 0 || accounts[0].Address == "" {
		return "", nil, fmt.Errorf("%w: wallet returned no accounts", errs.ErrUnauthorized)
	}
	client, err := m.dial(ctx, m.cfg, signer)
	if err != nil {
		return "", nil, err
	}
	return accounts[0].Address, client, nil
}

// Disconnect clears the session and the persisted address.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	m.address, m.client = "", nil
	m.mu.Unlock()

	if err := m.store.Delete(ctx, AddressKey); err != nil {
		return fmt.Errorf("forget wallet address: %w", err)
	}
	return nil
}

// Restore resumes a previously persisted session. It runs the Connect path when
// an address was persisted and an extension is present. A failure forgets the
// persisted address unless the extension is unavailable (missing or locked).
func (m *Manager) Restore(ctx context.Context) (Session, bool) {
	prev, err := m.store.Get(ctx, AddressKey)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			m.log.Warn("read persisted wallet address", zap.Error(err))
		}
		return Session{}, false
	}
	if prev == "" || m.ext == nil {
		return Session{}, false
	}

	if err := m.Connect(ctx); err != nil {
		if errors.Is(err, errs.ErrExtensionUnavailable) {
			// locked or missing wallet: try again next time
			m.log.Info("session not restored", zap.String("address", prev), zap.Error(err))
			return Session{}, false
		}
		if derr := m.store.Delete(ctx, AddressKey); derr != nil {
			m.log.Warn("forget stale wallet address", zap.Error(derr))
		}
		m.log.Info("session not restored", zap.String("address", prev), zap.Error(err))
		return Session{}, false
	}
	return m.Snapshot(), true
}

// IsConnected reports whether an address is set.
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.address != ""
}

// Snapshot returns address and client read together.
func (m *Manager) Snapshot() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Session{Address: m.address, Client: m.client}
}

// Config returns the chain the manager connects to.
func (m *Manager) Config() config.Chain { return m.cfg }
