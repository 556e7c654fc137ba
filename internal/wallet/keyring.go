package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/and161185/educert/internal/crypto/keystore"
	"github.com/and161185/educert/internal/errs"
	"github.com/and161185/educert/internal/model"
)

// ErrNoPassphrase is returned by a PassphraseFunc that has no passphrase to
// offer. The key then counts as locked rather than refused.
var ErrNoPassphrase = errors.New("no passphrase supplied")

// PassphraseFunc supplies the passphrase that unlocks a key; it stands in for
// the extension's approval prompt.
type PassphraseFunc func() ([]byte, error)

// keyFile is the on-disk form of one key.
type keyFile struct {
	Name    string          `json:"name"`
	Address string          `json:"address"`
	Algo    string          `json:"algo"`
	PubKey  []byte          `json:"pubkey"`
	Sealed  keystore.Sealed `json:"sealed"`
}

// Keyring is a directory-backed Extension. A missing key file means the
// extension is not installed.
type Keyring struct {
	dir        string
	name       string
	prefix     string
	passphrase PassphraseFunc

	mu      sync.Mutex
	enabled map[string]bool
	signer  *KeySigner
}

var _ Extension = (*Keyring)(nil)

// NewKeyring returns a keyring using key name under dir.
func NewKeyring(dir, name, prefix string, passphrase PassphraseFunc) *Keyring {
	return &Keyring{
		dir:        dir,
		name:       name,
		prefix:     prefix,
		passphrase: passphrase,
		enabled:    map[string]bool{},
	}
}

func keyPath(dir, name string) string { return filepath.Join(dir, name+".json") }

// Installed reports whether the key file exists.
func (k *Keyring) Installed() bool {
	_, err := os.Stat(keyPath(k.dir, k.name))
	return err == nil
}

// Enable unlocks the key (once) and authorizes chainID.
func (k *Keyring) Enable(_ context.Context, chainID string) error {
	if chainID == "" {
		return fmt.Errorf("%w: empty chain id", errs.ErrInvalidInput)
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.signer == nil {
		s, err := k.unlock()
		if err != nil {
			return err
		}
		k.signer = s
	}
	k.enabled[chainID] = true
	return nil
}

func (k *Keyring) unlock() (*KeySigner, error) {
	b, err := os.ReadFile(keyPath(k.dir, k.name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: please install the wallet extension (no key %q in %s)", errs.ErrExtensionUnavailable, k.name, k.dir)
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrExtensionUnavailable, err)
	}
	var kf keyFile
	if err := json.Unmarshal(b, &kf); err != nil {
		return nil, fmt.Errorf("%w: corrupt key file: %v", errs.ErrExtensionUnavailable, err)
	}
	if k.passphrase == nil {
		return nil, fmt.Errorf("%w: wallet locked: %w", errs.ErrExtensionUnavailable, ErrNoPassphrase)
	}
	pass, err := k.passphrase()
	if errors.Is(err, ErrNoPassphrase) {
		return nil, fmt.Errorf("%w: wallet locked: %w", errs.ErrExtensionUnavailable, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}
	priv, err := keystore.Open(pass, kf.Sealed, []byte(kf.Name))
	if err != nil {
		return nil, fmt.Errorf("%w: request rejected: %v", errs.ErrUnauthorized, err)
	}
	return NewKeySigner(priv, k.prefix)
}

// GetOfflineSigner returns the signer for an enabled chain.
func (k *Keyring) GetOfflineSigner(chainID string) (OfflineSigner, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.enabled[chainID] || k.signer == nil {
		return nil, fmt.Errorf("%w: chain %q is not enabled", errs.ErrUnauthorized, chainID)
	}
	return k.signer, nil
}

// ImportKey seals priv under passphrase and writes it as key name.
// An existing key with the same name is not overwritten.
func ImportKey(dir, name, prefix string, priv, passphrase []byte) (model.Account, error) {
	if name == "" {
		return model.Account{}, fmt.Errorf("%w: empty key name", errs.ErrInvalidInput)
	}
	if len(passphrase) == 0 {
		return model.Account{}, fmt.Errorf("%w: empty passphrase", errs.ErrInvalidInput)
	}
	s, err := NewKeySigner(priv, prefix)
	if err != nil {
		return model.Account{}, fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
	}
	sealed, err := keystore.Seal(passphrase, priv, []byte(name))
	if err != nil {
		return model.Account{}, err
	}
	kf := keyFile{
		Name:    name,
		Address: s.account.Address,
		Algo:    s.account.Algo,
		PubKey:  s.account.PubKey,
		Sealed:  sealed,
	}
	b, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return model.Account{}, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return model.Account{}, err
	}
	f, err := os.OpenFile(keyPath(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return model.Account{}, err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return model.Account{}, err
	}
	return s.account, f.Close()
}

// GenerateKey creates a fresh private key and imports it.
func GenerateKey(dir, name, prefix string, passphrase []byte) (model.Account, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return model.Account{}, err
	}
	return ImportKey(dir, name, prefix, priv.Serialize(), passphrase)
}

// ReadAccount returns the public part of a stored key without unlocking it.
func ReadAccount(dir, name string) (model.Account, error) {
	b, err := os.ReadFile(keyPath(dir, name))
	if err != nil {
		return model.Account{}, err
	}
	var kf keyFile
	if err := json.Unmarshal(b, &kf); err != nil {
		return model.Account{}, err
	}
	return model.Account{Address: kf.Address, Algo: kf.Algo, PubKey: kf.PubKey}, nil
}
