package wallet

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/and161185/educert/internal/model"
)

// AlgoSecp256k1 is the only key algorithm the keyring issues.
const AlgoSecp256k1 = "secp256k1"

// KeySigner is an OfflineSigner over a single secp256k1 private key.
type KeySigner struct {
	priv    *secp256k1.PrivateKey
	account model.Account
}

var _ OfflineSigner = (*KeySigner)(nil)

// NewKeySigner wraps a 32-byte private key. prefix selects the address prefix.
func NewKeySigner(priv []byte, prefix string) (*KeySigner, error) {
	if len(priv) != 32 {
		return nil, fmt.Errorf("wallet: private key must be 32 bytes, got %d", len(priv))
	}
	key := secp256k1.PrivKeyFromBytes(priv)
	if key.Key.IsZero() {
		return nil, errors.New("wallet: zero private key")
	}
	pub := key.PubKey().SerializeCompressed()
	addr, err := AddressFromPubKey(prefix, pub)
	if err != nil {
		return nil, err
	}
	return &KeySigner{
		priv:    key,
		account: model.Account{Address: addr, Algo: AlgoSecp256k1, PubKey: pub},
	}, nil
}

// GetAccounts returns the single account of the key.
func (s *KeySigner) GetAccounts(context.Context) ([]model.Account, error) {
	return []model.Account{s.account}, nil
}

// SignDirect signs sha256(doc bytes) and returns R||S with low S.
func (s *KeySigner) SignDirect(_ context.Context, signerAddress string, doc SignDoc) ([]byte, error) {
	if signerAddress != s.account.Address {
		return nil, fmt.Errorf("wallet: signer %q not found", signerAddress)
	}
	bz, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("wallet: encode sign doc: %w", err)
	}
	hash := sha256.Sum256(bz)
	compact := ecdsa.SignCompact(s.priv, hash[:], true)
	// drop the recovery byte
	return compact[1:], nil
}
