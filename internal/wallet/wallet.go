// Package wallet models the browser-extension wallet the session manager talks
// to: an extension that authorizes chains and hands out offline signers.
package wallet

import (
	"context"

	txtypes "github.com/cosmos/cosmos-sdk/types/tx"

	"github.com/and161185/educert/internal/model"
)

// Extension is the wallet extension API.
type Extension interface {
	// Enable asks the user to authorize chainID for this application.
	Enable(ctx context.Context, chainID string) error
	// GetOfflineSigner returns a signer for a previously enabled chain.
	GetOfflineSigner(chainID string) (OfflineSigner, error)
}

// OfflineSigner exposes accounts and SIGN_MODE_DIRECT signing.
type OfflineSigner interface {
	// GetAccounts lists the accounts the signer controls; the first one is used.
	GetAccounts(ctx context.Context) ([]model.Account, error)
	// SignDirect signs the serialized doc on behalf of signerAddress and
	// returns the 64-byte compact signature.
	SignDirect(ctx context.Context, signerAddress string, doc SignDoc) ([]byte, error)
}

// SignDoc is cosmos.tx.v1beta1.SignDoc.
type SignDoc struct {
	BodyBytes     []byte
	AuthInfoBytes []byte
	ChainID       string
	AccountNumber uint64
}

// Bytes returns the protobuf encoding that gets hashed and signed.
func (d SignDoc) Bytes() ([]byte, error) {
	return (&txtypes.SignDoc{
		BodyBytes:     d.BodyBytes,
		AuthInfoBytes: d.AuthInfoBytes,
		ChainId:       d.ChainID,
		AccountNumber: d.AccountNumber,
	}).Marshal()
}
