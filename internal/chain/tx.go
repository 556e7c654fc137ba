package chain

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	sdk "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	"github.com/cosmos/cosmos-sdk/types/tx/signing"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/and161185/educert/internal/errs"
)

// TypeURLMsgExecuteContract is the Any type URL of cosmwasm.wasm.v1.MsgExecuteContract.
const TypeURLMsgExecuteContract = "/cosmwasm.wasm.v1.MsgExecuteContract"

// Coin is cosmos.base.v1beta1.Coin with a decimal amount.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// Fee is the fee attached to a transaction.
type Fee struct {
	Amount []Coin `json:"amount"`
	Gas    uint64 `json:"gas"`
}

func toSDKCoins(cs []Coin) (sdk.Coins, error) {
	out := make(sdk.Coins, 0, len(cs))
	for _, c := range cs {
		amt, ok := sdkmath.NewIntFromString(c.Amount)
		if !ok || amt.IsNegative() {
			return nil, fmt.Errorf("%w: bad coin amount %q", errs.ErrInvalidInput, c.Amount)
		}
		out = append(out, sdk.Coin{Denom: c.Denom, Amount: amt})
	}
	return out, nil
}

// encodeMsgExecuteContract encodes cosmwasm.wasm.v1.MsgExecuteContract; msg is
// raw JSON. wasmd's types package links libwasmvm through cgo, so the message
// fields are written here and only the coins go through the SDK types.
func encodeMsgExecuteContract(sender, contract string, msg []byte, funds sdk.Coins) ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, sender)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, contract)
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendBytes(b, msg)
	for _, c := range funds {
		bz, err := c.Marshal()
		if err != nil {
			return nil, fmt.Errorf("%w: encode funds: %w", errs.ErrInvalidInput, err)
		}
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendBytes(b, bz)
	}
	return b, nil
}

// unsignedTx holds the two halves of a SIGN_MODE_DIRECT sign doc.
type unsignedTx struct {
	body     []byte
	authInfo []byte
}

// buildExecuteTx encodes a single-message, single-signer execute transaction.
func buildExecuteTx(
	sender, contract string, msg []byte, funds []Coin, memo string, pubKey []byte, sequence uint64, fee Fee,
) (unsignedTx, error) {
	fundCoins, err := toSDKCoins(funds)
	if err != nil {
		return unsignedTx{}, err
	}
	exec, err := encodeMsgExecuteContract(sender, contract, msg, fundCoins)
	if err != nil {
		return unsignedTx{}, err
	}
	body, err := (&txtypes.TxBody{
		Messages: []*codectypes.Any{{TypeUrl: TypeURLMsgExecuteContract, Value: exec}},
		Memo:     memo,
	}).Marshal()
	if err != nil {
		return unsignedTx{}, fmt.Errorf("%w: encode tx body: %w", errs.ErrInvalidInput, err)
	}

	pk, err := codectypes.NewAnyWithValue(&secp256k1.PubKey{Key: pubKey})
	if err != nil {
		return unsignedTx{}, fmt.Errorf("%w: encode pubkey: %w", errs.ErrInvalidInput, err)
	}
	feeCoins, err := toSDKCoins(fee.Amount)
	if err != nil {
		return unsignedTx{}, err
	}
	authInfo, err := (&txtypes.AuthInfo{
		SignerInfos: []*txtypes.SignerInfo{{
			PublicKey: pk,
			ModeInfo: &txtypes.ModeInfo{Sum: &txtypes.ModeInfo_Single_{
				Single: &txtypes.ModeInfo_Single{Mode: signing.SignMode_SIGN_MODE_DIRECT},
			}},
			Sequence: sequence,
		}},
		Fee: &txtypes.Fee{Amount: feeCoins, GasLimit: fee.Gas},
	}).Marshal()
	if err != nil {
		return unsignedTx{}, fmt.Errorf("%w: encode auth info: %w", errs.ErrInvalidInput, err)
	}
	return unsignedTx{body: body, authInfo: authInfo}, nil
}

// encodeTxRaw encodes cosmos.tx.v1beta1.TxRaw.
func encodeTxRaw(tx unsignedTx, sigs ...[]byte) ([]byte, error) {
	raw, err := (&txtypes.TxRaw{BodyBytes: tx.body, AuthInfoBytes: tx.authInfo, Signatures: sigs}).Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: encode tx: %w", errs.ErrInvalidInput, err)
	}
	return raw, nil
}
