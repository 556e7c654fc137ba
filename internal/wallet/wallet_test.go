package wallet

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cosmossecp "github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/require"

	"github.com/and161185/educert/internal/errs"
)

func testKey() []byte {
	k := bytes.Repeat([]byte{0x11}, 32)
	return k
}

func TestAddress_RoundTrip(t *testing.T) {
	t.Parallel()

	s, err := NewKeySigner(testKey(), "andr")
	require.NoError(t, err)
	accs, err := s.GetAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accs, 1)

	addr := accs[0].Address
	require.True(t, strings.HasPrefix(addr, "andr1"))
	require.NoError(t, ValidateAddress("andr", addr))
	require.Error(t, ValidateAddress("cosmos", addr))
	require.Error(t, ValidateAddress("andr", addr[:len(addr)-1]+"x"))

	raw, err := DecodeAddress("andr", addr)
	require.NoError(t, err)
	require.Len(t, raw, 20)

	again, err := EncodeAddress("andr", raw)
	require.NoError(t, err)
	require.Equal(t, addr, again)

	other, err := NewKeySigner(testKey(), "cosmos")
	require.NoError(t, err)
	oaccs, _ := other.GetAccounts(context.Background())
	rawOther, err := DecodeAddress("cosmos", oaccs[0].Address)
	require.NoError(t, err)
	require.Equal(t, raw, rawOther, "same key, same raw address under any prefix")
}

func TestAddressFromPubKey_BadLength(t *testing.T) {
	t.Parallel()
	_, err := AddressFromPubKey("andr", []byte{1, 2, 3})
	require.Error(t, err)
}

func TestNewKeySigner_Rejects(t *testing.T) {
	t.Parallel()
	_, err := NewKeySigner([]byte{1}, "andr")
	require.Error(t, err)
	_, err = NewKeySigner(make([]byte, 32), "andr")
	require.Error(t, err)
}

func TestSignDoc_Bytes(t *testing.T) {
	t.Parallel()

	d := SignDoc{BodyBytes: []byte{0xAA}, AuthInfoBytes: []byte{0xBB}, ChainID: "c", AccountNumber: 7}
	b, err := d.Bytes()
	require.NoError(t, err)

	want := []byte{0x0a, 0x01, 0xAA, 0x12, 0x01, 0xBB, 0x1a, 0x01, 'c', 0x20, 0x07}
	require.Equal(t, want, b)

	var back txtypes.SignDoc
	require.NoError(t, back.Unmarshal(b))
	require.Equal(t, "c", back.ChainId)
	require.Equal(t, uint64(7), back.AccountNumber)

	// zero values are omitted as in proto3
	empty, err := SignDoc{}.Bytes()
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestSignDirect_VerifiesAndLowS(t *testing.T) {
	t.Parallel()

	s, err := NewKeySigner(testKey(), "andr")
	require.NoError(t, err)
	accs, _ := s.GetAccounts(context.Background())
	doc := SignDoc{BodyBytes: []byte("body"), AuthInfoBytes: []byte("auth"), ChainID: "galileo-4", AccountNumber: 42}

	sig, err := s.SignDirect(context.Background(), accs[0].Address, doc)
	require.NoError(t, err)
	require.Len(t, sig, 64)

	var r, sc secp256k1.ModNScalar
	require.False(t, r.SetByteSlice(sig[:32]))
	require.False(t, sc.SetByteSlice(sig[32:]))
	require.False(t, sc.IsOverHalfOrder())

	pub, err := secp256k1.ParsePubKey(accs[0].PubKey)
	require.NoError(t, err)
	bz, err := doc.Bytes()
	require.NoError(t, err)
	hash := sha256.Sum256(bz)
	require.True(t, ecdsa.NewSignature(&r, &sc).Verify(hash[:], pub))

	cosmosPub := &cosmossecp.PubKey{Key: accs[0].PubKey}
	require.True(t, cosmosPub.VerifySignature(bz, sig))

	_, err = s.SignDirect(context.Background(), "andr1someoneelse", doc)
	require.Error(t, err)
}

func pass(p string) PassphraseFunc {
	return func() ([]byte, error) { return []byte(p), nil }
}

func TestKeyring_NotInstalled(t *testing.T) {
	t.Parallel()

	k := NewKeyring(t.TempDir(), "default", "andr", pass("pw"))
	require.False(t, k.Installed())

	err := k.Enable(context.Background(), "galileo-4")
	require.ErrorIs(t, err, errs.ErrExtensionUnavailable)

	_, err = k.GetOfflineSigner("galileo-4")
	require.Error(t, err)
}

func TestKeyring_ImportEnableSign(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	acc, err := ImportKey(dir, "default", "andr", testKey(), []byte("pw"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(acc.Address, "andr1"))

	info, err := os.Stat(filepath.Join(dir, "default.json"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	stored, err := ReadAccount(dir, "default")
	require.NoError(t, err)
	require.Equal(t, acc.Address, stored.Address)

	_, err = ImportKey(dir, "default", "andr", testKey(), []byte("pw"))
	require.Error(t, err, "existing key must not be overwritten")

	k := NewKeyring(dir, "default", "andr", pass("pw"))
	require.True(t, k.Installed())

	_, err = k.GetOfflineSigner("galileo-4")
	require.ErrorIs(t, err, errs.ErrUnauthorized, "chain must be enabled first")

	require.NoError(t, k.Enable(ctx, "galileo-4"))
	signer, err := k.GetOfflineSigner("galileo-4")
	require.NoError(t, err)
	accs, err := signer.GetAccounts(ctx)
	require.NoError(t, err)
	require.Equal(t, acc.Address, accs[0].Address)

	_, err = k.GetOfflineSigner("other-1")
	require.Error(t, err)
}

func TestKeyring_WrongPassphrase(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, err := ImportKey(dir, "default", "andr", testKey(), []byte("pw"))
	require.NoError(t, err)

	k := NewKeyring(dir, "default", "andr", pass("nope"))
	err = k.Enable(context.Background(), "galileo-4")
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	k = NewKeyring(dir, "default", "andr", func() ([]byte, error) { return nil, errors.New("prompt closed") })
	require.ErrorIs(t, k.Enable(context.Background(), "galileo-4"), errs.ErrUnauthorized)
}

func TestKeyring_NoPassphraseIsLocked(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, err := ImportKey(dir, "default", "andr", testKey(), []byte("pw"))
	require.NoError(t, err)

	k := NewKeyring(dir, "default", "andr", func() ([]byte, error) {
		return nil, fmt.Errorf("%w (-pass)", ErrNoPassphrase)
	})
	err = k.Enable(context.Background(), "galileo-4")
	require.ErrorIs(t, err, errs.ErrExtensionUnavailable)
	require.ErrorIs(t, err, ErrNoPassphrase)
	require.NotErrorIs(t, err, errs.ErrUnauthorized)

	err = NewKeyring(dir, "default", "andr", nil).Enable(context.Background(), "galileo-4")
	require.ErrorIs(t, err, errs.ErrExtensionUnavailable)
}

func TestImportKey_Validation(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, err := ImportKey(dir, "", "andr", testKey(), []byte("pw"))
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = ImportKey(dir, "k", "andr", testKey(), nil)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = ImportKey(dir, "k", "andr", []byte{1, 2}, []byte("pw"))
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a, err := GenerateKey(dir, "gen", "andr", []byte("pw"))
	require.NoError(t, err)
	require.NoError(t, ValidateAddress("andr", a.Address))
	require.Len(t, a.PubKey, 33)
}
