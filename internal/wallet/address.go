package wallet

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // cosmos addresses are defined over RIPEMD-160
)

// AddressFromPubKey derives the bech32 account address of a compressed secp256k1 key.
func AddressFromPubKey(prefix string, compressed []byte) (string, error) {
	if len(compressed) != 33 {
		return "", fmt.Errorf("wallet: pubkey must be 33 bytes, got %d", len(compressed))
	}
	sha := sha256.Sum256(compressed)
	h := ripemd160.New()
	_, _ = h.Write(sha[:])
	return EncodeAddress(prefix, h.Sum(nil))
}

// EncodeAddress bech32-encodes raw address bytes under prefix.
func EncodeAddress(prefix string, raw []byte) (string, error) {
	conv, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(prefix, conv)
}

// DecodeAddress checks the prefix and checksum of addr and returns the raw bytes.
func DecodeAddress(prefix, addr string) ([]byte, error) {
	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("wallet: bad address %q: %w", addr, err)
	}
	if hrp != prefix {
		return nil, fmt.Errorf("wallet: address %q has prefix %q, want %q", addr, hrp, prefix)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("wallet: bad address %q: %w", addr, err)
	}
	return raw, nil
}

// ValidateAddress reports whether addr is a well-formed address for prefix.
func ValidateAddress(prefix, addr string) error {
	_, err := DecodeAddress(prefix, addr)
	return err
}
