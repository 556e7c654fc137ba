// Package keystore seals wallet secrets at rest: Argon2id derives a KEK from
// the passphrase, XChaCha20-Poly1305 encrypts the secret under it.
package keystore

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Params
const (
	SaltLen = 16
	KEKLen  = 32

	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1
)

// ErrBadPassphrase is returned when a sealed secret does not open.
var ErrBadPassphrase = errors.New("keystore: wrong passphrase or corrupted secret")

// Sealed is a secret encrypted under a passphrase-derived KEK.
type Sealed struct {
	Salt []byte `json:"salt"`
	Blob []byte `json:"blob"` // nonce || ciphertext
}

// Rand returns n cryptographically secure random bytes.
func Rand(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// DeriveKEK derives a KEK from passphrase and salt using Argon2id.
func DeriveKEK(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, KEKLen)
}

// Seal encrypts secret with a fresh salt and nonce. aad binds the secret to its
// owner (e.g. the account address) so blobs cannot be swapped between files.
func Seal(passphrase, secret, aad []byte) (Sealed, error) {
	salt, err := Rand(SaltLen)
	if err != nil {
		return Sealed{}, err
	}
	aead, err := chacha20poly1305.NewX(DeriveKEK(passphrase, salt))
	if err != nil {
		return Sealed{}, err
	}
	nonce, err := Rand(chacha20poly1305.NonceSizeX)
	if err != nil {
		return Sealed{}, err
	}
	out := make([]byte, 0, len(nonce)+len(secret)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, secret, aad)...)
	return Sealed{Salt: salt, Blob: out}, nil
}

// Open decrypts a sealed secret.
func Open(passphrase []byte, s Sealed, aad []byte) ([]byte, error) {
	if len(s.Blob) < chacha20poly1305.NonceSizeX {
		return nil, errors.New("keystore: sealed blob too short")
	}
	aead, err := chacha20poly1305.NewX(DeriveKEK(passphrase, s.Salt))
	if err != nil {
		return nil, err
	}
	nonce := s.Blob[:chacha20poly1305.NonceSizeX]
	ct := s.Blob[chacha20poly1305.NonceSizeX:]
	pt, err := aead.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, ErrBadPassphrase
	}
	return pt, nil
}
