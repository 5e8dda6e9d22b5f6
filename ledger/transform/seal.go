package transform

import (
	"context"
	"crypto/cipher"
	"crypto/rand"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

var _ Transformer = Seal{}

// Seal is a Transformer implementing XChaCha20-Poly1305 authenticated encryption,
// for keeping bodies private on a public ledger.
// A sealed body is a random nonce followed by the ciphertext.
type Seal struct {
	aead cipher.AEAD
}

// NewSeal produces a Seal from a 32-byte key.
func NewSeal(key []byte) (Seal, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return Seal{}, errors.Wrap(err, "creating cipher")
	}
	return Seal{aead: aead}, nil
}

// In implements Transformer.In.
func (s Seal) In(_ context.Context, inp []byte) ([]byte, error) {
	nonce := make([]byte, chacha20poly1305.NonceSizeX, chacha20poly1305.NonceSizeX+len(inp)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "generating nonce")
	}
	return s.aead.Seal(nonce, nonce, inp, nil), nil
}

// Out implements Transformer.Out.
func (s Seal) Out(_ context.Context, inp []byte) ([]byte, error) {
	if len(inp) < chacha20poly1305.NonceSizeX {
		return nil, errors.New("sealed body too short")
	}
	nonce, ciphertext := inp[:chacha20poly1305.NonceSizeX], inp[chacha20poly1305.NonceSizeX:]
	return s.aead.Open(nil, nonce, ciphertext, nil)
}
