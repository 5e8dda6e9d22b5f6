// Package signer provides the fixed identity that signs chunk transactions.
package signer

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/clayledger/cs"
)

// Signer signs transactions on behalf of one identity.
// Signers assign nonces in sequence,
// so a Signer is not safe for concurrent use.
type Signer interface {
	// Owner is the identity's public address.
	Owner() string

	// Sign sets tx's owner, nonce, and signature.
	Sign(*cs.Tx) error
}

// Ed25519 is a Signer using an ed25519 key.
type Ed25519 struct {
	key   ed25519.PrivateKey
	owner string
	nonce uint64
}

var _ Signer = &Ed25519{}

// New produces a signer for the given private key.
func New(key ed25519.PrivateKey) *Ed25519 {
	pub := key.Public().(ed25519.PublicKey)
	return &Ed25519{key: key, owner: hex.EncodeToString(pub)}
}

// Generate produces a signer for a fresh random key.
func Generate() (*Ed25519, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "generating key")
	}
	return New(key), nil
}

// Load reads a key file holding a hex-encoded ed25519 seed.
func Load(path string) (*Ed25519, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading key file %s", path)
	}
	seed, err := hex.DecodeString(strings.TrimSpace(string(b)))
	if err != nil {
		return nil, errors.Wrapf(err, "decoding key file %s", path)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Errorf("key file %s holds %d bytes, want %d", path, len(seed), ed25519.SeedSize)
	}
	return New(ed25519.NewKeyFromSeed(seed)), nil
}

// Save writes the signer's seed to a key file.
func (s *Ed25519) Save(path string) error {
	seed := hex.EncodeToString(s.key.Seed())
	return errors.Wrapf(os.WriteFile(path, []byte(seed+"\n"), 0600), "writing key file %s", path)
}

// Owner implements Signer.
func (s *Ed25519) Owner() string { return s.owner }

// Sign implements Signer.
func (s *Ed25519) Sign(tx *cs.Tx) error {
	s.nonce++
	tx.Owner = s.owner
	tx.Nonce = s.nonce
	tx.Signature = ed25519.Sign(s.key, tx.SigningBytes())
	return nil
}

// Verify checks tx's signature against its owner.
func Verify(tx *cs.Tx) error {
	pub, err := hex.DecodeString(tx.Owner)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return errors.Errorf("bad owner %q", tx.Owner)
	}
	if !ed25519.Verify(pub, tx.SigningBytes(), tx.Signature) {
		return errors.New("bad signature")
	}
	return nil
}
