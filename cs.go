package cs

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"strings"
	"time"
)

type (
	// TxID is the id of a ledger transaction.
	// It is opaque and globally unique.
	TxID string

	// Tag is a name/value annotation on a transaction.
	Tag struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}

	// Tags is an ordered list of tags.
	Tags []Tag
)

// Tx is a transaction to be posted to a ledger.
type Tx struct {
	Data  []byte
	Tags  Tags
	Owner string

	// Nonce is assigned by a signer.
	// Each signer issues nonces in strictly increasing order.
	Nonce uint64

	Signature []byte
}

// Edge is one transaction in a query result.
type Edge struct {
	ID    TxID
	Tags  Tags
	Owner string
	At    time.Time
}

// Get returns the value of the first tag with the given name.
func (tags Tags) Get(name string) (string, bool) {
	for _, t := range tags {
		if t.Name == name {
			return t.Value, true
		}
	}
	return "", false
}

// Value is like Get but returns "" when the tag is absent.
func (tags Tags) Value(name string) string {
	v, _ := tags.Get(name)
	return v
}

// Without returns a copy of tags with every tag named name removed.
func (tags Tags) Without(name string) Tags {
	out := make(Tags, 0, len(tags))
	for _, t := range tags {
		if t.Name != name {
			out = append(out, t)
		}
	}
	return out
}

func (tags Tags) String() string {
	var parts []string
	for _, t := range tags {
		parts = append(parts, t.Name+"="+t.Value)
	}
	return strings.Join(parts, ",")
}

// ID computes the id a ledger assigns to tx.
// Signed transactions are identified by the hash of their signature.
// Unsigned ones are identified by a hash of their content,
// owner, and nonce.
func (tx *Tx) ID() TxID {
	if len(tx.Signature) > 0 {
		return TxIDFromSignature(tx.Signature)
	}
	return TxID(encodeHash(tx.SigningBytes()))
}

// SigningBytes is the canonical serialization of tx that a signer signs.
// It covers everything but the signature.
func (tx *Tx) SigningBytes() []byte {
	h := sha256.New()
	writeField(h, []byte(tx.Owner))
	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], tx.Nonce)
	h.Write(nonce[:])
	for _, t := range tx.Tags {
		writeField(h, []byte(t.Name))
		writeField(h, []byte(t.Value))
	}
	writeField(h, tx.Data)
	return h.Sum(nil)
}

// TxIDFromSignature computes a transaction id from a signature:
// the unpadded base64url encoding of its sha256 hash.
func TxIDFromSignature(sig []byte) TxID {
	return TxID(encodeHash(sig))
}

func encodeHash(b []byte) string {
	sum := sha256.Sum256(b)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

type byteWriter interface {
	Write([]byte) (int, error)
}

func writeField(w byteWriter, b []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	w.Write(n[:])
	w.Write(b)
}
