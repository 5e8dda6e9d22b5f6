package ledger

import (
	"time"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/clayledger/cs"
)

// Envelope is a stored transaction together with its metadata,
// for ledgers that keep each transaction as a single opaque object.
type Envelope struct {
	ID        cs.TxID   `msgpack:"id"`
	Data      []byte    `msgpack:"data"`
	Tags      cs.Tags   `msgpack:"tags"`
	Owner     string    `msgpack:"owner"`
	Nonce     uint64    `msgpack:"nonce"`
	Signature []byte    `msgpack:"sig,omitempty"`
	At        time.Time `msgpack:"at"`
}

// NewEnvelope wraps tx for storage.
func NewEnvelope(tx *cs.Tx, at time.Time) Envelope {
	return Envelope{
		ID:        tx.ID(),
		Data:      tx.Data,
		Tags:      tx.Tags,
		Owner:     tx.Owner,
		Nonce:     tx.Nonce,
		Signature: tx.Signature,
		At:        at,
	}
}

// Edge is the query result describing e.
func (e Envelope) Edge() cs.Edge {
	return cs.Edge{ID: e.ID, Tags: e.Tags, Owner: e.Owner, At: e.At}
}

// Marshal serializes e.
func (e Envelope) Marshal() ([]byte, error) {
	b, err := msgpack.Marshal(e)
	return b, errors.Wrap(err, "marshaling envelope")
}

// UnmarshalEnvelope parses a serialized Envelope.
func UnmarshalEnvelope(b []byte) (Envelope, error) {
	var e Envelope
	err := msgpack.Unmarshal(b, &e)
	return e, errors.Wrap(err, "unmarshaling envelope")
}
