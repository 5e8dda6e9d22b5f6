// Package transform implements a ledger that can transform transaction bodies
// into and out of a nested ledger.
package transform

import (
	"context"
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/internal/param"
	"github.com/clayledger/cs/ledger"
)

var _ cs.Ledger = &Ledger{}

// Ledger is a cs.Ledger wrapping a nested cs.Ledger and a Transformer.
// Bodies are transformed according to the Transformer on their way in and out of the nested ledger.
// Tags are never transformed, so queries work unchanged.
//
// Signatures cover untransformed bodies,
// so a Ledger must sit behind any signature check,
// for example as the ledger of a verifying gateway server.
type Ledger struct {
	l cs.Ledger
	x Transformer
}

// Transformer tells how to transform a body on its way into and out of a Ledger.
// Out should be the inverse of In.
type Transformer interface {
	// In transforms a body on its way into the ledger.
	In(context.Context, []byte) ([]byte, error)

	// Out transforms a body on its way out of the ledger.
	Out(context.Context, []byte) ([]byte, error)
}

// New produces a new Ledger.
func New(l cs.Ledger, x Transformer) *Ledger {
	return &Ledger{l: l, x: x}
}

// Post implements cs.Ledger.
// The size limit applies to untransformed bodies.
func (l *Ledger) Post(ctx context.Context, tx *cs.Tx) (cs.TxID, error) {
	if err := ledger.CheckTx(tx); err != nil {
		return "", err
	}
	data, err := l.x.In(ctx, tx.Data)
	if err != nil {
		return "", errors.Wrap(err, "transforming body")
	}
	out := *tx
	out.Data = data
	return l.l.Post(ctx, &out)
}

// Fetch implements cs.Getter.
func (l *Ledger) Fetch(ctx context.Context, id cs.TxID) ([]byte, error) {
	data, err := l.l.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err = l.x.Out(ctx, data)
	return data, errors.Wrapf(err, "untransforming %s", id)
}

// Query implements cs.Getter.
func (l *Ledger) Query(ctx context.Context, q cs.Query) ([]cs.Edge, error) {
	return l.l.Query(ctx, q)
}

func init() {
	ledger.Register("seal", func(ctx context.Context, conf map[string]interface{}) (cs.Ledger, error) {
		keyHex, err := param.RequireString(conf, "key")
		if err != nil {
			return nil, err
		}
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, errors.Wrap(err, "decoding key")
		}
		s, err := NewSeal(key)
		if err != nil {
			return nil, err
		}
		nested, err := ledger.CreateNested(ctx, conf)
		if err != nil {
			return nil, err
		}
		return New(nested, s), nil
	})
}
