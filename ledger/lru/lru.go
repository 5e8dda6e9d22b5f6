// Package lru implements a ledger that acts as a least-recently-used cache
// of transaction bodies for a nested ledger.
package lru

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/internal/param"
	"github.com/clayledger/cs/ledger"
)

var _ cs.Ledger = &Ledger{}

// Ledger implements a memory-based least-recently-used cache for a ledger.
// It caches only transaction bodies, which never change;
// queries always go to the nested ledger.
// Posts pass through to the nested ledger.
type Ledger struct {
	c *lru.Cache // TxID->[]byte
	l cs.Ledger
}

// New produces a new Ledger backed by `l` and caching up to `size` bodies.
func New(l cs.Ledger, size int) (*Ledger, error) {
	c, err := lru.New(size)
	return &Ledger{l: l, c: c}, err
}

// Fetch implements cs.Getter.
func (l *Ledger) Fetch(ctx context.Context, id cs.TxID) ([]byte, error) {
	if got, ok := l.c.Get(id); ok {
		return got.([]byte), nil
	}
	data, err := l.l.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	l.c.Add(id, data)
	return data, nil
}

// Query implements cs.Getter.
func (l *Ledger) Query(ctx context.Context, q cs.Query) ([]cs.Edge, error) {
	return l.l.Query(ctx, q)
}

// Post implements cs.Ledger.
func (l *Ledger) Post(ctx context.Context, tx *cs.Tx) (cs.TxID, error) {
	id, err := l.l.Post(ctx, tx)
	if err != nil {
		return id, err
	}
	l.c.Add(id, append([]byte(nil), tx.Data...))
	return id, nil
}

func init() {
	ledger.Register("lru", func(ctx context.Context, conf map[string]interface{}) (cs.Ledger, error) {
		size, ok := param.Int(conf, "size")
		if !ok {
			return nil, errors.New(`missing "size" parameter`)
		}
		nested, err := ledger.CreateNested(ctx, conf)
		if err != nil {
			return nil, err
		}
		return New(nested, size)
	})
}
