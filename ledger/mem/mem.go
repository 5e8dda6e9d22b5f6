// Package mem implements an in-memory ledger.
package mem

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/internal/param"
	"github.com/clayledger/cs/ledger"
)

var _ cs.Ledger = &Ledger{}

// Ledger is a memory-based implementation of a ledger.
//
// It can model eventual consistency:
// with a visibility lag of n,
// a newly posted transaction is invisible to the next n queries
// (though it can be fetched by id right away).
type Ledger struct {
	mu    sync.Mutex
	txs   map[cs.TxID]*entry
	order []*entry // oldest first
	lag   int
	now   func() time.Time
}

type entry struct {
	id      cs.TxID
	tx      *cs.Tx
	at      time.Time
	pending int // queries remaining before visible
}

// Option configures a Ledger.
type Option func(*Ledger)

// VisibilityLag sets the number of queries a new transaction is hidden from.
func VisibilityLag(n int) Option {
	return func(l *Ledger) {
		l.lag = n
	}
}

// Clock sets the source of transaction timestamps.
func Clock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New produces a new Ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		txs: make(map[cs.TxID]*entry),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post implements cs.Ledger.
func (l *Ledger) Post(_ context.Context, tx *cs.Tx) (cs.TxID, error) {
	if err := ledger.CheckTx(tx); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	id := tx.ID()
	if _, ok := l.txs[id]; ok {
		return "", errors.Errorf("duplicate transaction %s", id)
	}

	stored := *tx
	stored.Data = append([]byte(nil), tx.Data...)
	stored.Tags = append(cs.Tags(nil), tx.Tags...)

	e := &entry{id: id, tx: &stored, at: l.now(), pending: l.lag}
	l.txs[id] = e
	l.order = append(l.order, e)
	return id, nil
}

// Fetch implements cs.Getter.
func (l *Ledger) Fetch(_ context.Context, id cs.TxID) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.txs[id]
	if !ok {
		return nil, cs.ErrNotFound
	}
	return append([]byte(nil), e.tx.Data...), nil
}

// Query implements cs.Getter.
func (l *Ledger) Query(_ context.Context, q cs.Query) ([]cs.Edge, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var matches []cs.Edge
	for _, e := range l.order {
		if e.pending > 0 {
			e.pending--
			continue
		}
		if !ledger.Match(q, e.id, e.tx.Owner, e.tx.Tags) {
			continue
		}
		matches = append(matches, cs.Edge{
			ID:    e.id,
			Tags:  append(cs.Tags(nil), e.tx.Tags...),
			Owner: e.tx.Owner,
			At:    e.at,
		})
	}
	return ledger.Page(q, matches), nil
}

// Len is the number of transactions posted.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}

func init() {
	ledger.Register("mem", func(_ context.Context, conf map[string]interface{}) (cs.Ledger, error) {
		var opts []Option
		if lag, ok := param.Int(conf, "lag"); ok {
			opts = append(opts, VisibilityLag(lag))
		}
		return New(opts...), nil
	})
}
