// Package logging implements a ledger that delegates everything to a nested ledger,
// logging operations as they happen.
package logging

import (
	"context"

	"go.uber.org/zap"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/ledger"
)

var _ cs.Ledger = &Ledger{}

type Ledger struct {
	l   cs.Ledger
	log *zap.Logger
}

func New(l cs.Ledger, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{l: l, log: log}
}

func (l *Ledger) Fetch(ctx context.Context, id cs.TxID) ([]byte, error) {
	b, err := l.l.Fetch(ctx, id)
	if err != nil {
		l.log.Error("fetch", zap.String("id", string(id)), zap.Error(err))
	} else {
		l.log.Debug("fetch", zap.String("id", string(id)), zap.Int("bytes", len(b)))
	}
	return b, err
}

func (l *Ledger) Query(ctx context.Context, q cs.Query) ([]cs.Edge, error) {
	edges, err := l.l.Query(ctx, q)
	fields := []zap.Field{
		zap.Int("ids", len(q.IDs)),
		zap.Int("filters", len(q.Tags)),
		zap.Int("first", q.First),
		zap.String("after", string(q.After)),
		zap.Stringer("order", q.Order),
	}
	if err != nil {
		l.log.Error("query", append(fields, zap.Error(err))...)
	} else {
		l.log.Debug("query", append(fields, zap.Int("results", len(edges)))...)
	}
	return edges, err
}

func (l *Ledger) Post(ctx context.Context, tx *cs.Tx) (cs.TxID, error) {
	id, err := l.l.Post(ctx, tx)
	if err != nil {
		l.log.Error("post", zap.Int("bytes", len(tx.Data)), zap.Stringer("tags", tx.Tags), zap.Error(err))
	} else {
		l.log.Info("post", zap.String("id", string(id)), zap.Int("bytes", len(tx.Data)), zap.Stringer("tags", tx.Tags))
	}
	return id, err
}

func init() {
	ledger.Register("logging", func(ctx context.Context, conf map[string]interface{}) (cs.Ledger, error) {
		nested, err := ledger.CreateNested(ctx, conf)
		if err != nil {
			return nil, err
		}
		return New(nested, zap.L()), nil
	})
}
