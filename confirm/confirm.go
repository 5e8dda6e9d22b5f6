// Package confirm waits for newly posted transactions
// to become visible to ledger queries.
//
// Ledgers are eventually consistent:
// a transaction may be fetchable by id
// well before tag queries find it.
// A Waiter polls a bounded number of times
// and then gives up with a *cs.ConfirmationTimeoutError.
package confirm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/clayledger/cs"
)

// Policy bounds the polling of a Waiter.
type Policy interface {
	// Attempts is the maximum number of queries.
	Attempts() int

	// Delay is how long to wait after the given (1-based) failed attempt.
	Delay(attempt int) time.Duration
}

// Fixed is a Policy with a fixed delay between attempts.
type Fixed struct {
	MaxAttempts int
	Interval    time.Duration
}

// Attempts implements Policy.
func (f Fixed) Attempts() int { return f.MaxAttempts }

// Delay implements Policy.
func (f Fixed) Delay(int) time.Duration { return f.Interval }

// Immediate is a Policy of n attempts with no delay.
func Immediate(n int) Fixed {
	return Fixed{MaxAttempts: n}
}

// DefaultPolicy polls ten times, two seconds apart.
var DefaultPolicy = Fixed{MaxAttempts: 10, Interval: 2 * time.Second}

// Waiter polls a ledger until a query has a result.
type Waiter struct {
	G      cs.Getter
	Policy Policy

	// Sleep waits between attempts.
	// If nil, a timer is used.
	Sleep func(context.Context, time.Duration) error

	Log *zap.Logger
}

// New produces a Waiter polling g according to p.
func New(g cs.Getter, p Policy) *Waiter {
	return &Waiter{G: g, Policy: p, Log: zap.NewNop()}
}

// WaitForVisibility polls for the newest transaction matching filters
// and returns its id.
func (w *Waiter) WaitForVisibility(ctx context.Context, filters []cs.TagFilter) (cs.TxID, error) {
	e, err := w.wait(ctx, cs.Query{Tags: filters})
	return e.ID, err
}

// WaitForDocument polls for the newest manifest of a logical document.
// When root is non-empty only versions tagged with it count.
func (w *Waiter) WaitForDocument(ctx context.Context, app, kind, logicalID string, root cs.TxID) (cs.TxID, error) {
	return w.WaitForVisibility(ctx, cs.DocumentFilters(app, kind, logicalID, root))
}

// WaitForTx polls until the transaction with the given id is visible.
func (w *Waiter) WaitForTx(ctx context.Context, id cs.TxID) error {
	_, err := w.wait(ctx, cs.Query{IDs: []cs.TxID{id}})
	return err
}

func (w *Waiter) wait(ctx context.Context, q cs.Query) (cs.Edge, error) {
	q.Order = cs.Desc
	q.First = 1

	var (
		attempts = 1
		log      = w.logger()
		lastErr  error
	)
	if w.Policy != nil && w.Policy.Attempts() > 1 {
		attempts = w.Policy.Attempts()
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		edges, err := w.G.Query(ctx, q)
		switch {
		case err != nil && ctx.Err() != nil:
			return cs.Edge{}, ctx.Err()
		case err != nil:
			lastErr = err
			log.Debug("confirmation query failed", zap.Int("attempt", attempt), zap.Error(err))
		case len(edges) > 0:
			log.Debug("transaction visible", zap.Int("attempt", attempt), zap.String("tx", string(edges[0].ID)))
			return edges[0], nil
		default:
			log.Debug("transaction not yet visible", zap.Int("attempt", attempt))
		}

		if attempt < attempts {
			if err := w.sleep(ctx, w.Policy.Delay(attempt)); err != nil {
				return cs.Edge{}, err
			}
		}
	}

	return cs.Edge{}, &cs.ConfirmationTimeoutError{Attempts: attempts, Err: lastErr}
}

func (w *Waiter) sleep(ctx context.Context, d time.Duration) error {
	if w.Sleep != nil {
		return w.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (w *Waiter) logger() *zap.Logger {
	if w.Log == nil {
		return zap.NewNop()
	}
	return w.Log
}
