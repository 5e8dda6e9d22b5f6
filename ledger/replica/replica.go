// Package replica implements a ledger that writes through to several others.
package replica

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/internal/param"
	"github.com/clayledger/cs/ledger"
)

var _ cs.Ledger = (*Ledger)(nil)

// DefaultQueueLen is the length of each async ledger's request queue
// when the configuration does not give one.
const DefaultQueueLen = 10

// Ledger delegates writes to two sets of nested ledgers.
// One set is synchronous:
// a Post must succeed on all of these,
// and all must assign the transaction the same id.
// The other set is asynchronous:
// Post queues the transaction for these but does not wait.
// If any asynchronous post fails,
// the whole Ledger is put into an error state and further operations fail.
//
// Reads go to the synchronous ledgers only.
type Ledger struct {
	sync   []cs.Ledger
	async  []chan<- *cs.Tx
	cancel context.CancelFunc

	mu  sync.Mutex // protects err
	err error      // the error from an async goroutine, if any
}

// New produces a new Ledger.
// The set of synchronous ledgers must be non-empty.
// The set of asynchronous ledgers may be empty.
// If there are any asynchronous ledgers,
// goroutines are launched for them,
// and canceling ctx causes those to exit,
// placing the Ledger in an error state.
//
// Each async ledger has a request queue of length n,
// which must be 1 or greater.
// If any async ledger falls too far behind,
// Post blocks until the transaction can be queued.
func New(ctx context.Context, sync, async []cs.Ledger, n int) *Ledger {
	result := &Ledger{sync: sync}

	if len(async) > 0 {
		ctx, result.cancel = context.WithCancel(ctx)
		for _, a := range async {
			txs := make(chan *cs.Tx, n)
			result.async = append(result.async, txs)
			go result.runAsync(ctx, a, txs)
		}
	}

	return result
}

// Runs as a goroutine until ctx is canceled or a post fails.
func (l *Ledger) runAsync(ctx context.Context, dest cs.Ledger, txs <-chan *cs.Tx) {
	for {
		select {
		case <-ctx.Done():
			l.setErr(ctx.Err())
			return

		case tx := <-txs:
			if _, err := dest.Post(ctx, tx); err != nil {
				l.setErr(errors.Wrap(err, "posting to async ledger"))
				l.cancel()
				return
			}
		}
	}
}

func (l *Ledger) setErr(err error) {
	l.mu.Lock()
	if l.err == nil {
		l.err = err
	}
	l.mu.Unlock()
}

func (l *Ledger) checkErr() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return errors.Wrap(l.err, "in async-ledger goroutine")
	}
	return nil
}

// Post implements cs.Ledger.
// The transaction is posted to all synchronous ledgers concurrently
// and queued for the asynchronous ones.
// An error from any synchronous ledger,
// or a disagreement about the id,
// causes Post to fail.
// Some ledgers may then hold the transaction and others not.
func (l *Ledger) Post(ctx context.Context, tx *cs.Tx) (cs.TxID, error) {
	if err := l.checkErr(); err != nil {
		return "", err
	}

	ids := make([]cs.TxID, len(l.sync))
	g, gctx := errgroup.WithContext(ctx)
	for i, dest := range l.sync {
		i, dest := i, dest
		g.Go(func() error {
			id, err := dest.Post(gctx, tx)
			ids[i] = id
			return err
		})
	}

	for _, a := range l.async {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case a <- tx:
		}
	}

	if err := g.Wait(); err != nil {
		return "", err
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] != ids[0] {
			return "", errors.Errorf("replicas disagree on transaction id: %s vs. %s", ids[0], ids[i])
		}
	}
	return ids[0], nil
}

// Fetch implements cs.Getter.
// It asks all of the synchronous ledgers,
// returning the result from the first one to respond without error
// and canceling the request to the others.
// If every ledger fails,
// one of their errors is returned,
// preferring cs.ErrNotFound.
func (l *Ledger) Fetch(ctx context.Context, id cs.TxID) ([]byte, error) {
	if err := l.checkErr(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, len(l.sync))
	for _, src := range l.sync {
		src := src
		go func() {
			data, err := src.Fetch(ctx, id)
			ch <- result{data: data, err: err}
		}()
	}

	var firstErr error
	for range l.sync {
		r := <-ch
		if r.err == nil {
			return r.data, nil
		}
		if firstErr == nil || errors.Is(r.err, cs.ErrNotFound) {
			firstErr = r.err
		}
	}
	return nil, firstErr
}

// Query implements cs.Getter.
// The first synchronous ledger answers;
// the next is tried only if it fails.
// Results are not merged,
// since their cursors are not comparable.
func (l *Ledger) Query(ctx context.Context, q cs.Query) ([]cs.Edge, error) {
	if err := l.checkErr(); err != nil {
		return nil, err
	}
	var err error
	for _, src := range l.sync {
		var edges []cs.Edge
		edges, err = src.Query(ctx, q)
		if err == nil {
			return edges, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, err
}

func nestedList(ctx context.Context, conf map[string]interface{}, key string) ([]cs.Ledger, error) {
	items, _ := conf[key].([]interface{})
	var result []cs.Ledger
	for _, item := range items {
		nested, ok := item.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf(`"%s" item is not a map`, key)
		}
		nestedType, err := param.RequireString(nested, "type")
		if err != nil {
			return nil, errors.Wrapf(err, `in "%s" item`, key)
		}
		l, err := ledger.Create(ctx, nestedType, nested)
		if err != nil {
			return nil, errors.Wrapf(err, "creating nested %s ledger", key)
		}
		result = append(result, l)
	}
	return result, nil
}

func init() {
	ledger.Register("replica", func(ctx context.Context, conf map[string]interface{}) (cs.Ledger, error) {
		syncLedgers, err := nestedList(ctx, conf, "sync")
		if err != nil {
			return nil, err
		}
		if len(syncLedgers) == 0 {
			return nil, errors.New(`missing "sync" parameter`)
		}
		asyncLedgers, err := nestedList(ctx, conf, "async")
		if err != nil {
			return nil, err
		}
		queueLen, ok := param.Int(conf, "queuelen")
		if !ok || queueLen < 1 {
			queueLen = DefaultQueueLen
		}
		return New(ctx, syncLedgers, asyncLedgers, queueLen), nil
	})
}
