// Package upload posts chunk sets to a ledger.
//
// All chunks are signed by one fixed identity,
// whose signer hands out nonces in sequence.
// An Uploader therefore owns its signer inside a single worker goroutine
// and posts transactions strictly one at a time,
// no matter how many callers share it.
package upload

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/confirm"
	"github.com/clayledger/cs/signer"
)

// ErrClosed is returned by an Uploader after Close.
var ErrClosed = errors.New("uploader closed")

// Result describes a completed chunk set upload.
type Result struct {
	TxIDs      []cs.TxID // chunk transaction ids in index order
	ManifestID cs.TxID
	Manifest   cs.Manifest
}

// Uploader posts signed transactions through a single worker.
type Uploader struct {
	l      cs.Ledger
	owner  string
	waiter *confirm.Waiter
	log    *zap.Logger
	now    func() time.Time

	mu     sync.RWMutex // protects closed and sends on reqs
	closed bool
	reqs   chan request
	done   chan struct{}
}

type request struct {
	ctx  context.Context
	tx   *cs.Tx
	resp chan<- response
}

type response struct {
	id  cs.TxID
	err error
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithConfirm makes the Uploader wait for each chunk
// and the manifest to become visible before going on.
func WithConfirm(w *confirm.Waiter) Option {
	return func(u *Uploader) {
		u.waiter = w
	}
}

// WithLogger sets the Uploader's logger.
func WithLogger(log *zap.Logger) Option {
	return func(u *Uploader) {
		u.log = log
	}
}

// WithClock sets the source of Created-At timestamps.
func WithClock(now func() time.Time) Option {
	return func(u *Uploader) {
		u.now = now
	}
}

// New produces an Uploader posting to l as the identity of s.
// The Uploader takes ownership of s;
// callers must not use s afterwards.
// Call Close to stop the worker.
func New(l cs.Ledger, s signer.Signer, opts ...Option) *Uploader {
	u := &Uploader{
		l:     l,
		owner: s.Owner(),
		log:   zap.NewNop(),
		now:   time.Now,
		reqs:  make(chan request),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(u)
	}
	go u.run(s)
	return u
}

func (u *Uploader) run(s signer.Signer) {
	defer close(u.done)

	for req := range u.reqs {
		if err := req.ctx.Err(); err != nil {
			req.resp <- response{err: err}
			continue
		}
		if err := s.Sign(req.tx); err != nil {
			req.resp <- response{err: errors.Wrap(err, "signing transaction")}
			continue
		}
		id, err := u.l.Post(req.ctx, req.tx)
		req.resp <- response{id: id, err: err}
	}
}

// Close stops the worker after any queued transaction is posted.
func (u *Uploader) Close() error {
	u.mu.Lock()
	if !u.closed {
		u.closed = true
		close(u.reqs)
	}
	u.mu.Unlock()

	<-u.done
	return nil
}

// Owner is the identity the Uploader signs as.
func (u *Uploader) Owner() string { return u.owner }

// Post signs and posts a single transaction.
// A post that has reached the worker runs to completion
// even if ctx is canceled meanwhile.
func (u *Uploader) Post(ctx context.Context, tx *cs.Tx) (cs.TxID, error) {
	resp := make(chan response, 1)

	err := func() error {
		u.mu.RLock()
		defer u.mu.RUnlock()

		if u.closed {
			return ErrClosed
		}
		select {
		case u.reqs <- request{ctx: ctx, tx: tx, resp: resp}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}()
	if err != nil {
		return "", err
	}

	r := <-resp
	return r.id, r.err
}
