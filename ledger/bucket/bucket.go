// Package bucket implements a ledger on any object store
// that can write an object once, read it back, and list names by prefix.
//
// Each transaction is stored three ways:
//
//	tx/<id>                               the full envelope
//	log/<inverted time>/<id>              the envelope minus its body
//	ix/<name>.<value>/<inverted time>/<id> the same, once per tag (name and value hex-encoded)
//
// Inverted times make a prefix listing produce the newest transactions first.
package bucket

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/ledger"
)

// Bucket is the object-store interface the ledger needs.
type Bucket interface {
	// Put stores an object.
	// When exclusive is true and the object already exists,
	// Put returns ErrExists.
	Put(ctx context.Context, name string, data []byte, exclusive bool) error

	// Get returns an object's contents,
	// or cs.ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// List calls f with the name of each object having the given prefix,
	// in lexical order.
	// If f returns ErrStop, List stops and returns nil.
	List(ctx context.Context, prefix string, f func(name string) error) error
}

var (
	// ErrExists is the error Bucket.Put returns for an exclusive write to an existing object.
	ErrExists = errors.New("object exists")

	// ErrStop is returned by a List callback to stop listing early.
	ErrStop = errors.New("stop")
)

var _ cs.Ledger = &Ledger{}

// Ledger is a cs.Ledger on a Bucket.
type Ledger struct {
	b Bucket

	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// New produces a new Ledger storing data in b.
func New(b Bucket) *Ledger {
	return &Ledger{b: b, now: time.Now}
}

func txObjName(id cs.TxID) string {
	return "tx/" + string(id)
}

func logObjName(at time.Time, id cs.TxID) string {
	return "log/" + recencyKey(at) + "/" + string(id)
}

func indexPrefix(name, value string) string {
	return "ix/" + hex.EncodeToString([]byte(name)) + "." + hex.EncodeToString([]byte(value)) + "/"
}

func indexObjName(t cs.Tag, at time.Time, id cs.TxID) string {
	return indexPrefix(t.Name, t.Value) + recencyKey(at) + "/" + string(id)
}

// horizon exceeds the nanosecond count of any time.Time since the epoch.
var horizon = new(big.Int).Lsh(big.NewInt(1), 96)

// recencyKey is a fixed-width decimal string
// that sorts later times first.
func recencyKey(t time.Time) string {
	n := big.NewInt(t.Unix())
	n.Mul(n, big.NewInt(int64(time.Second)))
	n.Add(n, big.NewInt(int64(t.Nanosecond())))
	return fmt.Sprintf("%030s", n.Sub(horizon, n))
}

// stamp produces a strictly increasing timestamp
// so that listing order is posting order.
func (l *Ledger) stamp() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	at := l.now().UTC()
	if !at.After(l.last) {
		at = l.last.Add(time.Nanosecond)
	}
	l.last = at
	return at
}

// Post implements cs.Ledger.
func (l *Ledger) Post(ctx context.Context, tx *cs.Tx) (cs.TxID, error) {
	if err := ledger.CheckTx(tx); err != nil {
		return "", err
	}

	var (
		at  = l.stamp()
		env = ledger.NewEnvelope(tx, at)
		id  = env.ID
	)
	full, err := env.Marshal()
	if err != nil {
		return "", err
	}
	err = l.b.Put(ctx, txObjName(id), full, true)
	if errors.Is(err, ErrExists) {
		return "", errors.Errorf("duplicate transaction %s", id)
	}
	if err != nil {
		return "", errors.Wrapf(err, "writing transaction %s", id)
	}

	env.Data = nil
	meta, err := env.Marshal()
	if err != nil {
		return "", err
	}
	if err = l.b.Put(ctx, logObjName(at, id), meta, false); err != nil {
		return "", errors.Wrapf(err, "writing log entry for %s", id)
	}
	for _, t := range tx.Tags {
		if err = l.b.Put(ctx, indexObjName(t, at, id), meta, false); err != nil {
			return "", errors.Wrapf(err, "writing index entry %s for %s", t.Name, id)
		}
	}
	return id, nil
}

// Fetch implements cs.Getter.
func (l *Ledger) Fetch(ctx context.Context, id cs.TxID) ([]byte, error) {
	env, err := l.envelope(ctx, id)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (l *Ledger) envelope(ctx context.Context, id cs.TxID) (ledger.Envelope, error) {
	b, err := l.b.Get(ctx, txObjName(id))
	if err != nil {
		return ledger.Envelope{}, err
	}
	return ledger.UnmarshalEnvelope(b)
}

// Query implements cs.Getter.
//
// Candidates come from the transaction ids in q if there are any,
// else from the index of q's first tag filter,
// else from the log of all transactions.
// Every candidate is then checked against all of q.
func (l *Ledger) Query(ctx context.Context, q cs.Query) ([]cs.Edge, error) {
	var (
		edges []cs.Edge
		seen  = make(map[cs.TxID]bool)
	)
	add := func(env ledger.Envelope) bool {
		if seen[env.ID] || !ledger.Match(q, env.ID, env.Owner, env.Tags) {
			return false
		}
		seen[env.ID] = true
		edges = append(edges, env.Edge())
		return true
	}

	switch {
	case len(q.IDs) > 0:
		for _, id := range q.IDs {
			env, err := l.envelope(ctx, id)
			if errors.Is(err, cs.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			add(env)
		}

	default:
		var prefixes []string
		if len(q.Tags) > 0 {
			f := q.Tags[0]
			for _, v := range f.Values {
				prefixes = append(prefixes, indexPrefix(f.Name, v))
			}
		} else {
			prefixes = []string{"log/"}
		}

		// Listings run newest first,
		// so a single listing serving a newest-first query
		// can stop once it has a page.
		early := len(prefixes) == 1 && q.Order == cs.Desc && q.After == ""
		for _, prefix := range prefixes {
			err := l.b.List(ctx, prefix, func(name string) error {
				b, err := l.b.Get(ctx, name)
				if err != nil {
					return errors.Wrapf(err, "reading %s", name)
				}
				env, err := ledger.UnmarshalEnvelope(b)
				if err != nil {
					return errors.Wrapf(err, "decoding %s", name)
				}
				if add(env) && early && len(edges) >= q.PageSize() {
					return ErrStop
				}
				return nil
			})
			if err != nil {
				return nil, errors.Wrapf(err, "listing %s", prefix)
			}
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].At.Equal(edges[j].At) {
			return edges[i].ID < edges[j].ID
		}
		return edges[i].At.Before(edges[j].At)
	})
	return ledger.Page(q, edges), nil
}
