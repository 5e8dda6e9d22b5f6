// Package compress implements a ledger that compresses and uncompresses transaction bodies
// on their way into and out of a nested ledger.
//
// A stored body that begins with a zero byte is framed:
// a zero byte, the compressor name, another zero byte, then the payload.
// Any other stored body is the original.
// Bodies that do not shrink are stored as-is
// unless they themselves begin with a zero byte,
// in which case they are framed with the name "identity".
package compress

import (
	"bytes"
	"context"

	"github.com/pkg/errors"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/internal/param"
	"github.com/clayledger/cs/ledger"
)

var _ cs.Ledger = &Ledger{}

// Compressor is a compression algorithm.
type Compressor interface {
	Name() string
	Compress([]byte) ([]byte, error)
	Uncompress([]byte) ([]byte, error)
}

const identity = "identity"

// Ledger compresses bodies posted to a nested ledger.
// The size limit applies to uncompressed bodies.
//
// Compression changes the stored body,
// so a nested ledger computing ids of unsigned transactions from their bodies
// returns different ids than the uncompressed transaction would have.
// Signed transactions keep their ids.
//
// The signature of a signed transaction covers its original body,
// so a Ledger must sit behind any signature check:
// wrap the ledger a verifying gateway server writes to,
// not the client that posts to it.
type Ledger struct {
	l     cs.Ledger
	c     Compressor
	known map[string]Compressor
}

// New produces a new Ledger compressing with c.
// It can read bodies compressed by any of c and extra.
func New(l cs.Ledger, c Compressor, extra ...Compressor) *Ledger {
	known := map[string]Compressor{c.Name(): c}
	for _, e := range extra {
		known[e.Name()] = e
	}
	return &Ledger{l: l, c: c, known: known}
}

func frame(name string, payload []byte) []byte {
	out := make([]byte, 0, len(name)+2+len(payload))
	out = append(out, 0)
	out = append(out, name...)
	out = append(out, 0)
	return append(out, payload...)
}

// Post implements cs.Ledger.
func (l *Ledger) Post(ctx context.Context, tx *cs.Tx) (cs.TxID, error) {
	if err := ledger.CheckTx(tx); err != nil {
		return "", err
	}

	compressed, err := l.c.Compress(tx.Data)
	if err != nil {
		return "", errors.Wrapf(err, "compressing with %s", l.c.Name())
	}

	var stored []byte
	switch {
	case len(compressed)+len(l.c.Name())+2 < len(tx.Data):
		stored = frame(l.c.Name(), compressed)
	case len(tx.Data) > 0 && tx.Data[0] == 0:
		stored = frame(identity, tx.Data)
	default:
		stored = tx.Data
	}

	out := *tx
	out.Data = stored
	return l.l.Post(ctx, &out)
}

// Fetch implements cs.Getter.
func (l *Ledger) Fetch(ctx context.Context, id cs.TxID) ([]byte, error) {
	stored, err := l.l.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 || stored[0] != 0 {
		return stored, nil
	}

	end := bytes.IndexByte(stored[1:], 0)
	if end < 0 {
		return nil, errors.Errorf("malformed frame in %s", id)
	}
	name, payload := string(stored[1:1+end]), stored[2+end:]
	if name == identity {
		return payload, nil
	}
	c, ok := l.known[name]
	if !ok {
		return nil, errors.Errorf("unknown compression %s in %s", name, id)
	}
	data, err := c.Uncompress(payload)
	return data, errors.Wrapf(err, "uncompressing %s", id)
}

// Query implements cs.Getter.
func (l *Ledger) Query(ctx context.Context, q cs.Query) ([]cs.Edge, error) {
	return l.l.Query(ctx, q)
}

func init() {
	ledger.Register("compress", func(ctx context.Context, conf map[string]interface{}) (cs.Ledger, error) {
		name, ok := param.String(conf, "algorithm")
		if !ok {
			name = "zstd"
		}
		level, _ := param.Int(conf, "level")
		c, err := ByName(name, level)
		if err != nil {
			return nil, err
		}
		nested, err := ledger.CreateNested(ctx, conf)
		if err != nil {
			return nil, err
		}
		return New(nested, c, Zstd{}, S2{}, Flate{}, LZMA{}), nil
	})
}
