// Package locate finds and fetches the chunks of a chunk set.
//
// A chunk set's transactions are found from its manifest when one is at hand,
// or else by querying the ledger for the chunk set id.
// Either way the chunk index,
// never the order in which results arrive,
// decides where each chunk goes.
package locate

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/codec"
)

// DefaultConcurrency is the number of chunks fetched at once
// when Locator.Concurrency is zero.
const DefaultConcurrency = 4

// Locator resolves and fetches chunk sets.
type Locator struct {
	G           cs.Getter
	Concurrency int
	Log         *zap.Logger
}

// New produces a Locator reading from g.
func New(g cs.Getter) *Locator {
	return &Locator{G: g, Concurrency: DefaultConcurrency, Log: zap.NewNop()}
}

// ResolveChunkSet returns the chunk transaction ids of a chunk set in index order.
// If manifestIDs is non-nil it is taken as authoritative
// and no query is made.
// Otherwise the ledger is queried for the chunk set id
// and each result placed by its Chunk-Index tag.
//
// If any index from 0 to totalChunks-1 is left unfilled,
// the error is a *cs.MissingChunksError.
func (l *Locator) ResolveChunkSet(ctx context.Context, chunkSetID string, totalChunks int, manifestIDs []cs.TxID) ([]cs.TxID, error) {
	if totalChunks <= 0 {
		return nil, &cs.ReassemblyError{Reason: fmt.Sprintf("invalid chunk count %d", totalChunks)}
	}
	if manifestIDs != nil {
		return fromManifest(manifestIDs, totalChunks)
	}
	return l.query(ctx, chunkSetID, totalChunks)
}

func fromManifest(manifestIDs []cs.TxID, totalChunks int) ([]cs.TxID, error) {
	if len(manifestIDs) > totalChunks {
		return nil, &cs.ReassemblyError{Reason: fmt.Sprintf("manifest lists %d chunks, want %d", len(manifestIDs), totalChunks)}
	}
	ids := make([]cs.TxID, totalChunks)
	copy(ids, manifestIDs)
	return ids, checkFilled(ids)
}

func (l *Locator) query(ctx context.Context, chunkSetID string, totalChunks int) ([]cs.TxID, error) {
	pageSize := totalChunks
	if pageSize < cs.DefaultPageSize {
		pageSize = cs.DefaultPageSize
	}
	q := cs.Query{
		Tags:  []cs.TagFilter{cs.Filter(cs.TagChunkSetID, chunkSetID)},
		First: pageSize,
		Order: cs.Asc,
	}

	// Ledgers may cap pages below First,
	// so a short page does not mean the end.
	var (
		ids    = make([]cs.TxID, totalChunks)
		filled int
	)
	for filled < totalChunks {
		edges, err := l.G.Query(ctx, q)
		if err != nil {
			return nil, errors.Wrapf(err, "querying chunk set %s", chunkSetID)
		}
		if len(edges) == 0 {
			break
		}
		for _, e := range edges {
			index, ok := cs.ChunkIndex(e.Tags)
			if !ok || index >= totalChunks {
				continue
			}
			if ids[index] == "" {
				ids[index] = e.ID
				filled++
			}
		}
		q.After = edges[len(edges)-1].ID
	}

	if err := checkFilled(ids); err != nil {
		l.logger().Warn("incomplete chunk set", zap.String("chunk_set", chunkSetID), zap.Error(err))
		return nil, err
	}
	return ids, nil
}

func checkFilled(ids []cs.TxID) error {
	var found int
	for _, id := range ids {
		if id != "" {
			found++
		}
	}
	if found != len(ids) {
		return &cs.MissingChunksError{Found: found, Expected: len(ids)}
	}
	return nil
}

// Fetch fetches the chunks with the given transaction ids concurrently.
// Each chunk is placed by the index declared in its body.
// Progress is reported after every chunk.
func (l *Locator) Fetch(ctx context.Context, ids []cs.TxID, progress cs.ProgressFunc) ([][]byte, error) {
	var (
		chunks = make([][]byte, len(ids))
		filled = make([]bool, len(ids))
		mu     sync.Mutex // protects chunks, filled, and done
		done   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency())

	for _, id := range ids {
		id := id
		g.Go(func() error {
			b, err := l.G.Fetch(gctx, id)
			if err != nil {
				return errors.Wrapf(err, "fetching chunk %s", id)
			}
			body, err := codec.ParseChunkBody(b)
			if err != nil {
				return errors.Wrapf(err, "in chunk %s", id)
			}
			index := body.Metadata.ChunkIndex
			if index < 0 || index >= len(chunks) {
				return &cs.ReassemblyError{Reason: fmt.Sprintf("chunk %s declares index %d of %d", id, index, len(chunks))}
			}

			mu.Lock()
			defer mu.Unlock()

			if !filled[index] {
				chunks[index] = []byte(body.Chunk)
				filled[index] = true
			}
			done++
			progress.Report(done, len(ids))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var found int
	for _, f := range filled {
		if f {
			found++
		}
	}
	if found != len(chunks) {
		return nil, &cs.MissingChunksError{Found: found, Expected: len(chunks)}
	}
	return chunks, nil
}

// LoadManifest fetches and parses a manifest.
func (l *Locator) LoadManifest(ctx context.Context, id cs.TxID) (cs.Manifest, error) {
	b, err := l.G.Fetch(ctx, id)
	if err != nil {
		return cs.Manifest{}, errors.Wrapf(err, "fetching manifest %s", id)
	}
	m, err := codec.ParseManifest(b)
	return m, errors.Wrapf(err, "in manifest %s", id)
}

// Download reassembles the document whose manifest has the given id.
func (l *Locator) Download(ctx context.Context, manifestID cs.TxID, dec codec.Decoder, progress cs.ProgressFunc) (string, error) {
	m, err := l.LoadManifest(ctx, manifestID)
	if err != nil {
		return "", err
	}
	ids, err := l.ResolveChunkSet(ctx, m.ChunkSetID, m.TotalChunks, m.Chunks)
	if err != nil {
		return "", err
	}
	return l.assemble(ctx, ids, dec, progress)
}

// DownloadChunkSet reassembles a document from its chunk set id alone,
// for chunk sets whose manifest is not at hand.
func (l *Locator) DownloadChunkSet(ctx context.Context, chunkSetID string, totalChunks int, dec codec.Decoder, progress cs.ProgressFunc) (string, error) {
	ids, err := l.ResolveChunkSet(ctx, chunkSetID, totalChunks, nil)
	if err != nil {
		return "", err
	}
	return l.assemble(ctx, ids, dec, progress)
}

func (l *Locator) assemble(ctx context.Context, ids []cs.TxID, dec codec.Decoder, progress cs.ProgressFunc) (string, error) {
	chunks, err := l.Fetch(ctx, ids, progress)
	if err != nil {
		return "", err
	}
	return dec.Decode(chunks, len(ids))
}

func (l *Locator) concurrency() int {
	if l.Concurrency > 0 {
		return l.Concurrency
	}
	return DefaultConcurrency
}

func (l *Locator) logger() *zap.Logger {
	if l.Log == nil {
		return zap.NewNop()
	}
	return l.Log
}
