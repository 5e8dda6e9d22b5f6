package upload

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/codec"
)

// UploadChunkSet posts payloads in index order,
// one transaction per chunk,
// followed by a manifest listing the chunk transaction ids.
//
// The chunk set id and count in tc are taken from payloads,
// and tc.At defaults to the current time.
//
// If posting any chunk fails,
// the remaining chunks are not attempted,
// no manifest is posted,
// and the error is a *cs.UploadError naming the chunk.
// Chunks already posted stay on the ledger, unreferenced.
func (u *Uploader) UploadChunkSet(ctx context.Context, payloads []cs.ChunkPayload, tc cs.TagContext, progress cs.ProgressFunc) (Result, error) {
	if err := checkPayloads(payloads); err != nil {
		return Result{}, err
	}

	tc.ChunkSetID = payloads[0].ChunkSetID
	tc.TotalChunks = len(payloads)
	if tc.At.IsZero() {
		tc.At = u.now()
	}

	log := u.log.With(
		zap.String("chunk_set", tc.ChunkSetID),
		zap.String("logical_id", tc.LogicalID),
		zap.Int("total", tc.TotalChunks),
	)

	ids := make([]cs.TxID, len(payloads))
	for i, p := range payloads {
		body, err := codec.ChunkBody(p, tc)
		if err != nil {
			return Result{}, &cs.UploadError{Index: i, Err: err}
		}
		tx := &cs.Tx{Data: body, Tags: cs.ChunkTags(tc, p.Index)}
		id, err := u.Post(ctx, tx)
		if err != nil {
			log.Error("chunk upload failed", zap.Int("index", i), zap.Error(err))
			return Result{}, &cs.UploadError{Index: i, Err: err}
		}
		if u.waiter != nil {
			if err := u.waiter.WaitForTx(ctx, id); err != nil {
				return Result{}, errors.Wrapf(err, "confirming chunk %d", i)
			}
		}
		ids[i] = id

		log.Debug("chunk uploaded", zap.Int("index", i), zap.String("tx", string(id)))
		progress.Report(i+1, len(payloads))
	}

	m := cs.Manifest{
		ProjectID:   tc.LogicalID,
		ProjectName: tc.Name,
		ChunkSetID:  tc.ChunkSetID,
		TotalChunks: tc.TotalChunks,
		Chunks:      ids,
		CreatedAt:   tc.At.UTC(),
	}
	manifestID, err := u.PostManifest(ctx, m, tc)
	if err != nil {
		log.Error("manifest upload failed", zap.Error(err))
		return Result{}, err
	}

	log.Info("chunk set uploaded", zap.String("manifest", string(manifestID)))
	return Result{TxIDs: ids, ManifestID: manifestID, Manifest: m}, nil
}

// PostManifest posts the manifest of a chunk set.
func (u *Uploader) PostManifest(ctx context.Context, m cs.Manifest, tc cs.TagContext) (cs.TxID, error) {
	body, err := codec.ManifestBody(m)
	if err != nil {
		return "", &cs.UploadError{Index: -1, Err: err}
	}
	tc.ChunkSetID = m.ChunkSetID
	tc.TotalChunks = m.TotalChunks
	id, err := u.Post(ctx, &cs.Tx{Data: body, Tags: cs.ManifestTags(tc)})
	if err != nil {
		return "", &cs.UploadError{Index: -1, Err: err}
	}
	if u.waiter != nil {
		if err := u.waiter.WaitForTx(ctx, id); err != nil {
			return "", errors.Wrap(err, "confirming manifest")
		}
	}
	return id, nil
}

func checkPayloads(payloads []cs.ChunkPayload) error {
	if len(payloads) == 0 {
		return &cs.ReassemblyError{Reason: "no chunks to upload"}
	}
	setID := payloads[0].ChunkSetID
	for i, p := range payloads {
		switch {
		case p.Index != i:
			return &cs.ReassemblyError{Reason: fmt.Sprintf("payload %d has index %d", i, p.Index)}
		case p.TotalChunks != len(payloads):
			return &cs.ReassemblyError{Reason: fmt.Sprintf("payload %d declares %d chunks, have %d", i, p.TotalChunks, len(payloads))}
		case p.ChunkSetID != setID:
			return &cs.ReassemblyError{Reason: fmt.Sprintf("payload %d belongs to chunk set %s, not %s", i, p.ChunkSetID, setID)}
		}
	}
	return nil
}
