package codec

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/clayledger/cs"
)

// ChunkBody produces the transaction body for one chunk.
func ChunkBody(p cs.ChunkPayload, tc cs.TagContext) ([]byte, error) {
	b, err := json.Marshal(cs.ChunkBody{
		Chunk: p.Data,
		Metadata: cs.ChunkMetadata{
			ChunkIndex:  p.Index,
			TotalChunks: p.TotalChunks,
			ChunkSetID:  p.ChunkSetID,
			ProjectID:   tc.LogicalID,
			ProjectName: tc.Name,
		},
	})
	return b, errors.Wrap(err, "marshaling chunk body")
}

// ParseChunkBody parses the transaction body of one chunk.
func ParseChunkBody(b []byte) (cs.ChunkBody, error) {
	var body cs.ChunkBody
	err := json.Unmarshal(b, &body)
	return body, errors.Wrap(err, "parsing chunk body")
}

// ManifestBody produces the transaction body for a manifest.
func ManifestBody(m cs.Manifest) ([]byte, error) {
	b, err := json.Marshal(m)
	return b, errors.Wrap(err, "marshaling manifest")
}

// ParseManifest parses a manifest transaction body.
// It checks that the chunk list agrees with the declared count.
func ParseManifest(b []byte) (cs.Manifest, error) {
	var m cs.Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return m, errors.Wrap(err, "parsing manifest")
	}
	if m.TotalChunks != len(m.Chunks) {
		return m, &cs.MissingChunksError{Found: len(m.Chunks), Expected: m.TotalChunks}
	}
	return m, nil
}
