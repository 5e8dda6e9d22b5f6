// Package codec turns documents into chunk sets and back.
//
// A document is first made transport-safe
// by base64-encoding its UTF-8 bytes,
// so no chunk boundary can fall inside a multibyte character.
// The encoded string is then cut into fixed-size windows.
// Reassembly concatenates the windows in index order
// and decodes the result once.
//
// Older chunk sets were written differently:
// each chunk was a separately encoded substring of the document.
// Those are recognized by the length of their first chunk
// and decoded by a LegacyStrategy.
package codec

import (
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/clayledger/cs"
)

// DefaultChunkSize is the number of document bytes per chunk.
// Its encoded window is 68268 characters,
// which with the JSON wrapper of a chunk body
// stays well under cs.MaxTxSize.
const DefaultChunkSize = 51200

// WindowSize is the length of the encoded window
// holding chunkSize document bytes.
// It is always a multiple of four,
// so every window but the last decodes on its own.
func WindowSize(chunkSize int) int {
	return 4 * ((chunkSize + 2) / 3)
}

// Encode splits doc into an ordered chunk set
// with a freshly generated chunk set id.
// The result always has at least one chunk.
func Encode(doc string, chunkSize int) ([]cs.ChunkPayload, error) {
	if chunkSize <= 0 {
		return nil, &cs.EncodingError{Reason: fmt.Sprintf("invalid chunk size %d", chunkSize)}
	}
	if !utf8.ValidString(doc) {
		return nil, &cs.EncodingError{Reason: "document is not valid UTF-8"}
	}

	var (
		enc    = base64.StdEncoding.EncodeToString([]byte(doc))
		window = WindowSize(chunkSize)
		total  = (len(enc) + window - 1) / window
		setID  = uuid.New().String()
	)
	if total == 0 {
		total = 1
	}

	payloads := make([]cs.ChunkPayload, 0, total)
	for i := 0; i < total; i++ {
		start := i * window
		end := start + window
		if end > len(enc) {
			end = len(enc)
		}
		payloads = append(payloads, cs.ChunkPayload{
			Data:        enc[start:end],
			Index:       i,
			TotalChunks: total,
			ChunkSetID:  setID,
		})
	}
	return payloads, nil
}
