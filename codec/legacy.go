package codec

import (
	"encoding/base64"

	"github.com/pkg/errors"

	"github.com/clayledger/cs"
)

// LegacyStrategy recognizes and decodes an older chunk set format.
type LegacyStrategy interface {
	// Detect reports whether chunks appear to be in the older format.
	// When in doubt it must report false.
	Detect(chunks [][]byte) bool

	// Decode decodes chunks in the older format.
	Decode(chunks [][]byte) ([]byte, error)
}

// LegacySentinelLen is the encoded length of a full chunk
// in the older format,
// which cut documents into 50,000-character substrings
// and encoded each separately.
const LegacySentinelLen = 66668

// SentinelLegacy detects the older format
// by the length of the first chunk.
type SentinelLegacy struct {
	Len int
}

// Detect implements LegacyStrategy.
func (s SentinelLegacy) Detect(chunks [][]byte) bool {
	return s.Len > 0 && len(chunks) > 0 && len(chunks[0]) == s.Len
}

// Decode implements LegacyStrategy.
// Each chunk is decoded independently and the results concatenated.
func (s SentinelLegacy) Decode(chunks [][]byte) ([]byte, error) {
	var out []byte
	for i, c := range chunks {
		dec, err := base64.StdEncoding.DecodeString(string(c))
		if err != nil {
			return nil, &cs.CorruptPayloadError{
				Offset: len(out),
				End:    len(out),
				Err:    errors.Wrapf(err, "decoding legacy chunk %d", i),
			}
		}
		out = append(out, dec...)
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}
