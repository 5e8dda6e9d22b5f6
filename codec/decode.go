package codec

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/pkg/errors"

	"github.com/clayledger/cs"
)

// Decoder reassembles chunk sets.
type Decoder struct {
	// Legacy, if non-nil, recognizes and decodes the older per-chunk format.
	Legacy LegacyStrategy

	// Validator, if non-nil, checks the decoded document.
	Validator Validator
}

// DefaultDecoder understands legacy chunk sets and expects JSON documents.
var DefaultDecoder = Decoder{
	Legacy:    SentinelLegacy{Len: LegacySentinelLen},
	Validator: JSON{},
}

// Decode reassembles a document from its chunks,
// which must be in index order.
// A nil slot is a missing chunk.
func (d Decoder) Decode(chunks [][]byte, totalChunks int) (string, error) {
	if len(chunks) != totalChunks {
		return "", &cs.ReassemblyError{Reason: fmt.Sprintf("got %d chunks, want %d", len(chunks), totalChunks)}
	}
	if totalChunks == 0 {
		return "", &cs.ReassemblyError{Reason: "empty chunk set"}
	}
	for i, c := range chunks {
		if c == nil || (len(c) == 0 && totalChunks > 1) {
			return "", &cs.ReassemblyError{Reason: fmt.Sprintf("chunk %d is empty", i)}
		}
	}

	var (
		doc []byte
		err error
	)
	if d.Legacy != nil && d.Legacy.Detect(chunks) {
		doc, err = d.Legacy.Decode(chunks)
	}
	if doc == nil {
		doc, err = decodeCurrent(chunks)
	}
	if err != nil {
		return "", err
	}

	if d.Validator != nil {
		if err := d.Validator.Validate(doc); err != nil {
			return "", err
		}
	}
	return string(doc), nil
}

// DecodeStrings is a convenience wrapper for Decode.
func (d Decoder) DecodeStrings(chunks []string, totalChunks int) (string, error) {
	bchunks := make([][]byte, len(chunks))
	for i, c := range chunks {
		bchunks[i] = []byte(c)
	}
	return d.Decode(bchunks, totalChunks)
}

func decodeCurrent(chunks [][]byte) ([]byte, error) {
	enc := bytes.Join(chunks, nil)
	doc := make([]byte, base64.StdEncoding.DecodedLen(len(enc)))
	n, err := base64.StdEncoding.Decode(doc, enc)
	if err != nil {
		offset := n
		var cerr base64.CorruptInputError
		if errors.As(err, &cerr) {
			offset = int(cerr) / 4 * 3
		}
		return nil, &cs.CorruptPayloadError{
			Offset: offset,
			End:    len(doc),
			Err:    errors.Wrap(err, "decoding concatenated chunks"),
		}
	}
	return doc[:n], nil
}
