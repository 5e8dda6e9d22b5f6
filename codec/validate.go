package codec

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/clayledger/cs"
)

// Validator checks that a decoded document has the expected structure.
type Validator interface {
	Validate([]byte) error
}

// JSON is a Validator requiring a well-formed JSON document.
// On failure it reports the position just after the last closing bracket
// as the suspected truncation point.
type JSON struct{}

// Validate implements Validator.
func (JSON) Validate(doc []byte) error {
	var v json.RawMessage
	err := json.Unmarshal(doc, &v)
	if err == nil {
		return nil
	}
	return &cs.CorruptPayloadError{
		Offset: bytes.LastIndexAny(doc, "}]") + 1,
		End:    len(doc),
		Err:    errors.Wrap(err, "parsing JSON"),
	}
}

// UTF8 is a Validator requiring only valid UTF-8 text.
type UTF8 struct{}

// Validate implements Validator.
func (UTF8) Validate(doc []byte) error {
	if utf8.Valid(doc) {
		return nil
	}
	offset := 0
	for offset < len(doc) {
		r, size := utf8.DecodeRune(doc[offset:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		offset += size
	}
	return &cs.CorruptPayloadError{
		Offset: offset,
		End:    len(doc),
		Err:    errors.New("invalid UTF-8"),
	}
}
