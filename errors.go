package cs

import "fmt"

// EncodingError means a document could not be made transport-safe.
type EncodingError struct {
	Reason string
}

func (e *EncodingError) Error() string {
	return "encoding document: " + e.Reason
}

// UploadError means posting one chunk of a chunk set failed.
// The chunks after Index were not attempted.
type UploadError struct {
	Index int // -1 for the manifest
	Err   error
}

func (e *UploadError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("uploading manifest: %s", e.Err)
	}
	return fmt.Sprintf("uploading chunk %d: %s", e.Index, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ConfirmationTimeoutError means a transaction never became visible to queries
// within the polling budget.
type ConfirmationTimeoutError struct {
	Attempts int
	Err      error // the last query error, if any
}

func (e *ConfirmationTimeoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transaction not visible after %d attempts (last error: %s)", e.Attempts, e.Err)
	}
	return fmt.Sprintf("transaction not visible after %d attempts", e.Attempts)
}

func (e *ConfirmationTimeoutError) Unwrap() error { return e.Err }

// MissingChunksError means chunk resolution found
// fewer distinct chunk indexes than the chunk set has.
type MissingChunksError struct {
	Found, Expected int
}

func (e *MissingChunksError) Error() string {
	return fmt.Sprintf("found %d of %d chunks", e.Found, e.Expected)
}

// ReassemblyError means a chunk list handed to the decoder is malformed:
// the wrong length, or with an empty slot.
type ReassemblyError struct {
	Reason string
}

func (e *ReassemblyError) Error() string {
	return "reassembling chunks: " + e.Reason
}

// CorruptPayloadError means reassembly succeeded
// but the decoded content is not what it should be.
// Offset is a best guess at where the content was truncated
// and End is the actual length,
// as a diagnostic aid.
type CorruptPayloadError struct {
	Offset, End int
	Err         error
}

func (e *CorruptPayloadError) Error() string {
	return fmt.Sprintf("corrupt payload (suspected truncation at %d of %d): %s", e.Offset, e.End, e.Err)
}

func (e *CorruptPayloadError) Unwrap() error { return e.Err }
