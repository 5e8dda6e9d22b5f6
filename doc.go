// Package cs is a client for storing large documents on a write-once ledger.
//
// The ledger stores transactions:
// immutable byte sequences,
// each annotated with a list of name/value tags,
// each limited in size (see MaxTxSize).
// Once posted, a transaction can never be changed or deleted.
// Tags are the only way to find a transaction again
// other than already knowing its id.
//
// Documents routinely exceed the per-transaction limit,
// so this module splits a document into a _chunk set_:
// an ordered sequence of bounded chunks,
// each posted as its own transaction
// and tagged with the chunk set's id and the chunk's index.
// When every chunk is posted,
// a small _manifest_ transaction lists the chunk transaction ids in order.
// A chunk set with no manifest is incomplete and is treated as absent.
//
// Reading a document back means finding its manifest
// (or, lacking one, querying for its chunks by tag),
// fetching the chunks in any order,
// placing each by its declared index,
// and decoding the result.
// See the codec, upload, confirm, and locate subpackages.
//
// Because the ledger is append-only,
// "updating" a document means posting a whole new chunk set.
// To keep the versions of one logical document together,
// every version after the first carries a Root-TX tag
// naming the first version's manifest.
// A Reference records,
// for each logical document,
// that root transaction and the latest one.
// This is much like an anchor in a blob store:
// a stable name mapped to a changing series of immutable values.
// See the ref subpackage.
//
// Ledger implementations live in subpackages of ledger,
// reference store implementations in subpackages of ref.
// Both are selected at runtime through registries keyed by name.
package cs
