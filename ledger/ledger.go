// Package ledger holds the registry of ledger implementations
// and helpers shared by them.
package ledger

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/clayledger/cs"
)

// Factory creates a ledger from a configuration map.
type Factory func(context.Context, map[string]interface{}) (cs.Ledger, error)

var registry = make(map[string]Factory)

// Register makes a ledger type available to Create.
func Register(key string, f Factory) {
	registry[key] = f
}

// Create creates a ledger of the registered type key.
func Create(ctx context.Context, key string, conf map[string]interface{}) (cs.Ledger, error) {
	f, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("key %s not found in registry", key)
	}
	return f(ctx, conf)
}

// CreateNested creates the ledger described by conf["nested"],
// for ledgers that wrap another.
func CreateNested(ctx context.Context, conf map[string]interface{}) (cs.Ledger, error) {
	nested, ok := conf["nested"].(map[string]interface{})
	if !ok {
		return nil, errors.New(`missing "nested" parameter`)
	}
	nestedType, ok := nested["type"].(string)
	if !ok {
		return nil, errors.New(`"nested" parameter missing "type"`)
	}
	l, err := Create(ctx, nestedType, nested)
	return l, errors.Wrap(err, "creating nested ledger")
}

// CheckTx rejects transactions a ledger must not accept.
func CheckTx(tx *cs.Tx) error {
	if len(tx.Data) > cs.MaxTxSize {
		return errors.Wrapf(cs.ErrTooLarge, "%d bytes (limit %d)", len(tx.Data), cs.MaxTxSize)
	}
	return nil
}
