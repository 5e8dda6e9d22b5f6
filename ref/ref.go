// Package ref keeps mutable references to documents on an append-only ledger.
//
// A reference maps a logical id,
// chosen by the caller and never changing,
// to the root transaction of the document
// (its first version)
// and its latest transaction.
// References live on the client,
// not on the ledger;
// the ledger knows only transactions,
// some of them tagged with a shared root.
package ref

import (
	"context"
	"fmt"
	"time"

	"github.com/clayledger/cs"
)

// Getter looks up references.
type Getter interface {
	// Get returns the reference for logicalID,
	// or cs.ErrNotFound.
	Get(ctx context.Context, logicalID string) (cs.Reference, error)
}

// Store is a Getter that can also record references.
// Stores assume a single writer per logical id.
type Store interface {
	Getter

	// Save records that latest is the newest transaction for logicalID.
	// If logicalID has no reference yet,
	// root becomes its root transaction
	// (or latest, when root is empty).
	// An existing root is never replaced.
	Save(ctx context.Context, logicalID string, root, latest cs.TxID) error
}

// Lister is a Store that can enumerate its references.
type Lister interface {
	// List calls f for each reference in logical-id order,
	// beginning after start.
	List(ctx context.Context, start string, f func(cs.Reference) error) error
}

// Factory creates a Store from a configuration map.
type Factory func(context.Context, map[string]interface{}) (Store, error)

var registry = make(map[string]Factory)

// Register makes a Store type available to Create.
func Register(key string, f Factory) {
	registry[key] = f
}

// Create creates a Store of the registered type key.
func Create(ctx context.Context, key string, conf map[string]interface{}) (Store, error) {
	f, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("key %s not found in registry", key)
	}
	return f(ctx, conf)
}

// Now is the clock stores use for UpdatedAt.
var Now = time.Now
