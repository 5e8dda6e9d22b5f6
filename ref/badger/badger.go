// Package badger implements a reference store on an embedded Badger database.
package badger

import (
	"context"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/internal/param"
	"github.com/clayledger/cs/ref"
)

var (
	_ ref.Store  = &Store{}
	_ ref.Lister = &Store{}
)

const prefix = "ref/"

// Store is a Badger-based reference store.
// References are msgpack-encoded under the key "ref/<logical id>".
type Store struct {
	db *badger.DB
}

// New produces a new Store using db for storage.
func New(db *badger.DB) *Store {
	return &Store{db: db}
}

// Open opens (creating if necessary) a Badger database in dir
// and produces a Store on it.
// An empty dir means an in-memory database.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening badger db in %s", dir)
	}
	return New(db), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(logicalID string) []byte {
	return []byte(prefix + logicalID)
}

func get(txn *badger.Txn, logicalID string) (cs.Reference, error) {
	item, err := txn.Get(key(logicalID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return cs.Reference{}, cs.ErrNotFound
	}
	if err != nil {
		return cs.Reference{}, err
	}
	var r cs.Reference
	err = item.Value(func(val []byte) error {
		return msgpack.Unmarshal(val, &r)
	})
	return r, errors.Wrapf(err, "decoding reference %s", logicalID)
}

// Get implements ref.Getter.
func (s *Store) Get(_ context.Context, logicalID string) (cs.Reference, error) {
	var r cs.Reference
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		r, err = get(txn, logicalID)
		return err
	})
	return r, err
}

// Save implements ref.Store.
func (s *Store) Save(_ context.Context, logicalID string, root, latest cs.TxID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		r, err := get(txn, logicalID)
		if err != nil && !errors.Is(err, cs.ErrNotFound) {
			return err
		}
		r = r.Update(logicalID, root, latest, ref.Now())
		val, err := msgpack.Marshal(r)
		if err != nil {
			return errors.Wrapf(err, "encoding reference %s", logicalID)
		}
		return txn.Set(key(logicalID), val)
	})
}

// List implements ref.Lister.
func (s *Store) List(_ context.Context, start string, f func(cs.Reference) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(key(start)); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			id := strings.TrimPrefix(string(item.Key()), prefix)
			if id <= start {
				continue
			}
			var r cs.Reference
			err := item.Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &r)
			})
			if err != nil {
				return errors.Wrapf(err, "decoding reference %s", id)
			}
			if err = f(r); err != nil {
				return err
			}
		}
		return nil
	})
}

func init() {
	ref.Register("badger", func(_ context.Context, conf map[string]interface{}) (ref.Store, error) {
		dir, _ := param.String(conf, "dir")
		return Open(dir)
	})
}
