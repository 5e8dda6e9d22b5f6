// Package file implements a reference store as a directory of JSON files.
package file

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bobg/flock"
	"github.com/pkg/errors"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/internal/param"
	"github.com/clayledger/cs/ref"
)

var (
	_ ref.Store  = &Store{}
	_ ref.Lister = &Store{}
)

// Store is a file-based implementation of a reference store.
// Each reference lives in its own file,
// named for the hex encoding of its logical id
// (which sorts the same as the id itself).
type Store struct {
	root    string
	flocker flock.Locker
}

// New produces a new Store storing data beneath `root`.
func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) refroot() string {
	return filepath.Join(s.root, "refs")
}

func (s *Store) refpath(logicalID string) string {
	return filepath.Join(s.refroot(), hex.EncodeToString([]byte(logicalID))+".json")
}

// Get implements ref.Getter.
func (s *Store) Get(_ context.Context, logicalID string) (cs.Reference, error) {
	return s.read(s.refpath(logicalID))
}

func (s *Store) read(path string) (cs.Reference, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cs.Reference{}, cs.ErrNotFound
	}
	if err != nil {
		return cs.Reference{}, errors.Wrapf(err, "reading %s", path)
	}
	var r cs.Reference
	err = json.Unmarshal(b, &r)
	return r, errors.Wrapf(err, "decoding %s", path)
}

// Save implements ref.Store.
func (s *Store) Save(_ context.Context, logicalID string, root, latest cs.TxID) error {
	dir := s.refroot()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "ensuring path %s exists", dir)
	}

	path := s.refpath(logicalID)
	if err := s.flocker.Lock(path); err != nil {
		return errors.Wrapf(err, "locking %s", path)
	}
	defer s.flocker.Unlock(path)

	r, err := s.read(path)
	if err != nil && !errors.Is(err, cs.ErrNotFound) {
		return err
	}
	r = r.Update(logicalID, root, latest, ref.Now())

	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding reference")
	}

	tmp := path + ".tmp"
	if err = os.WriteFile(tmp, b, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	return errors.Wrapf(os.Rename(tmp, path), "renaming %s", tmp)
}

// List implements ref.Lister.
func (s *Store) List(_ context.Context, start string, f func(cs.Reference) error) error {
	entries, err := os.ReadDir(s.refroot())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "reading dir %s", s.refroot())
	}

	startHex := hex.EncodeToString([]byte(start))
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(names)

	index := sort.Search(len(names), func(n int) bool {
		return names[n] > startHex
	})
	for _, name := range names[index:] {
		if _, err := hex.DecodeString(name); err != nil {
			continue
		}
		r, err := s.read(filepath.Join(s.refroot(), name+".json"))
		if err != nil {
			return err
		}
		if err = f(r); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	ref.Register("file", func(_ context.Context, conf map[string]interface{}) (ref.Store, error) {
		root, err := param.RequireString(conf, "root")
		if err != nil {
			return nil, err
		}
		return New(root), nil
	})
}
