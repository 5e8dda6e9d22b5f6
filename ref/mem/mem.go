// Package mem implements an in-memory reference store.
package mem

import (
	"context"
	"sort"
	"sync"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/ref"
)

var (
	_ ref.Store  = &Store{}
	_ ref.Lister = &Store{}
)

// Store is a memory-based implementation of a reference store.
type Store struct {
	mu   sync.Mutex
	refs map[string]cs.Reference
}

// New produces a new Store.
func New() *Store {
	return &Store{refs: make(map[string]cs.Reference)}
}

// Get implements ref.Getter.
func (s *Store) Get(_ context.Context, logicalID string) (cs.Reference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.refs[logicalID]
	if !ok {
		return cs.Reference{}, cs.ErrNotFound
	}
	return r, nil
}

// Save implements ref.Store.
func (s *Store) Save(_ context.Context, logicalID string, root, latest cs.TxID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs[logicalID] = s.refs[logicalID].Update(logicalID, root, latest, ref.Now())
	return nil
}

// List implements ref.Lister.
func (s *Store) List(_ context.Context, start string, f func(cs.Reference) error) error {
	s.mu.Lock()
	refs := make([]cs.Reference, 0, len(s.refs))
	for _, r := range s.refs {
		if r.LogicalID > start {
			refs = append(refs, r)
		}
	}
	s.mu.Unlock()

	sort.Slice(refs, func(i, j int) bool { return refs[i].LogicalID < refs[j].LogicalID })
	for _, r := range refs {
		if err := f(r); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	ref.Register("mem", func(context.Context, map[string]interface{}) (ref.Store, error) {
		return New(), nil
	})
}
