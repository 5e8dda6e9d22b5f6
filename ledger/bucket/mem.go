package bucket

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/clayledger/cs"
)

var _ Bucket = &Mem{}

// Mem is an in-memory Bucket.
type Mem struct {
	mu   sync.Mutex
	objs map[string][]byte
}

// NewMem produces an empty Mem.
func NewMem() *Mem {
	return &Mem{objs: make(map[string][]byte)}
}

// Put implements Bucket.
func (m *Mem) Put(_ context.Context, name string, data []byte, exclusive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objs[name]; ok && exclusive {
		return ErrExists
	}
	m.objs[name] = append([]byte(nil), data...)
	return nil
}

// Get implements Bucket.
func (m *Mem) Get(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.objs[name]
	if !ok {
		return nil, cs.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

// List implements Bucket.
func (m *Mem) List(_ context.Context, prefix string, f func(string) error) error {
	m.mu.Lock()
	var names []string
	for name := range m.objs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	m.mu.Unlock()

	sort.Strings(names)
	for _, name := range names {
		err := f(name)
		if errors.Is(err, ErrStop) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}
