package inmemorystore

import (
	"context"
	"slices"
	"sync"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/valuestore"
)

// Store is an in-memory implementation of valuestore.Store.
type Store struct {
	values sync.Map // Key: value name, Value: any
}

// New creates a new, empty in-memory value store.
func New() valuestore.Store {
	return &Store{}
}

// Put sets a named value.
func (s *Store) Put(ctx context.Context, name string, value any) error {
	s.values.Store(name, value)
	ctxlog.FromContext(ctx).Debug("Value stored.", "name", name)
	return nil
}

// Get retrieves a named value.
func (s *Store) Get(ctx context.Context, name string) (any, bool) {
	return s.values.Load(name)
}

// Names lists the stored value names in lexical order.
func (s *Store) Names(ctx context.Context) []string {
	var names []string
	s.values.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	slices.Sort(names)
	return names
}

// Reset removes all values.
func (s *Store) Reset(ctx context.Context) {
	s.values.Clear()
}
