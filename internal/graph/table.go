// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package graph

// Named is implemented by every entry kept in a Table.
type Named[T any] interface {
	GetName() string
	WithName(name string) T
}

// Table is an ordered collection of named entries with unique names.
type Table[T Named[T]] struct {
	items []T
	index map[string]int
}

// NewTable creates an empty table.
func NewTable[T Named[T]]() *Table[T] {
	return &Table[T]{index: make(map[string]int)}
}

// Add appends an entry. It returns false, leaving the table unchanged, if an
// entry with the same name exists.
func (t *Table[T]) Add(item T) bool {
	name := item.GetName()
	if _, exists := t.index[name]; exists {
		return false
	}
	t.index[name] = len(t.items)
	t.items = append(t.items, item)
	return true
}

// Get looks an entry up by name.
func (t *Table[T]) Get(name string) (T, bool) {
	idx, ok := t.index[name]
	if !ok {
		var zero T
		return zero, false
	}
	return t.items[idx], true
}

// Has reports whether an entry with the given name exists.
func (t *Table[T]) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// All returns the entries in insertion order.
func (t *Table[T]) All() []T {
	out := make([]T, len(t.items))
	copy(out, t.items)
	return out
}

// Names returns the entry names in insertion order.
func (t *Table[T]) Names() []string {
	out := make([]string, len(t.items))
	for i, item := range t.items {
		out[i] = item.GetName()
	}
	return out
}

// Len returns the number of entries.
func (t *Table[T]) Len() int {
	return len(t.items)
}

// CopyByName copies the src entry called name into dst under newName.
//
// It returns true when dst holds newName afterwards: either it was already
// present (nothing is copied) or the copy succeeded. It returns false when
// newName is absent from dst and name is absent from src.
func CopyByName[T Named[T]](dst, src *Table[T], name, newName string) bool {
	if dst.Has(newName) {
		return true
	}
	item, ok := src.Get(name)
	if !ok {
		return false
	}
	dst.Add(item.WithName(newName))
	return true
}
