// Package unique provides an insertion-ordered collection that holds each identity once.
package unique

// Identifiable is implemented by values with a stable identity.
type Identifiable interface {
	ID() uint64
}

// Array is a slice paired with an identity index. Add, Remove and Contains are O(1) on
// average; Remove moves the last item into the freed slot, so order is only preserved
// for items that are never removed.
type Array[T Identifiable] struct {
	items []T
	index map[uint64]int
}

// New returns an empty Array with room for capacity items.
func New[T Identifiable](capacity int) *Array[T] {
	return &Array[T]{
		items: make([]T, 0, capacity),
		index: make(map[uint64]int, capacity),
	}
}

// Add appends v unless an item with the same identity is present.
// Returns true if v was added.
func (a *Array[T]) Add(v T) bool {
	id := v.ID()
	if _, ok := a.index[id]; ok {
		return false
	}
	if a.index == nil {
		a.index = make(map[uint64]int)
	}
	a.index[id] = len(a.items)
	a.items = append(a.items, v)
	return true
}

// Remove deletes the item with v's identity. Returns false if it was not present.
func (a *Array[T]) Remove(v T) bool {
	return a.RemoveID(v.ID())
}

// RemoveID deletes the item with the given identity.
func (a *Array[T]) RemoveID(id uint64) bool {
	i, ok := a.index[id]
	if !ok {
		return false
	}
	last := len(a.items) - 1
	if i != last {
		moved := a.items[last]
		a.items[i] = moved
		a.index[moved.ID()] = i
	}
	var zero T
	a.items[last] = zero
	a.items = a.items[:last]
	delete(a.index, id)
	return true
}

// Contains reports whether an item with v's identity is present.
func (a *Array[T]) Contains(v T) bool {
	_, ok := a.index[v.ID()]
	return ok
}

// Len returns the number of items.
func (a *Array[T]) Len() int {
	return len(a.items)
}

// Items returns the backing slice. It is invalidated by the next mutation.
func (a *Array[T]) Items() []T {
	return a.items
}

// Concat adds every item, skipping identities already present.
// Returns the number of items actually added.
func (a *Array[T]) Concat(items ...T) int {
	added := 0
	for _, v := range items {
		if a.Add(v) {
			added++
		}
	}
	return added
}

// Reset empties the array, keeping its allocated capacity.
func (a *Array[T]) Reset() {
	clear(a.items)
	a.items = a.items[:0]
	clear(a.index)
}

// Each calls fn for every item in order until fn returns false.
func (a *Array[T]) Each(fn func(T) bool) {
	for _, v := range a.items {
		if !fn(v) {
			return
		}
	}
}
