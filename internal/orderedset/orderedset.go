// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package orderedset

import (
	"cmp"
	"iter"

	"github.com/emirpasic/gods/trees/redblacktree"
)

// Set is an ordered set of items of type T. The zero value is not usable, create one with New
// or NewOrdered. A Set is not safe for concurrent mutation.
type Set[T any] struct {
	tree    *redblacktree.Tree
	compare func(a, b T) int
}

// New creates an empty set ordered by compare, which must return a negative number when a < b,
// zero when they are equal and a positive number when a > b.
func New[T any](compare func(a, b T) int) *Set[T] {
	return &Set[T]{
		tree: redblacktree.NewWith(func(a, b any) int {
			return compare(a.(T), b.(T))
		}),
		compare: compare,
	}
}

// NewOrdered creates an empty set for a naturally ordered type and inserts items into it.
func NewOrdered[T cmp.Ordered](items ...T) *Set[T] {
	s := New(cmp.Compare[T])
	for _, item := range items {
		s.Insert(item)
	}

	return s
}

// Insert adds item unless an equal item is already present.
// It reports whether the item was inserted.
func (s *Set[T]) Insert(item T) bool {
	if _, found := s.tree.Get(item); found {
		return false
	}

	s.tree.Put(item, struct{}{})

	return true
}

// Remove deletes the item equal to key and reports whether it was present.
func (s *Set[T]) Remove(key T) bool {
	if _, found := s.tree.Get(key); !found {
		return false
	}

	s.tree.Remove(key)

	return true
}

// Contains reports whether an item equal to key is present.
func (s *Set[T]) Contains(key T) bool {
	_, found := s.tree.Get(key)
	return found
}

// Len returns the number of items in the set.
func (s *Set[T]) Len() int {
	return s.tree.Size()
}

// At returns the item at position i in sorted order.
// The boolean is false when i is outside [0, Len()).
func (s *Set[T]) At(i int) (T, bool) {
	var zero T

	if i < 0 || i >= s.tree.Size() {
		return zero, false
	}

	it := s.tree.Iterator()
	for n := 0; it.Next(); n++ {
		if n == i {
			return it.Key().(T), true
		}
	}

	return zero, false
}

// Min returns the smallest item without removing it.
func (s *Set[T]) Min() (T, bool) {
	var zero T

	node := s.tree.Left()
	if node == nil {
		return zero, false
	}

	return node.Key.(T), true
}

// PopMin removes and returns the smallest item, which makes the set usable as a sorted work queue.
func (s *Set[T]) PopMin() (T, bool) {
	item, ok := s.Min()
	if ok {
		s.tree.Remove(item)
	}

	return item, ok
}

// All returns an iterator over the items in ascending order.
// The set must not be mutated while iterating.
func (s *Set[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		it := s.tree.Iterator()
		for it.Next() {
			if !yield(it.Key().(T)) {
				return
			}
		}
	}
}

// Values returns a sorted copy of the items.
func (s *Set[T]) Values() []T {
	out := make([]T, 0, s.tree.Size())
	for item := range s.All() {
		out = append(out, item)
	}

	return out
}

// Clone returns a shallow copy of the set sharing the comparator.
func (s *Set[T]) Clone() *Set[T] {
	c := New(s.compare)
	for item := range s.All() {
		c.tree.Put(item, struct{}{})
	}

	return c
}

// MergeDiff walks a and b in a single pass using a's comparator.
// Items present in both fire onBoth, items present in only one set fire onOnlyA or onOnlyB.
// Each callback fires in ascending order and any of them may be nil.
func MergeDiff[T any](a, b *Set[T], onBoth, onOnlyA, onOnlyB func(T)) {
	call := func(fn func(T), item T) {
		if fn != nil {
			fn(item)
		}
	}

	nextA, stopA := iter.Pull(a.All())
	defer stopA()

	nextB, stopB := iter.Pull(b.All())
	defer stopB()

	itemA, okA := nextA()
	itemB, okB := nextB()

	for okA && okB {
		switch c := a.compare(itemA, itemB); {
		case c == 0:
			call(onBoth, itemA)
			itemA, okA = nextA()
			itemB, okB = nextB()
		case c < 0:
			call(onOnlyA, itemA)
			itemA, okA = nextA()
		default:
			call(onOnlyB, itemB)
			itemB, okB = nextB()
		}
	}

	for ; okA; itemA, okA = nextA() {
		call(onOnlyA, itemA)
	}

	for ; okB; itemB, okB = nextB() {
		call(onOnlyB, itemB)
	}
}
