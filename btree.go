// Copyright 2014 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package btree implements an in-memory, generic, ordered B-tree usable as
// a mutable sorted set. Items are ordered by a LessFunc supplied at
// construction; inserting an item equivalent to one already present
// replaces it. Cloning a tree is O(1): the clone shares structure with its
// parent until one side mutates, at which point only the mutated path is
// duplicated (copy-on-write).
//
// btree is not meant for persistent storage, is not safe for concurrent
// mutation of a single tree instance by multiple goroutines, and gives no
// iteration-stability guarantee across concurrent mutation.
package btree

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// copyOnWriteContext is a tree's epoch token. A node's cow field names the
// epoch that may mutate it in place; a tree may mutate a node only while
// the node's cow equals the tree's own. Identity is all that matters here
// — id exists so that a token is also a concrete, comparable, printable
// value rather than bare pointer identity, which is convenient for tests
// and debugging.
type copyOnWriteContext[T any] struct {
	id       uuid.UUID
	freelist *FreeList[T]
}

func newCopyOnWriteContext[T any](freelist *FreeList[T]) *copyOnWriteContext[T] {
	return &copyOnWriteContext[T]{id: uuid.New(), freelist: freelist}
}

func (c *copyOnWriteContext[T]) newNode() *node[T] {
	n := c.freelist.newNode()
	n.cow = c
	return n
}

// freeNode releases n back to the free list if n still belongs to this
// epoch (it may not, if n was already handed off to a duplicate). It
// reports whether the node was retained by the free list.
func (c *copyOnWriteContext[T]) freeNode(n *node[T]) bool {
	if n.cow != c {
		return false
	}
	return c.freelist.freeNode(n)
}

// BTree is a generic, in-memory B-tree. The zero value is not usable; use
// New, NewOrdered, or NewWithFreeList.
//
// Write operations are not safe for concurrent use by multiple goroutines.
// Read operations (Get, Has, Min, Max, Len, the Ascend/Descend family) are
// safe to call concurrently with each other, but not concurrently with a
// write on the same tree.
type BTree[T any] struct {
	degree int
	length int
	root   *node[T]
	less   LessFunc[T]
	cow    *copyOnWriteContext[T]
}

// New creates a new B-tree with the given degree and ordering function.
// New(2, less), for example, creates a 2-3-4 tree (each node holds 1-3
// items and, if internal, 2-4 children). degree must be at least 2.
func New[T any](degree int, less LessFunc[T]) *BTree[T] {
	return NewWithFreeList(degree, less, NewFreeList[T](DefaultFreeListSize))
}

// NewOrdered creates a new B-tree of the given degree for a naturally
// ordered type, using '<' as the comparator.
func NewOrdered[T Ordered](degree int) *BTree[T] {
	return New[T](degree, Less[T]())
}

// NewWithFreeList creates a new B-tree that draws and recycles nodes
// through the given free list. The free list may be shared with other trees
// (see FreeList).
func NewWithFreeList[T any](degree int, less LessFunc[T], freelist *FreeList[T]) *BTree[T] {
	if degree < 2 {
		panic(errors.Errorf("btree: bad degree %d (must be >= 2)", degree))
	}
	return &BTree[T]{
		degree: degree,
		less:   less,
		cow:    newCopyOnWriteContext(freelist),
	}
}

// maxItems is the maximum number of items a non-root node may hold.
func (t *BTree[T]) maxItems() int { return t.degree*2 - 1 }

// minItems is the minimum number of items a non-root node may hold.
func (t *BTree[T]) minItems() int { return t.degree - 1 }

func (t *BTree[T]) newNode() *node[T] { return t.cow.newNode() }

func (t *BTree[T]) freeNode(n *node[T]) bool { return t.cow.freeNode(n) }

// mutableFor returns a node that t may mutate in place: n itself if it
// already belongs to t's epoch, or a freshly duplicated copy stamped with
// t's epoch otherwise.
func (t *BTree[T]) mutableFor(n *node[T]) *node[T] { return n.mutableFor(t.cow) }

// Clone lazily clones the tree, in O(1) time. t and the returned tree
// initially share their entire node structure, frozen with respect to
// both: the nodes are re-stamped (conceptually) by minting two brand-new
// epoch tokens, one for t and one for the clone, neither equal to the
// epoch the shared structure was built under. Subsequent writes to either
// tree duplicate nodes lazily along the path being written, leaving the
// other tree's view untouched.
//
// Clone itself must not be called concurrently with any other operation on
// t, but once it returns, t and the clone may be driven concurrently by
// independent writers. The clone shares t's FreeList, whose pushes and pops
// are serialized by its own mutex.
func (t *BTree[T]) Clone() *BTree[T] {
	coW1 := newCopyOnWriteContext(t.cow.freelist)
	coW2 := newCopyOnWriteContext(t.cow.freelist)
	out := *t
	t.cow = coW1
	out.cow = coW2
	return &out
}

// ReplaceOrInsert adds item to the tree. If an equivalent item is already
// present, it is replaced and returned along with true; otherwise the zero
// value of T and false are returned.
func (t *BTree[T]) ReplaceOrInsert(item T) (_ T, _ bool) {
	if t.root == nil {
		t.root = t.newNode()
		t.root.items = append(t.root.items, item)
		t.length++
		return
	}
	t.root = t.mutableFor(t.root)
	if len(t.root.items) >= t.maxItems() {
		item2, second := t.root.split(t.maxItems() / 2)
		oldroot := t.root
		t.root = t.newNode()
		t.root.items = append(t.root.items, item2)
		t.root.children = append(t.root.children, oldroot, second)
	}
	old, present := t.root.insert(item, t.maxItems(), t.less)
	if !present {
		t.length++
	}
	return old, present
}

// Delete removes the item equivalent to item from the tree, returning it.
func (t *BTree[T]) Delete(item T) (T, bool) {
	return t.deleteItem(item, removeItem)
}

// DeleteMin removes the smallest item in the tree and returns it.
func (t *BTree[T]) DeleteMin() (_ T, _ bool) {
	var zero T
	return t.deleteItem(zero, removeMin)
}

// DeleteMax removes the largest item in the tree and returns it.
func (t *BTree[T]) DeleteMax() (_ T, _ bool) {
	var zero T
	return t.deleteItem(zero, removeMax)
}

func (t *BTree[T]) deleteItem(item T, typ toRemove) (_ T, _ bool) {
	if t.root == nil || len(t.root.items) == 0 {
		return
	}
	t.root = t.mutableFor(t.root)
	out, outb := t.root.remove(item, t.minItems(), typ, t.less)
	if len(t.root.items) == 0 && len(t.root.children) > 0 {
		oldroot := t.root
		t.root = t.root.children[0]
		t.freeNode(oldroot)
	}
	if outb {
		t.length--
	}
	return out, outb
}

// Ascend calls iterator for every item in the tree, in ascending order,
// until iterator returns false.
func (t *BTree[T]) Ascend(iterator func(T) bool) {
	if t.root == nil {
		return
	}
	t.root.iterate(ascend, noBound[T](), noBound[T](), false, false, t.less, iterator)
}

// AscendGreaterOrEqual calls iterator for every item >= pivot, in
// ascending order, until iterator returns false.
func (t *BTree[T]) AscendGreaterOrEqual(pivot T, iterator func(T) bool) {
	if t.root == nil {
		return
	}
	t.root.iterate(ascend, optional(pivot), noBound[T](), true, false, t.less, iterator)
}

// AscendLessThan calls iterator for every item < pivot, in ascending
// order, until iterator returns false.
func (t *BTree[T]) AscendLessThan(pivot T, iterator func(T) bool) {
	if t.root == nil {
		return
	}
	t.root.iterate(ascend, noBound[T](), optional(pivot), false, false, t.less, iterator)
}

// AscendRange calls iterator for every item x with greaterOrEqual <= x <
// lessThan, in ascending order, until iterator returns false.
func (t *BTree[T]) AscendRange(greaterOrEqual, lessThan T, iterator func(T) bool) {
	if t.root == nil {
		return
	}
	t.root.iterate(ascend, optional(greaterOrEqual), optional(lessThan), true, false, t.less, iterator)
}

// Descend calls iterator for every item in the tree, in descending order,
// until iterator returns false.
func (t *BTree[T]) Descend(iterator func(T) bool) {
	if t.root == nil {
		return
	}
	t.root.iterate(descend, noBound[T](), noBound[T](), false, false, t.less, iterator)
}

// DescendLessOrEqual calls iterator for every item <= pivot, in descending
// order, until iterator returns false.
func (t *BTree[T]) DescendLessOrEqual(pivot T, iterator func(T) bool) {
	if t.root == nil {
		return
	}
	t.root.iterate(descend, optional(pivot), noBound[T](), true, false, t.less, iterator)
}

// DescendGreaterThan calls iterator for every item > pivot, in descending
// order, until iterator returns false.
func (t *BTree[T]) DescendGreaterThan(pivot T, iterator func(T) bool) {
	if t.root == nil {
		return
	}
	t.root.iterate(descend, noBound[T](), optional(pivot), false, false, t.less, iterator)
}

// DescendRange calls iterator for every item x with greaterThan < x <=
// lessOrEqual, in descending order, until iterator returns false.
func (t *BTree[T]) DescendRange(lessOrEqual, greaterThan T, iterator func(T) bool) {
	if t.root == nil {
		return
	}
	t.root.iterate(descend, optional(lessOrEqual), optional(greaterThan), true, false, t.less, iterator)
}

// Get returns the item in the tree equivalent to key, if any.
func (t *BTree[T]) Get(key T) (_ T, _ bool) {
	if t.root == nil {
		return
	}
	return t.root.get(key, t.less)
}

// Has reports whether the tree holds an item equivalent to key.
func (t *BTree[T]) Has(key T) bool {
	_, ok := t.Get(key)
	return ok
}

// Min returns the smallest item in the tree, if any.
func (t *BTree[T]) Min() (_ T, _ bool) { return subtreeMin(t.root) }

// Max returns the largest item in the tree, if any.
func (t *BTree[T]) Max() (_ T, _ bool) { return subtreeMax(t.root) }

// Len returns the number of items in the tree.
func (t *BTree[T]) Len() int { return t.length }
