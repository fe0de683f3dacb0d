// Copyright 2014 Google Inc.
// Adapted 2018 by Jonathan Amsterdam (jbamsterdam@gmail.com).
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

package btree

// cursor is a pointer into a node: a stack of cursors identifies an item in
// the tree and lets an Iterator step to the next one efficiently. On the
// top of the stack, index selects an item in node.items; everywhere else,
// it selects the child in node.children that is next on the path.
type cursor[T any] struct {
	node  *node[T]
	index int
}

// Iterator is a lazy, stepping cursor over a tree's items, an alternative
// to the predicate-based Ascend family for callers that want to pull
// items one at a time rather than hand over a callback.
//
// An Iterator makes no promises about what happens if the tree it was
// built from is mutated before the Iterator is exhausted; behavior in that
// case is undefined. Use a snapshot (BTree.Clone) first if both mutation
// and iteration are needed concurrently.
type Iterator[T any] struct {
	// Item is the current item once Next has returned true.
	Item T

	// Index is the position of Item in the tree viewed as a sequence; the
	// minimum item has index zero.
	Index int

	cursors []cursor[T]
	stay    bool
}

// Before returns an Iterator positioned so that the first call to Next
// lands on the item equivalent to key, if present, or the smallest item
// greater than key otherwise.
func (t *BTree[T]) Before(key T) *Iterator[T] {
	if t.root == nil {
		return &Iterator[T]{}
	}
	cs, stay := t.root.cursorsFor(key, t.less, nil)
	// Start Index one below the position of the first item >= key, which is
	// the number of items less than key.
	index := -1
	t.AscendLessThan(key, func(T) bool {
		index++
		return true
	})
	return &Iterator[T]{cursors: cs, stay: stay, Index: index}
}

// BeforeMin returns an Iterator positioned just before the smallest item,
// so that the first call to Next lands on it.
func (t *BTree[T]) BeforeMin() *Iterator[T] {
	if t.root == nil {
		return &Iterator[T]{}
	}
	return &Iterator[T]{cursors: []cursor[T]{{t.root, -1}}, Index: -1}
}

// inc advances the cursor stack to the next item, reporting whether one
// exists.
func (it *Iterator[T]) inc() bool {
	if len(it.cursors) == 0 {
		return false
	}
	if it.stay {
		it.stay = false
		return true
	}
	last := len(it.cursors) - 1
	it.cursors[last].index++
	top := it.cursors[last]
	for len(top.node.children) > 0 {
		top = cursor[T]{top.node.children[top.index], 0}
		it.cursors = append(it.cursors, top)
	}
	for top.index >= len(top.node.items) {
		it.cursors = it.cursors[:last]
		last--
		if len(it.cursors) == 0 {
			return false
		}
		top = it.cursors[last]
	}
	return true
}

// Next advances the iterator, reporting whether a next item exists. If it
// does, Item and Index are updated to refer to it.
func (it *Iterator[T]) Next() bool {
	if !it.inc() {
		return false
	}
	top := it.cursors[len(it.cursors)-1]
	it.Item = top.node.items[top.index]
	it.Index++
	return true
}
