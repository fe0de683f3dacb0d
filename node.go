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

package btree

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// items stores the items held directly in a node.
type items[T any] []T

// insertAt inserts a value into the given index, pushing all subsequent
// values forward.
func (s *items[T]) insertAt(index int, item T) {
	var zero T
	*s = append(*s, zero)
	if index < len(*s) {
		copy((*s)[index+1:], (*s)[index:])
	}
	(*s)[index] = item
}

// removeAt removes a value at a given index, pulling all subsequent values
// back.
func (s *items[T]) removeAt(index int) T {
	item := (*s)[index]
	copy((*s)[index:], (*s)[index+1:])
	var zero T
	(*s)[len(*s)-1] = zero
	*s = (*s)[:len(*s)-1]
	return item
}

// pop removes and returns the last element in the list.
func (s *items[T]) pop() (out T) {
	index := len(*s) - 1
	out = (*s)[index]
	var zero T
	(*s)[index] = zero
	*s = (*s)[:index]
	return
}

// truncate truncates s at index so that it contains only the first index
// items. index must be less than or equal to len(*s).
func (s *items[T]) truncate(index int) {
	var toClear items[T]
	*s, toClear = (*s)[:index], (*s)[index:]
	var zero T
	for i := range toClear {
		toClear[i] = zero
	}
}

// find returns the index at which item should sit in s: the first position
// whose item is not less than item. found is true iff the item at that
// index is equivalent to item (neither less than the other).
func (s items[T]) find(item T, less LessFunc[T]) (index int, found bool) {
	i := sort.Search(len(s), func(i int) bool { return less(item, s[i]) })
	if i > 0 && !less(s[i-1], item) {
		return i - 1, true
	}
	return i, false
}

// children stores the child pointers held in an internal node.
type children[T any] []*node[T]

// insertAt inserts a value into the given index, pushing all subsequent
// values forward.
func (s *children[T]) insertAt(index int, n *node[T]) {
	*s = append(*s, nil)
	if index < len(*s) {
		copy((*s)[index+1:], (*s)[index:])
	}
	(*s)[index] = n
}

// removeAt removes a value at a given index, pulling all subsequent values
// back.
func (s *children[T]) removeAt(index int) *node[T] {
	n := (*s)[index]
	copy((*s)[index:], (*s)[index+1:])
	(*s)[len(*s)-1] = nil
	*s = (*s)[:len(*s)-1]
	return n
}

// pop removes and returns the last element in the list.
func (s *children[T]) pop() (out *node[T]) {
	index := len(*s) - 1
	out = (*s)[index]
	(*s)[index] = nil
	*s = (*s)[:index]
	return
}

// truncate truncates s at index so that it contains only the first index
// children. index must be less than or equal to len(*s).
func (s *children[T]) truncate(index int) {
	var toClear children[T]
	*s, toClear = (*s)[:index], (*s)[index:]
	for i := range toClear {
		toClear[i] = nil
	}
}

// node is a node of a B-tree: an ordered sequence of items and, if
// internal, an ordered sequence of children one longer than the item
// sequence. cow identifies the tree-generation (epoch) that may mutate
// this node in place; a node referenced by a tree whose current epoch
// differs must be duplicated first (see BTree.mutableFor).
//
// Invariant: either len(children) == 0, or len(children) == len(items)+1.
type node[T any] struct {
	items    items[T]
	children children[T]
	cow      *copyOnWriteContext[T]
}

// split splits n at index i. n shrinks to items [0,i) (and, if internal,
// children [0,i]); the returned node holds items (i,end] and children
// (i,end], and the item at i is returned separately as the promoted
// median.
func (n *node[T]) split(i int) (T, *node[T]) {
	item := n.items[i]
	next := n.cow.newNode()
	next.items = append(next.items, n.items[i+1:]...)
	n.items.truncate(i)
	if len(n.children) > 0 {
		next.children = append(next.children, n.children[i+1:]...)
		n.children.truncate(i + 1)
	}
	return item, next
}

// maybeSplitChild splits child i if it is full (has maxItems items),
// promoting its median into n. Reports whether a split occurred.
func (n *node[T]) maybeSplitChild(i, maxItems int) bool {
	if len(n.children[i].items) < maxItems {
		return false
	}
	first := n.mutableChild(i)
	item, second := first.split(maxItems / 2)
	n.items.insertAt(i, item)
	n.children.insertAt(i+1, second)
	return true
}

// mutableChild returns child i, duplicating it first if it belongs to a
// different epoch than n.
func (n *node[T]) mutableChild(i int) *node[T] {
	c := n.children[i].mutableFor(n.cow)
	n.children[i] = c
	return c
}

// mutableFor returns a node usable for in-place mutation under cow: n
// itself if it already belongs to that epoch, or a fresh duplicate
// (stamped with cow) otherwise. Children of the duplicate remain shared
// with the original until they themselves need mutating.
func (n *node[T]) mutableFor(cow *copyOnWriteContext[T]) *node[T] {
	if n.cow == cow {
		return n
	}
	out := cow.newNode()
	if cap(out.items) >= len(n.items) {
		out.items = out.items[:len(n.items)]
	} else {
		out.items = make(items[T], len(n.items), cap(n.items))
	}
	copy(out.items, n.items)

	if cap(out.children) >= len(n.children) {
		out.children = out.children[:len(n.children)]
	} else {
		out.children = make(children[T], len(n.children), cap(n.children))
	}
	copy(out.children, n.children)
	return out
}

// insert inserts item into the subtree rooted at n, splitting any node
// that would otherwise exceed maxItems items. If an equivalent item was
// already present, it is replaced and returned along with true.
func (n *node[T]) insert(item T, maxItems int, less LessFunc[T]) (old T, present bool) {
	i, found := n.items.find(item, less)
	if found {
		old = n.items[i]
		n.items[i] = item
		return old, true
	}
	if len(n.children) == 0 {
		n.items.insertAt(i, item)
		return old, false
	}
	if n.maybeSplitChild(i, maxItems) {
		inTree := n.items[i]
		switch {
		case less(item, inTree):
			// descend into the left half, no change to i
		case less(inTree, item):
			i++ // descend into the right half
		default:
			old = n.items[i]
			n.items[i] = item
			return old, true
		}
	}
	return n.mutableChild(i).insert(item, maxItems, less)
}

// get finds an item equivalent to key in the subtree rooted at n.
func (n *node[T]) get(key T, less LessFunc[T]) (_ T, _ bool) {
	i, found := n.items.find(key, less)
	if found {
		return n.items[i], true
	}
	if len(n.children) > 0 {
		return n.children[i].get(key, less)
	}
	return
}

// subtreeMin returns the smallest item in the subtree rooted at n.
func subtreeMin[T any](n *node[T]) (_ T, found bool) {
	if n == nil {
		return
	}
	for len(n.children) > 0 {
		n = n.children[0]
	}
	if len(n.items) == 0 {
		return
	}
	return n.items[0], true
}

// subtreeMax returns the largest item in the subtree rooted at n.
func subtreeMax[T any](n *node[T]) (_ T, found bool) {
	if n == nil {
		return
	}
	for len(n.children) > 0 {
		n = n.children[len(n.children)-1]
	}
	if len(n.items) == 0 {
		return
	}
	return n.items[len(n.items)-1], true
}

// toRemove selects what node.remove should remove.
type toRemove int

const (
	removeItem toRemove = iota // the item equivalent to the given key
	removeMin                  // the smallest item in the subtree
	removeMax                  // the largest item in the subtree
)

// remove removes an item from the subtree rooted at n, maintaining the
// invariant that no node (other than the root) drops below minItems
// items. less and key are ignored when typ is removeMin or removeMax.
func (n *node[T]) remove(key T, minItems int, typ toRemove, less LessFunc[T]) (_ T, _ bool) {
	var i int
	var found bool
	switch typ {
	case removeMax:
		if len(n.children) == 0 {
			return n.items.pop(), true
		}
		i = len(n.items)
	case removeMin:
		if len(n.children) == 0 {
			return n.items.removeAt(0), true
		}
		i = 0
	case removeItem:
		i, found = n.items.find(key, less)
		if len(n.children) == 0 {
			if found {
				return n.items.removeAt(i), true
			}
			return
		}
	default:
		panic("btree: invalid toRemove")
	}
	// We have children; make sure child i can afford to lose an item
	// before descending into it.
	if len(n.children[i].items) <= minItems {
		return n.growChildAndRemove(i, key, minItems, typ, less)
	}
	child := n.mutableChild(i)
	if found {
		// child i-adjacent, which is really child at index i, can spare an
		// item: pull its predecessor up to replace the item we're removing.
		out := n.items[i]
		var zero T
		n.items[i], _ = child.remove(zero, minItems, removeMax, less)
		return out, true
	}
	return child.remove(key, minItems, typ, less)
}

// growChildAndRemove ensures child i has more than minItems items — by
// stealing from a neighbor or merging with one — then retries the remove
// so it lands in the now-guaranteed-large-enough case.
func (n *node[T]) growChildAndRemove(i int, key T, minItems int, typ toRemove, less LessFunc[T]) (T, bool) {
	switch {
	case i > 0 && len(n.children[i-1].items) > minItems:
		// Steal from left sibling: parent item i-1 moves down to the front
		// of child i, and the left sibling's last item moves up.
		child := n.mutableChild(i)
		stealFrom := n.mutableChild(i - 1)
		stolenItem := stealFrom.items.pop()
		child.items.insertAt(0, n.items[i-1])
		n.items[i-1] = stolenItem
		if len(stealFrom.children) > 0 {
			child.children.insertAt(0, stealFrom.children.pop())
		}
	case i < len(n.items) && len(n.children[i+1].items) > minItems:
		// Steal from right sibling, symmetric to the above.
		child := n.mutableChild(i)
		stealFrom := n.mutableChild(i + 1)
		stolenItem := stealFrom.items.removeAt(0)
		child.items = append(child.items, n.items[i])
		n.items[i] = stolenItem
		if len(stealFrom.children) > 0 {
			child.children = append(child.children, stealFrom.children.removeAt(0))
		}
	default:
		if i >= len(n.items) {
			i--
		}
		child := n.mutableChild(i)
		// Merge child i+1 into child i, with the separating parent item
		// sandwiched between them.
		mergeItem := n.items.removeAt(i)
		mergeChild := n.children.removeAt(i + 1)
		child.items = append(child.items, mergeItem)
		child.items = append(child.items, mergeChild.items...)
		child.children = append(child.children, mergeChild.children...)
		n.cow.freeNode(mergeChild)
	}
	return n.remove(key, minItems, typ, less)
}

// direction is the order in which iterate walks items.
type direction int

const (
	descend direction = -1
	ascend  direction = +1
)

// optionalItem is a nilable T, used for the start/stop bounds of iterate:
// a generic T has no universal "no bound" sentinel the way an interface
// value has nil.
type optionalItem[T any] struct {
	item  T
	valid bool
}

func optional[T any](item T) optionalItem[T] { return optionalItem[T]{item: item, valid: true} }
func noBound[T any]() optionalItem[T]        { return optionalItem[T]{} }

// iterate walks the subtree rooted at n in the given direction, calling
// iter for every item within (start, stop) — inclusive of start iff
// includeStart — until iter returns false or the subtree is exhausted.
// hit becomes (and stays) true once an emitted item has satisfied the
// start bound, so that runs of equivalent items at the boundary are
// handled correctly. The second return value is false iff iteration ended
// early, either because iter returned false or because an item at or past
// the stop bound was reached.
func (n *node[T]) iterate(dir direction, start, stop optionalItem[T], includeStart, hit bool, less LessFunc[T], iter func(T) bool) (bool, bool) {
	var ok bool
	switch dir {
	case ascend:
		for i := 0; i < len(n.items); i++ {
			if start.valid && less(n.items[i], start.item) {
				continue
			}
			if len(n.children) > 0 {
				if hit, ok = n.children[i].iterate(dir, start, stop, includeStart, hit, less, iter); !ok {
					return hit, false
				}
			}
			if !includeStart && !hit && start.valid && !less(start.item, n.items[i]) {
				hit = true
				continue
			}
			hit = true
			if stop.valid && !less(n.items[i], stop.item) {
				return hit, false
			}
			if !iter(n.items[i]) {
				return hit, false
			}
		}
		if len(n.children) > 0 {
			if hit, ok = n.children[len(n.children)-1].iterate(dir, start, stop, includeStart, hit, less, iter); !ok {
				return hit, false
			}
		}
	case descend:
		for i := len(n.items) - 1; i >= 0; i-- {
			if start.valid && !less(n.items[i], start.item) {
				if !includeStart || hit || less(start.item, n.items[i]) {
					continue
				}
			}
			if len(n.children) > 0 {
				if hit, ok = n.children[i+1].iterate(dir, start, stop, includeStart, hit, less, iter); !ok {
					return hit, false
				}
			}
			if stop.valid && !less(stop.item, n.items[i]) {
				return hit, false
			}
			hit = true
			if !iter(n.items[i]) {
				return hit, false
			}
		}
		if len(n.children) > 0 {
			if hit, ok = n.children[0].iterate(dir, start, stop, includeStart, hit, less, iter); !ok {
				return hit, false
			}
		}
	}
	return hit, true
}

// cursorsFor returns a stack of cursors locating key: the last entry
// points at key itself if found, or otherwise at the leaf position where
// key would be inserted. The second result reports whether that entry
// points at an item (key itself, or the smallest item of the leaf greater
// than key); it is false only when the position is past the leaf's end.
func (n *node[T]) cursorsFor(key T, less LessFunc[T], cstack []cursor[T]) ([]cursor[T], bool) {
	i, found := n.items.find(key, less)
	cstack = append(cstack, cursor[T]{n, i})
	if found {
		return cstack, true
	}
	if len(n.children) > 0 {
		return n.children[i].cursorsFor(key, less, cstack)
	}
	return cstack, i < len(n.items)
}

// print writes a debug dump of the subtree rooted at n to w. It is used
// only by tests and ad hoc debugging, never by the library itself.
func (n *node[T]) print(w io.Writer, level int) {
	fmt.Fprintf(w, "%sNODE:%v\n", strings.Repeat("  ", level), n.items)
	for _, c := range n.children {
		c.print(w, level+1)
	}
}
