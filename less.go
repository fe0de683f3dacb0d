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

import "golang.org/x/exp/constraints"

// LessFunc reports whether a sorts strictly before b under a tree's total
// order. It must provide a strict weak ordering: irreflexive, antisymmetric,
// and transitive. Two items for which neither Less(a,b) nor Less(b,a) holds
// are equivalent; the tree can hold only one of them at a time, and a later
// insert of an equivalent item replaces the stored one.
//
// A LessFunc is supplied once, at tree construction, and is the tree's sole
// definition of item identity and order. It is never mutated or replaced,
// and must be pure: it must not depend on anything other than its two
// arguments.
type LessFunc[T any] func(a, b T) bool

// Ordered is the set of types for which the '<' operator works.
type Ordered = constraints.Ordered

// Less returns the default LessFunc for an Ordered type, built from '<'.
func Less[T Ordered]() LessFunc[T] {
	return func(a, b T) bool { return a < b }
}
