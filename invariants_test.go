package btree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// checkInvariants walks every node reachable from t's root and verifies
// spec.md §3's node invariants: ascending items, the key-interval
// property between an internal node's items and its children, item-count
// bounds (root exempt from the lower bound), and uniform leaf depth.
func checkInvariants[T any](t *testing.T, tr *BTree[T]) {
	t.Helper()
	if tr.root == nil {
		return
	}
	leafDepth := -1
	var walk func(n *node[T], depth int, isRoot bool, lo, hi *T)
	walk = func(n *node[T], depth int, isRoot bool, lo, hi *T) {
		for i := 1; i < len(n.items); i++ {
			require.True(t, tr.less(n.items[i-1], n.items[i]), "items must be strictly ascending")
		}
		if lo != nil && len(n.items) > 0 {
			require.False(t, tr.less(n.items[0], *lo), "leftmost item must not be less than the lower bound")
		}
		if hi != nil && len(n.items) > 0 {
			require.True(t, tr.less(n.items[len(n.items)-1], *hi), "rightmost item must be less than the upper bound")
		}
		if !isRoot {
			require.GreaterOrEqual(t, len(n.items), tr.minItems(), "non-root node below minItems")
		}
		require.LessOrEqual(t, len(n.items), tr.maxItems(), "node above maxItems")
		if len(n.children) == 0 {
			if leafDepth == -1 {
				leafDepth = depth
			} else {
				require.Equal(t, leafDepth, depth, "all leaves must be at the same depth")
			}
			return
		}
		require.Equal(t, len(n.items)+1, len(n.children), "internal node must have len(items)+1 children")
		for j, c := range n.children {
			var childLo, childHi *T
			if j > 0 {
				childLo = &n.items[j-1]
			} else {
				childLo = lo
			}
			if j < len(n.items) {
				childHi = &n.items[j]
			} else {
				childHi = hi
			}
			walk(c, depth+1, false, childLo, childHi)
		}
	}
	walk(tr.root, 0, true, nil, nil)
}

func TestStructuralInvariantsUnderRandomOps(t *testing.T) {
	tr := newIntTree(3)
	const n = 3000
	inserted := map[int]bool{}
	for _, v := range perm(n) {
		tr.ReplaceOrInsert(v)
		inserted[v] = true
		checkInvariants(t, tr)
	}
	for _, v := range perm(n)[:n/2] {
		tr.Delete(v)
		delete(inserted, v)
		checkInvariants(t, tr)
	}
	require.Equal(t, len(inserted), tr.Len())
}

func TestDegenerateDescendRangeIsEmpty(t *testing.T) {
	// spec.md §9's Open Question: DescendRange(p, q) with p == q must
	// visit nothing, since the bounds are item <= p and item > q with
	// p == q.
	tr := newIntTree(3)
	for _, v := range rang(50) {
		tr.ReplaceOrInsert(v)
	}
	var got []int
	tr.DescendRange(25, 25, func(a int) bool {
		got = append(got, a)
		return true
	})
	require.Empty(t, got)
}

func TestEarlyStopDeliversNoFurtherCallbacks(t *testing.T) {
	tr := newIntTree(3)
	for _, v := range rang(200) {
		tr.ReplaceOrInsert(v)
	}
	var got []int
	tr.Ascend(func(a int) bool {
		got = append(got, a)
		return len(got) < 10
	})
	require.Equal(t, rang(10), got)
}

// TestConcreteScenarioDegree32 mirrors spec.md §8 concrete scenario 1.
func TestConcreteScenarioDegree32(t *testing.T) {
	tr := newIntTree(32)
	_, ok := tr.Min()
	require.False(t, ok)
	_, ok = tr.Max()
	require.False(t, ok)

	const n = 10000
	for _, v := range perm(n) {
		tr.ReplaceOrInsert(v)
	}
	min, ok := tr.Min()
	require.True(t, ok)
	require.Equal(t, 0, min)
	max, ok := tr.Max()
	require.True(t, ok)
	require.Equal(t, n-1, max)
	require.Equal(t, rang(n), all(tr))
	require.Equal(t, rangrev(n), allrev(tr))

	for _, v := range perm(n) {
		_, replaced := tr.ReplaceOrInsert(v)
		require.True(t, replaced)
	}
	for _, v := range perm(n) {
		_, ok := tr.Delete(v)
		require.True(t, ok)
	}
	require.Equal(t, 0, tr.Len())
}

// TestReinsertEquivalentReturnsPrior pins down spec.md §8's "re-inserting
// an equivalent item returns the prior item and leaves length unchanged."
func TestReinsertEquivalentReturnsPrior(t *testing.T) {
	tr := newIntTree(3)
	tr.ReplaceOrInsert(7)
	require.Equal(t, 1, tr.Len())
	old, ok := tr.ReplaceOrInsert(7)
	require.True(t, ok)
	require.Equal(t, 7, old)
	require.Equal(t, 1, tr.Len())
}
