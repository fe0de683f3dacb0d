package btree

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestCloneIsImmediatelyEqual checks spec.md §8's first clone law: right
// after Clone, both trees contain the same items in the same order.
func TestCloneIsImmediatelyEqual(t *testing.T) {
	a := newIntTree(4)
	for _, v := range perm(500) {
		a.ReplaceOrInsert(v)
	}
	b := a.Clone()
	require.Equal(t, all(a), all(b))
	require.Equal(t, a.Len(), b.Len())
}

// TestCloneMutationsAreIndependent checks spec.md §8's second clone law:
// mutating one side after Clone never affects the other, in either
// direction.
func TestCloneMutationsAreIndependent(t *testing.T) {
	a := newIntTree(4)
	for _, v := range rang(1000) {
		a.ReplaceOrInsert(v)
	}
	b := a.Clone()

	for _, v := range rang(500) {
		a.Delete(v)
	}
	for _, v := range rang(2000)[1000:] {
		b.ReplaceOrInsert(v)
	}

	require.Equal(t, rang(1000)[500:], all(a))
	require.Equal(t, rang(2000), all(b))
}

// TestCloneRepeatedDepth checks spec.md §8's third clone law: cloning to
// arbitrary depth (B from A, C from B, ...) preserves mutual independence
// between every pair, not just adjacent ones.
func TestCloneRepeatedDepth(t *testing.T) {
	const depth = 8
	trees := make([]*BTree[int], depth)
	trees[0] = newIntTree(3)
	for _, v := range rang(100) {
		trees[0].ReplaceOrInsert(v)
	}
	for i := 1; i < depth; i++ {
		trees[i] = trees[i-1].Clone()
		trees[i].ReplaceOrInsert(100 + i)
	}
	for i := 0; i < depth; i++ {
		want := rang(100)
		for j := 1; j <= i; j++ {
			want = append(want, 100+j)
		}
		require.Equal(t, want, all(trees[i]), "tree %d", i)
	}
}

// TestCloneEveryNItems mirrors spec.md §8's concrete scenario 6: insert a
// permutation of [0, N), cloning periodically and continuing insertion on
// the clone from where the parent left off. Every resulting tree must end
// up containing exactly [0, N) in order.
func TestCloneEveryNItems(t *testing.T) {
	const n = 10000
	const cloneEvery = 2000
	p := perm(n)

	var trees []*BTree[int]
	var mu sync.Mutex
	var collect func(tr *BTree[int], start int) func() error
	collect = func(tr *BTree[int], start int) func() error {
		return func() error {
			mu.Lock()
			trees = append(trees, tr)
			mu.Unlock()
			var g errgroup.Group
			for i := start; i < n; i++ {
				tr.ReplaceOrInsert(p[i])
				if (i+1)%cloneEvery == 0 && i+1 < n {
					clone := tr.Clone()
					g.Go(collect(clone, i+1))
				}
			}
			return g.Wait()
		}
	}

	var top errgroup.Group
	top.Go(collect(newIntTree(*btreeDegree), 0))
	require.NoError(t, top.Wait())

	want := rang(n)
	require.NotEmpty(t, trees)
	for i, tr := range trees {
		require.Equal(t, want, all(tr), "tree %d", i)
	}
}
