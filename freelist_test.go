package btree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFreeListRecyclesUpToCapacity(t *testing.T) {
	fl := NewFreeList[int](2)

	n1 := fl.newNode()
	n2 := fl.newNode()
	n3 := fl.newNode()
	require.NotNil(t, n1)
	require.NotNil(t, n2)
	require.NotNil(t, n3)

	require.True(t, fl.freeNode(n1))
	require.True(t, fl.freeNode(n2))
	// The list is now at capacity; a third push is dropped.
	require.False(t, fl.freeNode(n3))

	require.Len(t, fl.freelist, 2)
}

func TestFreeListNewNodePopsRecycled(t *testing.T) {
	fl := NewFreeList[int](4)
	n := fl.newNode()
	n.items = append(n.items, 1, 2, 3)
	fl.freeNode(n)

	got := fl.newNode()
	require.Same(t, n, got)
	require.Empty(t, got.items, "freeNode must clear items before recycling")
	require.Empty(t, got.children, "freeNode must clear children before recycling")
}

func TestFreeListSharedAcrossClones(t *testing.T) {
	tr := newIntTree(2)
	for _, v := range perm(200) {
		tr.ReplaceOrInsert(v)
	}
	clone := tr.Clone()
	require.Same(t, tr.cow.freelist, clone.cow.freelist, "Clone must keep the freelist shared")
	require.NotSame(t, tr.cow, clone.cow, "Clone must mint a fresh epoch for each side")
}
