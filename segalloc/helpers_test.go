package segalloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heaplab/allocator/segalloc/simheap"
)

func newTestAllocator(t *testing.T, maxSize int) *Allocator {
	t.Helper()
	arena, err := simheap.NewArena(maxSize)
	require.NoError(t, err)
	a, err := NewAllocator(arena)
	require.NoError(t, err)
	return a
}

// walkBlocks visits every block from the first real block to heapHi,
// calling visit with its header offset, size and allocated bit. It fails
// the test if header and footer ever disagree, or if the walk doesn't
// land exactly on heapHi+1 at the end.
func walkBlocks(t *testing.T, a *Allocator, visit func(off, size int, allocated bool)) {
	t.Helper()
	mem := a.provider.Bytes()
	off := a.blocksBase
	for off <= a.heapHi {
		hdr := readWord(mem, off)
		size, allocated := unpackTag(hdr)
		require.Greater(t, size, 0, "zero-size block at offset %d", off)
		ftr := readWord(mem, footerOffset(off, size))
		require.Equal(t, hdr, ftr, "header/footer mismatch at offset %d", off)
		visit(off, size, allocated)
		off = nextBlockOffset(off, size)
	}
	require.Equal(t, a.heapHi+1, off, "block walk did not land on heap end")
}

// freeListMembers returns every block offset reachable from class's head.
func freeListMembers(a *Allocator, class int) []int {
	mem := a.provider.Bytes()
	var out []int
	off := int(a.segTable[class])
	for off != int(nullOff) {
		out = append(out, off)
		off = int(readNextFree(mem, off))
	}
	return out
}

// assertNoAdjacentFreeBlocks walks the heap and fails if two free blocks
// ever sit next to each other.
func assertNoAdjacentFreeBlocks(t *testing.T, a *Allocator) {
	t.Helper()
	prevFree := false
	walkBlocks(t, a, func(off, size int, allocated bool) {
		if !allocated {
			require.False(t, prevFree, "two adjacent free blocks at offset %d", off)
		}
		prevFree = !allocated
	})
}

// assertFreeListsMatchWalk checks that the union of every class's free
// list equals exactly the free blocks found walking the heap, with no
// duplicates.
func assertFreeListsMatchWalk(t *testing.T, a *Allocator) {
	t.Helper()
	fromWalk := map[int]bool{}
	walkBlocks(t, a, func(off, size int, allocated bool) {
		if !allocated {
			fromWalk[off] = true
		}
	})

	fromLists := map[int]bool{}
	for class := 0; class < numSizeClasses; class++ {
		for _, off := range freeListMembers(a, class) {
			require.False(t, fromLists[off], "block %d listed in more than one free list", off)
			fromLists[off] = true
		}
	}
	require.Equal(t, fromWalk, fromLists)
}
