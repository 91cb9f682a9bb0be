package segalloc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRandomOpSequenceInvariants runs a long randomized sequence of
// Alloc/Free/Realloc and checks, every 200 operations and once more at the
// end, the invariants spec.md §8 calls out: header/footer agreement, no adjacent free blocks,
// disjoint allocated ranges, 8-byte alignment, and free-list/heap-walk
// agreement. Mirrors unsafex/malloc/buddy_test.go's
// TestAvailableAfterRandomAllocFree in spirit.
func TestRandomOpSequenceInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	a := newTestAllocator(t, 1<<20)

	live := map[uintptr][]byte{}
	liveSizes := map[uintptr]int{}

	sizes := []int{1, 7, 8, 9, 16, 17, 40, 63, 64, 100, 256, 513, 1024}

	for i := 0; i < 5000; i++ {
		switch {
		case len(live) == 0 || rng.Intn(3) != 0:
			sz := sizes[rng.Intn(len(sizes))]
			p := a.Alloc(sz)
			if p == nil {
				continue
			}
			require.Equal(t, 0, int(addrOf(p))%8, "payload must be 8-byte aligned")
			key := addrOf(p)
			live[key] = p
			liveSizes[key] = sz
		case rng.Intn(2) == 0:
			key := pickKey(live, rng)
			a.Free(live[key])
			delete(live, key)
			delete(liveSizes, key)
		default:
			key := pickKey(live, rng)
			newSz := sizes[rng.Intn(len(sizes))]
			q := a.Realloc(live[key], newSz)
			delete(live, key)
			delete(liveSizes, key)
			if q != nil {
				nk := addrOf(q)
				live[nk] = q
				liveSizes[nk] = newSz
			}
		}

		if i%200 == 0 {
			checkAllInvariants(t, a, live)
		}
	}

	checkAllInvariants(t, a, live)
}

func pickKey(live map[uintptr][]byte, rng *rand.Rand) uintptr {
	n := rng.Intn(len(live))
	for k := range live {
		if n == 0 {
			return k
		}
		n--
	}
	panic("unreachable")
}

func checkAllInvariants(t *testing.T, a *Allocator, live map[uintptr][]byte) {
	t.Helper()
	assertNoAdjacentFreeBlocks(t, a)
	assertFreeListsMatchWalk(t, a)

	blocks := make([][]byte, 0, len(live))
	for _, b := range live {
		blocks = append(blocks, b)
	}
	for i := range blocks {
		for j := i + 1; j < len(blocks); j++ {
			assert.False(t, overlaps(blocks[i], blocks[j]), "live allocations overlap")
		}
	}

	var allocatedCount, freeCount int
	walkBlocks(t, a, func(off, size int, allocated bool) {
		require.GreaterOrEqual(t, size, MinBlockSize)
		require.Equal(t, 0, size%8)
		if allocated {
			allocatedCount++
		} else {
			freeCount++
		}
	})
	assert.Equal(t, len(live), allocatedCount, "allocated block count should match the live set")
	_ = freeCount
}
