package segalloc

// growHeap extends the heap enough to produce a free block of at least
// need bytes, and returns that block's offset.
//
// Unlike spec.md §4.7's baseline (which grows by exactly the request and
// hands the caller a block that is never coalesced with whatever free
// block used to be last), growHeap first checks whether the heap's
// current last block is free. If it is, it removes that block from its
// free list and grows by only the shortfall, producing one merged block
// that covers both the old free tail and the new region -- the "stronger
// design" spec.md §9 calls out. settle() in allocator.go then splits that
// block down to need bytes the same way it would any other fit() result.
func (a *Allocator) growHeap(need int) (int, error) {
	mem := a.provider.Bytes()

	lastOff, lastFree := a.lastBlockInfo(mem)
	grow := need
	merged := -1
	mergedSize := 0

	if lastFree {
		lastSize := blockSize(mem, lastOff)
		if lastSize >= need {
			// Already sufficient; fit() missing it would be a bug upstream,
			// but there's no reason to grow the heap over a block we can
			// use as-is.
			a.listRemove(mem, lastOff)
			return lastOff, nil
		}
		grow = need - lastSize
		a.listRemove(mem, lastOff)
		merged = lastOff
		mergedSize = lastSize
	}

	oldEnd, err := a.provider.Sbrk(grow)
	if err != nil {
		if merged != -1 {
			// restore the block we pulled off its list; the grow attempt
			// never happened as far as the heap's free space is concerned.
			writeBlockTag(mem, merged, mergedSize, false)
			a.listPush(mem, merged)
		}
		return -1, ErrArenaExhausted
	}

	mem = a.provider.Bytes()
	a.heapHi = a.provider.HeapHi()

	if merged != -1 {
		total := mergedSize + grow
		writeBlockTag(mem, merged, total, false)
		return merged, nil
	}

	writeBlockTag(mem, oldEnd, grow, false)
	return oldEnd, nil
}

// lastBlockInfo locates the heap's last block by reading the footer word
// at its known position (the last 4 bytes of the heap) and returns its
// offset and whether it is free.
func (a *Allocator) lastBlockInfo(mem []byte) (int, bool) {
	footOff := a.heapHi + 1 - footerSize
	size, allocated := unpackTag(readWord(mem, footOff))
	off := a.heapHi + 1 - size
	return off, !allocated
}
