package segalloc

import "unsafe"

// Allocator is a segregated free-list allocator over a single HeapProvider.
// It carries no mutable global state: every operation goes through an
// explicit receiver, so nothing prevents two independent Allocators (each
// bound to its own HeapProvider) from coexisting in the same process --
// though neither this type nor the rest of the package makes any attempt
// at concurrency safety within a single Allocator.
type Allocator struct {
	provider HeapProvider

	// arenaStart is a cached pointer to the backing memory's first byte,
	// used to turn a payload []byte back into an offset in Free/Realloc.
	// HeapProvider guarantees the backing array never relocates, so this
	// is safe to cache once at init.
	arenaStart unsafe.Pointer

	heapLo     int
	heapHi     int
	blocksBase int // offset of the first real (non-sentinel) block

	segTable [numSizeClasses]int32
	occupied uint8 // bit i set iff segTable[i] != nullOff

	initialized bool
}

// NewAllocator installs a fresh sentinel block on top of provider and
// returns an Allocator ready to serve Alloc/Free/Realloc. provider must
// not already be in use by another Allocator.
func NewAllocator(provider HeapProvider) (*Allocator, error) {
	a := &Allocator{provider: provider}
	if err := a.init(); err != nil {
		return nil, err
	}
	return a, nil
}

// init installs the sentinel block. Safe to call once; see §4.8.
func (a *Allocator) init() error {
	if a.initialized {
		return errAlreadyInit
	}
	for i := range a.segTable {
		a.segTable[i] = nullOff
	}

	// A 4-byte pad precedes the sentinel so that every block header lands
	// at an offset ≡4 (mod 8): header+headerSize(4) is then ≡0 (mod 8),
	// which is what makes every payload address 8-byte aligned. Without
	// it, headers (and hence payloads) would all sit 4 bytes off from
	// where the alignment promise needs them.
	oldEnd, err := a.provider.Sbrk(alignPad + MinBlockSize)
	if err != nil {
		return err
	}
	mem := a.provider.Bytes()
	a.arenaStart = unsafe.Pointer(&mem[0])
	a.heapLo = a.provider.HeapLo()
	a.heapHi = a.provider.HeapHi()

	sentinelOff := oldEnd + alignPad
	writeBlockTag(mem, sentinelOff, MinBlockSize, true) // sentinel, permanently allocated
	a.blocksBase = sentinelOff + MinBlockSize
	a.initialized = true
	return nil
}

// insideHeap reports whether off could be the header offset of a real
// (non-sentinel) block. It is a defensive guard against stale or
// corrupted links surviving in a free block's payload, not a correctness
// guarantee against misuse of the public API.
func (a *Allocator) insideHeap(off int) bool {
	return off >= a.blocksBase && off <= a.heapHi
}

// blockOffsetOf recovers the header offset of the block backing a payload
// slice previously returned by Alloc/Realloc. block must be exactly the
// slice Alloc/Realloc returned -- reslicing it before calling Free
// corrupts this calculation.
func (a *Allocator) blockOffsetOf(block []byte) int {
	dataPtr := *(*uintptr)(unsafe.Pointer(&block))
	payloadOff := int(dataPtr - uintptr(a.arenaStart))
	return blockOffsetFromPayload(payloadOff)
}

// sliceFor returns the client-visible view of blockOff's payload: length
// size, capacity the block's full usable payload.
func (a *Allocator) sliceFor(mem []byte, blockOff, size int) []byte {
	total := blockSize(mem, blockOff)
	payload := payloadOffset(blockOff)
	return mem[payload : payload+size : footerOffset(blockOff, total)]
}

// Alloc returns a payload slice of at least size bytes, or nil if size is
// not positive or the heap cannot be grown to satisfy the request.
func (a *Allocator) Alloc(size int) []byte {
	if size <= 0 {
		return nil
	}
	blockSz := blockSizeForRequest(size)

	mem := a.provider.Bytes()
	free := a.fit(mem, blockSz)
	if free == -1 {
		var err error
		free, err = a.growHeap(blockSz)
		if err != nil {
			return nil
		}
		mem = a.provider.Bytes()
	} else {
		a.listRemove(mem, free)
	}

	a.settle(mem, free, blockSz)
	return a.sliceFor(mem, free, size)
}

// settle marks the block at blockOff allocated at blockSz bytes, splitting
// off and freeing a remainder block when one is large enough to be
// useful. The remainder is coalesced with the following block if that one
// is free. blockOff must name a block of size >= blockSz that is not on
// any free list.
func (a *Allocator) settle(mem []byte, blockOff, blockSz int) {
	total := blockSize(mem, blockOff)
	remainder := total - blockSz

	if remainder >= MinBlockSize {
		writeBlockTag(mem, blockOff, blockSz, true)
		tailOff := nextBlockOffset(blockOff, blockSz)
		a.coalesce(mem, tailOff, remainder)
		return
	}

	writeBlockTag(mem, blockOff, total, true)
}

// Free releases the allocation backing block. Freeing a nil or empty
// (zero-capacity) slice is a no-op, the way freeing a null pointer is.
func (a *Allocator) Free(block []byte) {
	if cap(block) == 0 {
		return
	}
	mem := a.provider.Bytes()
	blockOff := a.blockOffsetOf(block)
	size := blockSize(mem, blockOff)
	a.coalesce(mem, blockOff, size)
}

// Realloc resizes block to size bytes, preserving min(size, old capacity)
// bytes of content. Realloc(nil, size) behaves like Alloc(size);
// Realloc(block, 0) behaves like Free(block) and returns nil.
//
// A request that fits the current block is served in place, splitting off
// any large enough remainder. When the block immediately following it is
// free and large enough, Realloc extends in place instead of allocating
// fresh and copying. Every other case falls back to alloc/copy/free.
func (a *Allocator) Realloc(block []byte, size int) []byte {
	if block == nil {
		return a.Alloc(size)
	}
	if size == 0 {
		a.Free(block)
		return nil
	}

	mem := a.provider.Bytes()
	blockOff := a.blockOffsetOf(block)
	oldTotal := blockSize(mem, blockOff)
	oldPayloadSize := oldTotal - tagOverhead
	needed := blockSizeForRequest(size)

	if needed <= oldTotal {
		a.settle(mem, blockOff, needed)
		return a.sliceFor(mem, blockOff, size)
	}

	if a.tryExtendInPlace(mem, blockOff, oldTotal, needed) {
		mem = a.provider.Bytes()
		return a.sliceFor(mem, blockOff, size)
	}

	newBlock := a.Alloc(size)
	if newBlock == nil {
		return nil
	}
	copy(newBlock, block[:oldPayloadSize])
	a.Free(block)
	return newBlock
}

// tryExtendInPlace absorbs the immediately following block into blockOff
// when that block is free and the combination is large enough for needed
// bytes. The block at blockOff is left untouched if no such extension is
// possible.
func (a *Allocator) tryExtendInPlace(mem []byte, blockOff, oldTotal, needed int) bool {
	nextOff := nextBlockOffset(blockOff, oldTotal)
	if nextOff > a.heapHi || blockAllocated(mem, nextOff) {
		return false
	}
	combined := oldTotal + blockSize(mem, nextOff)
	if combined < needed {
		return false
	}
	a.listRemove(mem, nextOff)
	writeBlockTag(mem, blockOff, combined, true)
	a.settle(mem, blockOff, needed)
	return true
}
