package segalloc

import "encoding/binary"

// Every block, free or allocated, has the shape:
//
//	[ header (4B) | payload (>= 8B) | footer (4B) ]
//
// Header and footer each encode (size | allocated-bit) in a 4-byte
// little-endian word. size always includes the header and footer and is a
// multiple of 8, so its low 3 bits are free for the allocated bit (bit 0)
// and padding (bits 1-2, unused).
//
// Tags are read and written through explicit accessors over a []byte
// rather than an overlaid struct, so the representation stays valid
// regardless of the slice's alignment and can be relocated freely.
const (
	headerSize = 4
	footerSize = 4
	tagOverhead = headerSize + footerSize // 8

	// minPayload is the smallest payload that still has room for a
	// next-free offset when the block is on a free list.
	minPayload = 8

	// MinBlockSize is the smallest legal block: header + payload + footer.
	MinBlockSize = headerSize + minPayload + footerSize // 16

	allocBit uint32 = 1
	sizeMask uint32 = ^uint32(7)

	// alignPad is reserved ahead of the sentinel block so that every block
	// header offset lands at ≡4 (mod 8), making header+headerSize (i.e.
	// every payload offset) land at ≡0 (mod 8). All block sizes are
	// multiples of 8, so once the first header is at that residue every
	// subsequent header stays there too.
	alignPad = headerSize
)

// nullOff marks the end of a free list, or "no block here".
const nullOff int32 = -1

func readWord(mem []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(mem[off : off+4])
}

func writeWord(mem []byte, off int, w uint32) {
	binary.LittleEndian.PutUint32(mem[off:off+4], w)
}

func packTag(size int, allocated bool) uint32 {
	w := uint32(size) & sizeMask
	if allocated {
		w |= allocBit
	}
	return w
}

func unpackTag(w uint32) (size int, allocated bool) {
	return int(w & sizeMask), w&allocBit != 0
}

// blockSize returns the total size (header+payload+footer) of the block
// whose header starts at blockOff.
func blockSize(mem []byte, blockOff int) int {
	size, _ := unpackTag(readWord(mem, blockOff))
	return size
}

// blockAllocated reports whether the block at blockOff is allocated.
func blockAllocated(mem []byte, blockOff int) bool {
	_, allocated := unpackTag(readWord(mem, blockOff))
	return allocated
}

func footerOffset(blockOff, size int) int {
	return blockOff + size - footerSize
}

func payloadOffset(blockOff int) int {
	return blockOff + headerSize
}

func blockOffsetFromPayload(payloadOff int) int {
	return payloadOff - headerSize
}

// writeBlockTag writes matching header and footer words for a block of the
// given total size and allocated state.
func writeBlockTag(mem []byte, blockOff, size int, allocated bool) {
	w := packTag(size, allocated)
	writeWord(mem, blockOff, w)
	writeWord(mem, footerOffset(blockOff, size), w)
}

// nextBlockOffset returns the offset of the block immediately following the
// one at blockOff; the caller must check it is still inside the heap.
func nextBlockOffset(blockOff, size int) int {
	return blockOff + size
}

// prevBlockOffset reads the footer word immediately preceding blockOff
// (belonging to the previous block, or the sentinel) and returns the
// previous block's header offset. The caller must check it is still
// inside the heap before trusting the result.
func prevBlockOffset(mem []byte, blockOff int) int {
	prevSize, _ := unpackTag(readWord(mem, blockOff-footerSize))
	return blockOff - prevSize
}

// alignUp rounds n up to the next multiple of align (align must be a power
// of two).
func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// blockSizeForRequest returns the total block size needed to satisfy a
// payload request of size bytes: header+footer overhead, 8-byte aligned,
// floored at MinBlockSize.
func blockSizeForRequest(size int) int {
	bs := alignUp(size+tagOverhead, 8)
	if bs < MinBlockSize {
		bs = MinBlockSize
	}
	return bs
}

// writeNextFree stores the next-free link (an offset, or nullOff) in the
// first word of a free block's payload.
func writeNextFree(mem []byte, blockOff int, next int32) {
	writeWord(mem, payloadOffset(blockOff), uint32(next))
}

// readNextFree reads the next-free link from a free block's payload.
func readNextFree(mem []byte, blockOff int) int32 {
	return int32(readWord(mem, payloadOffset(blockOff)))
}
