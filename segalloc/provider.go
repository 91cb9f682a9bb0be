package segalloc

// HeapProvider is the sbrk-style primitive the allocator is built on. It is
// furnished by the host environment; segalloc never assumes anything about
// how the bytes it addresses are actually backed, only that:
//
//   - Bytes() returns a stable view of memory: bytes at any offset below
//     the current HeapHi() keep their address across a later Sbrk call
//     (the slice may grow, but it never reallocates and invalidates
//     offsets already handed out).
//   - Sbrk(n) extends the heap by exactly n bytes and returns the offset
//     the heap used to end at (i.e. the start of the new region).
//   - HeapLo/HeapHi bound the currently valid region; HeapHi is the last
//     valid byte offset, updated after every successful Sbrk.
type HeapProvider interface {
	// Sbrk grows the heap by n bytes and returns the old end offset (the
	// start of the newly available region). It returns an error instead of
	// growing if the provider cannot satisfy the request.
	Sbrk(n int) (oldEnd int, err error)

	// HeapHi returns the last valid byte offset.
	HeapHi() int

	// HeapLo returns the first valid byte offset.
	HeapLo() int

	// Bytes returns the current backing memory, addressable by the offsets
	// Sbrk and HeapHi/HeapLo hand out.
	Bytes() []byte
}
