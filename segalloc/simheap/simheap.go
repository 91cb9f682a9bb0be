// Copyright 2024 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package simheap implements segalloc.HeapProvider over a fixed-capacity
// in-process byte slice, standing in for the sbrk/heap_hi/heap_lo
// primitives spec.md describes as furnished by the host environment.
//
// Arena preallocates its full capacity once and only ever bumps a logical
// break cursor inside it -- it never reallocates -- so offsets handed out
// by Sbrk before a later Sbrk call remain valid addresses into the same
// backing array afterwards, matching the real sbrk/brk contract.
package simheap

import (
	"fmt"

	"github.com/bytedance/gopkg/lang/dirtmake"
)

// Arena is a fixed-capacity segalloc.HeapProvider.
type Arena struct {
	mem []byte // len == cap == maxSize; brk bytes of it are "valid"
	brk int
}

// NewArena preallocates a maxSize-byte backing array and returns an Arena
// with nothing yet grown into it (HeapHi/HeapLo are meaningless before the
// first Sbrk call).
//
// The backing array is allocated dirty (uninitialized) via
// dirtmake.Bytes, the same device bufiox.BytesWriter.acquireSlow uses to
// grow its write buffer without paying for a zero-fill it doesn't need.
// Boundary tags are always written before they are read, but payload bytes
// are not cleared: a fresh allocation's contents are unspecified, as with
// malloc.
func NewArena(maxSize int) (*Arena, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("simheap: maxSize must be positive, got %d", maxSize)
	}
	return &Arena{mem: dirtmake.Bytes(maxSize, maxSize)}, nil
}

// Sbrk grows the heap by n bytes and returns the offset it used to end at.
func (a *Arena) Sbrk(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("simheap: negative Sbrk(%d)", n)
	}
	oldEnd := a.brk
	if oldEnd+n > len(a.mem) {
		return 0, fmt.Errorf("simheap: out of memory growing by %d bytes (brk=%d, max=%d)", n, a.brk, len(a.mem))
	}
	a.brk += n
	return oldEnd, nil
}

// HeapHi returns the last valid byte offset.
func (a *Arena) HeapHi() int {
	return a.brk - 1
}

// HeapLo returns the first valid byte offset (always 0: a fresh Arena's
// backing array starts at its own beginning).
func (a *Arena) HeapLo() int {
	return 0
}

// Bytes returns the backing memory, valid up to (and including) HeapHi().
func (a *Arena) Bytes() []byte {
	return a.mem[:a.brk:a.brk]
}

// Cap returns the arena's total (reserved, not just grown) capacity.
func (a *Arena) Cap() int {
	return len(a.mem)
}
