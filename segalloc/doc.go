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

// Package segalloc implements a segregated free-list memory allocator over
// a single contiguous, monotonically growable heap region.
//
// The heap is a byte-offset addressed region obtained from a HeapProvider
// (an sbrk-style primitive): a 4-byte alignment pad, a permanently
// allocated sentinel block, and then a gapless sequence of boundary-tagged
// blocks:
//
//	[ pad(4) | sentinel | block1 | block2 | ... ]
//
// The pad exists purely so that every block header lands 4 bytes off a
// multiple of 8 -- header+headerSize, i.e. every payload address, then
// lands exactly on a multiple of 8, which is the alignment every returned
// payload slice promises.
//
// The 8 free-list heads (one per size class) live in the Allocator value
// itself, not in the arena -- there is no global or arena-resident table,
// so distinct Allocators bound to distinct HeapProviders never share
// state.
//
// Every block, free or allocated, carries a 4-byte header and a 4-byte
// footer encoding (size | allocated-bit); the boundary tags let the
// allocator walk to either neighbour in O(1) without a separate index.
//
// Allocation rounds the request up to a multiple of 8, searches the
// segregated table with first-fit starting at the request's size class and
// advancing to larger classes on miss, splits the found block if the
// remainder is large enough to host another block, and falls back to
// growing the heap when no free block fits. Freeing coalesces the block
// with any free neighbours before reinserting it into the table.
//
// The allocator is single-threaded: it has no internal locking, and
// concurrent use from multiple goroutines has undefined effect. It manages
// exactly one arena; nothing here supports multiple independent heaps
// sharing a HeapProvider.
package segalloc
