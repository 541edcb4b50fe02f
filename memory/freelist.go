// Copyright 2024-2025 The Burrow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memory

import (
	"math/bits"

	"github.com/burrow-engine/burrow/internal/debug"
	"github.com/burrow-engine/burrow/internal/xunsafe"
)

// Policy selects how the free-list allocator places an allocation.
type Policy uint8

const (
	// FirstFit takes the lowest-address free region that fits.
	FirstFit Policy = iota
	// BestFit takes the region with the smallest non-negative slack;
	// an exact fit short-circuits the scan.
	BestFit
	// RedBlackTree is reserved. Constructing an allocator with it is a
	// fatal error.
	RedBlackTree
)

// String implements [fmt.Stringer].
func (p Policy) String() string {
	switch p {
	case FirstFit:
		return "FirstFit"
	case BestFit:
		return "BestFit"
	case RedBlackTree:
		return "RedBlackTree"
	default:
		return "Policy(unknown)"
	}
}

// freeNode lives in place inside a free region of the arena. Nodes form a
// singly linked list in strictly ascending address order.
type freeNode struct {
	next xunsafe.Addr[freeNode]
	size uint64
}

// blockHeader precedes every live allocation. size is the total footprint of
// the slot (pre-header padding + header + body); padding is the byte count
// between the slot's natural start and the header.
type blockHeader struct {
	size    uint64
	padding uint16
}

var (
	headerSize = uint64(xunsafe.RoundUp(xunsafe.Size[blockHeader](), xunsafe.PointerAlign))
	nodeSize   = uint64(xunsafe.Size[freeNode]())
)

// AllocatorHeaderSize returns the per-allocation header footprint in bytes.
func AllocatorHeaderSize() uint64 { return headerSize }

// FreeListAllocator services aligned allocations out of a single arena with
// an intrusive, address-ordered free list. One instance exists per memory
// system.
//
// Every operation is O(live regions) in the worst case. The allocator is
// not safe for concurrent use; the runtime it serves is single-threaded by
// design.
type FreeListAllocator struct {
	policy    Policy
	alignment uint16

	base xunsafe.Addr[byte]
	size uint64
	used uint64
	head xunsafe.Addr[freeNode]
}

// NewFreeListAllocator constructs an allocator over the region
// [block, block+size).
//
// block must be non-nil and pointer-aligned, size must be large enough to
// hold one free node and alignment a power of two; violating any of these
// is fatal. The
// RedBlackTree policy is rejected explicitly.
func NewFreeListAllocator(block *byte, size uint64, alignment uint16, policy Policy) FreeListAllocator {
	debug.Assert(block != nil, "allocator memory block must not be nil")
	debug.Assert(size >= nodeSize, "allocator memory size must hold at least one free node (%d bytes)", nodeSize)
	debug.Assert(xunsafe.IsPow2(alignment), "allocator alignment must be a power of two, got %d", alignment)
	debug.Assert(xunsafe.AddrOf(block).Misalign(xunsafe.PointerAlign) == 0,
		"allocator memory block must be %d-byte aligned", xunsafe.PointerAlign)

	switch policy {
	case FirstFit, BestFit:
	case RedBlackTree:
		debug.Fatalf("allocation policy %v is not implemented", policy)
	default:
		debug.Fatalf("unknown allocation policy %d", uint8(policy))
	}

	a := FreeListAllocator{
		policy:    policy,
		alignment: alignment,
		base:      xunsafe.AddrOf(block),
		size:      size,
	}
	a.Clear()
	return a
}

// Clear resets the allocator to its initial state: zero used bytes and a
// single free node spanning the whole arena. Live allocations are
// invalidated.
func (a *FreeListAllocator) Clear() {
	first := xunsafe.CastAddr[freeNode](a.base)
	n := first.AssertValid()
	n.size = a.size
	n.next = 0

	a.head = first
	a.used = 0
}

// AllocationPolicy returns the placement policy, fixed at construction.
func (a *FreeListAllocator) AllocationPolicy() Policy { return a.policy }

// Alignment returns the default alignment, fixed at construction.
func (a *FreeListAllocator) Alignment() uint16 { return a.alignment }

// Size returns the arena size in bytes.
func (a *FreeListAllocator) Size() uint64 { return a.size }

// Used returns the live byte count, headers and padding included.
func (a *FreeListAllocator) Used() uint64 { return a.used }

// FreeBytes returns the unallocated byte count.
func (a *FreeListAllocator) FreeBytes() uint64 { return a.size - a.used }

// Allocate returns a pointer to size bytes aligned to alignment, or nil if
// no free region can satisfy the request. alignment must be a power of two.
func (a *FreeListAllocator) Allocate(size uint64, alignment uint16) *byte {
	debug.Assert(xunsafe.IsPow2(alignment), "alignment must be a power of two, got %d", alignment)

	if size < nodeSize {
		a.log("allocate", "size %d is below the free-node size %d; a pool allocator would fit better", size, nodeSize)
	}

	var node, prev xunsafe.Addr[freeNode]
	var headerPadding uint64

	switch a.policy {
	case FirstFit:
		node, prev, headerPadding = a.findFirstFit(size, uint64(alignment))
	case BestFit:
		node, prev, headerPadding = a.findBestFit(size, uint64(alignment))
	default:
		debug.Fatalf("unknown allocation policy %d", uint8(a.policy))
	}

	if node.IsNil() {
		a.log("allocate", "no free region fits %d bytes at alignment %d", size, alignment)
		return nil
	}

	n := node.AssertValid()
	required := size + headerPadding

	if n.size-required > nodeSize {
		// Split: chain the remainder in place, right after the slot.
		next := xunsafe.CastAddr[freeNode](xunsafe.CastAddr[byte](node).ByteAdd(int(required)))
		nn := next.AssertValid()
		nn.size = n.size - required
		nn.next = n.next
		n.next = next
	} else {
		// The remainder cannot host a node; absorb it into the slot so it
		// comes back on free.
		required = n.size
	}
	a.remove(node, prev)

	slot := xunsafe.CastAddr[byte](node)
	hdr := xunsafe.CastAddr[blockHeader](slot.ByteAdd(int(headerPadding - headerSize))).AssertValid()
	hdr.size = required
	hdr.padding = uint16(headerPadding - headerSize)

	a.used += required

	user := slot.ByteAdd(int(headerPadding))
	a.log("allocate", "%v, %d:%d (%d total)", user, size, alignment, required)
	return user.AssertValid()
}

// Free returns the allocation at ptr to the free list, splicing it in
// address order and coalescing with physically adjacent neighbours.
func (a *FreeListAllocator) Free(ptr *byte) {
	debug.Assert(ptr != nil, "freed pointer must not be nil")

	addr := xunsafe.AddrOf(ptr)
	hdr := xunsafe.CastAddr[blockHeader](addr.ByteAdd(-int(headerSize))).AssertValid()

	// The slot starts where the allocation's padding began; the node
	// reclaims the padding along with the header and body.
	slot := xunsafe.CastAddr[freeNode](addr.ByteAdd(-int(headerSize) - int(hdr.padding)))
	size := hdr.size

	n := slot.AssertValid()
	n.size = size
	n.next = 0

	var prev xunsafe.Addr[freeNode]
	cur := a.head
	for !cur.IsNil() && cur < slot {
		prev, cur = cur, cur.AssertValid().next
	}
	a.insert(slot, prev)

	a.used -= size
	a.log("free", "%v, %d bytes", addr, size)

	a.merge(slot)
	if !prev.IsNil() {
		a.merge(prev)
	}
}

// Footprint reads the header of the live allocation at ptr and reports its
// placement for diagnostics.
func (a *FreeListAllocator) Footprint(name string, ptr *byte) MemoryFootprint {
	debug.Assert(ptr != nil, "inspected pointer must not be nil")

	addr := xunsafe.AddrOf(ptr)
	hdr := xunsafe.CastAddr[blockHeader](addr.ByteAdd(-int(headerSize))).AssertValid()

	align := uint64(1) << bits.TrailingZeros64(uint64(addr))
	if align > uint64(xunsafe.PointerAlign) {
		align = uint64(xunsafe.PointerAlign)
	}

	return MemoryFootprint{
		Name:      name,
		Pointer:   ptr,
		Size:      hdr.size,
		Offset:    uint64(addr - a.base),
		Padding:   hdr.padding,
		Alignment: uint16(align),
	}
}

// FreeBlock describes one node of the free list.
type FreeBlock struct {
	Offset uint64
	Size   uint64
}

// FreeBlocks returns a snapshot of the free list in address order.
func (a *FreeListAllocator) FreeBlocks() []FreeBlock {
	var blocks []FreeBlock
	for cur := a.head; !cur.IsNil(); cur = cur.AssertValid().next {
		blocks = append(blocks, FreeBlock{
			Offset: uint64(xunsafe.CastAddr[byte](cur) - a.base),
			Size:   cur.AssertValid().size,
		})
	}
	return blocks
}

func (a *FreeListAllocator) findFirstFit(size, alignment uint64) (node, prev xunsafe.Addr[freeNode], padding uint64) {
	cur := a.head
	for !cur.IsNil() {
		n := cur.AssertValid()
		pad := alignmentPadding(uint64(cur), alignment)
		if n.size >= size+pad {
			return cur, prev, pad
		}
		prev, cur = cur, n.next
	}
	return 0, 0, 0
}

func (a *FreeListAllocator) findBestFit(size, alignment uint64) (node, prev xunsafe.Addr[freeNode], padding uint64) {
	smallest := ^uint64(0)
	var best, bestPrev xunsafe.Addr[freeNode]
	var bestPad uint64

	var p xunsafe.Addr[freeNode]
	cur := a.head
	for !cur.IsNil() {
		n := cur.AssertValid()
		pad := alignmentPadding(uint64(cur), alignment)
		if required := size + pad; n.size >= required {
			slack := n.size - required
			if slack == 0 {
				return cur, p, pad
			}
			if slack < smallest {
				smallest, best, bestPrev, bestPad = slack, cur, p, pad
			}
		}
		p, cur = cur, n.next
	}
	return best, bestPrev, bestPad
}

// alignmentPadding computes the byte count between addr and the user slot:
// enough to land the user pointer on an alignment boundary with at least
// headerSize bytes in between to host the block header.
func alignmentPadding(addr, alignment uint64) uint64 {
	modulo := addr & (alignment - 1)

	var padding uint64
	if modulo != 0 {
		padding = alignment - modulo
	}

	if padding < headerSize {
		need := headerSize - padding
		padding += alignment * ((need + alignment - 1) / alignment)
	}

	return padding
}

func (a *FreeListAllocator) insert(node, prev xunsafe.Addr[freeNode]) {
	n := node.AssertValid()
	if prev.IsNil() {
		n.next = a.head
		a.head = node
		return
	}
	p := prev.AssertValid()
	n.next = p.next
	p.next = node
}

func (a *FreeListAllocator) remove(node, prev xunsafe.Addr[freeNode]) {
	if prev.IsNil() {
		a.head = node.AssertValid().next
		return
	}
	prev.AssertValid().next = node.AssertValid().next
}

// merge coalesces node with its successor when the two are physically
// contiguous.
func (a *FreeListAllocator) merge(node xunsafe.Addr[freeNode]) {
	n := node.AssertValid()
	if n.next.IsNil() {
		return
	}
	if xunsafe.CastAddr[byte](node).ByteAdd(int(n.size)) != xunsafe.CastAddr[byte](n.next) {
		return
	}
	next := n.next.AssertValid()
	n.size += next.size
	n.next = next.next
}

func (a *FreeListAllocator) log(op, format string, args ...any) {
	debug.Log([]any{"freelist %v+%d, used %d", a.base, a.size, a.used}, op, format, args...)
}
