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

package collections

import (
	"math/bits"

	"github.com/burrow-engine/burrow/internal/debug"
	"github.com/burrow-engine/burrow/internal/xhash"
	"github.com/burrow-engine/burrow/internal/xunsafe"
	"github.com/burrow-engine/burrow/memory"
)

const bitsPerWord = 64

// BitSet is a growable bitset with value-based equality and hashing over
// the bit pattern. Trailing zero words carry no meaning: two sets with the
// same bits are equal and hash identically regardless of allocated width.
//
// The zero BitSet has every bit clear and is ready to use.
type BitSet struct {
	words xunsafe.Addr[uint64]
	count uint64 // allocated words
}

// Set assigns the given bit, growing the word storage as needed. Clearing
// a bit past the allocated width is a no-op.
func (b *BitSet) Set(bit uint64, value bool) {
	word := bit / bitsPerWord
	if word >= b.count {
		if !value {
			return
		}
		b.growTo(word + 1)
	}
	w := b.words.Add(int(word)).AssertValid()
	if value {
		*w |= 1 << (bit % bitsPerWord)
	} else {
		*w &^= 1 << (bit % bitsPerWord)
	}
}

// Get reports the given bit. Bits past the allocated width read clear.
func (b *BitSet) Get(bit uint64) bool {
	word := bit / bitsPerWord
	if word >= b.count {
		return false
	}
	return *b.words.Add(int(word)).AssertValid()&(1<<(bit%bitsPerWord)) != 0
}

// Includes reports whether b is a superset of other: every bit set in
// other is set in b.
func (b *BitSet) Includes(other *BitSet) bool {
	for i := uint64(0); i < other.count; i++ {
		ow := *other.words.Add(int(i)).AssertValid()
		if ow == 0 {
			continue
		}
		if i >= b.count || *b.words.Add(int(i)).AssertValid()&ow != ow {
			return false
		}
	}
	return true
}

// TrueCount returns the number of set bits.
func (b *BitSet) TrueCount() uint64 {
	var n uint64
	for i := uint64(0); i < b.count; i++ {
		n += uint64(bits.OnesCount64(*b.words.Add(int(i)).AssertValid()))
	}
	return n
}

// Equals compares the bit patterns of two sets.
func (b BitSet) Equals(other BitSet) bool {
	longer, shorter := &b, &other
	if longer.count < shorter.count {
		longer, shorter = shorter, longer
	}
	for i := uint64(0); i < shorter.count; i++ {
		if *longer.words.Add(int(i)).AssertValid() != *shorter.words.Add(int(i)).AssertValid() {
			return false
		}
	}
	for i := shorter.count; i < longer.count; i++ {
		if *longer.words.Add(int(i)).AssertValid() != 0 {
			return false
		}
	}
	return true
}

// Hash returns a hash of the bit pattern, invariant under trailing zero
// words.
func (b BitSet) Hash() uint64 {
	significant := b.count
	for significant > 0 && *b.words.Add(int(significant-1)).AssertValid() == 0 {
		significant--
	}
	h := xhash.Hash(0).U64(significant)
	for i := uint64(0); i < significant; i++ {
		h = h.U64(*b.words.Add(int(i)).AssertValid())
	}
	return h.Sum()
}

// Clone returns an independent copy with its own storage.
func (b *BitSet) Clone() BitSet {
	var out BitSet
	if b.count == 0 {
		return out
	}
	out.growTo(b.count)
	for i := uint64(0); i < b.count; i++ {
		*out.words.Add(int(i)).AssertValid() = *b.words.Add(int(i)).AssertValid()
	}
	return out
}

// Destroy releases the word storage. The set reads all-clear afterwards.
func (b *BitSet) Destroy() {
	if !b.words.IsNil() {
		memory.Free(xunsafe.Cast[byte](b.words.AssertValid()))
	}
	*b = BitSet{}
}

func (b *BitSet) growTo(words uint64) {
	next := b.count * resizingFactor
	if next < words {
		next = words
	}

	if b.words.IsNil() {
		h := memory.Allocate(next * bitsPerWord / 8)
		debug.Assert(h.IsValid(), "bitset growth failed: arena exhausted")
		memory.MemoryClear(h.Pointer, h.Size)
		b.words = xunsafe.CastAddr[uint64](xunsafe.AddrOf(h.Pointer))
		b.count = h.Size / 8
		return
	}

	h := memory.UnsafeHandle{
		Pointer: xunsafe.Cast[byte](b.words.AssertValid()),
		Size:    b.count * 8,
	}
	nh := memory.Reallocate(&h, next*8)
	debug.Assert(nh.IsValid(), "bitset growth failed: arena exhausted")
	// The tail past the copied prefix is reclaimed arena memory; new words
	// must read clear.
	memory.MemoryClear(xunsafe.ByteAdd(nh.Pointer, int(b.count*8)), nh.Size-b.count*8)
	b.words = xunsafe.CastAddr[uint64](xunsafe.AddrOf(nh.Pointer))
	b.count = nh.Size / 8
}
