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
	"github.com/burrow-engine/burrow/internal/debug"
	"github.com/burrow-engine/burrow/internal/xunsafe"
	"github.com/burrow-engine/burrow/memory"
)

// ByteList is a growable byte buffer of fixed-stride elements: the storage
// behind one archetype column, where the element type exists only as an id
// and a size.
//
// The stride locks in on the first Add. The zero ByteList is empty and
// ready to use.
type ByteList struct {
	data     xunsafe.Addr[byte]
	stride   uint64
	count    uint64
	capacity uint64 // in elements
}

// NewByteList returns a list with the stride fixed up front.
func NewByteList(stride uint64) ByteList {
	return ByteList{stride: stride}
}

// Stride returns the element size in bytes, zero until NewByteList or the
// first Add fixes it.
func (b *ByteList) Stride() uint64 { return b.stride }

// Count returns the element count.
func (b *ByteList) Count() uint64 { return b.count }

// IsEmpty reports whether the list has no elements.
func (b *ByteList) IsEmpty() bool { return b.count == 0 }

// Add appends one element, copying size bytes from src. size must match
// the stride once it is fixed.
func (b *ByteList) Add(src *byte, size uint64) {
	debug.Assert(src != nil, "appended element must not be nil")
	debug.Assert(size > 0, "element size must be greater than 0")

	if b.stride == 0 {
		b.stride = size
	}
	debug.Assert(size == b.stride, "element size %d does not match stride %d", size, b.stride)

	if b.count == b.capacity {
		b.grow()
	}
	xunsafe.Copy(b.data.ByteAdd(int(b.count*b.stride)).AssertValid(), src, int(b.stride))
	b.count++
}

// At returns a pointer to the ith element.
func (b *ByteList) At(i uint64) *byte {
	debug.Assert(i < b.count, "column index %d out of range [0, %d)", i, b.count)
	return b.data.ByteAdd(int(i * b.stride)).AssertValid()
}

// Data returns the base of the buffer, nil while empty.
func (b *ByteList) Data() *byte {
	if b.data.IsNil() {
		return nil
	}
	return b.data.AssertValid()
}

// TryRemoveAt removes the ith element by moving the last element into its
// place. Returns false when i is out of range.
func (b *ByteList) TryRemoveAt(i uint64) bool {
	if i >= b.count {
		return false
	}
	last := b.count - 1
	if i != last {
		xunsafe.Copy(
			b.data.ByteAdd(int(i*b.stride)).AssertValid(),
			b.data.ByteAdd(int(last*b.stride)).AssertValid(),
			int(b.stride),
		)
	}
	b.count = last
	return true
}

// EqualTo compares two lists element-wise, stride included.
func (b *ByteList) EqualTo(other *ByteList) bool {
	if b.stride != other.stride || b.count != other.count {
		return false
	}
	if b.count == 0 {
		return true
	}
	return xunsafe.Equal(b.data.AssertValid(), other.data.AssertValid(), int(b.count*b.stride))
}

// Clear drops all elements, keeping the backing storage.
func (b *ByteList) Clear() { b.count = 0 }

// Clone returns an independent copy with its own storage.
func (b *ByteList) Clone() ByteList {
	out := NewByteList(b.stride)
	for i := uint64(0); i < b.count; i++ {
		out.Add(b.At(i), b.stride)
	}
	return out
}

// Destroy releases the backing storage, keeping the stride.
func (b *ByteList) Destroy() {
	if !b.data.IsNil() {
		memory.Free(b.data.AssertValid())
	}
	*b = ByteList{stride: b.stride}
}

// DebugHandle names the backing buffer for footprint inspection.
func (b *ByteList) DebugHandle(name string) memory.DebugHandle {
	return memory.DebugHandle{Name: name, Pointer: b.Data()}
}

func (b *ByteList) grow() {
	next := b.capacity * resizingFactor
	if next == 0 {
		next = defaultCapacity
	}

	if b.data.IsNil() {
		h := memory.Allocate(next * b.stride)
		debug.Assert(h.IsValid(), "column growth failed: arena exhausted")
		b.data = xunsafe.AddrOf(h.Pointer)
		b.capacity = h.Size / b.stride
		return
	}

	h := memory.UnsafeHandle{
		Pointer: b.data.AssertValid(),
		Size:    xunsafe.RoundUp(b.capacity*b.stride, uint64(memory.PlatformAlignment)),
	}
	nh := memory.Reallocate(&h, next*b.stride)
	debug.Assert(nh.IsValid(), "column growth failed: arena exhausted")
	b.data = xunsafe.AddrOf(nh.Pointer)
	b.capacity = nh.Size / b.stride
}
