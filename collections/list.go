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

// Package collections provides the containers the engine core is built on.
//
// Every container allocates exclusively through the process memory system
// and stores raw arena addresses instead of Go pointers, so a container
// value is itself pointer-free and may nest inside another arena-resident
// container. The cost of that property is manual lifetime management:
// containers do not release storage when they go out of scope — call
// Destroy, or the memory system will report the leak at shutdown.
//
// Element types must be pointer-free; see the memory package for why.
package collections

import (
	"github.com/burrow-engine/burrow/internal/debug"
	"github.com/burrow-engine/burrow/internal/xunsafe"
	"github.com/burrow-engine/burrow/memory"
)

const (
	defaultCapacity = 4
	resizingFactor  = 2
)

// List is a growable, indexable sequence of T with amortised O(1) append
// and O(1) swap-remove. The zero List is empty and ready to use.
type List[T any] struct {
	data     xunsafe.Addr[T]
	count    uint64
	capacity uint64
}

// Count returns the element count.
func (l *List[T]) Count() uint64 { return l.count }

// IsEmpty reports whether the list has no elements.
func (l *List[T]) IsEmpty() bool { return l.count == 0 }

// At returns a pointer to the ith element.
func (l *List[T]) At(i uint64) *T {
	debug.Assert(i < l.count, "list index %d out of range [0, %d)", i, l.count)
	return l.data.Add(int(i)).AssertValid()
}

// Get returns the ith element by value.
func (l *List[T]) Get(i uint64) T { return *l.At(i) }

// Set overwrites the ith element.
func (l *List[T]) Set(i uint64, v T) { *l.At(i) = v }

// Add appends v, growing the backing storage when full.
func (l *List[T]) Add(v T) {
	if l.count == l.capacity {
		l.grow()
	}
	*l.data.Add(int(l.count)).AssertValid() = v
	l.count++
}

// TryRemoveAt removes the ith element by moving the last element into its
// place. Returns false when i is out of range.
func (l *List[T]) TryRemoveAt(i uint64) bool {
	if i >= l.count {
		return false
	}
	last := l.count - 1
	if i != last {
		*l.data.Add(int(i)).AssertValid() = *l.data.Add(int(last)).AssertValid()
	}
	l.count = last
	return true
}

// OrderedRemoveAt removes the ith element by shifting the tail left,
// preserving element order. Returns false when i is out of range.
func (l *List[T]) OrderedRemoveAt(i uint64) bool {
	if i >= l.count {
		return false
	}
	for j := i; j+1 < l.count; j++ {
		*l.data.Add(int(j)).AssertValid() = *l.data.Add(int(j + 1)).AssertValid()
	}
	l.count--
	return true
}

// ContainsFunc reports whether any element satisfies pred.
func (l *List[T]) ContainsFunc(pred func(*T) bool) bool {
	for i := uint64(0); i < l.count; i++ {
		if pred(l.data.Add(int(i)).AssertValid()) {
			return true
		}
	}
	return false
}

// Each calls fn for every element in order.
func (l *List[T]) Each(fn func(*T)) {
	for i := uint64(0); i < l.count; i++ {
		fn(l.data.Add(int(i)).AssertValid())
	}
}

// Raw returns the live elements as a slice view into the arena.
//
// The view must not outlive the next mutation of the list.
func (l *List[T]) Raw() []T {
	if l.data.IsNil() {
		return nil
	}
	return xunsafe.Slice(l.data.AssertValid(), int(l.count))
}

// Clear drops all elements, keeping the backing storage.
func (l *List[T]) Clear() { l.count = 0 }

// Clone returns an independent copy with its own storage.
func (l *List[T]) Clone() List[T] {
	var out List[T]
	for i := uint64(0); i < l.count; i++ {
		out.Add(*l.data.Add(int(i)).AssertValid())
	}
	return out
}

// Destroy releases the backing storage. The list is reusable afterwards.
func (l *List[T]) Destroy() {
	if !l.data.IsNil() {
		memory.Free(xunsafe.Cast[byte](l.data.AssertValid()))
	}
	*l = List[T]{}
}

// DebugHandle names the backing buffer for footprint inspection.
func (l *List[T]) DebugHandle(name string) memory.DebugHandle {
	var p *byte
	if !l.data.IsNil() {
		p = xunsafe.Cast[byte](l.data.AssertValid())
	}
	return memory.DebugHandle{Name: name, Pointer: p}
}

func (l *List[T]) grow() {
	debug.Assert(xunsafe.PointerFree[T](), "list element type contains Go pointers")

	stride := uint64(xunsafe.Size[T]())
	next := l.capacity * resizingFactor
	if next == 0 {
		next = defaultCapacity
	}

	if l.data.IsNil() {
		h := memory.Allocate(next * stride)
		debug.Assert(h.IsValid(), "list growth failed: arena exhausted")
		l.data = xunsafe.CastAddr[T](xunsafe.AddrOf(h.Pointer))
		l.capacity = h.Size / stride
		return
	}

	h := memory.UnsafeHandle{
		Pointer: xunsafe.Cast[byte](l.data.AssertValid()),
		Size:    xunsafe.RoundUp(l.capacity*stride, uint64(memory.PlatformAlignment)),
	}
	nh := memory.Reallocate(&h, next*stride)
	debug.Assert(nh.IsValid(), "list growth failed: arena exhausted")
	l.data = xunsafe.CastAddr[T](xunsafe.AddrOf(nh.Pointer))
	l.capacity = nh.Size / stride
}
