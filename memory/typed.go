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
	"github.com/burrow-engine/burrow/internal/debug"
	"github.com/burrow-engine/burrow/internal/xunsafe"
)

// New allocates one aligned slot in the arena and copies value into it.
// Returns nil on exhaustion or while the system is not live.
//
// T must be pointer-free: the arena is never scanned by the garbage
// collector, so a Go pointer stored there would not keep its referent
// alive. Violating this is fatal.
func New[T any](value T) *T {
	assertPointerFree[T]()

	h := Allocate(uint64(xunsafe.Size[T]()))
	if !h.IsValid() {
		return nil
	}
	p := xunsafe.Cast[T](h.Pointer)
	*p = value
	return p
}

// Delete zeroes *ptr and returns its slot to the allocator. A nil ptr is a
// no-op.
func Delete[T any](ptr *T) {
	if ptr == nil {
		return
	}
	MemoryClear(xunsafe.Cast[byte](ptr), uint64(xunsafe.Size[T]()))
	Free(xunsafe.Cast[byte](ptr))
}

// BufferNew allocates a contiguous array of length zero-valued elements.
// Returns nil on exhaustion or while the system is not live.
//
// Like [New], T must be pointer-free.
func BufferNew[T any](length uint64) *T {
	assertPointerFree[T]()
	debug.Assert(length > 0 && xunsafe.Size[T]() > 0, "buffer length must be greater than 0")

	h := Allocate(length * uint64(xunsafe.Size[T]()))
	if !h.IsValid() {
		return nil
	}
	// Reclaimed arena regions carry stale free-list metadata; a fresh
	// buffer starts from the zero value of T.
	MemoryClear(h.Pointer, h.Size)
	return xunsafe.Cast[T](h.Pointer)
}

// BufferDelete zeroes a [BufferNew] array and returns it to the allocator.
func BufferDelete[T any](ptr *T, length uint64) {
	debug.Assert(ptr != nil, "buffer pointer must not be nil")
	debug.Assert(length > 0 && xunsafe.Size[T]() > 0, "buffer length must be greater than 0")

	MemoryClear(xunsafe.Cast[byte](ptr), length*uint64(xunsafe.Size[T]()))
	Free(xunsafe.Cast[byte](ptr))
}

// UnsafeNew allocates size raw bytes. The byte-granular escape hatch for
// callers that manage their own layout.
func UnsafeNew(size uint64) UnsafeHandle {
	debug.Assert(size > 0, "allocation size must be greater than 0 bytes")
	return Allocate(size)
}

// UnsafeDelete zeroes and frees an [UnsafeNew] handle.
func UnsafeDelete(handle UnsafeHandle) {
	debug.Assert(handle.Pointer != nil, "handle pointer must not be nil")
	debug.Assert(handle.Size > 0, "handle size must be greater than 0")

	MemoryClear(handle.Pointer, handle.Size)
	Free(handle.Pointer)
}

func assertPointerFree[T any]() {
	var z T
	debug.Assert(xunsafe.PointerFree[T](),
		"%T contains Go pointers and cannot live in arena memory", z)
}
