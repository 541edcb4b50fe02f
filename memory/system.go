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

// Package memory implements the process-wide memory system: a single
// preallocated arena, a free-list allocator over it, and a uniform typed
// allocation API.
//
// # Design
//
// The system is process-wide state bracketed by [Initialise] and
// [Shutdown]. Every collection and every ECS buffer in this module
// allocates exclusively through it, so the used-byte counter is a complete
// leak detector: Shutdown asserts that everything was returned.
//
// Allocation failure is not fatal — it surfaces as an empty [UnsafeHandle]
// or a nil pointer, and the caller decides. Misuse (double initialise,
// double shutdown, bad alignment) is fatal. Operations issued while the
// system is not live return empty handles so teardown paths behave
// predictably.
//
// The runtime this system serves is single-threaded and cooperative; no
// operation blocks except the initial region acquisition, and nothing here
// is safe for concurrent use.
package memory

import (
	"github.com/burrow-engine/burrow/internal/debug"
	"github.com/burrow-engine/burrow/internal/xunsafe"
)

// PlatformAlignment is the default allocation alignment: the size of a
// machine pointer.
const PlatformAlignment = uint16(8)

// UnsafeHandle is the (pointer, size) pair returned by [Allocate] and
// [Reallocate]. Size is the requested size rounded up to the platform
// alignment; Pointer is nil iff the allocation failed or the system is not
// live.
type UnsafeHandle struct {
	Pointer *byte
	Size    uint64
}

// IsValid reports whether the handle refers to a live allocation.
func (h UnsafeHandle) IsValid() bool { return h.Pointer != nil }

var system struct {
	initialised bool
	arena       Arena
	allocator   FreeListAllocator
}

// Initialise acquires the arena and brings the memory system live.
// Calling it while the system is live is fatal.
func Initialise(bytes uint64) {
	debug.Assert(!system.initialised, "memory system is already initialised")

	system.arena = newArena(bytes)
	system.allocator = NewFreeListAllocator(
		system.arena.Base().AssertValid(), system.arena.Size(), PlatformAlignment, FirstFit)
	system.initialised = true
}

// Shutdown tears the memory system down and releases the arena.
//
// Calling it while the system is not live is fatal, as is shutting down
// with live allocations: every collection must have been destroyed first.
func Shutdown() {
	debug.Assert(system.initialised, "memory system is not initialised")
	debug.Assert(system.allocator.Used() == 0,
		"memory system shut down with %d bytes still allocated", system.allocator.Used())

	system.allocator = FreeListAllocator{}
	system.arena.release()
	system.initialised = false
}

// IsInitialised reports whether the system is live.
func IsInitialised() bool { return system.initialised }

// Allocate returns a handle to size bytes at the platform alignment, or an
// empty handle on exhaustion or while the system is not live.
func Allocate(size uint64) UnsafeHandle {
	return AllocateAligned(size, PlatformAlignment)
}

// AllocateAligned is [Allocate] with an explicit alignment, which must be a
// power of two.
func AllocateAligned(size uint64, alignment uint16) UnsafeHandle {
	if !system.initialised {
		return UnsafeHandle{}
	}
	debug.Assert(size > 0, "allocation size must be greater than 0 bytes")

	size = xunsafe.RoundUp(size, uint64(PlatformAlignment))
	ptr := system.allocator.Allocate(size, alignment)
	if ptr == nil {
		return UnsafeHandle{}
	}
	return UnsafeHandle{Pointer: ptr, Size: size}
}

// Reallocate moves the allocation behind handle to a new block of the given
// size, copying the overlapping prefix. On success the caller's handle is
// zeroed and must not be used again. On exhaustion the old handle is left
// intact and an empty handle is returned.
func Reallocate(handle *UnsafeHandle, size uint64) UnsafeHandle {
	return ReallocateAligned(handle, size, PlatformAlignment)
}

// ReallocateAligned is [Reallocate] with an explicit alignment.
func ReallocateAligned(handle *UnsafeHandle, size uint64, alignment uint16) UnsafeHandle {
	if !system.initialised {
		return UnsafeHandle{}
	}
	debug.Assert(handle != nil, "reallocated handle must not be nil")

	next := AllocateAligned(size, alignment)
	if !next.IsValid() {
		return UnsafeHandle{}
	}

	if handle.IsValid() {
		n := min(handle.Size, next.Size)
		xunsafe.Copy(next.Pointer, handle.Pointer, int(n))
		Free(handle.Pointer)
	}
	*handle = UnsafeHandle{}
	return next
}

// Free zeroes the allocation's user bytes and returns the block to the
// allocator. A nil pointer or a non-live system is a no-op.
//
// The zeroing is an intentional hygiene default the typed Delete helpers
// rely on; nothing leaks stale bytes back into the arena.
func Free(ptr *byte) {
	if !system.initialised || ptr == nil {
		return
	}

	fp := system.allocator.Footprint("", ptr)
	userSize := fp.Size - headerSize - uint64(fp.Padding)
	xunsafe.Clear(ptr, int(userSize))

	system.allocator.Free(ptr)
}

// MemoryCopy copies size bytes from source to destination. The regions must
// not overlap.
func MemoryCopy(destination, source *byte, size uint64) {
	xunsafe.Copy(destination, source, int(size))
}

// MemoryMove copies size bytes from source to destination, handling
// overlapping regions.
func MemoryMove(destination, source *byte, size uint64) {
	xunsafe.Move(destination, source, int(size))
}

// MemoryClear zeroes size bytes starting at block.
func MemoryClear(block *byte, size uint64) {
	xunsafe.Clear(block, int(size))
}

// UsedMemory returns the live byte count, zero while the system is not
// live.
func UsedMemory() uint64 {
	if !system.initialised {
		return 0
	}
	return system.allocator.Used()
}

// FreeMemory returns the unallocated byte count.
func FreeMemory() uint64 {
	if !system.initialised {
		return 0
	}
	return system.allocator.FreeBytes()
}

// TotalMemory returns the arena size.
func TotalMemory() uint64 {
	if !system.initialised {
		return 0
	}
	return system.allocator.Size()
}

// Allocator exposes the live allocator for diagnostics and tests.
func Allocator() *FreeListAllocator {
	debug.Assert(system.initialised, "memory system is not initialised")
	return &system.allocator
}

// CheckMemoryFootprint resolves the pointers named by callback into full
// footprints. The callback is collection-specific: it returns one
// [DebugHandle] per backing buffer the collection owns. Nil pointers yield
// zero footprints carrying only the name.
func CheckMemoryFootprint(callback func() []DebugHandle) []MemoryFootprint {
	if !system.initialised {
		return nil
	}
	debug.Assert(callback != nil, "footprint callback must not be nil")

	handles := callback()
	footprints := make([]MemoryFootprint, len(handles))
	for i, h := range handles {
		if h.Pointer == nil {
			footprints[i] = MemoryFootprint{Name: h.Name}
			continue
		}
		footprints[i] = system.allocator.Footprint(h.Name, h.Pointer)
	}
	return footprints
}
