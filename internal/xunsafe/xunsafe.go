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

// Package xunsafe provides a more convenient interface for performing unsafe
// operations than Go's built-in package unsafe.
//
// The free-list allocator and every arena-backed collection are built on the
// primitives here; nothing else in the module touches package unsafe
// directly.
package xunsafe

import (
	"sync"
	"unsafe"
)

// NoCopy is a type that go vet will complain about having been moved.
//
// It does so by holding a zero-length array of [sync.Mutex], which vet's
// copylocks check treats as a lock.
type NoCopy [0]sync.Mutex

// Cast performs an unchecked pointer cast.
func Cast[To, From any](p *From) *To {
	return (*To)(unsafe.Pointer(p))
}

// Add adds the given element offset to a pointer, scaled by the size of T.
func Add[T any](p *T, n int) *T {
	return (*T)(unsafe.Add(unsafe.Pointer(p), n*Size[T]()))
}

// ByteAdd adds the given unscaled byte offset to a pointer.
func ByteAdd[T any](p *T, n int) *T {
	return (*T)(unsafe.Add(unsafe.Pointer(p), n))
}

// Load loads the nth element off of p.
func Load[T any](p *T, n int) T {
	return *Add(p, n)
}

// Store stores v as the nth element off of p.
func Store[T any](p *T, n int, v T) {
	*Add(p, n) = v
}

// Slice constructs a slice over the n elements starting at p.
//
// The return value must not outlive the region p points into.
func Slice[T any](p *T, n int) []T {
	return unsafe.Slice(p, n)
}

// Bytes constructs a byte view over the memory occupied by *p.
func Bytes[T any](p *T) []byte {
	return unsafe.Slice(Cast[byte](p), Size[T]())
}

// Copy copies n bytes from src to dst. The regions must not overlap.
func Copy(dst, src *byte, n int) {
	copy(unsafe.Slice(dst, n), unsafe.Slice(src, n))
}

// Move copies n bytes from src to dst, handling overlapping regions.
//
// Go's copy builtin lowers to memmove, so Copy and Move share a body; the
// two names keep call sites honest about their aliasing expectations.
func Move(dst, src *byte, n int) {
	copy(unsafe.Slice(dst, n), unsafe.Slice(src, n))
}

// Clear zeroes the n bytes starting at p.
func Clear(p *byte, n int) {
	clear(unsafe.Slice(p, n))
}

// Equal compares two n-byte regions for equality.
func Equal(a, b *byte, n int) bool {
	if n == 0 {
		return true
	}
	x := unsafe.Slice(a, n)
	y := unsafe.Slice(b, n)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
